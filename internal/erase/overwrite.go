package erase

import (
	"context"
	"fmt"
	"io"
	"os"
)

// PassWriter writes one overwrite pass over a whole file and returns the
// number of bytes written.
type PassWriter interface {
	WritePass(ctx context.Context, path string, kind PatternKind) (int64, error)
}

// Overwriter streams a pattern across the full length of a file in constant
// size chunks. The file is never truncated or extended.
type Overwriter struct {
	chunkSize    int
	maxSpeedMBps float64
	pool         *BufferPool
}

func NewOverwriter(chunkSize int, maxSpeedMBps float64, pool *BufferPool) *Overwriter {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if pool == nil {
		pool = NewBufferPool()
	}
	return &Overwriter{
		chunkSize:    chunkSize,
		maxSpeedMBps: maxSpeedMBps,
		pool:         pool,
	}
}

const defaultChunkSize = 64 * 1024

func (o *Overwriter) WritePass(ctx context.Context, path string, kind PatternKind) (written int64, err error) {
	file, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return 0, ioFailure(err, "open %s for overwrite", path)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = ioFailure(closeErr, "close %s", path)
		}
	}()

	info, err := file.Stat()
	if err != nil {
		return 0, ioFailure(err, "stat %s", path)
	}
	size := info.Size()
	if size == 0 {
		return 0, nil
	}

	buf := o.pool.Get(o.chunkSize)
	defer o.pool.Put(buf)

	var w io.Writer = file
	if o.maxSpeedMBps > 0 {
		w = NewThrottledWriter(file, o.maxSpeedMBps)
	}

	for written < size {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		chunk := buf
		if remaining := size - written; remaining < int64(len(chunk)) {
			chunk = chunk[:remaining]
		}

		if err := FillPattern(kind, chunk); err != nil {
			return written, cryptoFailure(err, "fill %s pattern", kind)
		}

		n, err := w.Write(chunk)
		written += int64(n)
		if err != nil {
			return written, ioFailure(err, "write %s at offset %d", path, written)
		}
		if n != len(chunk) {
			return written, ioFailure(io.ErrShortWrite, "write %s at offset %d", path, written)
		}
	}

	if err := syncData(file); err != nil {
		return written, ioFailure(err, "sync %s", path)
	}

	return written, nil
}

// VerifyPass re-reads the file and checks it still has size bytes and, for
// deterministic patterns, that every byte equals the pattern.
func (o *Overwriter) VerifyPass(ctx context.Context, path string, kind PatternKind, size int64) error {
	file, err := os.Open(path)
	if err != nil {
		return ioFailure(err, "open %s for verification", path)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return ioFailure(err, "stat %s", path)
	}
	if info.Size() != size {
		return ioFailure(fmt.Errorf("size changed from %d to %d", size, info.Size()), "verify %s", path)
	}
	if kind == Random {
		return nil
	}

	var want byte
	if kind == One {
		want = 0xFF
	}

	buf := o.pool.Get(o.chunkSize)
	defer o.pool.Put(buf)

	var offset int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := file.Read(buf)
		for i := 0; i < n; i++ {
			if buf[i] != want {
				return ioFailure(fmt.Errorf("byte %d is 0x%02x, want 0x%02x", offset+int64(i), buf[i], want), "verify %s", path)
			}
		}
		offset += int64(n)

		if err == io.EOF {
			return nil
		}
		if err != nil {
			return ioFailure(err, "read %s", path)
		}
	}
}
