package erase

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"trashshred/internal/logging"
)

type passCall struct {
	path    string
	kind    PatternKind
	written int64
	content []byte
}

// recordingWriter wraps the real overwriter, snapshots the file after every
// pass and tracks concurrent writes.
type recordingWriter struct {
	inner *Overwriter

	mu        sync.Mutex
	calls     []passCall
	perFile   map[string]int
	active    int
	maxActive int
	overlap   bool
}

func newRecordingWriter() *recordingWriter {
	return &recordingWriter{
		inner:   NewOverwriter(4096, 0, nil),
		perFile: make(map[string]int),
	}
}

func (r *recordingWriter) WritePass(ctx context.Context, path string, kind PatternKind) (int64, error) {
	r.mu.Lock()
	r.perFile[path]++
	if r.perFile[path] > 1 {
		r.overlap = true
	}
	r.active++
	if r.active > r.maxActive {
		r.maxActive = r.active
	}
	r.mu.Unlock()

	n, err := r.inner.WritePass(ctx, path, kind)
	content, _ := os.ReadFile(path)

	r.mu.Lock()
	r.perFile[path]--
	r.active--
	r.calls = append(r.calls, passCall{path: path, kind: kind, written: n, content: content})
	r.mu.Unlock()

	return n, err
}

func (r *recordingWriter) callsFor(path string) []passCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []passCall
	for _, c := range r.calls {
		if c.path == path {
			out = append(out, c)
		}
	}
	return out
}

func testLogger(t *testing.T) *logging.EnterpriseLogger {
	return logging.New(zaptest.NewLogger(t))
}

func TestJobDoD7RunsSevenSequentialFullPasses(t *testing.T) {
	dir := t.TempDir()
	path, _ := writeRandomFile(t, dir, "report.pdf", 10000)

	engine := NewEraseEngine(Options{Protocol: DoD7}, testLogger(t))
	rec := newRecordingWriter()
	engine.SetPassWriter(rec)

	job := NewJob(path, engine.Options(), testLogger(t))
	assert.Equal(t, PhasePending, job.Phase())

	result := job.Run(context.Background(), engine)
	require.NoError(t, result.Err)
	assert.Equal(t, PhaseCompleted, result.Phase)
	assert.Equal(t, PhaseCompleted, job.Phase())
	assert.Equal(t, 6, job.Pass())
	assert.Equal(t, 7, result.Passes)
	assert.Equal(t, int64(7*10000), result.Bytes)

	calls := rec.callsFor(path)
	require.Len(t, calls, 7)
	want := []PatternKind{Zero, One, Zero, One, Zero, One, Random}
	for i, c := range calls {
		assert.Equal(t, want[i], c.kind, "pass %d", i)
		assert.Equal(t, int64(10000), c.written)
		require.Len(t, c.content, 10000)
		switch c.kind {
		case Zero:
			assert.Equal(t, bytes.Repeat([]byte{0x00}, 10000), c.content)
		case One:
			assert.Equal(t, bytes.Repeat([]byte{0xFF}, 10000), c.content)
		}
	}
	assert.False(t, rec.overlap)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "renamed file must not be left behind")
}

func TestJobNoneDeletesWithoutOverwrite(t *testing.T) {
	path, _ := writeRandomFile(t, t.TempDir(), "a.txt", 777)

	engine := NewEraseEngine(Options{Protocol: None}, testLogger(t))
	rec := newRecordingWriter()
	engine.SetPassWriter(rec)

	result := NewJob(path, engine.Options(), nil).Run(context.Background(), engine)
	require.NoError(t, result.Err)
	assert.Equal(t, PhaseCompleted, result.Phase)
	assert.Zero(t, result.Passes)
	assert.Empty(t, rec.callsFor(path))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestJobEncryptWithNoneLeavesNoKeyMaterial(t *testing.T) {
	path, _ := writeRandomFile(t, t.TempDir(), "a.txt", 4097)

	engine := NewEraseEngine(Options{Protocol: None, Encrypt: true}, testLogger(t))
	reader := &recordingReader{src: bytes.NewReader(bytes.Repeat([]byte{0xC3}, keySize+16))}
	engine.encryptor.random = reader

	job := NewJob(path, engine.Options(), nil)
	result := job.Run(context.Background(), engine)
	require.NoError(t, result.Err)
	assert.Equal(t, PhaseCompleted, result.Phase)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	require.Len(t, reader.handed, 2)
	for _, buf := range reader.handed {
		assert.Equal(t, make([]byte, len(buf)), buf)
	}
}

func TestJobFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "vanished.bin")
	engine := NewEraseEngine(Options{Protocol: Zeros}, testLogger(t))

	job := NewJob(missing, engine.Options(), nil)
	result := job.Run(context.Background(), engine)

	assert.Equal(t, PhaseFailed, result.Phase)
	assert.Equal(t, PhaseFailed, job.Phase())
	require.Error(t, result.Err)
	assert.Equal(t, job.Err(), result.Err)
	assert.Contains(t, result.Reason(), "IoFailure")
	assert.Contains(t, result.Reason(), missing)
	assert.Contains(t, result.Reason(), "pass 0")
}

func TestJobFailsOnMissingFileEvenWithoutPasses(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "vanished.bin")
	engine := NewEraseEngine(Options{Protocol: None}, nil)

	result := NewJob(missing, engine.Options(), nil).Run(context.Background(), engine)
	assert.Equal(t, PhaseFailed, result.Phase)
	assert.Equal(t, "IoFailure", FailureKind(result.Err))
}

func TestJobRunIsOneShot(t *testing.T) {
	path, _ := writeRandomFile(t, t.TempDir(), "a.txt", 10)
	engine := NewEraseEngine(Options{Protocol: Ones}, nil)
	job := NewJob(path, engine.Options(), nil)

	first := job.Run(context.Background(), engine)
	second := job.Run(context.Background(), engine)
	assert.Equal(t, PhaseCompleted, first.Phase)
	assert.Equal(t, PhaseCompleted, second.Phase)
	assert.Zero(t, second.Passes)
}

func TestJobVerifyEveryPass(t *testing.T) {
	path, _ := writeRandomFile(t, t.TempDir(), "a.txt", 3000)
	engine := NewEraseEngine(Options{Protocol: Gutmann35, Verify: true, ChunkSize: 1024}, testLogger(t))

	result := NewJob(path, engine.Options(), nil).Run(context.Background(), engine)
	require.NoError(t, result.Err)
	assert.Equal(t, 35, result.Passes)
}

func TestRandomName(t *testing.T) {
	name, err := randomName(12)
	require.NoError(t, err)
	assert.Len(t, name, 12)
	for _, c := range name {
		assert.Contains(t, nameAlphabet, string(c))
	}
}
