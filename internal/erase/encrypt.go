package erase

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"io"
	"os"
)

const keySize = 32 // AES-256

// Encryptor scrambles a file in place with a key that exists only for the
// duration of one call.
type Encryptor struct {
	chunkSize int
	pool      *BufferPool
	random    io.Reader
}

func NewEncryptor(chunkSize int, pool *BufferPool) *Encryptor {
	chunkSize -= chunkSize % aes.BlockSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if pool == nil {
		pool = NewBufferPool()
	}
	return &Encryptor{
		chunkSize: chunkSize,
		pool:      pool,
		random:    rand.Reader,
	}
}

// EncryptInPlace replaces the file content with AES-256-CBC ciphertext of the
// same length under a fresh random key and IV. Whole blocks use CBC; a trailing
// partial block is XORed with the encryption of the last ciphertext block.
// The key, IV and chaining buffers are zeroed before returning and are never
// logged; the cipher's internal copies are left to the garbage collector.
func (e *Encryptor) EncryptInPlace(ctx context.Context, path string) (processed int64, err error) {
	key := make([]byte, keySize)
	iv := make([]byte, aes.BlockSize)
	chain := make([]byte, aes.BlockSize)
	keystream := make([]byte, aes.BlockSize)
	defer func() {
		SecureZero(key)
		SecureZero(iv)
		SecureZero(chain)
		SecureZero(keystream)
	}()

	if _, err := io.ReadFull(e.random, key); err != nil {
		return 0, cryptoFailure(err, "generate key")
	}
	if _, err := io.ReadFull(e.random, iv); err != nil {
		return 0, cryptoFailure(err, "generate iv")
	}

	// the expanded key schedule lives in block and becomes unreachable on return
	block, err := aes.NewCipher(key)
	if err != nil {
		return 0, cryptoFailure(err, "create cipher")
	}
	SecureZero(key)

	mode := cipher.NewCBCEncrypter(block, iv)
	copy(chain, iv)

	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return 0, ioFailure(err, "open %s for encryption", path)
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

	buf := e.pool.Get(e.chunkSize)
	defer e.pool.Put(buf)

	for processed < size {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		chunk := buf
		if remaining := size - processed; remaining < int64(len(chunk)) {
			chunk = chunk[:remaining]
		}

		n, err := file.ReadAt(chunk, processed)
		if n < len(chunk) {
			if err == nil || err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return processed, ioFailure(err, "read %s at offset %d", path, processed)
		}

		full := len(chunk) - len(chunk)%aes.BlockSize
		if full > 0 {
			mode.CryptBlocks(chunk[:full], chunk[:full])
			copy(chain, chunk[full-aes.BlockSize:full])
		}
		if tail := chunk[full:]; len(tail) > 0 {
			block.Encrypt(keystream, chain)
			for i := range tail {
				tail[i] ^= keystream[i]
			}
		}

		w, err := file.WriteAt(chunk, processed)
		if err != nil {
			return processed, ioFailure(err, "write %s at offset %d", path, processed)
		}
		if w != len(chunk) {
			return processed, ioFailure(io.ErrShortWrite, "write %s at offset %d", path, processed)
		}
		processed += int64(len(chunk))
	}

	if err := syncData(file); err != nil {
		return processed, ioFailure(err, "sync %s", path)
	}

	return processed, nil
}
