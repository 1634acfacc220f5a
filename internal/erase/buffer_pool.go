package erase

import (
	"sync"
)

// BufferPool hands out chunk buffers grouped by power-of-two capacity. A
// buffer is owned exclusively by the caller between Get and Put, and is zeroed
// before it goes back so no plaintext lingers in pooled memory.
type BufferPool struct {
	pools map[int]*sync.Pool
	mu    sync.RWMutex
}

func NewBufferPool() *BufferPool {
	return &BufferPool{pools: make(map[int]*sync.Pool)}
}

// Get returns a buffer of exactly size bytes.
func (bp *BufferPool) Get(size int) []byte {
	if size <= 0 {
		return nil
	}

	poolSize := bp.poolSize(size)

	bp.mu.RLock()
	pool, exists := bp.pools[poolSize]
	bp.mu.RUnlock()

	if !exists {
		bp.mu.Lock()
		// Double-check
		pool, exists = bp.pools[poolSize]
		if !exists {
			pool = &sync.Pool{
				New: func() interface{} {
					return make([]byte, poolSize)
				},
			}
			bp.pools[poolSize] = pool
		}
		bp.mu.Unlock()
	}

	buf := pool.Get().([]byte)
	return buf[:size]
}

// Put zeroes buf and returns it to its pool.
func (bp *BufferPool) Put(buf []byte) {
	if cap(buf) == 0 {
		return
	}

	full := buf[:cap(buf)]
	SecureZero(full)

	bp.mu.RLock()
	pool, exists := bp.pools[cap(buf)]
	bp.mu.RUnlock()

	if exists {
		pool.Put(full)
	}
}

func (bp *BufferPool) poolSize(size int) int {
	sizes := []int{4096, 16384, 65536, 262144, 1048576, 4194304, 16777216}

	for _, poolSize := range sizes {
		if size <= poolSize {
			return poolSize
		}
	}

	// round up to 4KB above the largest class
	return ((size + 4095) / 4096) * 4096
}

// SecureZero overwrites b with zeros.
func SecureZero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
