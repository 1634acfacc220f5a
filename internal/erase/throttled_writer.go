package erase

import (
	"io"
	"time"
)

// ThrottledWriter caps the write rate of a single job. It is not shared
// between jobs, so it needs no locking.
type ThrottledWriter struct {
	w            io.Writer
	maxSpeedMBps float64
	lastWrite    time.Time
}

func NewThrottledWriter(w io.Writer, maxSpeedMBps float64) *ThrottledWriter {
	return &ThrottledWriter{
		w:            w,
		maxSpeedMBps: maxSpeedMBps,
		lastWrite:    time.Now(),
	}
}

// Write sleeps long enough that len(data) bytes fit the configured rate.
func (tw *ThrottledWriter) Write(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}

	if tw.maxSpeedMBps > 0 {
		bytesPerSec := tw.maxSpeedMBps * 1024 * 1024
		expected := time.Duration(float64(len(data)) / bytesPerSec * float64(time.Second))
		actual := time.Since(tw.lastWrite)
		if actual < expected {
			time.Sleep(expected - actual)
		}
	}

	n, err := tw.w.Write(data)
	tw.lastWrite = time.Now()
	return n, err
}
