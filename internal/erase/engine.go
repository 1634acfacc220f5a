package erase

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"trashshred/internal/logging"
)

// PassVerifier re-checks a file after a pass.
type PassVerifier interface {
	VerifyPass(ctx context.Context, path string, kind PatternKind, size int64) error
}

// EraseEngine runs one erasure job per file concurrently.
type EraseEngine struct {
	opts      Options
	logger    *logging.EnterpriseLogger
	writer    PassWriter
	verifier  PassVerifier
	encryptor *Encryptor
}

// NewEraseEngine creates an engine for the given run options.
func NewEraseEngine(opts Options, logger *logging.EnterpriseLogger) *EraseEngine {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = defaultChunkSize
	}

	pool := NewBufferPool()
	overwriter := NewOverwriter(opts.ChunkSize, opts.MaxSpeedMBps, pool)

	return &EraseEngine{
		opts:      opts,
		logger:    logger,
		writer:    overwriter,
		verifier:  overwriter,
		encryptor: NewEncryptor(opts.ChunkSize, pool),
	}
}

// SetPassWriter replaces the overwrite executor. If w also implements
// PassVerifier it is used for verification.
func (e *EraseEngine) SetPassWriter(w PassWriter) {
	e.writer = w
	if v, ok := w.(PassVerifier); ok {
		e.verifier = v
	}
}

func (e *EraseEngine) Options() Options {
	return e.opts
}

// Run erases every path and returns once all jobs reached Completed or Failed.
// A failed file never stops the others; failures are only reported in the
// summary. Results keep the order of paths.
func (e *EraseEngine) Run(ctx context.Context, paths []string, progress *Progress) *Summary {
	summary := &Summary{
		Results:   make([]Result, len(paths)),
		Total:     len(paths),
		StartTime: time.Now(),
	}
	if progress == nil {
		progress = NewProgress(len(paths), nil)
	}

	e.logger.Log("INFO", "Starting erasure",
		"files", len(paths),
		"protocol", e.opts.Protocol.String(),
		"passes", e.opts.Protocol.PassCount(),
		"encrypt", e.opts.Encrypt,
		"max_concurrent", e.opts.MaxConcurrent)

	// plain Group: a failing job must not cancel its siblings
	var g errgroup.Group
	if e.opts.MaxConcurrent > 0 {
		g.SetLimit(e.opts.MaxConcurrent)
	}

	for i, path := range paths {
		g.Go(func() error {
			job := NewJob(path, e.opts, e.logger)
			result := job.Run(ctx, e)
			summary.Results[i] = result

			if result.Phase == PhaseFailed {
				e.logger.Log("WARN", "File erasure failed", "file", path, "reason", result.Reason())
			} else {
				e.logger.Log("DEBUG", "File erased", "file", path, "bytes", result.Bytes, "passes", result.Passes)
			}

			progress.MarkDone()
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range summary.Results {
		if r.Phase == PhaseCompleted {
			summary.Completed++
		} else {
			summary.Failed++
		}
	}
	summary.Elapsed = time.Since(summary.StartTime)

	e.logger.Log("INFO", "Erasure finished",
		"completed", summary.Completed,
		"failed", summary.Failed,
		"total", summary.Total,
		"elapsed", summary.Elapsed.String())

	return summary
}
