package erase

import (
	"context"
	"crypto/rand"
	"os"
	"path/filepath"
	"time"

	cerr "github.com/cockroachdb/errors"

	"trashshred/internal/logging"
)

// Job erases a single file. It is owned by the goroutine running it.
type Job struct {
	Path     string
	Protocol Protocol
	Encrypt  bool
	Verify   bool

	phase  Phase
	pass   int
	err    error
	logger *logging.EnterpriseLogger
}

func NewJob(path string, opts Options, logger *logging.EnterpriseLogger) *Job {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Job{
		Path:     path,
		Protocol: opts.Protocol,
		Encrypt:  opts.Encrypt,
		Verify:   opts.Verify,
		phase:    PhasePending,
		pass:     -1,
		logger:   logger,
	}
}

func (j *Job) Phase() Phase {
	return j.phase
}

// Pass returns the index of the pass in progress or last finished, -1 before
// the first pass.
func (j *Job) Pass() int {
	return j.pass
}

func (j *Job) Err() error {
	return j.err
}

func (j *Job) transition(to Phase) {
	if j.phase.Terminal() {
		return
	}
	j.logger.Log("DEBUG", "Job phase change", "file", j.Path, "from", j.phase, "to", to)
	j.phase = to
}

func (j *Job) fail(err error) {
	j.err = err
	j.transition(PhaseFailed)
}

// Run drives the job from Pending to Completed or Failed:
// [Encrypting] -> Overwriting(0..n-1) -> Deleting -> Completed.
func (j *Job) Run(ctx context.Context, e *EraseEngine) (result Result) {
	start := time.Now()
	result.Path = j.Path

	defer func() {
		result.Phase = j.phase
		result.Err = j.err
		result.Duration = time.Since(start)
	}()

	if j.phase != PhasePending {
		return result
	}

	if j.Encrypt {
		j.transition(PhaseEncrypting)
		if err := ctx.Err(); err != nil {
			j.fail(err)
			return result
		}
		if _, err := e.encryptor.EncryptInPlace(ctx, j.Path); err != nil {
			j.fail(err)
			return result
		}
	}

	j.transition(PhaseOverwriting)
	for _, pass := range Passes(j.Protocol) {
		if err := ctx.Err(); err != nil {
			j.fail(err)
			return result
		}

		j.pass = pass.Index
		n, err := e.writer.WritePass(ctx, j.Path, pass.Kind)
		if err != nil {
			j.fail(wrapPass(err, pass))
			return result
		}
		result.Bytes += n
		result.Passes++

		if j.Verify && e.verifier != nil {
			if err := e.verifier.VerifyPass(ctx, j.Path, pass.Kind, n); err != nil {
				j.fail(wrapPass(err, pass))
				return result
			}
		}
	}

	j.transition(PhaseDeleting)
	if err := ctx.Err(); err != nil {
		j.fail(err)
		return result
	}
	if err := removeFile(j.Path); err != nil {
		j.fail(err)
		return result
	}

	j.transition(PhaseCompleted)
	return result
}

func wrapPass(err error, pass Pass) error {
	return cerr.Wrapf(err, "pass %d (%s)", pass.Index, pass.Kind)
}

const nameAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// removeFile renames the file to a random name of the same length before
// unlinking it, so the original name does not survive in the directory entry.
func removeFile(path string) error {
	target := path
	if name, err := randomName(len(filepath.Base(path))); err == nil {
		renamed := filepath.Join(filepath.Dir(path), name)
		if _, statErr := os.Lstat(renamed); os.IsNotExist(statErr) {
			if err := os.Rename(path, renamed); err == nil {
				target = renamed
			}
		}
	}

	if err := os.Remove(target); err != nil {
		return ioFailure(err, "remove %s", path)
	}
	return nil
}

func randomName(n int) (string, error) {
	if n <= 0 {
		n = 1
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = nameAlphabet[int(b[i])%len(nameAlphabet)]
	}
	return string(b), nil
}
