package erase

import (
	"time"
)

// Protocol selects the overwrite sequence applied to every file of a run.
type Protocol int

const (
	RandomSingle Protocol = iota
	Zeros
	Ones
	DoD7
	Gutmann35
	None
)

// PatternKind is the byte pattern written by one pass.
type PatternKind int

const (
	Zero PatternKind = iota
	One
	Random
)

func (k PatternKind) String() string {
	switch k {
	case Zero:
		return "zero"
	case One:
		return "one"
	case Random:
		return "random"
	default:
		return "unknown"
	}
}

// Pass is one step of a protocol.
type Pass struct {
	Index int
	Kind  PatternKind
}

// Phase is the lifecycle state of an erasure job.
type Phase string

const (
	PhasePending     Phase = "PENDING"
	PhaseEncrypting  Phase = "ENCRYPTING"
	PhaseOverwriting Phase = "OVERWRITING"
	PhaseDeleting    Phase = "DELETING"
	PhaseCompleted   Phase = "COMPLETED"
	PhaseFailed      Phase = "FAILED"
)

// Terminal reports whether no further transitions are possible.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed
}

// Options are fixed for the whole run.
type Options struct {
	Protocol      Protocol
	Encrypt       bool
	Verify        bool
	ChunkSize     int
	MaxConcurrent int     // 0 = one goroutine per file
	MaxSpeedMBps  float64 // 0 = unthrottled
}

// Result is the terminal status of one file.
type Result struct {
	Path     string
	Phase    Phase
	Err      error
	Bytes    int64
	Passes   int
	Duration time.Duration
}

// Reason describes a failed result as "<kind>: <error>".
func (r Result) Reason() string {
	if r.Err == nil {
		return ""
	}
	return FailureKind(r.Err) + ": " + r.Err.Error()
}

// Summary aggregates a run.
type Summary struct {
	Results   []Result
	Completed int
	Failed    int
	Total     int
	StartTime time.Time
	Elapsed   time.Duration
}

// Failures returns the failed results in input order.
func (s *Summary) Failures() []Result {
	var failed []Result
	for _, r := range s.Results {
		if r.Phase == PhaseFailed {
			failed = append(failed, r)
		}
	}
	return failed
}
