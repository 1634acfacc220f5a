package erase

import (
	"context"

	cerr "github.com/cockroachdb/errors"
)

// Failure kinds. Every job error is marked with one of them.
var (
	ErrIO     = cerr.New("io failure")
	ErrCrypto = cerr.New("crypto failure")
)

func ioFailure(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return cerr.Mark(cerr.Wrapf(err, format, args...), ErrIO)
}

func cryptoFailure(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return cerr.Mark(cerr.Wrapf(err, format, args...), ErrCrypto)
}

// FailureKind classifies a job error for reports.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case cerr.Is(err, context.Canceled), cerr.Is(err, context.DeadlineExceeded):
		return "Canceled"
	case cerr.Is(err, ErrCrypto):
		return "CryptoFailure"
	case cerr.Is(err, ErrIO):
		return "IoFailure"
	default:
		return "IoFailure"
	}
}
