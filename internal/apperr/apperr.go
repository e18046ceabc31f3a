package apperr

import (
	"errors"
	"fmt"
)

// ErrConflict marks a concurrent-upsert race on a single ledger key. The
// service layer retries the upsert once before giving up on it.
var ErrConflict = errors.New("ledger conflict")

// ErrNotFound marks a lookup for an entity that does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError reports malformed or missing input. It is reported to the
// caller immediately and never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validation builds a ValidationError from a format string.
func Validation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// TransientError wraps a storage failure the caller may retry: a timeout, a
// lost connection, or a ledger conflict that persisted through the retry.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient storage failure: " + e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as a TransientError. Returns nil for a nil err.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
