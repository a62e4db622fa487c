package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure surfaced by the core carries exactly one of them.
var (
	ErrValidation = errors.New("validation error")
	ErrRemote     = errors.New("remote error")
	ErrTimeout    = errors.New("timeout error")
	ErrIO         = errors.New("io error")
)

// Specific causes
var (
	ErrInvalidFilename  = errors.New("invalid filename")
	ErrDuplicateTokenID = errors.New("duplicate token id")
	ErrNoAssets         = errors.New("no image files found")
	ErrMissingDirectory = errors.New("directory does not exist")
	ErrEmptyFile        = errors.New("file is empty")
)

// Error is a classified failure. Kind is one of the Err* kind sentinels above.
type Error struct {
	Kind error
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Path != "" {
		msg += fmt.Sprintf(" %q", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Validation builds a validation failure
func Validation(op, path string, err error) error {
	return &Error{Kind: ErrValidation, Op: op, Path: path, Err: err}
}

// Remote builds a failure reported by the pinning service
func Remote(op, path string, err error) error {
	return &Error{Kind: ErrRemote, Op: op, Path: path, Err: err}
}

// Timeout builds a per-attempt timeout failure
func Timeout(op, path string, err error) error {
	return &Error{Kind: ErrTimeout, Op: op, Path: path, Err: err}
}

// IO builds a local filesystem failure
func IO(op, path string, err error) error {
	return &Error{Kind: ErrIO, Op: op, Path: path, Err: err}
}

// IsRetryable reports whether err is worth another upload attempt.
// Only remote and timeout failures qualify; local failures are assumed permanent.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRemote) || errors.Is(err, ErrTimeout)
}
