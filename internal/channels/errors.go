package channels

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidHandle indicates an empty channel handle after normalisation.
	ErrInvalidHandle = errors.New("channel handle is required")
	// ErrChannelNotFound indicates no account owns the requested handle.
	ErrChannelNotFound = errors.New("channel does not exist")
	// ErrUnauthorized indicates the viewer is absent or no longer resolves to an account.
	ErrUnauthorized = errors.New("viewer is not authenticated")
	// ErrStoreUnavailable marks infrastructure failures raised by a backing store.
	ErrStoreUnavailable = errors.New("channel store unavailable")
)

// StoreError wraps a failed store call. It matches both ErrStoreUnavailable and
// the underlying error under errors.Is.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return []error{ErrStoreUnavailable, e.Err}
}

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
