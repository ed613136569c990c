package core

import (
	"errors"
	"fmt"
)

// Business outcomes. They travel in Outcome.Err and are never returned as the
// error value of an operation.
var (
	ErrAlreadyExists = errors.New("board already exists")
	ErrReservedName  = errors.New("reserved board name")
	ErrNotFound      = errors.New("board not found")
	ErrAlreadyMember = errors.New("participant already on board")
	ErrNotMember     = errors.New("participant not on board")
	ErrInvalidName   = errors.New("invalid name")
)

// ErrStoreIO matches any StoreError via errors.Is.
var ErrStoreIO = errors.New("store i/o error")

// StoreError wraps a failure of the underlying store. It is propagated to the
// caller unmodified; the engine never retries.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is reports ErrStoreIO as a match so callers need not know the concrete type.
func (e *StoreError) Is(target error) bool { return target == ErrStoreIO }

// WrapStore returns nil for a nil err, otherwise a *StoreError.
func WrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
