package types

import (
	"errors"
	"fmt"
)

// ErrValidation is the parent of every input validation error. Callers that
// only care about "bad input" can test errors.Is(err, ErrValidation).
var ErrValidation = errors.New("validation failed")

// Input validation errors.
var (
	ErrInvalidName      = fmt.Errorf("%w: group name must not be empty", ErrValidation)
	ErrInvalidGroupType = fmt.Errorf("%w: group type must be %q or %q", ErrValidation, GroupTypeFolder, GroupTypeAlbum)
	ErrMixedSiblings    = fmt.Errorf("%w: groups do not share one parent", ErrValidation)
)

// Structural errors raised by moves, adds, and navigation.
var (
	ErrSelfParent        = errors.New("a group cannot become its own parent")
	ErrCyclicMove        = errors.New("a group cannot be moved under its own descendant")
	ErrInvalidParentType = errors.New("only folders may hold sub-groups")
	ErrNotFound          = errors.New("group not found")
	ErrCycleDetected     = errors.New("parent chain contains a cycle")
	ErrNotChildOfCurrent = errors.New("group is not a child of the current breadcrumb")
)

// ErrPersistence matches any *PersistenceError via errors.Is.
var ErrPersistence = errors.New("persistence failure")

// PersistenceError wraps an opaque failure reported by a GroupStore. The
// wrapped error is not interpreted further.
type PersistenceError struct {
	Op  string // store operation that failed, e.g. "update group parent"
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrPersistence) match.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// WrapPersistence turns a store error into a *PersistenceError. ErrNotFound
// and errors that are already persistence errors pass through unchanged.
func WrapPersistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrPersistence) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
