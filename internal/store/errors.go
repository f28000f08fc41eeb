package store

import "errors"

// Sentinel errors shared by the store contracts and the assignment engine.
// Callers match them with errors.Is.
var (
	// ErrNotFound means the referenced entry or table does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition means a compare-and-set on an entry's status
	// found a different current status. Background sweeps treat this as a
	// benign no-op; interactive callers surface it.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrConflict means a table could not be occupied because it is not
	// currently available.
	ErrConflict = errors.New("table not available")

	// ErrInvalidState means a table could not be released because it is not
	// currently occupied.
	ErrInvalidState = errors.New("table not occupied")

	// ErrValidation means the input was rejected before any mutation.
	ErrValidation = errors.New("validation failed")
)
