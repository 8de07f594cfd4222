package depot

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned when a required parameter is missing or malformed
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound is returned when no metadata record exists for a file id
	ErrNotFound = errors.New("not found")
	// ErrBackendUnavailable is returned when a store call fails
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrPermissionDenied is returned when a store rejects the caller's credentials
	ErrPermissionDenied = errors.New("permission denied")
	// ErrUnexpected is returned for faults that fall outside the taxonomy above
	ErrUnexpected = errors.New("unexpected error")
)

// StoreError is a failed backend call tagged with its failure kind.
// Kind is one of ErrBackendUnavailable or ErrPermissionDenied.
type StoreError struct {
	Op   string
	Kind error
	Err  error
}

// NewStoreError wraps err as a failure of kind for the named operation.
func NewStoreError(op string, kind, err error) *StoreError {
	return &StoreError{Op: op, Kind: kind, Err: err}
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
