package event

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrMissingEventType is returned for events without a type
	ErrMissingEventType = errors.New("event_type must be provided")
	// ErrMissingIdentity is returned if neither user_id nor device_id is set
	ErrMissingIdentity = errors.New("user_id or device_id must be provided")
	// ErrNotAnObject is returned if raw event data is not a JSON object
	ErrNotAnObject = errors.New("event must be a JSON object")
)

// ValidationError is returned when an event cannot be submitted. Index is the
// position of the event within a batch, or -1 for a single event.
type ValidationError struct {
	Index int
	Err   error
}

func newValidationError(err error) *ValidationError {
	return &ValidationError{Index: -1, Err: err}
}

func (v *ValidationError) Error() string {
	if v.Index >= 0 {
		return fmt.Sprintf("invalid event at index %d: %v", v.Index, v.Err)
	}

	return fmt.Sprintf("invalid event: %v", v.Err)
}

func (v *ValidationError) Unwrap() error {
	return v.Err
}

func (v *ValidationError) Cause() error {
	return v.Err
}

// AtIndex returns a copy of the error that points at position i of a batch.
func (v *ValidationError) AtIndex(i int) *ValidationError {
	return &ValidationError{Index: i, Err: v.Err}
}
