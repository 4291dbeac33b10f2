package booking

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError rejects a request whose input is missing or invalid
// (dates, pet selection, ownership, quoted price).
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// CapacityExceededError rejects a stay that touches blocked dates, either
// because the facility is full or because the user already boards pets on
// those days.
type CapacityExceededError struct {
	Days []time.Time
}

func (e *CapacityExceededError) Error() string {
	return "dates not available: " + strings.Join(FormatDates(e.Days), ", ")
}

// StorageError wraps a persistence failure.  Nothing of the failed write
// is left behind.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *StorageError) Unwrap() error { return e.Err }
