package model

import (
	"errors"
	"fmt"
)

// ErrValidation is the kind of every input rejected at the domain boundary.
var ErrValidation = errors.New("validation failed")

// ValidationError describes malformed Priority or Action input.
type ValidationError struct {
	Op     string // operation that rejected the input
	Field  string // offending field
	ID     string // id of the offending record, when known
	Reason string
}

func (e *ValidationError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s: %s %q: %s", e.Op, e.Field, e.ID, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Field, e.Reason)
}

// Unwrap lets callers match with errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error { return ErrValidation }
