package cache

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is wrapped by every InitError
	ErrNotInitialized = errors.New("not initialized")

	// ErrValidation is wrapped by every ValidationError
	ErrValidation = errors.New("validation failed")
)

// InitError reports an operation invoked before its dependency was set
type InitError struct {
	Dependency string
}

func (e *InitError) Error() string {
	return fmt.Sprintf("%s not set on this cache adapter", e.Dependency)
}

func (e *InitError) Unwrap() error {
	return ErrNotInitialized
}

// ValidationError reports a record or argument missing a required field
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid '%s': %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("expecting a '%s' item", e.Field)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
