package entity

import (
	"errors"
	"fmt"
)

var (
	ErrInvalid            = errors.New("invalid entity")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrNotConfigured      = errors.New("backend not configured")
)

// ValidationError names the offending input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

// BackendError reports a storage tier that could not serve an operation.
type BackendError struct {
	Backend string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s backend: %v", e.Backend, e.Err)
}

func (e *BackendError) Unwrap() []error { return []error{ErrBackendUnavailable, e.Err} }
