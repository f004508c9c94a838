// Package domain defines domain-level errors for the prices feature.
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates a missing or invalid request parameter.
	ErrValidation = errors.New("invalid parameter")

	// ErrNotFound indicates that a query yielded no row where one is required,
	// e.g. no spot price recorded for a category.
	ErrNotFound = errors.New("not found")
)

// ValidationError names the parameter that failed validation.
// It matches ErrValidation with errors.Is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// StoreError wraps a failure of the underlying data store.
// The cause is kept for logging; clients only ever see a generic message.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
