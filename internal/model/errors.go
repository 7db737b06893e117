package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors shared by the store, ledger and handlers.
var (
	ErrValidation         = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrStorage            = errors.New("storage error")
	ErrTransaction        = errors.New("transaction failed")
)

// ValidationError describes bad or missing form input, keyed by field.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", k, e.Fields[k]))
	}
	return "invalid input: " + strings.Join(parts, ", ")
}

// Is makes errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
