package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error categories shared by ports, services and handlers.
// Match with errors.Is; concrete errors wrap one of these.
var (
	ErrRemoteUnavailable = errors.New("remote unavailable")
	ErrNotFound          = errors.New("not found")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrValidation        = errors.New("validation failed")
	ErrUnknown           = errors.New("unknown remote failure")
)

// StoreError is a categorized failure of a document store operation.
type StoreError struct {
	Op         string
	Collection string
	ID         string
	Kind       error
	Err        error
}

func (e *StoreError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Collection != "" {
		b.WriteString(" ")
		b.WriteString(e.Collection)
		if e.ID != "" {
			b.WriteString("/")
			b.WriteString(e.ID)
		}
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *StoreError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func NewStoreError(op, collection, id string, kind, err error) *StoreError {
	if kind == nil {
		kind = ErrUnknown
	}
	return &StoreError{Op: op, Collection: collection, ID: id, Kind: kind, Err: err}
}

// ValidationError rejects malformed input to a mutating operation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Reason)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
