package domain

import (
	"context"
	"errors"
	"fmt"
)

// Error types for domain-specific errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeLoad       ErrorType = "load"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeState      ErrorType = "state"
	ErrorTypeInternal   ErrorType = "internal"
)

var (
	// ErrCancelled is returned by every stage once the run context is done.
	ErrCancelled = errors.New("processing cancelled")

	// ErrLayoutChanged tells the runner that the page list of an image changed
	// and the image has to be scheduled again.
	ErrLayoutChanged = errors.New("page layout of image changed")

	// ErrNotFound is returned by lookups that have no record.
	ErrNotFound = errors.New("not found")
)

// DomainError represents a domain-specific error with context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewError creates a new domain error
func NewError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func ValidationError(message string, err error) *DomainError {
	return NewError(ErrorTypeValidation, message, err)
}

func LoadError(message string, err error) *DomainError {
	return NewError(ErrorTypeLoad, message, err)
}

func IOError(message string, err error) *DomainError {
	return NewError(ErrorTypeIO, message, err)
}

func ConfigError(message string, err error) *DomainError {
	return NewError(ErrorTypeConfig, message, err)
}

func StateError(message string, err error) *DomainError {
	return NewError(ErrorTypeState, message, err)
}

func InternalError(message string, err error) *DomainError {
	return NewError(ErrorTypeInternal, message, err)
}

// IsType reports whether err carries a DomainError of the given type.
func IsType(err error, errType ErrorType) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Type == errType
	}
	return false
}

// CheckCancelled returns an error wrapping ErrCancelled once ctx is done.
func CheckCancelled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
	default:
		return nil
	}
}
