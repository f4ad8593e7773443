package service

import (
	"errors"
	"fmt"

	"campus-advisor/internal/llm"
	"campus-advisor/internal/rag"
)

var (
	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrExternalService is returned when an external service call fails.
	ErrExternalService = errors.New("external service error")
	// ErrUnavailable is returned when a backend cannot be reached or no
	// index has been loaded yet. Retrying later may succeed.
	ErrUnavailable = errors.New("service unavailable")
)

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Unwrap makes every ValidationError match ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// backendError classifies a failure of the context builder or a model
// backend. The original error stays in the chain.
func backendError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, llm.ErrServiceUnavailable) || errors.Is(err, rag.ErrNotReady) {
		return fmt.Errorf("%s: %w: %w", msg, ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w: %w", msg, ErrExternalService, err)
}
