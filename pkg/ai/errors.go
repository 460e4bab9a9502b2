package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks caller misuse; it is never replaced by a fallback.
	ErrInvalidInput = errors.New("invalid analysis input")

	ErrUnavailable = errors.New("ai strategy unavailable")
	ErrTimeout     = errors.New("ai strategy timed out")
)

// InputError describes which part of the analysis payload was rejected.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidInput, e.Field, e.Message)
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// AIError represents a strategy/backend failure
type AIError struct {
	Message string
	Cause   error
}

func (e *AIError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AIError) Unwrap() error {
	return e.Cause
}
