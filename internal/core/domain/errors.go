package domain

import (
	"errors"
	"fmt"
)

// FailureKind tags a downstream failure.
type FailureKind string

const (
	FailureAPI          FailureKind = "api"
	FailureTransient    FailureKind = "transient"
	FailureUnclassified FailureKind = "unclassified"
)

// FailureError is a tagged failure returned by a downstream operation.
type FailureError struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (e *FailureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *FailureError) Unwrap() error {
	return e.Err
}

// NewAPIError creates a failure the inventory API rejected outright.
func NewAPIError(message string) *FailureError {
	return &FailureError{Kind: FailureAPI, Message: message}
}

// NewTransientError creates a failure that may succeed on a later attempt.
func NewTransientError(message string) *FailureError {
	return &FailureError{Kind: FailureTransient, Message: message}
}

// WrapTransient tags err as transient.
func WrapTransient(message string, err error) *FailureError {
	return &FailureError{Kind: FailureTransient, Message: message, Err: err}
}

// FailureKindOf returns the tag carried by err. Untagged errors are unclassified.
func FailureKindOf(err error) FailureKind {
	var fe *FailureError
	if errors.As(err, &fe) {
		switch fe.Kind {
		case FailureAPI, FailureTransient:
			return fe.Kind
		}
	}
	return FailureUnclassified
}
