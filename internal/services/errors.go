// internal/services/errors.go
package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies service failures for the transport layer.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
	// KindInconsistent marks store-level corruption detected mid-transaction.
	KindInconsistent
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindInconsistent:
		return "inconsistent"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind    ErrorKind
	Message string
	Details interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, message string, details interface{}) *Error {
	return &Error{Kind: kind, Message: message, Details: details}
}

func validationError(message string, details interface{}) *Error {
	return newError(KindValidation, message, details)
}

func notFoundError(message string) *Error {
	return newError(KindNotFound, message, nil)
}

func conflictError(message string, details interface{}) *Error {
	return newError(KindConflict, message, details)
}

func forbiddenError(message string) *Error {
	return newError(KindForbidden, message, nil)
}

func unauthorizedError(message string) *Error {
	return newError(KindUnauthorized, message, nil)
}

// KindOf returns the kind of a service error, or 0 for unexpected errors.
func KindOf(err error) ErrorKind {
	var serviceErr *Error
	if errors.As(err, &serviceErr) {
		return serviceErr.Kind
	}
	return 0
}

// details is the structured payload attached to validation and conflict errors.
type details map[string]interface{}
