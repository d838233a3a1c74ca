package services

import (
	"errors"
	"fmt"
)

// Error codes returned by the order lifecycle manager
const (
	CodeNotFound           = "NOT_FOUND"
	CodeForbidden          = "FORBIDDEN"
	CodeInvalidState       = "INVALID_STATE"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeValidation         = "VALIDATION_ERROR"
	CodePreconditionFailed = "PRECONDITION_FAILED"
	CodeInternal           = "INTERNAL_ERROR"
)

// FieldError describes one invalid field of a request payload
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// OrderError is the typed failure of an order operation
type OrderError struct {
	Code    string
	Message string
	Details []FieldError
	Err     error // underlying cause, never shown to callers
}

func (e *OrderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

// IsCode reports whether err is an OrderError with the given code
func IsCode(err error, code string) bool {
	var oe *OrderError
	return errors.As(err, &oe) && oe.Code == code
}

func errNotFound(message string) *OrderError {
	return &OrderError{Code: CodeNotFound, Message: message}
}

func errForbidden(message string) *OrderError {
	return &OrderError{Code: CodeForbidden, Message: message}
}

func errInvalidState(message string) *OrderError {
	return &OrderError{Code: CodeInvalidState, Message: message}
}

func errPrecondition(message string) *OrderError {
	return &OrderError{Code: CodePreconditionFailed, Message: message}
}

func errValidation(details ...FieldError) *OrderError {
	return &OrderError{Code: CodeValidation, Message: "Invalid request data", Details: details}
}
