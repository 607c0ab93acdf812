package domain

import (
	"errors"
	"fmt"
)

// ErrorCode is the stable, client-visible error class. Storage-layer details
// never cross this boundary.
type ErrorCode string

const (
	CodeValidation        ErrorCode = "VALIDATION"
	CodeAuthorization     ErrorCode = "AUTHORIZATION"
	CodeNotFound          ErrorCode = "NOT_FOUND"
	CodeConflict          ErrorCode = "CONFLICT"
	CodeInsufficientStock ErrorCode = "INSUFFICIENT_STOCK"
	CodeTicketUnavailable ErrorCode = "TICKET_UNAVAILABLE"
	CodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	CodeCapacity          ErrorCode = "CAPACITY"
)

type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the error code, or empty string for errors that did not
// originate in this package.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
