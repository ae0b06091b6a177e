// Package errors defines the coded errors shared by the gift service, the
// pipeline, the CLI and the HTTP API.
//
// Every failure a caller can act on carries a [Code]. The API returns the
// code in its JSON error body and picks the status with [HTTPStatus]; the
// CLI prints [UserMessage].
//
//	err := errors.New(errors.ErrCodeSelfGift, "%s cannot give a gift to themselves", name)
//	if errors.Is(err, errors.ErrCodeSelfGift) {
//	    // 422
//	}
//
//	return errors.Wrap(errors.ErrCodeStore, err, "list gifts")
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidName     Code = "INVALID_NAME"
	ErrCodeInvalidItem     Code = "INVALID_ITEM"
	ErrCodeInvalidComment  Code = "INVALID_COMMENT"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidViewport Code = "INVALID_VIEWPORT"
	ErrCodeSelfGift        Code = "SELF_GIFT"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeUserNotFound Code = "USER_NOT_FOUND"
	ErrCodeGiftNotFound Code = "GIFT_NOT_FOUND"

	// Backend errors
	ErrCodeStore       Code = "STORE_ERROR"
	ErrCodeUnavailable Code = "UNAVAILABLE"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsNotFound reports whether err carries any of the not-found codes.
func IsNotFound(err error) bool {
	switch GetCode(err) {
	case ErrCodeNotFound, ErrCodeUserNotFound, ErrCodeGiftNotFound:
		return true
	}
	return false
}

// HTTPStatus maps an error to the status code the API responds with.
// Errors without a code are treated as internal.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidName, ErrCodeInvalidItem,
		ErrCodeInvalidComment, ErrCodeInvalidFormat, ErrCodeInvalidViewport:
		return http.StatusBadRequest
	case ErrCodeSelfGift:
		return http.StatusUnprocessableEntity
	case ErrCodeNotFound, ErrCodeUserNotFound, ErrCodeGiftNotFound:
		return http.StatusNotFound
	case ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
