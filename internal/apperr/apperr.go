// Package apperr defines the request-terminating error type shared by the
// service and handler layers. A failed check creates one at the point of
// detection and every caller returns it up unchanged; the handler maps it to
// the JSON envelope exactly once.
package apperr

import "net/http"

// Error pairs an HTTP status with a user-facing message.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// New creates an Error with an explicit status.
func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, message)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}
