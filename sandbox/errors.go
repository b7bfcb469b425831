package sandbox

import (
	"errors"
	"net/http"
)

// statusError carries the HTTP status a service failure maps to.
type statusError struct {
	code int
	msg  string
}

func (e *statusError) Error() string { return e.msg }

func badRequest(msg string) error   { return &statusError{http.StatusBadRequest, msg} }
func unauthorized(msg string) error { return &statusError{http.StatusUnauthorized, msg} }
func forbidden(msg string) error    { return &statusError{http.StatusForbidden, msg} }
func notFound(msg string) error     { return &statusError{http.StatusNotFound, msg} }
func conflict(msg string) error     { return &statusError{http.StatusConflict, msg} }

// statusOf maps err to a response code. Plain errors are validation
// failures.
func statusOf(err error) int {
	var se *statusError
	if errors.As(err, &se) {
		return se.code
	}
	return http.StatusBadRequest
}
