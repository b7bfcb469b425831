package httpclient

import "fmt"

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string { return e.Message }

// TransportError is a failure to reach the backend at all.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string { return e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

func statusMessage(code int) string {
	return fmt.Sprintf("Request failed with status %d", code)
}
