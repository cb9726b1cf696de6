package gateway

import "fmt"

// RemoteError is returned when the backend answers with a non-2xx status.
// Callers get nothing beyond the status code; response bodies are not
// interpreted.
type RemoteError struct {
	StatusCode int
	Method     string
	Path       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s %s: server returned %d", e.Method, e.Path, e.StatusCode)
}

// NetworkError is returned when no response was received at all.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
