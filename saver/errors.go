package saver

import (
	"errors"
	"fmt"
)

// Common errors returned by Save. Distinguishing a timeout from a refused
// connection from a rejected payload lets the caller pick the right notice.
var (
	// ErrTimeout indicates the backend did not respond in time.
	ErrTimeout = errors.New("save request timed out")

	// ErrConnection indicates no response at all (connection refused, DNS
	// failure, or the backend is offline).
	ErrConnection = errors.New("save request could not reach the server")
)

// ServerError is a response the backend did deliver but with a failure
// status, including the degraded case where a 200 body carries status 503.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error (status %d): %s", e.Status, e.Message)
	}

	return fmt.Sprintf("server error (status %d)", e.Status)
}
