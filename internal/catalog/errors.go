package catalog

import (
	"errors"
	"fmt"
)

// Sentinel errors for catalog requests.
var (
	ErrNotFound    = errors.New("catalog: not found")
	ErrRateLimited = errors.New("catalog: rate limited by server")
	ErrServer      = errors.New("catalog: server error")
	ErrTooLarge    = errors.New("catalog: response too large")
)

// Error wraps an underlying error with request context.
type Error struct {
	Op     string
	URL    string
	Status int // zero when no response was received
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("catalog %s [%s] status %d: %v", e.Op, e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("catalog %s [%s]: %v", e.Op, e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op, url string, status int, err error) error {
	return &Error{
		Op:     op,
		URL:    url,
		Status: status,
		Err:    err,
	}
}
