package history

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrStale is returned by a Pending whose fetch completed after a newer
// page had already been applied. The result was discarded.
var ErrStale = errors.New("stale history page discarded")

// FetchError is the single failure kind of a history page request:
// transport errors, non-200 responses and undecodable bodies.
type FetchError struct {
	// Page is the reload index that was requested
	Page int

	// StatusCode is set when the server answered
	StatusCode int

	// Message is a human-readable description
	Message string

	// Cause is the underlying error, if any
	Cause error
}

// NewFetchError creates a fetch error for a page
func NewFetchError(page int, message string, cause error) *FetchError {
	return &FetchError{Page: page, Message: message, Cause: cause}
}

// NewStatusError creates a fetch error for a non-200 response
func NewStatusError(page, status int, message string) *FetchError {
	if message == "" {
		message = fmt.Sprintf("unexpected status %d %s", status, http.StatusText(status))
	}
	return &FetchError{Page: page, StatusCode: status, Message: message}
}

func (e *FetchError) Error() string {
	parts := []string{fmt.Sprintf("page=%d", e.Page)}
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	parts = append(parts, e.Message)
	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%s", e.Cause.Error()))
	}
	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying error
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Is matches any *FetchError
func (e *FetchError) Is(target error) bool {
	_, ok := target.(*FetchError)
	return ok
}

// Retryable reports whether asking for the same page again may succeed.
// Transport failures and 5xx responses are retryable; cancellation is not.
func (e *FetchError) Retryable() bool {
	if e.Cause != nil && (errors.Is(e.Cause, context.Canceled) || errors.Is(e.Cause, context.DeadlineExceeded)) {
		return false
	}
	if e.StatusCode == 0 {
		return e.Cause != nil
	}
	return e.StatusCode >= 500
}

// IsFetchError reports whether err is or wraps a *FetchError
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
