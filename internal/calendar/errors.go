package calendar

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// APIError is returned by every gateway operation that could not complete.
type APIError struct {
	Op      string // create, patch, delete, list, get
	EventID string
	Err     error
}

func (e *APIError) Error() string {
	if e.EventID != "" {
		return fmt.Sprintf("calendar %s failed for event %s: %v", e.Op, e.EventID, e.Err)
	}
	return fmt.Sprintf("calendar %s failed: %v", e.Op, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status Google answered with, or 0 when the
// failure happened before a response was received.
func (e *APIError) StatusCode() int {
	var gerr *googleapi.Error
	if errors.As(e.Err, &gerr) {
		return gerr.Code
	}
	return 0
}

// IsNotFound reports whether err is a calendar error for a missing or
// already deleted event.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	code := apiErr.StatusCode()
	return code == http.StatusNotFound || code == http.StatusGone
}
