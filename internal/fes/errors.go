package fes

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError reports a non-2xx response from the FES API.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fes: unexpected status %d", e.StatusCode)
}

// IsRateLimited reports whether err is a 429 response from the FES API.
// Callers use this to decide between backoff-and-retry and giving up.
func IsRateLimited(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusTooManyRequests
}
