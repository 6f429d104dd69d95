package tfl

import (
	"fmt"
	"time"
)

// HTTPError is the generic non-2xx failure from the journey service.
type HTTPError struct {
	Status int
	Reason string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("tfl: http error %d: %s", e.Status, e.Reason)
}

// RateLimitError carries the service's Retry-After hint. Recoverable by
// waiting and retrying.
type RateLimitError struct {
	Wait time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("tfl: rate limited, retry after %s", e.Wait)
}

// RetryAfter implements retryutil.RetryAfterHint.
func (e *RateLimitError) RetryAfter() time.Duration {
	return e.Wait
}

// NotFoundError means a place name could not be resolved. This is distinct
// from "no journey found", which is an empty (valid) result.
type NotFoundError struct {
	Reason string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tfl: not found: %s", e.Reason)
}

// InternalServerError is recoverable via retry.
type InternalServerError struct {
	Reason string
}

func (e *InternalServerError) Error() string {
	return fmt.Sprintf("tfl: internal server error: %s", e.Reason)
}

// BadGatewayError is recoverable via retry.
type BadGatewayError struct {
	Reason string
}

func (e *BadGatewayError) Error() string {
	return fmt.Sprintf("tfl: bad gateway: %s", e.Reason)
}

// Retryable reports whether err is a transient journey-service failure
// worth another attempt. Use it as the predicate of a retryutil.Policy.
func Retryable(err error) bool {
	switch err.(type) {
	case *RateLimitError, *InternalServerError, *BadGatewayError:
		return true
	}
	return false
}
