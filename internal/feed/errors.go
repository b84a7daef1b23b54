package feed

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMalformedEnvelope is wrapped by FetchError when the payload is not an object
	// carrying the expected record array.
	ErrMalformedEnvelope = errors.New("malformed envelope")
	// ErrMissingCredentials is wrapped by AuthError when an authenticated endpoint is
	// requested without credentials.
	ErrMissingCredentials = errors.New("credentials required")
)

// FetchError reports a network, HTTP status or envelope failure for one feed.
type FetchError struct {
	Feed   string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("fetch %s: unexpected status %d %s", e.Feed, e.Status, http.StatusText(e.Status))
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %v", e.Feed, e.Err)
	default:
		return "fetch " + e.Feed + ": failed"
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// AuthError reports a credential rejection. It is never retried.
type AuthError struct {
	Feed   string
	Status int
	Err    error
}

func (e *AuthError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("auth %s: rejected with status %d", e.Feed, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("auth %s: %v", e.Feed, e.Err)
	}
	return "auth " + e.Feed + ": rejected"
}

func (e *AuthError) Unwrap() error { return e.Err }

// retryable reports whether err may succeed on a later attempt.
func retryable(err error) bool {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return false
	}
	if errors.Is(err, ErrMalformedEnvelope) {
		return false
	}
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) && fetchErr.Status != 0 {
		return fetchErr.Status == http.StatusTooManyRequests || fetchErr.Status >= 500
	}
	return true
}
