package ats

import "fmt"

// AuthError reports an invalid or expired session. Callers may force one
// re-authentication and retry; a second occurrence should propagate.
type AuthError struct {
	Msg string
}

func (e *AuthError) Error() string {
	if e.Msg == "" {
		return "ats: authentication failed or session expired"
	}
	return "ats: " + e.Msg
}

// APIError reports a request the remote service rejected. Not retryable.
type APIError struct {
	StatusCode int
	Msg        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ats: api error (status %d): %s", e.StatusCode, e.Msg)
}

// TransportError reports a network-level failure. Retryable at the caller's
// discretion.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("ats: request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
