// Package github is the authenticated gateway to the GitHub REST API:
// workflows, workflow runs, dispatches, releases, tags, commits and raw file
// content. Every operation is a single attempt; callers own retries.
package github

import "fmt"

// AuthError means no usable token is configured. It is a local precondition
// failure; the request is never sent.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	if e.Reason == "" {
		return "github: no token configured"
	}
	return fmt.Sprintf("github: %s", e.Reason)
}

// APIError is a non-2xx response from GitHub.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("github: request failed with status %d", e.Status)
	}
	return fmt.Sprintf("github: request failed (%d): %s", e.Status, e.Message)
}

// NetworkError is a transport-level failure; the request may never have
// reached GitHub. Safe to retry manually.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("github: network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
