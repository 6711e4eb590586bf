package oauth

import (
	"errors"
	"fmt"
)

var (
	// ErrStateMismatch means the callback state did not match the one
	// issued at redirect time. Treated as a CSRF attempt.
	ErrStateMismatch = errors.New("oauth: state mismatch")
	// ErrMissingCode means the callback carried no authorization code.
	ErrMissingCode = errors.New("oauth: missing code")
	// ErrMissingState means the callback carried no state.
	ErrMissingState = errors.New("oauth: missing state")
	// ErrUserDenied means the end user declined the consent screen.
	ErrUserDenied = errors.New("oauth: user denied authorization")
	// ErrTransport wraps network-level failures (timeout, DNS,
	// connection reset) talking to the provider.
	ErrTransport = errors.New("oauth: transport error")
)

// ExchangeError is a structured provider rejection from the token
// endpoint (4xx with an error body). Code and Description are the
// provider's raw values, kept for operator diagnosis.
type ExchangeError struct {
	Status      int
	Code        string
	Description string
}

func (e *ExchangeError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("oauth: token exchange failed: %s: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("oauth: token exchange failed: %s", e.Code)
}

// IdentityError is a non-2xx response from the provider's identity
// endpoint.
type IdentityError struct {
	Status  int
	Message string
}

func (e *IdentityError) Error() string {
	return fmt.Sprintf("oauth: identity fetch failed: status=%d %s", e.Status, e.Message)
}
