package auth

import (
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

var (
	// ErrNoAuthorizationCode is returned when the redirect carried no code.
	ErrNoAuthorizationCode = errors.New("no authorization code in redirect")

	// ErrStateMismatch is returned when the redirect's state parameter does
	// not match the one sent with the authorization request.
	ErrStateMismatch = errors.New("state parameter mismatch")

	// ErrListenerClosed is returned by Wait after the listener was closed
	// without receiving a redirect.
	ErrListenerClosed = errors.New("redirect listener closed")
)

// RedirectError is the error a provider reports on the redirect URL
// (error and error_description query parameters).
type RedirectError struct {
	Code        string
	Description string
}

func (e *RedirectError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Description)
	}
	return e.Code
}

// AuthError represents a failure to obtain an access token.
type AuthError struct {
	// Op is the step that failed (e.g., "listen", "wait", "exchange")
	Op string

	// Err is the underlying error
	Err error
}

// Error implements the error interface
func (e *AuthError) Error() string {
	return fmt.Sprintf("auth %s: %v", e.Op, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *AuthError) Unwrap() error {
	return e.Err
}

// ProviderPayload returns the raw error payload of the token endpoint when
// err wraps one, and "" otherwise.
func ProviderPayload(err error) string {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		if len(re.Body) > 0 {
			return string(re.Body)
		}
		if re.ErrorCode != "" {
			return (&RedirectError{Code: re.ErrorCode, Description: re.ErrorDescription}).Error()
		}
	}

	var rd *RedirectError
	if errors.As(err, &rd) {
		return rd.Error()
	}
	return ""
}
