package models

import (
	"fmt"
	"net/http"
)

// OAuth2 protocol error codes per RFC 6749 §4.1.2.1 and §5.2.
const (
	ErrInvalidRequest          = "invalid_request"
	ErrUnauthorizedClient      = "unauthorized_client"
	ErrAccessDenied            = "access_denied"
	ErrUnsupportedResponseType = "unsupported_response_type"
	ErrInvalidScope            = "invalid_scope"
	ErrInvalidClient           = "invalid_client"
	ErrInvalidGrant            = "invalid_grant"
	ErrUnsupportedGrantType    = "unsupported_grant_type"
	ErrServerError             = "server_error"
)

// OAuthError is a protocol-level error that handlers translate into either a
// JSON error body (token endpoint) or a redirect with error query parameters
// (authorization endpoint, once the redirect URI has been verified).
type OAuthError struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
	Cause       error  `json:"-"`
}

func (e *OAuthError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Description)
	}
	return e.Code
}

func (e *OAuthError) Unwrap() error {
	return e.Cause
}

// Status maps the error code to the HTTP status the token endpoint must use.
func (e *OAuthError) Status() int {
	switch e.Code {
	case ErrInvalidClient:
		return http.StatusUnauthorized
	case ErrServerError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// NewOAuthError builds a protocol error with an optional wrapped cause.
func NewOAuthError(code, description string, cause error) *OAuthError {
	return &OAuthError{Code: code, Description: description, Cause: cause}
}
