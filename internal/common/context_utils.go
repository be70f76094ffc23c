package common

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	// UserIDKey carries the authenticated resource owner's id.
	UserIDKey contextKey = "user_id"
	// ClientIDKey carries the id of the client the presented token was issued to.
	ClientIDKey contextKey = "client_id"
	// ScopesKey carries the scope set granted to the presented token.
	ScopesKey contextKey = "scopes"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// CreateErrorResponse creates a standardized error response
func CreateErrorResponse(code string, message string, details map[string]string) *ErrorResponse {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Details = details
	return &resp
}

// UserIDFromContext extracts the authenticated user id from a request context.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return id, ok
}

// ClientIDFromContext extracts the authenticated client id from a request context.
func ClientIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ClientIDKey).(uuid.UUID)
	return id, ok
}

// ScopesFromContext extracts the granted scope set from a request context.
func ScopesFromContext(ctx context.Context) ([]string, bool) {
	scopes, ok := ctx.Value(ScopesKey).([]string)
	return scopes, ok
}
