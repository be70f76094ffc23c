package models

import (
	"time"

	"github.com/google/uuid"
)

// JSONB represents a Postgres jsonb column.
type JSONB map[string]interface{}

// AuditEvent records a security-relevant action taken through the server:
// authorization decisions, token issuance and revocation, client removal.
// Token secrets and client secrets are never stored in the detail payload.
type AuditEvent struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	EventType string     `json:"event_type" db:"event_type"`
	ClientID  *uuid.UUID `json:"client_id,omitempty" db:"client_id"`
	UserID    *uuid.UUID `json:"user_id,omitempty" db:"user_id"`
	IP        string     `json:"ip" db:"ip"`
	Detail    JSONB      `json:"detail" db:"detail"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// Event type constants for audit events
const (
	EventAuthorizeDecision = "authorize_decision"
	EventTokenRequest      = "token_request"
	EventTokenRevoked      = "token_revoked"
	EventClientDeleted     = "client_deleted"
)

// AuditEventFilters represents filters for querying audit events
type AuditEventFilters struct {
	EventType *string    `json:"event_type"`
	ClientID  *uuid.UUID `json:"client_id"`
	UserID    *uuid.UUID `json:"user_id"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
}
