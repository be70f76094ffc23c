package models

import (
	"time"

	"github.com/google/uuid"
)

// Client represents a registered OAuth2 application (a "consumer").
// The client secret is stored as a bcrypt hash; the plaintext is only held by
// the application itself.
type Client struct {
	ID               uuid.UUID `json:"id" db:"id"`
	ClientID         string    `json:"client_id" db:"client_id"`
	ClientSecretHash string    `json:"-" db:"client_secret_hash"`
	Name             string    `json:"name" db:"name"`
	RedirectURIs     []string  `json:"redirect_uris" db:"redirect_uris"`
	Scopes           []string  `json:"scopes" db:"scopes"` // permitted scopes; empty means all registered scopes
	UserID           uuid.UUID `json:"user_id" db:"user_id"`
	IsActive         bool      `json:"is_active" db:"is_active"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// AllowsScope reports whether the client is permitted to request the named
// scope. An empty permitted set means the client may request any registered
// scope.
func (c *Client) AllowsScope(name string) bool {
	if len(c.Scopes) == 0 {
		return true
	}
	for _, s := range c.Scopes {
		if s == name {
			return true
		}
	}
	return false
}
