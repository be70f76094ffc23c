package models

import (
	"time"

	"github.com/google/uuid"
)

// TokenType discriminates the two credential kinds held in the token store.
type TokenType string

const (
	TokenTypeAccess            TokenType = "access_token"
	TokenTypeAuthorizationCode TokenType = "authorization_code"
)

// Token is a stored credential record. Only the SHA-256 hash of the secret is
// persisted; the plaintext value is returned to the caller exactly once at
// issuance and cannot be recovered afterwards.
type Token struct {
	ID          uuid.UUID `json:"id" db:"id"`
	TokenHash   string    `json:"-" db:"token_hash"`
	TokenType   TokenType `json:"token_type" db:"token_type"`
	ClientID    uuid.UUID `json:"client_id" db:"client_id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	Scopes      []string  `json:"scopes" db:"scopes"`
	RedirectURI string    `json:"redirect_uri,omitempty" db:"redirect_uri"` // authorization codes only
	Used        bool      `json:"used" db:"used"`                           // authorization codes only
	IssuedAt    time.Time `json:"issued_at" db:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at" db:"expires_at"`
}

// IsExpired reports whether the token's expiry timestamp has passed.
func (t *Token) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// IssuedToken pairs a stored record with the plaintext secret minted for it.
type IssuedToken struct {
	Token
	Secret string `json:"-"`
}

// TokenResponse is the token endpoint's success body per RFC 6749 §5.1.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope,omitempty"`
}
