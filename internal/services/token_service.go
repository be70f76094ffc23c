package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"oauthd/internal/caching"
	"oauthd/internal/models"
	"oauthd/internal/repositories"
)

// tokenCacheTTLCap bounds how long a validated access token record may be
// served from cache, so revocation takes effect within this window even if a
// cache delete was missed.
const tokenCacheTTLCap = time.Minute

// TokenService manages the full token lifecycle: minting opaque secrets,
// validating presented credentials, redeeming authorization codes and purging
// expired records.
type TokenService interface {
	IssueAuthorizationCode(ctx context.Context, client *models.Client, userID uuid.UUID, scopes []string, redirectURI string) (*models.IssuedToken, error)
	IssueAccessToken(ctx context.Context, clientID, userID uuid.UUID, scopes []string) (*models.IssuedToken, error)
	ValidateAccessToken(ctx context.Context, secret string) (*models.Token, error)
	RedeemAuthorizationCode(ctx context.Context, code string, client *models.Client, redirectURI string) (*models.IssuedToken, error)
	Revoke(ctx context.Context, token *models.Token) error
	PurgeExpired(ctx context.Context) (int64, error)

	AccessTTL() time.Duration
}

type tokenService struct {
	tokenRepo repositories.TokenRepository
	cacheSvc  caching.CacheService
	accessTTL time.Duration
	codeTTL   time.Duration
}

// NewTokenService creates a new token service
func NewTokenService(tokenRepo repositories.TokenRepository, cacheSvc caching.CacheService, accessTTL, codeTTL time.Duration) TokenService {
	return &tokenService{
		tokenRepo: tokenRepo,
		cacheSvc:  cacheSvc,
		accessTTL: accessTTL,
		codeTTL:   codeTTL,
	}
}

func (s *tokenService) AccessTTL() time.Duration {
	return s.accessTTL
}

// generateSecret mints 32 bytes from the crypto random source, base64url
// encoded.
func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random source: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// hashSecret creates the SHA-256 hash under which a secret is stored.
func hashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

func (s *tokenService) issue(ctx context.Context, tokenType models.TokenType, clientID, userID uuid.UUID, scopes []string, redirectURI string, ttl time.Duration) (*models.IssuedToken, error) {
	secret, err := generateSecret()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	token := models.Token{
		ID:          uuid.New(),
		TokenHash:   hashSecret(secret),
		TokenType:   tokenType,
		ClientID:    clientID,
		UserID:      userID,
		Scopes:      scopes,
		RedirectURI: redirectURI,
		IssuedAt:    now,
		ExpiresAt:   now.Add(ttl),
	}

	if err := s.tokenRepo.Create(ctx, &token); err != nil {
		return nil, err
	}

	return &models.IssuedToken{Token: token, Secret: secret}, nil
}

func (s *tokenService) IssueAuthorizationCode(ctx context.Context, client *models.Client, userID uuid.UUID, scopes []string, redirectURI string) (*models.IssuedToken, error) {
	return s.issue(ctx, models.TokenTypeAuthorizationCode, client.ID, userID, scopes, redirectURI, s.codeTTL)
}

func (s *tokenService) IssueAccessToken(ctx context.Context, clientID, userID uuid.UUID, scopes []string) (*models.IssuedToken, error) {
	return s.issue(ctx, models.TokenTypeAccess, clientID, userID, scopes, "", s.accessTTL)
}

// ValidateAccessToken resolves a presented bearer secret to its live record.
// Expired records are rejected and opportunistically deleted.
func (s *tokenService) ValidateAccessToken(ctx context.Context, secret string) (*models.Token, error) {
	tokenHash := hashSecret(secret)

	if cached, err := s.cacheSvc.GetToken(ctx, tokenHash); err == nil && cached != nil {
		if !cached.IsExpired() {
			return cached, nil
		}
		if err := s.cacheSvc.DeleteToken(ctx, tokenHash); err != nil {
			log.Printf("Failed to drop expired token from cache: %v", err)
		}
	}

	token, err := s.tokenRepo.GetByHash(ctx, tokenHash, models.TokenTypeAccess)
	if err != nil {
		return nil, err
	}

	// The hash already served as the lookup key; the constant-time compare
	// guards against lookup paths that match on anything weaker.
	if subtle.ConstantTimeCompare([]byte(token.TokenHash), []byte(tokenHash)) != 1 {
		return nil, repositories.ErrTokenNotFound
	}

	if token.IsExpired() {
		if err := s.tokenRepo.Delete(ctx, token.ID); err != nil {
			log.Printf("Failed to delete expired token %s: %v", token.ID, err)
		}
		return nil, repositories.ErrTokenNotFound
	}

	cacheTTL := time.Until(token.ExpiresAt)
	if cacheTTL > tokenCacheTTLCap {
		cacheTTL = tokenCacheTTLCap
	}
	if err := s.cacheSvc.SetToken(ctx, token, cacheTTL); err != nil {
		log.Printf("Failed to cache access token record: %v", err)
	}

	return token, nil
}

// RedeemAuthorizationCode exchanges a code for a fresh access token. The
// consume step is a single atomic UPDATE guarded on used = FALSE, so of any
// number of concurrent redemptions exactly one proceeds past it; every later
// validation failure leaves the code burned, which is the safe outcome.
func (s *tokenService) RedeemAuthorizationCode(ctx context.Context, code string, client *models.Client, redirectURI string) (*models.IssuedToken, error) {
	record, err := s.tokenRepo.ConsumeAuthorizationCode(ctx, hashSecret(code))
	if err != nil {
		if errors.Is(err, repositories.ErrTokenNotFound) {
			return nil, models.NewOAuthError(models.ErrInvalidGrant, "authorization code is invalid, expired or already used", err)
		}
		return nil, models.NewOAuthError(models.ErrServerError, "unable to load authorization code", err)
	}

	if record.IsExpired() {
		if err := s.tokenRepo.Delete(ctx, record.ID); err != nil {
			log.Printf("Failed to delete expired authorization code %s: %v", record.ID, err)
		}
		return nil, models.NewOAuthError(models.ErrInvalidGrant, "authorization code has expired", nil)
	}

	if record.ClientID != client.ID {
		return nil, models.NewOAuthError(models.ErrInvalidGrant, "authorization code was not issued to this client", nil)
	}

	if record.RedirectURI != redirectURI {
		return nil, models.NewOAuthError(models.ErrInvalidGrant, "redirect_uri does not match the authorization request", nil)
	}

	access, err := s.IssueAccessToken(ctx, record.ClientID, record.UserID, record.Scopes)
	if err != nil {
		return nil, models.NewOAuthError(models.ErrServerError, "unable to issue access token", err)
	}

	return access, nil
}

// Revoke invalidates a token immediately, in both the store and the cache.
func (s *tokenService) Revoke(ctx context.Context, token *models.Token) error {
	if err := s.tokenRepo.Delete(ctx, token.ID); err != nil {
		return fmt.Errorf("failed to revoke token %s: %w", token.ID, err)
	}
	if err := s.cacheSvc.DeleteToken(ctx, token.TokenHash); err != nil {
		log.Printf("Failed to drop revoked token from cache: %v", err)
	}
	return nil
}

// PurgeExpired removes expired records in bulk. Expired tokens are already
// rejected at lookup time, so this only reclaims storage.
func (s *tokenService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.tokenRepo.DeleteExpired(ctx)
}
