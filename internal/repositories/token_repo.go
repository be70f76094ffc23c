package repositories

import (
	"context"
	"errors"
	"fmt"

	"oauthd/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrTokenNotFound is returned when no live token matches the lookup.
var ErrTokenNotFound = errors.New("token not found")

type TokenRepository interface {
	Create(ctx context.Context, token *models.Token) error
	GetByHash(ctx context.Context, tokenHash string, tokenType models.TokenType) (*models.Token, error)
	// ConsumeAuthorizationCode atomically marks an unconsumed code as used and
	// returns it. A second concurrent call for the same hash observes
	// ErrTokenNotFound: the UPDATE's used = FALSE guard admits exactly one
	// winner.
	ConsumeAuthorizationCode(ctx context.Context, codeHash string) (*models.Token, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByClient(ctx context.Context, clientID uuid.UUID) (int64, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type tokenRepo struct {
	db Database
}

func NewTokenRepo(db Database) TokenRepository {
	return &tokenRepo{db: db}
}

func (r *tokenRepo) Create(ctx context.Context, token *models.Token) error {
	query := `
		INSERT INTO oauth_tokens (id, token_hash, token_type, client_id, user_id, scopes, redirect_uri, used, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		token.ID, token.TokenHash, token.TokenType, token.ClientID, token.UserID,
		token.Scopes, token.RedirectURI, token.Used, token.IssuedAt, token.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to insert token record: %w", err)
	}
	return nil
}

func (r *tokenRepo) GetByHash(ctx context.Context, tokenHash string, tokenType models.TokenType) (*models.Token, error) {
	token := &models.Token{}
	query := `
		SELECT id, token_hash, token_type, client_id, user_id, scopes, redirect_uri, used, issued_at, expires_at
		FROM oauth_tokens
		WHERE token_hash = $1 AND token_type = $2
	`
	err := r.db.QueryRow(ctx, query, tokenHash, tokenType).Scan(
		&token.ID, &token.TokenHash, &token.TokenType, &token.ClientID, &token.UserID,
		&token.Scopes, &token.RedirectURI, &token.Used, &token.IssuedAt, &token.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return token, nil
}

func (r *tokenRepo) ConsumeAuthorizationCode(ctx context.Context, codeHash string) (*models.Token, error) {
	token := &models.Token{}
	query := `
		UPDATE oauth_tokens
		SET used = TRUE
		WHERE token_hash = $1 AND token_type = $2 AND used = FALSE
		RETURNING id, token_hash, token_type, client_id, user_id, scopes, redirect_uri, used, issued_at, expires_at
	`
	err := r.db.QueryRow(ctx, query, codeHash, models.TokenTypeAuthorizationCode).Scan(
		&token.ID, &token.TokenHash, &token.TokenType, &token.ClientID, &token.UserID,
		&token.Scopes, &token.RedirectURI, &token.Used, &token.IssuedAt, &token.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return token, nil
}

func (r *tokenRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM oauth_tokens WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

func (r *tokenRepo) DeleteByClient(ctx context.Context, clientID uuid.UUID) (int64, error) {
	query := `DELETE FROM oauth_tokens WHERE client_id = $1`
	tag, err := r.db.Exec(ctx, query, clientID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *tokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM oauth_tokens WHERE expires_at < NOW()`
	tag, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
