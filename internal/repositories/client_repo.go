package repositories

import (
	"context"
	"errors"
	"fmt"

	"oauthd/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrClientNotFound is returned when no registered client matches the lookup.
var ErrClientNotFound = errors.New("client not found")

type ClientRepository interface {
	GetByClientID(ctx context.Context, clientID string) (*models.Client, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
	// Delete removes a client and revokes all of its tokens in one
	// transaction.
	Delete(ctx context.Context, id uuid.UUID) error
}

type clientRepo struct {
	db Database
}

func NewClientRepo(db Database) ClientRepository {
	return &clientRepo{db: db}
}

const clientColumns = `id, client_id, client_secret_hash, name, redirect_uris, scopes, user_id, is_active, created_at, updated_at`

func (r *clientRepo) scanClient(row pgx.Row) (*models.Client, error) {
	client := &models.Client{}
	err := row.Scan(&client.ID, &client.ClientID, &client.ClientSecretHash, &client.Name,
		&client.RedirectURIs, &client.Scopes, &client.UserID, &client.IsActive,
		&client.CreatedAt, &client.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return client, nil
}

func (r *clientRepo) GetByClientID(ctx context.Context, clientID string) (*models.Client, error) {
	query := `
		SELECT ` + clientColumns + `
		FROM oauth_clients
		WHERE client_id = $1 AND is_active = TRUE
	`
	return r.scanClient(r.db.QueryRow(ctx, query, clientID))
}

func (r *clientRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	query := `
		SELECT ` + clientColumns + `
		FROM oauth_clients
		WHERE id = $1
	`
	return r.scanClient(r.db.QueryRow(ctx, query, id))
}

func (r *clientRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin client delete: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM oauth_tokens WHERE client_id = $1`, id); err != nil {
		return fmt.Errorf("failed to revoke client tokens: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM oauth_clients WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}

	return tx.Commit(ctx)
}
