package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"oauthd/internal/models"
)

type AuditRepository interface {
	// Create a new audit event
	Create(ctx context.Context, event *models.AuditEvent) error

	// List audit events with filtering options, newest first
	List(ctx context.Context, filters *models.AuditEventFilters) ([]*models.AuditEvent, error)
}

type auditRepo struct {
	db Database
}

func NewAuditRepo(db Database) AuditRepository {
	return &auditRepo{db: db}
}

func (r *auditRepo) Create(ctx context.Context, event *models.AuditEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var detailBytes []byte
	if event.Detail != nil {
		var err error
		detailBytes, err = json.Marshal(event.Detail)
		if err != nil {
			return fmt.Errorf("failed to marshal audit detail: %w", err)
		}
	}

	query := `
		INSERT INTO oauth_audit_events (id, event_type, client_id, user_id, ip, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		event.ID,
		event.EventType,
		event.ClientID,
		event.UserID,
		event.IP,
		detailBytes,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit event: %w", err)
	}
	return nil
}

func (r *auditRepo) List(ctx context.Context, filters *models.AuditEventFilters) ([]*models.AuditEvent, error) {
	query := `
		SELECT id, event_type, client_id, user_id, ip, detail, created_at
		FROM oauth_audit_events
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 0

	if filters.EventType != nil {
		argCount++
		query += fmt.Sprintf(" AND event_type = $%d", argCount)
		args = append(args, *filters.EventType)
	}
	if filters.ClientID != nil {
		argCount++
		query += fmt.Sprintf(" AND client_id = $%d", argCount)
		args = append(args, *filters.ClientID)
	}
	if filters.UserID != nil {
		argCount++
		query += fmt.Sprintf(" AND user_id = $%d", argCount)
		args = append(args, *filters.UserID)
	}

	query += " ORDER BY created_at DESC"

	argCount++
	query += fmt.Sprintf(" LIMIT $%d", argCount)
	args = append(args, filters.Limit)

	if filters.Offset > 0 {
		argCount++
		query += fmt.Sprintf(" OFFSET $%d", argCount)
		args = append(args, filters.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	var events []*models.AuditEvent
	for rows.Next() {
		event := &models.AuditEvent{}
		var detailBytes []byte

		if err := rows.Scan(
			&event.ID,
			&event.EventType,
			&event.ClientID,
			&event.UserID,
			&event.IP,
			&detailBytes,
			&event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}

		if len(detailBytes) > 0 {
			if err := json.Unmarshal(detailBytes, &event.Detail); err != nil {
				return nil, fmt.Errorf("failed to unmarshal audit detail: %w", err)
			}
		}

		events = append(events, event)
	}
	return events, rows.Err()
}
