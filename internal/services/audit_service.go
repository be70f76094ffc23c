package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"oauthd/internal/models"
	"oauthd/internal/repositories"
)

type AuditService interface {
	// Record creates a new audit event
	Record(ctx context.Context, eventType string, clientID, userID *uuid.UUID, ip string, detail models.JSONB) error

	// List retrieves audit events with filtering
	List(ctx context.Context, filters *models.AuditEventFilters) ([]*models.AuditEvent, error)
}

type auditService struct {
	auditRepo repositories.AuditRepository
}

func NewAuditService(auditRepo repositories.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

func (s *auditService) Record(ctx context.Context, eventType string, clientID, userID *uuid.UUID, ip string, detail models.JSONB) error {
	if eventType == "" {
		return errors.New("event_type is required")
	}

	event := &models.AuditEvent{
		ID:        uuid.New(),
		EventType: eventType,
		ClientID:  clientID,
		UserID:    userID,
		IP:        ip,
		Detail:    detail,
		CreatedAt: time.Now(),
	}

	return s.auditRepo.Create(ctx, event)
}

func (s *auditService) List(ctx context.Context, filters *models.AuditEventFilters) ([]*models.AuditEvent, error) {
	if filters == nil {
		filters = &models.AuditEventFilters{Limit: 50}
	}
	if filters.Limit <= 0 || filters.Limit > 1000 {
		filters.Limit = 50
	}

	return s.auditRepo.List(ctx, filters)
}
