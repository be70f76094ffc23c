package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"oauthd/internal/models"
	"oauthd/internal/services"
)

// AuditHandlers serves the audit trail endpoints.
type AuditHandlers struct {
	auditService services.AuditService
}

// NewAuditHandlers creates a new audit handlers instance
func NewAuditHandlers(auditService services.AuditService) *AuditHandlers {
	return &AuditHandlers{auditService: auditService}
}

// List returns audit events, newest first. Supports event_type, client_id,
// user_id, limit and offset query parameters.
func (h *AuditHandlers) List(c echo.Context) error {
	ctx := c.Request().Context()

	filters := &models.AuditEventFilters{Limit: 50}

	if v := c.QueryParam("event_type"); v != "" {
		filters.EventType = &v
	}
	if v := c.QueryParam("client_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid client_id")
		}
		filters.ClientID = &id
	}
	if v := c.QueryParam("user_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid user_id")
		}
		filters.UserID = &id
	}
	if v := c.QueryParam("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil {
			filters.Limit = limit
		}
	}
	if v := c.QueryParam("offset"); v != "" {
		if offset, err := strconv.Atoi(v); err == nil {
			filters.Offset = offset
		}
	}

	events, err := h.auditService.List(ctx, filters)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "unable to list audit events")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}
