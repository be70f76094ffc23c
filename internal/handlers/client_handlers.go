package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"oauthd/internal/common"
	"oauthd/internal/models"
	"oauthd/internal/services"
)

// ClientHandlers serves the administrative client registry endpoints.
type ClientHandlers struct {
	clientService services.ClientService
	auditService  services.AuditService
}

// NewClientHandlers creates a new client handlers instance
func NewClientHandlers(clientService services.ClientService, auditService services.AuditService) *ClientHandlers {
	return &ClientHandlers{
		clientService: clientService,
		auditService:  auditService,
	}
}

// Delete removes a registered client. Every token the client was issued,
// access tokens and outstanding authorization codes alike, is revoked in the
// same transaction.
func (h *ClientHandlers) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	clientID := c.Param("client_id")
	client, err := h.clientService.GetByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, services.ErrClientNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "client not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "unable to load client")
	}

	if err := h.clientService.Delete(ctx, client.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "unable to delete client")
	}

	var deletedBy *uuid.UUID
	if userID, ok := common.UserIDFromContext(ctx); ok {
		deletedBy = &userID
	}
	if auditErr := h.auditService.Record(ctx, models.EventClientDeleted, &client.ID, deletedBy, c.RealIP(), models.JSONB{
		"client_id": client.ClientID,
		"name":      client.Name,
	}); auditErr != nil {
		c.Logger().Errorf("Failed to record audit event: %v", auditErr)
	}

	return c.NoContent(http.StatusNoContent)
}
