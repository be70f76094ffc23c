package handlers

import (
	"errors"
	"log"
	"strings"

	"github.com/labstack/echo/v4"

	"oauthd/internal/models"
	"oauthd/internal/services"
)

// TokenHandlers implements the token endpoint: client authentication followed
// by dispatch into the grant type matching grant_type.
type TokenHandlers struct {
	clientSvc services.ClientService
	grants    *services.GrantRegistry
}

// NewTokenHandlers creates a new token endpoint handlers instance
func NewTokenHandlers(clientSvc services.ClientService, grants *services.GrantRegistry) *TokenHandlers {
	return &TokenHandlers{
		clientSvc: clientSvc,
		grants:    grants,
	}
}

// Token handles POST /oauth/token.
func (h *TokenHandlers) Token(c echo.Context) error {
	ctx := c.Request().Context()

	params, err := c.FormParams()
	if err != nil {
		return h.errorResponse(c, models.NewOAuthError(models.ErrInvalidRequest, "unable to parse request body", err))
	}

	// Client authentication runs before any grant-specific logic.
	clientID, clientSecret, hasBasic := c.Request().BasicAuth()
	if !hasBasic {
		clientID = params.Get("client_id")
		clientSecret = params.Get("client_secret")
	}
	clientID = strings.TrimSpace(clientID)

	client, err := h.clientSvc.GetByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, services.ErrClientNotFound) {
			return h.invalidClient(c, hasBasic)
		}
		log.Printf("Failed to load client %s: %v", clientID, err)
		return h.errorResponse(c, models.NewOAuthError(models.ErrServerError, "unable to load client", err))
	}
	if !h.clientSvc.VerifySecret(client, clientSecret) {
		return h.invalidClient(c, hasBasic)
	}

	grantType := strings.TrimSpace(params.Get("grant_type"))
	if grantType == "" {
		return h.errorResponse(c, models.NewOAuthError(models.ErrInvalidRequest, "grant_type is required", nil))
	}

	grant, ok := h.grants.ByName(grantType)
	if !ok {
		return h.errorResponse(c, models.NewOAuthError(models.ErrUnsupportedGrantType, "unsupported grant_type: "+grantType, nil))
	}

	response, err := grant.HandleTokenRequest(ctx, client, params)
	if err != nil {
		var oauthErr *models.OAuthError
		if !errors.As(err, &oauthErr) {
			oauthErr = models.NewOAuthError(models.ErrServerError, "unexpected error", err)
		}
		return h.errorResponse(c, oauthErr)
	}

	// RFC 6749 §5.1: responses containing tokens must not be cached.
	c.Response().Header().Set("Cache-Control", "no-store")
	c.Response().Header().Set("Pragma", "no-cache")
	return c.JSON(200, response)
}

func (h *TokenHandlers) invalidClient(c echo.Context, usedBasic bool) error {
	if usedBasic {
		c.Response().Header().Set("WWW-Authenticate", `Basic realm="oauthd"`)
	}
	return h.errorResponse(c, models.NewOAuthError(models.ErrInvalidClient, "client authentication failed", nil))
}

func (h *TokenHandlers) errorResponse(c echo.Context, oauthErr *models.OAuthError) error {
	if oauthErr.Code == models.ErrServerError {
		log.Printf("Token request failed: %v", oauthErr.Unwrap())
	}
	return c.JSON(oauthErr.Status(), oauthErr)
}
