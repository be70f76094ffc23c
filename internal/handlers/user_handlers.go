package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"oauthd/internal/common"
	"oauthd/internal/repositories"
)

// UserHandlers serves the protected resource endpoints that sit behind the
// bearer authentication filter.
type UserHandlers struct {
	userRepo repositories.UserRepository
}

// NewUserHandlers creates a new user handlers instance
func NewUserHandlers(userRepo repositories.UserRepository) *UserHandlers {
	return &UserHandlers{userRepo: userRepo}
}

// MeResponse is the payload for GET /v1/me.
type MeResponse struct {
	ID     string   `json:"id"`
	Email  string   `json:"email"`
	Name   string   `json:"name"`
	Scopes []string `json:"scopes"`
}

// Me returns the user the presented access token acts for.
func (h *UserHandlers) Me(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.UserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	user, err := h.userRepo.GetByID(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "unable to load user")
	}

	scopes, _ := common.ScopesFromContext(ctx)

	return c.JSON(http.StatusOK, MeResponse{
		ID:     user.ID.String(),
		Email:  user.Email,
		Name:   user.Name,
		Scopes: scopes,
	})
}
