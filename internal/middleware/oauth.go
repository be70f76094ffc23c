package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"oauthd/internal/common"
	"oauthd/internal/repositories"
	"oauthd/internal/services"
)

// BearerAuth authenticates requests that carry an OAuth2 bearer token.
//
// Requests without an Authorization header (or with a non-bearer scheme) pass
// through untouched so other authentication mechanisms can have an opinion. A
// bearer token that is present but invalid or expired is an explicit
// authentication failure, never an anonymous fallthrough.
func BearerAuth(tokenSvc services.TokenService, userRepo repositories.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return next(c)
			}

			secret := strings.TrimPrefix(authHeader, "Bearer ")
			if secret == authHeader {
				// Some other scheme; not ours to judge.
				return next(c)
			}
			secret = strings.TrimSpace(secret)
			if secret == "" {
				return unauthorized(c, "bearer token is empty")
			}

			ctx := c.Request().Context()
			token, err := tokenSvc.ValidateAccessToken(ctx, secret)
			if err != nil {
				return unauthorized(c, "bearer token is invalid or expired")
			}

			user, err := userRepo.GetByID(ctx, token.UserID)
			if err != nil {
				return unauthorized(c, "token owner no longer exists")
			}

			ctx = context.WithValue(ctx, common.UserIDKey, user.ID)
			ctx = context.WithValue(ctx, common.ClientIDKey, token.ClientID)
			ctx = context.WithValue(ctx, common.ScopesKey, token.Scopes)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// RequireBearer rejects requests that did not authenticate via BearerAuth.
// Chain it after BearerAuth on routes that must not be anonymous.
func RequireBearer() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := common.UserIDFromContext(c.Request().Context()); !ok {
				return unauthorized(c, "bearer token required")
			}
			return next(c)
		}
	}
}

func unauthorized(c echo.Context, message string) error {
	c.Response().Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	return c.JSON(http.StatusUnauthorized, common.CreateErrorResponse("invalid_token", message, nil))
}
