package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"oauthd/internal/common"
)

// RequireScope rejects bearer-authenticated requests whose token was not
// granted the named scope. Chain it after BearerAuth.
func RequireScope(scope string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			if _, ok := common.UserIDFromContext(ctx); !ok {
				return unauthorized(c, "bearer token required")
			}

			scopes, _ := common.ScopesFromContext(ctx)
			for _, granted := range scopes {
				if granted == scope {
					return next(c)
				}
			}

			c.Response().Header().Set("WWW-Authenticate", `Bearer error="insufficient_scope"`)
			return c.JSON(http.StatusForbidden, common.CreateErrorResponse("insufficient_scope", "token does not carry the required scope", nil))
		}
	}
}
