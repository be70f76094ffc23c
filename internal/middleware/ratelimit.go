package middleware

import (
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"oauthd/internal/caching"
	"oauthd/internal/common"
)

// RateLimit throttles an endpoint per caller within a rolling window. The key
// prefers the presented client_id so one misbehaving client cannot exhaust a
// shared NAT's budget; anonymous requests fall back to the source IP. Redis
// outages fail open: rate limiting protects the token endpoint, it does not
// gate correctness.
func RateLimit(cacheSvc caching.CacheService, limit int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.FormValue("client_id")
			if key == "" {
				if clientID, _, ok := c.Request().BasicAuth(); ok {
					key = clientID
				}
			}
			if key == "" {
				key = c.RealIP()
			}

			ctx := c.Request().Context()
			limited, err := cacheSvc.IsRateLimited(ctx, key, limit, window)
			if err != nil {
				log.Printf("Rate limit check failed for %s: %v", key, err)
			} else if limited {
				return c.JSON(http.StatusTooManyRequests,
					common.CreateErrorResponse("rate_limited", "too many requests, slow down", nil))
			}

			if err := cacheSvc.IncrementRateLimit(ctx, key, window); err != nil {
				log.Printf("Rate limit increment failed for %s: %v", key, err)
			}

			return next(c)
		}
	}
}
