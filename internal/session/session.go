package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"oauthd/internal/caching"
	"oauthd/internal/models"
	"oauthd/internal/repositories"
)

// CookieName identifies the session cookie the hosting login system sets.
const CookieName = "oauthd_session"

// ErrNotAuthenticated indicates the request carries no valid session.
var ErrNotAuthenticated = errors.New("no authenticated user")

// CurrentUserProvider resolves the resource owner behind a browser request.
// The authorization endpoint depends on this interface rather than on any
// particular login system.
type CurrentUserProvider interface {
	CurrentUser(c echo.Context) (*models.User, error)
}

// Manager is the production CurrentUserProvider: it reads the session cookie
// and resolves the user through the redis session store. The login flow that
// creates sessions lives outside this core; Start and End exist for it to
// call.
type Manager struct {
	cacheSvc caching.CacheService
	userRepo repositories.UserRepository
}

// NewManager creates a session manager
func NewManager(cacheSvc caching.CacheService, userRepo repositories.UserRepository) *Manager {
	return &Manager{cacheSvc: cacheSvc, userRepo: userRepo}
}

func (m *Manager) CurrentUser(c echo.Context) (*models.User, error) {
	cookie, err := c.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNotAuthenticated
	}

	ctx := c.Request().Context()
	userIDStr, err := m.cacheSvc.GetSession(ctx, cookie.Value)
	if err != nil {
		return nil, ErrNotAuthenticated
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, ErrNotAuthenticated
	}

	user, err := m.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}
	return user, nil
}

// Start creates a session for a user and returns the cookie to set.
func (m *Manager) Start(ctx context.Context, userID uuid.UUID, ttl time.Duration) (*http.Cookie, error) {
	sessionID := uuid.NewString()
	if err := m.cacheSvc.SetSession(ctx, sessionID, userID.String(), ttl); err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     CookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
	}, nil
}

// End destroys a session.
func (m *Manager) End(ctx context.Context, sessionID string) error {
	return m.cacheSvc.DeleteSession(ctx, sessionID)
}
