package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"oauthd/internal/common"
	"oauthd/internal/models"
	"oauthd/internal/repositories"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) IssueAuthorizationCode(ctx context.Context, client *models.Client, userID uuid.UUID, scopes []string, redirectURI string) (*models.IssuedToken, error) {
	args := m.Called(ctx, client, userID, scopes, redirectURI)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.IssuedToken), args.Error(1)
}

func (m *MockTokenService) IssueAccessToken(ctx context.Context, clientID, userID uuid.UUID, scopes []string) (*models.IssuedToken, error) {
	args := m.Called(ctx, clientID, userID, scopes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.IssuedToken), args.Error(1)
}

func (m *MockTokenService) ValidateAccessToken(ctx context.Context, secret string) (*models.Token, error) {
	args := m.Called(ctx, secret)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Token), args.Error(1)
}

func (m *MockTokenService) RedeemAuthorizationCode(ctx context.Context, code string, client *models.Client, redirectURI string) (*models.IssuedToken, error) {
	args := m.Called(ctx, code, client, redirectURI)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.IssuedToken), args.Error(1)
}

func (m *MockTokenService) Revoke(ctx context.Context, token *models.Token) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockTokenService) PurgeExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTokenService) AccessTTL() time.Duration {
	args := m.Called()
	return args.Get(0).(time.Duration)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type BearerAuthTestSuite struct {
	suite.Suite
	e          *echo.Echo
	mockTokens *MockTokenService
	mockUsers  *MockUserRepository
}

func (suite *BearerAuthTestSuite) SetupTest() {
	suite.e = echo.New()
	suite.mockTokens = &MockTokenService{}
	suite.mockUsers = &MockUserRepository{}
	suite.mockTokens.Test(suite.T())
	suite.mockUsers.Test(suite.T())
}

func TestBearerAuthTestSuite(t *testing.T) {
	suite.Run(t, new(BearerAuthTestSuite))
}

// run sends a request through BearerAuth into a probe handler that records
// what the middleware put in the context.
func (suite *BearerAuthTestSuite) run(authHeader string) (*httptest.ResponseRecorder, bool, context.Context) {
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := suite.e.NewContext(req, rec)

	reached := false
	var handlerCtx context.Context
	handler := BearerAuth(suite.mockTokens, suite.mockUsers)(func(c echo.Context) error {
		reached = true
		handlerCtx = c.Request().Context()
		return c.NoContent(http.StatusOK)
	})

	err := handler(c)
	assert.NoError(suite.T(), err)
	return rec, reached, handlerCtx
}

func (suite *BearerAuthTestSuite) TestNoHeaderPassesThrough() {
	rec, reached, ctx := suite.run("")

	assert.True(suite.T(), reached)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
	_, authenticated := common.UserIDFromContext(ctx)
	assert.False(suite.T(), authenticated)
	suite.mockTokens.AssertNotCalled(suite.T(), "ValidateAccessToken", mock.Anything, mock.Anything)
}

func (suite *BearerAuthTestSuite) TestOtherSchemePassesThrough() {
	rec, reached, _ := suite.run("Basic YWJjOnMzY3JldA==")

	assert.True(suite.T(), reached)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
	suite.mockTokens.AssertNotCalled(suite.T(), "ValidateAccessToken", mock.Anything, mock.Anything)
}

func (suite *BearerAuthTestSuite) TestInvalidTokenRejected() {
	suite.mockTokens.On("ValidateAccessToken", mock.Anything, "bogus").
		Return(nil, repositories.ErrTokenNotFound)

	rec, reached, _ := suite.run("Bearer bogus")

	assert.False(suite.T(), reached)
	assert.Equal(suite.T(), http.StatusUnauthorized, rec.Code)
	assert.Contains(suite.T(), rec.Header().Get("WWW-Authenticate"), "invalid_token")
}

func (suite *BearerAuthTestSuite) TestEmptyBearerRejected() {
	rec, reached, _ := suite.run("Bearer ")

	assert.False(suite.T(), reached)
	assert.Equal(suite.T(), http.StatusUnauthorized, rec.Code)
}

func (suite *BearerAuthTestSuite) TestValidTokenResolvesUser() {
	userID := uuid.New()
	clientID := uuid.New()
	token := &models.Token{
		ID:        uuid.New(),
		TokenType: models.TokenTypeAccess,
		ClientID:  clientID,
		UserID:    userID,
		Scopes:    []string{"read"},
		ExpiresAt: time.Now().Add(time.Hour),
	}
	user := &models.User{ID: userID, Email: "owner@example.com"}

	suite.mockTokens.On("ValidateAccessToken", mock.Anything, "g00dtoken").Return(token, nil)
	suite.mockUsers.On("GetByID", mock.Anything, userID).Return(user, nil)

	rec, reached, ctx := suite.run("Bearer g00dtoken")

	assert.True(suite.T(), reached)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)

	gotUser, ok := common.UserIDFromContext(ctx)
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), userID, gotUser)

	gotClient, ok := common.ClientIDFromContext(ctx)
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), clientID, gotClient)

	gotScopes, ok := common.ScopesFromContext(ctx)
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), []string{"read"}, gotScopes)
}

func (suite *BearerAuthTestSuite) TestMissingOwnerRejected() {
	userID := uuid.New()
	token := &models.Token{UserID: userID, ExpiresAt: time.Now().Add(time.Hour)}

	suite.mockTokens.On("ValidateAccessToken", mock.Anything, "0rphan").Return(token, nil)
	suite.mockUsers.On("GetByID", mock.Anything, userID).Return(nil, repositories.ErrUserNotFound)

	rec, reached, _ := suite.run("Bearer 0rphan")

	assert.False(suite.T(), reached)
	assert.Equal(suite.T(), http.StatusUnauthorized, rec.Code)
}

func TestRequireBearer(t *testing.T) {
	e := echo.New()

	t.Run("rejects anonymous requests", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		handler := RequireBearer()(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		assert.NoError(t, handler(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("admits authenticated requests", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
		ctx := context.WithValue(req.Context(), common.UserIDKey, uuid.New())
		req = req.WithContext(ctx)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		handler := RequireBearer()(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		assert.NoError(t, handler(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRequireScope(t *testing.T) {
	e := echo.New()

	runWithScopes := func(t *testing.T, scopes []string, authenticated bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodDelete, "/v1/clients/abc", nil)
		ctx := req.Context()
		if authenticated {
			ctx = context.WithValue(ctx, common.UserIDKey, uuid.New())
			ctx = context.WithValue(ctx, common.ScopesKey, scopes)
		}
		req = req.WithContext(ctx)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		handler := RequireScope("write")(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		assert.NoError(t, handler(c))
		return rec
	}

	t.Run("admits tokens carrying the scope", func(t *testing.T) {
		rec := runWithScopes(t, []string{"read", "write"}, true)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects tokens without the scope", func(t *testing.T) {
		rec := runWithScopes(t, []string{"read"}, true)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "insufficient_scope")
	})

	t.Run("rejects anonymous requests", func(t *testing.T) {
		rec := runWithScopes(t, nil, false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
