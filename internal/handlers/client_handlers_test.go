package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"oauthd/internal/models"
	"oauthd/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) Record(ctx context.Context, eventType string, clientID, userID *uuid.UUID, ip string, detail models.JSONB) error {
	args := m.Called(ctx, eventType, clientID, userID, ip, detail)
	return args.Error(0)
}

func (m *MockAuditService) List(ctx context.Context, filters *models.AuditEventFilters) ([]*models.AuditEvent, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditEvent), args.Error(1)
}

type ClientHandlersTestSuite struct {
	suite.Suite
	e           *echo.Echo
	mockClients *MockClientService
	mockAudit   *MockAuditService
	handlers    *ClientHandlers
	client      *models.Client
}

func (suite *ClientHandlersTestSuite) SetupTest() {
	suite.e = echo.New()
	suite.mockClients = &MockClientService{}
	suite.mockAudit = &MockAuditService{}
	suite.mockClients.Test(suite.T())
	suite.mockAudit.Test(suite.T())
	suite.handlers = NewClientHandlers(suite.mockClients, suite.mockAudit)

	suite.client = &models.Client{
		ID:       uuid.New(),
		ClientID: "s6BhdRkqt3",
		Name:     "Example App",
	}
}

func TestClientHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(ClientHandlersTestSuite))
}

func (suite *ClientHandlersTestSuite) deleteRequest(clientID string) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(http.MethodDelete, "/v1/clients/"+clientID, nil)
	rec := httptest.NewRecorder()
	c := suite.e.NewContext(req, rec)
	c.SetPath("/v1/clients/:client_id")
	c.SetParamNames("client_id")
	c.SetParamValues(clientID)
	return rec, suite.handlers.Delete(c)
}

func (suite *ClientHandlersTestSuite) TestDeleteRevokesClient() {
	suite.mockClients.On("GetByClientID", mock.Anything, "s6BhdRkqt3").Return(suite.client, nil)
	suite.mockClients.On("Delete", mock.Anything, suite.client.ID).Return(nil)
	suite.mockAudit.On("Record", mock.Anything, models.EventClientDeleted, &suite.client.ID, (*uuid.UUID)(nil), mock.Anything, mock.Anything).Return(nil)

	rec, err := suite.deleteRequest("s6BhdRkqt3")

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusNoContent, rec.Code)
	suite.mockClients.AssertExpectations(suite.T())
	suite.mockAudit.AssertExpectations(suite.T())
}

func (suite *ClientHandlersTestSuite) TestDeleteUnknownClient() {
	suite.mockClients.On("GetByClientID", mock.Anything, "ghost").Return(nil, services.ErrClientNotFound)

	_, err := suite.deleteRequest("ghost")

	httpErr, ok := err.(*echo.HTTPError)
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), http.StatusNotFound, httpErr.Code)
	suite.mockClients.AssertNotCalled(suite.T(), "Delete", mock.Anything, mock.Anything)
}

func (suite *ClientHandlersTestSuite) TestDeleteFailureIsReported() {
	suite.mockClients.On("GetByClientID", mock.Anything, "s6BhdRkqt3").Return(suite.client, nil)
	suite.mockClients.On("Delete", mock.Anything, suite.client.ID).Return(assert.AnError)

	_, err := suite.deleteRequest("s6BhdRkqt3")

	httpErr, ok := err.(*echo.HTTPError)
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), http.StatusInternalServerError, httpErr.Code)
	suite.mockAudit.AssertNotCalled(suite.T(), "Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
