package repositories

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"oauthd/internal/models"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type AuditRepoTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	repo    AuditRepository
	context context.Context
}

func (suite *AuditRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewAuditRepo(mock)
	suite.context = context.Background()
}

func (suite *AuditRepoTestSuite) TearDownTest() {
	suite.mock.Close()
}

func TestAuditRepoTestSuite(t *testing.T) {
	suite.Run(t, new(AuditRepoTestSuite))
}

func (suite *AuditRepoTestSuite) TestCreate() {
	clientID := uuid.New()
	event := &models.AuditEvent{
		EventType: models.EventTokenRequest,
		ClientID:  &clientID,
		IP:        "203.0.113.9",
		Detail:    models.JSONB{"status": 200},
	}

	suite.mock.ExpectExec(`INSERT INTO oauth_audit_events`).
		WithArgs(pgxmock.AnyArg(), models.EventTokenRequest, &clientID, (*uuid.UUID)(nil), "203.0.113.9", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Create(suite.context, event)
	assert.NoError(suite.T(), err)
	assert.NotEqual(suite.T(), uuid.Nil, event.ID)
	assert.False(suite.T(), event.CreatedAt.IsZero())
}

func (suite *AuditRepoTestSuite) TestListFiltersByEventType() {
	eventID := uuid.New()
	clientID := uuid.New()
	detail, err := json.Marshal(models.JSONB{"status": float64(200)})
	assert.NoError(suite.T(), err)

	rows := pgxmock.NewRows([]string{"id", "event_type", "client_id", "user_id", "ip", "detail", "created_at"}).
		AddRow(eventID, models.EventTokenRequest, &clientID, (*uuid.UUID)(nil), "203.0.113.9", detail, time.Now())

	suite.mock.ExpectQuery(`SELECT id, event_type, client_id, user_id, ip, detail, created_at\s+FROM oauth_audit_events`).
		WithArgs(models.EventTokenRequest, 50).
		WillReturnRows(rows)

	eventType := models.EventTokenRequest
	events, err := suite.repo.List(suite.context, &models.AuditEventFilters{EventType: &eventType, Limit: 50})
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), events, 1)
	assert.Equal(suite.T(), eventID, events[0].ID)
	assert.Equal(suite.T(), models.JSONB{"status": float64(200)}, events[0].Detail)
}

func (suite *AuditRepoTestSuite) TestListEmpty() {
	rows := pgxmock.NewRows([]string{"id", "event_type", "client_id", "user_id", "ip", "detail", "created_at"})

	suite.mock.ExpectQuery(`FROM oauth_audit_events`).
		WithArgs(50).
		WillReturnRows(rows)

	events, err := suite.repo.List(suite.context, &models.AuditEventFilters{Limit: 50})
	assert.NoError(suite.T(), err)
	assert.Empty(suite.T(), events)
}
