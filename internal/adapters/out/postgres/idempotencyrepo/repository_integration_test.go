package idempotencyrepo_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"freight/internal/adapters/out/postgres/idempotencyrepo"
	"freight/internal/core/domain/model/idempotency"
	"freight/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type IdempotencyRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *idempotencyrepo.GormIdempotencyRepository
	now        time.Time
}

func (suite *IdempotencyRepositoryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(postgresdriver.Open(connStr), &gorm.Config{TranslateError: true})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(db.AutoMigrate(&idempotencyrepo.RecordDTO{}))
}

func (suite *IdempotencyRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE idempotency_records").Error)
	suite.repository = idempotencyrepo.NewGormIdempotencyRepository(suite.db)
	suite.now = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
}

func (suite *IdempotencyRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *IdempotencyRepositoryIntegrationTestSuite) TestAddGet_ResponseBytesAreVerbatim() {
	ctx := context.Background()
	body := json.RawMessage(`{"ok":true,  "data":{"tracking":"NZ1"},"request_id":"r-1"}`)

	rec := suite.record("abc", body, suite.now)
	suite.Require().NoError(suite.repository.Add(ctx, rec))

	got, err := suite.repository.Get(ctx, "abc")
	suite.Require().NoError(err)
	suite.Equal(string(body), string(got.Response()))
	suite.Equal(200, got.StatusCode())
	suite.Equal("r-1", got.RequestID())
	suite.True(got.Matches(rec.Fingerprint()))
}

func (suite *IdempotencyRepositoryIntegrationTestSuite) TestAdd_DuplicateKey_Conflict() {
	ctx := context.Background()
	suite.Require().NoError(suite.repository.Add(ctx, suite.record("dup", json.RawMessage(`{}`), suite.now)))

	err := suite.repository.Add(ctx, suite.record("dup", json.RawMessage(`{}`), suite.now))
	suite.Require().Error(err)
	suite.True(errs.IsCategory(err, errs.CategoryConflict))
}

func (suite *IdempotencyRepositoryIntegrationTestSuite) TestGet_Unknown() {
	_, err := suite.repository.Get(context.Background(), "missing")
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *IdempotencyRepositoryIntegrationTestSuite) TestDeleteOlderThan() {
	ctx := context.Background()
	suite.Require().NoError(suite.repository.Add(ctx, suite.record("old", json.RawMessage(`{}`), suite.now.AddDate(0, 0, -40))))
	suite.Require().NoError(suite.repository.Add(ctx, suite.record("new", json.RawMessage(`{}`), suite.now)))

	removed, err := suite.repository.DeleteOlderThan(ctx, suite.now.AddDate(0, 0, -30))
	suite.Require().NoError(err)
	suite.Equal(int64(1), removed)

	_, err = suite.repository.Get(ctx, "new")
	suite.Require().NoError(err)
}

func (suite *IdempotencyRepositoryIntegrationTestSuite) record(key string, body json.RawMessage, at time.Time) *idempotency.Record {
	k, err := idempotency.ParseKey(key)
	suite.Require().NoError(err)
	fp, err := idempotency.Fingerprint(idempotency.ScopeBuyLabel, 7, map[string]any{"carrier": "NZPOST"})
	suite.Require().NoError(err)
	rec, err := idempotency.NewRecord(k, idempotency.ScopeBuyLabel, 7, fp, 200, body, "r-1", at)
	suite.Require().NoError(err)
	return rec
}

func TestIdempotencyRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(IdempotencyRepositoryIntegrationTestSuite))
}
