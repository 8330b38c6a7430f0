package shipmentrepo_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"freight/internal/adapters/out/postgres/shipmentrepo"
	"freight/internal/core/domain/model/address"
	"freight/internal/core/domain/model/kernel"
	"freight/internal/core/domain/model/rate"
	"freight/internal/core/domain/model/shipment"
	"freight/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type MockAggregateTracker struct {
	mock.Mock
}

func (m *MockAggregateTracker) TrackAggregate(id kernel.UUID, aggregate any) {
	m.Called(id, aggregate)
}

// ShipmentRepositoryIntegrationTestSuite checks shipment, parcel and label
// persistence against a real PostgreSQL.
type ShipmentRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *shipmentrepo.GormShipmentRepository
	tracker    *MockAggregateTracker
	now        time.Time
}

func (suite *ShipmentRepositoryIntegrationTestSuite) SetupSuite() {
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

	suite.Require().NoError(db.AutoMigrate(
		&shipmentrepo.ShipmentDTO{},
		&shipmentrepo.ParcelDTO{},
		&shipmentrepo.LabelDTO{},
	))
}

func (suite *ShipmentRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE shipment_labels, shipment_parcels, shipments").Error)

	suite.tracker = new(MockAggregateTracker)
	suite.tracker.On("TrackAggregate", mock.Anything, mock.Anything).Maybe()
	suite.repository = shipmentrepo.NewGormShipmentRepository(suite.db, suite.tracker)
	suite.now = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
}

func (suite *ShipmentRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *ShipmentRepositoryIntegrationTestSuite) TestAdd_PackedShipment_RoundTrips() {
	ctx := context.Background()

	s, err := shipment.NewShipment(1001, suite.destination())
	suite.Require().NoError(err)
	suite.Require().NoError(suite.repository.Add(ctx, s))

	got, err := suite.repository.GetByTransfer(ctx, 1001)
	suite.Require().NoError(err)
	suite.True(s.ID().IsEqual(got.ID()))
	suite.Equal(shipment.StatusPacked, got.Status())
	suite.Equal(shipment.DeliveryCourier, got.DeliveryMode())
	suite.Equal("Auckland", got.Destination().City)
	suite.False(got.HasActiveLabel())
	suite.Empty(got.Parcels())
	suite.tracker.AssertCalled(suite.T(), "TrackAggregate", s.ID(), s)
}

func (suite *ShipmentRepositoryIntegrationTestSuite) TestUpdate_AttachLabel_PersistsParcelsAndLabel() {
	ctx := context.Background()
	s := suite.addPacked(1002)

	label := suite.newLabel("NZ123", "NZ124")
	suite.Require().NoError(s.AttachLabel(label, suite.parcels(2), suite.now))
	suite.Require().NoError(suite.repository.Update(ctx, s))

	got, err := suite.repository.GetByTransfer(ctx, 1002)
	suite.Require().NoError(err)
	suite.Equal(shipment.StatusLabelled, got.Status())
	suite.Equal("NZ123", got.Tracking())
	suite.Require().NotNil(got.DispatchedAt())

	active := got.ActiveLabel()
	suite.Require().NotNil(active)
	suite.Equal([]string{"NZ123", "NZ124"}, active.TrackingNumbers())
	suite.True(decimal.RequireFromString("12.34").Equal(active.Cost()))
	suite.True(decimal.RequireFromString("1.20").Equal(active.Breakdown().Fuel))
	suite.JSONEq(`{"order_id": 77}`, string(active.RawResponse()))
	suite.Equal("starshipit", active.Metadata()["source"])

	parcels := got.Parcels()
	suite.Require().Len(parcels, 2)
	suite.Equal(1, parcels[0].BoxNumber())
	suite.Equal(shipment.ParcelLabelled, parcels[0].Status())
}

func (suite *ShipmentRepositoryIntegrationTestSuite) TestUpdate_ReplaceLabel_SoftDeletesPrevious() {
	ctx := context.Background()
	s := suite.addPacked(1003)

	first := suite.newLabel("OLD1")
	suite.Require().NoError(s.AttachLabel(first, suite.parcels(3), suite.now))
	suite.Require().NoError(suite.repository.Update(ctx, s))

	loaded, err := suite.repository.GetByTransfer(ctx, 1003)
	suite.Require().NoError(err)

	loaded.ClearForReplacement(suite.now.Add(time.Minute))
	second := suite.newLabel("NEW1")
	suite.Require().NoError(loaded.AttachLabel(second, suite.parcels(1), suite.now.Add(time.Minute)))
	suite.Require().NoError(suite.repository.Update(ctx, loaded))

	got, err := suite.repository.GetByTransfer(ctx, 1003)
	suite.Require().NoError(err)
	suite.Equal("NEW1", got.Tracking())
	suite.Len(got.Parcels(), 1)
	suite.True(got.ActiveLabel().ID().IsEqual(second.ID()))

	var total, deleted int64
	suite.Require().NoError(suite.db.Unscoped().Model(&shipmentrepo.LabelDTO{}).Count(&total).Error)
	suite.Require().NoError(suite.db.Unscoped().Model(&shipmentrepo.LabelDTO{}).
		Where("deleted_at IS NOT NULL").Count(&deleted).Error)
	suite.Equal(int64(2), total, "labels are never removed")
	suite.Equal(int64(1), deleted)
}

func (suite *ShipmentRepositoryIntegrationTestSuite) TestUpdate_Cancel_ClearsParcelsAndTracking() {
	ctx := context.Background()
	s := suite.addPacked(1004)
	suite.Require().NoError(s.AttachLabel(suite.newLabel("C1"), suite.parcels(2), suite.now))
	suite.Require().NoError(suite.repository.Update(ctx, s))

	loaded, err := suite.repository.GetByTransfer(ctx, 1004)
	suite.Require().NoError(err)
	suite.Require().NoError(loaded.CancelLabel(suite.now.Add(time.Hour)))
	suite.Require().NoError(loaded.Reopen())
	suite.Require().NoError(suite.repository.Update(ctx, loaded))

	got, err := suite.repository.GetByTransfer(ctx, 1004)
	suite.Require().NoError(err)
	suite.Equal(shipment.StatusPacked, got.Status())
	suite.Empty(got.Tracking())
	suite.Nil(got.DispatchedAt())
	suite.Empty(got.Parcels())
	suite.False(got.HasActiveLabel())
}

func (suite *ShipmentRepositoryIntegrationTestSuite) TestGetByTransfer_NotFound() {
	_, err := suite.repository.GetByTransfer(context.Background(), 424242)
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *ShipmentRepositoryIntegrationTestSuite) TestLockByTransfer_InsideTransaction() {
	ctx := context.Background()
	suite.addPacked(1005)

	err := suite.db.Transaction(func(tx *gorm.DB) error {
		repo := shipmentrepo.NewGormShipmentRepository(tx, suite.tracker)
		got, err := repo.LockByTransfer(ctx, 1005)
		if err != nil {
			return err
		}
		suite.Equal(int64(1005), got.TransferID())
		return nil
	})
	suite.Require().NoError(err)
}

func (suite *ShipmentRepositoryIntegrationTestSuite) TestAdd_DuplicateTransfer_Conflict() {
	ctx := context.Background()
	suite.addPacked(1006)

	dup, err := shipment.NewShipment(1006, suite.destination())
	suite.Require().NoError(err)

	err = suite.repository.Add(ctx, dup)
	suite.Require().Error(err)
	suite.True(errs.IsCategory(err, errs.CategoryConflict))
}

func (suite *ShipmentRepositoryIntegrationTestSuite) TestAddIfAbsent_SkipsExistingTransfer() {
	ctx := context.Background()
	first := suite.addPacked(1007)

	dup, err := shipment.NewShipment(1007, suite.destination())
	suite.Require().NoError(err)

	inserted, err := suite.repository.AddIfAbsent(ctx, dup)
	suite.Require().NoError(err)
	suite.False(inserted)

	got, err := suite.repository.GetByTransfer(ctx, 1007)
	suite.Require().NoError(err)
	suite.Equal(first.ID(), got.ID())
}

func (suite *ShipmentRepositoryIntegrationTestSuite) TestAddIfAbsent_WaitsForConcurrentInsert() {
	ctx := context.Background()

	tx := suite.db.Begin()
	suite.Require().NoError(tx.Error)
	winner, err := shipment.NewShipment(1008, suite.destination())
	suite.Require().NoError(err)
	inserted, err := shipmentrepo.NewGormShipmentRepository(tx, suite.tracker).AddIfAbsent(ctx, winner)
	suite.Require().NoError(err)
	suite.Require().True(inserted)

	type result struct {
		inserted bool
		err      error
	}
	done := make(chan result, 1)
	go func() {
		loser, err := shipment.NewShipment(1008, suite.destination())
		if err != nil {
			done <- result{err: err}
			return
		}
		ok, err := suite.repository.AddIfAbsent(ctx, loser)
		done <- result{inserted: ok, err: err}
	}()

	select {
	case <-done:
		suite.Fail("insert did not wait for the open transaction")
	case <-time.After(200 * time.Millisecond):
	}
	suite.Require().NoError(tx.Commit().Error)

	got := <-done
	suite.Require().NoError(got.err)
	suite.False(got.inserted)

	stored, err := suite.repository.GetByTransfer(ctx, 1008)
	suite.Require().NoError(err)
	suite.Equal(winner.ID(), stored.ID())
}

func (suite *ShipmentRepositoryIntegrationTestSuite) addPacked(transferID int64) *shipment.Shipment {
	s, err := shipment.NewShipment(transferID, suite.destination())
	suite.Require().NoError(err)
	suite.Require().NoError(suite.repository.Add(context.Background(), s))
	return s
}

func (suite *ShipmentRepositoryIntegrationTestSuite) destination() address.Address {
	return address.Address{
		Name:     "Store 12",
		Line1:    "12 Queen Street",
		City:     "Auckland",
		Postcode: "1010",
		Country:  "NZ",
	}
}

func (suite *ShipmentRepositoryIntegrationTestSuite) newLabel(tracking ...string) *shipment.Label {
	label, err := shipment.NewLabel(shipment.LabelDetails{
		CarrierCode:     "NZPOST",
		CarrierName:     "NZ Post",
		Service:         "CPOLTPA5",
		TrackingNumbers: tracking,
		CarrierOrderID:  "77",
		Cost:            decimal.RequireFromString("12.34"),
		Breakdown: rate.CostBreakdown{
			Base: decimal.RequireFromString("11.14"),
			Fuel: decimal.RequireFromString("1.20"),
		},
		RawResponse: json.RawMessage(`{"order_id":77}`),
		Metadata:    map[string]string{"source": "starshipit"},
	}, suite.now)
	suite.Require().NoError(err)
	return label
}

func (suite *ShipmentRepositoryIntegrationTestSuite) parcels(n int) []*shipment.Parcel {
	dims, err := kernel.NewDimensions(300, 200, 100)
	suite.Require().NoError(err)

	out := make([]*shipment.Parcel, 0, n)
	for i := 1; i <= n; i++ {
		p, err := shipment.NewParcel(i, 800, dims, "CPOLTPA5")
		suite.Require().NoError(err)
		out = append(out, p)
	}
	return out
}

func TestShipmentRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(ShipmentRepositoryIntegrationTestSuite))
}
