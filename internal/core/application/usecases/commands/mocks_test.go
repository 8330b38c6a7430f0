package commands_test

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"freight/internal/core/application/usecases/commands"
	"freight/internal/core/domain/model/address"
	"freight/internal/core/domain/model/allocation"
	"freight/internal/core/domain/model/catalog"
	"freight/internal/core/domain/model/idempotency"
	"freight/internal/core/domain/model/kernel"
	"freight/internal/core/domain/model/rate"
	"freight/internal/core/domain/model/shipment"
	"freight/internal/core/domain/model/transfer"
	"freight/internal/core/ports"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockShipmentRepository struct{ mock.Mock }

func (m *MockShipmentRepository) Add(ctx context.Context, s *shipment.Shipment) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockShipmentRepository) AddIfAbsent(ctx context.Context, s *shipment.Shipment) (bool, error) {
	args := m.Called(ctx, s)
	return args.Bool(0), args.Error(1)
}

func (m *MockShipmentRepository) Update(ctx context.Context, s *shipment.Shipment) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockShipmentRepository) GetByTransfer(ctx context.Context, transferID int64) (*shipment.Shipment, error) {
	args := m.Called(ctx, transferID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipment.Shipment), args.Error(1)
}

func (m *MockShipmentRepository) LockByTransfer(ctx context.Context, transferID int64) (*shipment.Shipment, error) {
	args := m.Called(ctx, transferID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipment.Shipment), args.Error(1)
}

type MockTransferRepository struct{ mock.Mock }

func (m *MockTransferRepository) Get(ctx context.Context, id int64) (*transfer.Transfer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transfer.Transfer), args.Error(1)
}

type MockIdempotencyRepository struct{ mock.Mock }

func (m *MockIdempotencyRepository) Get(ctx context.Context, key idempotency.Key) (*idempotency.Record, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*idempotency.Record), args.Error(1)
}

func (m *MockIdempotencyRepository) Add(ctx context.Context, r *idempotency.Record) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockIdempotencyRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type MockCatalogRepository struct{ mock.Mock }

func (m *MockCatalogRepository) GetCarrier(ctx context.Context, code string) (catalog.Carrier, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(catalog.Carrier), args.Error(1)
}

func (m *MockCatalogRepository) ListCarriers(ctx context.Context) ([]catalog.Carrier, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Carrier), args.Error(1)
}

func (m *MockCatalogRepository) ListContainers(ctx context.Context, carrierCode string) ([]*catalog.ContainerSpec, error) {
	args := m.Called(ctx, carrierCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*catalog.ContainerSpec), args.Error(1)
}

func (m *MockCatalogRepository) GetContainer(ctx context.Context, carrierCode, code string) (*catalog.ContainerSpec, error) {
	args := m.Called(ctx, carrierCode, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.ContainerSpec), args.Error(1)
}

func (m *MockCatalogRepository) UpsertContainer(ctx context.Context, c *catalog.ContainerSpec) error {
	return m.Called(ctx, c).Error(0)
}

// MockUoW satisfies every unit of work interface of the commands package.
type MockUoW struct{ mock.Mock }

func (m *MockUoW) Begin(ctx context.Context) error    { return m.Called(ctx).Error(0) }
func (m *MockUoW) Commit(ctx context.Context) error   { return m.Called(ctx).Error(0) }
func (m *MockUoW) Rollback(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *MockUoW) ShipmentRepository() ports.ShipmentRepository {
	return m.Called().Get(0).(ports.ShipmentRepository)
}

func (m *MockUoW) TransferRepository() ports.TransferRepository {
	return m.Called().Get(0).(ports.TransferRepository)
}

func (m *MockUoW) IdempotencyRepository() ports.IdempotencyRepository {
	return m.Called().Get(0).(ports.IdempotencyRepository)
}

func (m *MockUoW) CatalogRepository() ports.CatalogRepository {
	return m.Called().Get(0).(ports.CatalogRepository)
}

type MockLabelUoWFactory struct{ mock.Mock }

func (m *MockLabelUoWFactory) Create() commands.LabelUoW {
	return m.Called().Get(0).(commands.LabelUoW)
}

type MockShipmentUoWFactory struct{ mock.Mock }

func (m *MockShipmentUoWFactory) Create() commands.ShipmentUoW {
	return m.Called().Get(0).(commands.ShipmentUoW)
}

type MockCatalogUoWFactory struct{ mock.Mock }

func (m *MockCatalogUoWFactory) Create() commands.CatalogUoW {
	return m.Called().Get(0).(commands.CatalogUoW)
}

type MockIdempotencyUoWFactory struct{ mock.Mock }

func (m *MockIdempotencyUoWFactory) Create() commands.IdempotencyUoW {
	return m.Called().Get(0).(commands.IdempotencyUoW)
}

type MockMetrics struct{ mock.Mock }

func (m *MockMetrics) RateShopped(outcome string)        { m.Called(outcome) }
func (m *MockMetrics) LabelPurchased(carrierCode string) { m.Called(carrierCode) }
func (m *MockMetrics) LabelCancelled(carrierCode string) { m.Called(carrierCode) }

// stubCarrier records how often each carrier operation was called.
type stubCarrier struct {
	code     string
	required []string

	label     shipment.LabelDetails
	createErr error
	document  ports.LabelDocument
	fetchErr  error
	cancelErr error
	products  []ports.CarrierProduct
	delay     time.Duration

	creates  atomic.Int32
	fetches  atomic.Int32
	cancels  atomic.Int32
	lastReq  atomic.Pointer[ports.ShipmentRequest]
	lastRef  atomic.Pointer[ports.LabelRef]
	lastCred atomic.Pointer[ports.Credentials]
}

func (s *stubCarrier) Code() string                  { return s.code }
func (s *stubCarrier) RequiredCredentials() []string { return s.required }

func (s *stubCarrier) Quote(context.Context, ports.Credentials, ports.QuoteRequest) ([]rate.Rate, error) {
	panic("Quote is not used by commands")
}

func (s *stubCarrier) CreateShipment(_ context.Context, creds ports.Credentials, req ports.ShipmentRequest) (shipment.LabelDetails, error) {
	s.creates.Add(1)
	time.Sleep(s.delay)
	s.lastReq.Store(&req)
	s.lastCred.Store(&creds)
	return s.label, s.createErr
}

func (s *stubCarrier) FetchLabel(_ context.Context, _ ports.Credentials, ref ports.LabelRef) (ports.LabelDocument, error) {
	s.fetches.Add(1)
	s.lastRef.Store(&ref)
	return s.document, s.fetchErr
}

func (s *stubCarrier) Cancel(_ context.Context, _ ports.Credentials, ref ports.LabelRef) error {
	s.cancels.Add(1)
	s.lastRef.Store(&ref)
	return s.cancelErr
}

// stubProductCarrier is a carrier that also publishes container products.
type stubProductCarrier struct {
	*stubCarrier
	productsErr error
}

func (s stubProductCarrier) Products(context.Context, ports.Credentials) ([]ports.CarrierProduct, error) {
	return s.products, s.productsErr
}

type stubRegistry map[string]ports.CarrierClient

func (r stubRegistry) Client(code string) (ports.CarrierClient, bool) {
	c, ok := r[code]
	return c, ok
}

func (r stubRegistry) Codes() []string {
	codes := make([]string, 0, len(r))
	for _, code := range []string{catalog.CarrierNZPost, catalog.CarrierGSS} {
		if _, ok := r[code]; ok {
			codes = append(codes, code)
		}
	}
	return codes
}

// stubCredentials maps carrier code to credential values for every outlet.
type stubCredentials map[string]map[string]string

func (s stubCredentials) Lookup(_, code string) (ports.Credentials, bool) {
	values, ok := s[code]
	return ports.Credentials{Carrier: code, Values: values}, ok
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTransfer(t *testing.T, id int64) *transfer.Transfer {
	t.Helper()
	tr, err := transfer.NewTransfer(
		id,
		"outlet-7",
		address.Address{Name: "Warehouse", Line1: "1 Depot Road", City: "Auckland", Postcode: "1010", Country: "NZ"},
		address.Address{Name: "Store 12", Line1: "12 Queen Street", City: "Hamilton", Postcode: "3204", Country: "NZ"},
		[]allocation.LineRef{{ProductID: "p-1", Quantity: 2}},
	)
	require.NoError(t, err)
	return tr
}

func newRate(t *testing.T, provider, service, cost string) rate.Rate {
	t.Helper()
	r, err := rate.NewRate(provider, provider, service, decimal.RequireFromString(cost))
	require.NoError(t, err)
	return r.WithServiceCode(service)
}

func labelDetails(carrierCode string, tracking ...string) shipment.LabelDetails {
	return shipment.LabelDetails{
		CarrierCode:     carrierCode,
		CarrierName:     carrierCode,
		Service:         "CPOLTPA5",
		TrackingNumbers: tracking,
		CarrierOrderID:  "order-" + tracking[0],
		Cost:            decimal.RequireFromString("12.50"),
	}
}

func labelledShipment(t *testing.T, transferID int64, tracking string) *shipment.Shipment {
	t.Helper()
	s, err := shipment.NewShipment(transferID, address.Address{})
	require.NoError(t, err)
	label, err := shipment.NewLabel(labelDetails(catalog.CarrierNZPost, tracking), fixedNow.Add(-time.Hour))
	require.NoError(t, err)
	p, err := shipment.NewParcel(1, 900, kernel.UnknownDimensions(), "")
	require.NoError(t, err)
	require.NoError(t, s.AttachLabel(label, []*shipment.Parcel{p}, fixedNow.Add(-time.Hour)))
	return s
}
