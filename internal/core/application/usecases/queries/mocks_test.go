package queries_test

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"freight/internal/core/domain/model/address"
	"freight/internal/core/domain/model/allocation"
	"freight/internal/core/domain/model/catalog"
	"freight/internal/core/domain/model/kernel"
	"freight/internal/core/domain/model/rate"
	"freight/internal/core/domain/model/shipment"
	"freight/internal/core/domain/model/transfer"
	"freight/internal/core/ports"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTransferRepository struct{ mock.Mock }

func (m *MockTransferRepository) Get(ctx context.Context, id int64) (*transfer.Transfer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transfer.Transfer), args.Error(1)
}

type MockShipmentRepository struct{ mock.Mock }

func (m *MockShipmentRepository) Add(ctx context.Context, s *shipment.Shipment) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockShipmentRepository) AddIfAbsent(ctx context.Context, s *shipment.Shipment) (bool, error) {
	args := m.Called(ctx, s)
	return args.Bool(0), args.Error(1)
}

func (m *MockShipmentRepository) Update(ctx context.Context, s *shipment.Shipment) error {
	args := m.Called(ctx, s)
	return args.Error(0)
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
	args := m.Called(ctx, c)
	return args.Error(0)
}

type MockProductRepository struct{ mock.Mock }

func (m *MockProductRepository) GetProfiles(ctx context.Context, ids []string) (map[string]allocation.ProductProfile, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]allocation.ProductProfile), args.Error(1)
}

func (m *MockProductRepository) WeightCoverage(ctx context.Context, gapLimit int) (ports.WeightCoverage, error) {
	args := m.Called(ctx, gapLimit)
	return args.Get(0).(ports.WeightCoverage), args.Error(1)
}

type MockMetrics struct{ mock.Mock }

func (m *MockMetrics) RateShopped(outcome string)        { m.Called(outcome) }
func (m *MockMetrics) LabelPurchased(carrierCode string) { m.Called(carrierCode) }
func (m *MockMetrics) LabelCancelled(carrierCode string) { m.Called(carrierCode) }

// stubCarrier is a scripted carrier client. Quote may run concurrently.
type stubCarrier struct {
	code     string
	required []string
	rates    []rate.Rate
	err      error
	quotes   atomic.Int32
	lastReq  atomic.Pointer[ports.QuoteRequest]
}

func (s *stubCarrier) Code() string                  { return s.code }
func (s *stubCarrier) RequiredCredentials() []string { return s.required }

func (s *stubCarrier) Quote(_ context.Context, _ ports.Credentials, req ports.QuoteRequest) ([]rate.Rate, error) {
	s.quotes.Add(1)
	s.lastReq.Store(&req)
	return s.rates, s.err
}

func (s *stubCarrier) CreateShipment(context.Context, ports.Credentials, ports.ShipmentRequest) (shipment.LabelDetails, error) {
	panic("not used by queries")
}

func (s *stubCarrier) FetchLabel(context.Context, ports.Credentials, ports.LabelRef) (ports.LabelDocument, error) {
	panic("not used by queries")
}

func (s *stubCarrier) Cancel(context.Context, ports.Credentials, ports.LabelRef) error {
	panic("not used by queries")
}

type stubRegistry struct {
	clients []*stubCarrier
}

func (r stubRegistry) Client(code string) (ports.CarrierClient, bool) {
	for _, c := range r.clients {
		if c.code == catalog.NormalizeCarrierCode(code) {
			return c, true
		}
	}
	return nil, false
}

func (r stubRegistry) Codes() []string {
	codes := make([]string, 0, len(r.clients))
	for _, c := range r.clients {
		codes = append(codes, c.code)
	}
	return codes
}

// stubCredentials maps carrier code to credential values for every outlet.
type stubCredentials map[string]map[string]string

func (s stubCredentials) Lookup(_, code string) (ports.Credentials, bool) {
	values, ok := s[code]
	return ports.Credentials{Carrier: code, Values: values}, ok
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newTransfer(t *testing.T, id int64) *transfer.Transfer {
	t.Helper()
	tr, err := transfer.NewTransfer(
		id,
		"outlet-7",
		address.Address{Name: "Warehouse", Line1: "1 Depot Road", City: "Auckland", Postcode: "1010", Country: "NZ"},
		address.Address{Name: "Store 12", Line1: "12 Queen Street", City: "Hamilton", Postcode: "3204", Country: "NZ"},
		[]allocation.LineRef{{ProductID: "p-1", Quantity: 2}, {ProductID: "p-2", Quantity: 1}},
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

func newContainer(t *testing.T, carrierCode, code string, kind catalog.Kind, capG int, cost string, d kernel.Dimensions) *catalog.ContainerSpec {
	t.Helper()
	c, err := catalog.NewContainerSpec(kernel.NewUUID(), carrierCode, code, code, kind, d, capG, decimal.RequireFromString(cost))
	require.NoError(t, err)
	return c
}

func newDims(t *testing.T, l, w, h int) kernel.Dimensions {
	t.Helper()
	d, err := kernel.NewDimensions(l, w, h)
	require.NoError(t, err)
	return d
}

func newCarrier(t *testing.T, code string, enabled bool) catalog.Carrier {
	t.Helper()
	c, err := catalog.NewCarrier(code, code, catalog.DefaultCubicFactor, enabled)
	require.NoError(t, err)
	return c
}
