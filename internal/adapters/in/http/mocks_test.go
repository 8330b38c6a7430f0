package http

import (
	"context"

	"freight/internal/core/application/usecases/commands"
	"freight/internal/core/application/usecases/queries"
	"freight/internal/core/domain/services"

	"github.com/stretchr/testify/mock"
)

type MockRatesShopper struct{ mock.Mock }

func (m *MockRatesShopper) Handle(ctx context.Context, q queries.GetRatesQuery) (queries.GetRatesQueryResponse, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(queries.GetRatesQueryResponse), args.Error(1)
}

type MockBoxAllocator struct{ mock.Mock }

func (m *MockBoxAllocator) Handle(ctx context.Context, q queries.AllocateBoxesQuery) (queries.AllocateBoxesQueryResponse, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(queries.AllocateBoxesQueryResponse), args.Error(1)
}

type MockLabelBuyer struct{ mock.Mock }

func (m *MockLabelBuyer) Handle(ctx context.Context, c commands.BuyLabelCommand) (commands.Outcome, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(commands.Outcome), args.Error(1)
}

type MockLabelCanceller struct{ mock.Mock }

func (m *MockLabelCanceller) Handle(ctx context.Context, c commands.CancelLabelCommand) (commands.Outcome, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(commands.Outcome), args.Error(1)
}

type MockShipmentReader struct{ mock.Mock }

func (m *MockShipmentReader) Handle(ctx context.Context, q queries.GetShipmentQuery) (*queries.GetShipmentQueryResponse, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queries.GetShipmentQueryResponse), args.Error(1)
}

type MockAddressSaver struct{ mock.Mock }

func (m *MockAddressSaver) Handle(ctx context.Context, c commands.SaveAddressCommand) (commands.SaveAddressResult, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(commands.SaveAddressResult), args.Error(1)
}

type MockManualDispatcher struct{ mock.Mock }

func (m *MockManualDispatcher) Handle(ctx context.Context, c commands.ManualDispatchCommand) (commands.ManualDispatchResult, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(commands.ManualDispatchResult), args.Error(1)
}

type MockAddressValidator struct{ mock.Mock }

func (m *MockAddressValidator) Handle(q queries.ValidateAddressQuery) (queries.ValidateAddressQueryResponse, error) {
	args := m.Called(q)
	return args.Get(0).(queries.ValidateAddressQueryResponse), args.Error(1)
}

type MockContainerPicker struct{ mock.Mock }

func (m *MockContainerPicker) Handle(ctx context.Context, q queries.PickContainerQuery) (*services.PickResult, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PickResult), args.Error(1)
}

type MockCatalogHealthReader struct{ mock.Mock }

func (m *MockCatalogHealthReader) Handle(ctx context.Context, q queries.CatalogHealthQuery) (queries.CatalogHealthQueryResponse, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(queries.CatalogHealthQueryResponse), args.Error(1)
}
