package commands_test

import (
	"encoding/json"
	"errors"
	"testing"

	"freight/internal/core/application/usecases/commands"
	"freight/internal/core/domain/model/address"
	"freight/internal/core/domain/model/catalog"
	"freight/internal/core/domain/model/idempotency"
	"freight/internal/core/domain/model/rate"
	"freight/internal/core/domain/model/shipment"
	"freight/internal/core/ports"
	"freight/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type buyFixture struct {
	uow         *MockUoW
	factory     *MockLabelUoWFactory
	shipments   *MockShipmentRepository
	transfers   *MockTransferRepository
	idempotency *MockIdempotencyRepository
	metrics     *MockMetrics
	carrier     *stubCarrier
	handler     commands.BuyLabelCommandHandler
}

func newBuyFixture(t *testing.T, creds stubCredentials) *buyFixture {
	t.Helper()
	f := &buyFixture{
		uow:         new(MockUoW),
		factory:     new(MockLabelUoWFactory),
		shipments:   new(MockShipmentRepository),
		transfers:   new(MockTransferRepository),
		idempotency: new(MockIdempotencyRepository),
		metrics:     new(MockMetrics),
		carrier: &stubCarrier{
			code:     catalog.CarrierNZPost,
			required: []string{"api_key", "subscription_key"},
			label:    labelDetails(catalog.CarrierNZPost, "NZ500"),
			document: ports.LabelDocument{URL: "https://labels.example/NZ500.pdf"},
		},
	}
	f.factory.On("Create").Return(f.uow)
	f.uow.On("ShipmentRepository").Return(f.shipments)
	f.uow.On("TransferRepository").Return(f.transfers)
	f.uow.On("IdempotencyRepository").Return(f.idempotency)
	f.uow.On("Rollback", mock.Anything).Return(nil)

	f.handler = commands.NewBuyLabelCommandHandler(
		f.factory,
		stubRegistry{catalog.CarrierNZPost: f.carrier},
		creds,
		fixedClock{now: fixedNow},
		f.metrics,
		discardLogger(),
	)
	return f
}

func nzPostCredentials() stubCredentials {
	return stubCredentials{catalog.CarrierNZPost: {"api_key": "k", "subscription_key": "s"}}
}

func buyCommand(t *testing.T, purchase commands.PurchaseOptions, key string) commands.BuyLabelCommand {
	t.Helper()
	cmd, err := commands.NewBuyLabelCommand(
		42,
		newRate(t, "NZPOST", "CPOLTPA5", "12.50"),
		[]rate.ParcelInput{{WeightG: 900, LengthMM: 300, WidthMM: 200, HeightMM: 100}},
		rate.Options{Signature: true},
		purchase,
		commands.RequestMeta{IdempotencyKey: key, RequestID: "req-1"},
	)
	require.NoError(t, err)
	return cmd
}

func decodeReceipt(t *testing.T, outcome commands.Outcome) commands.LabelReceipt {
	t.Helper()
	var receipt commands.LabelReceipt
	require.NoError(t, json.Unmarshal(outcome.Body, &receipt))
	return receipt
}

func TestBuyLabelCommandHandler_Handle_FirstLabel(t *testing.T) {
	ctx := t.Context()
	f := newBuyFixture(t, nzPostCredentials())

	var saved *shipment.Shipment
	mock.InOrder(
		f.uow.On("Begin", ctx).Return(nil).Once(),
		f.transfers.On("Get", ctx, int64(42)).Return(newTransfer(t, 42), nil).Once(),
		f.shipments.On("LockByTransfer", ctx, int64(42)).Return(nil, errs.NewObjectNotFoundError("shipment", 42)).Once(),
		f.shipments.On("AddIfAbsent", ctx, mock.AnythingOfType("*shipment.Shipment")).Return(true, nil).Once(),
		f.shipments.On("Update", ctx, mock.AnythingOfType("*shipment.Shipment")).
			Run(func(args mock.Arguments) { saved = args.Get(1).(*shipment.Shipment) }).
			Return(nil).Once(),
		f.uow.On("Commit", ctx).Return(nil).Once(),
	)
	f.metrics.On("LabelPurchased", catalog.CarrierNZPost).Once()

	outcome, err := f.handler.Handle(ctx, buyCommand(t, commands.PurchaseOptions{}, ""))

	require.NoError(t, err)
	assert.False(t, outcome.Replayed)
	assert.Equal(t, 200, outcome.StatusCode)
	assert.Equal(t, "req-1", outcome.RequestID)

	receipt := decodeReceipt(t, outcome)
	assert.Equal(t, int64(42), receipt.TransferID)
	assert.Equal(t, "labelled", receipt.Status)
	assert.Equal(t, []string{"NZ500"}, receipt.TrackingNumbers)
	assert.Equal(t, "https://labels.example/NZ500.pdf", receipt.DocumentRef)
	assert.Equal(t, 1, receipt.Parcels)
	assert.False(t, receipt.Existing)

	assert.Equal(t, int32(1), f.carrier.creates.Load())
	assert.Equal(t, int32(1), f.carrier.fetches.Load())
	req := f.carrier.lastReq.Load()
	require.NotNil(t, req)
	assert.Equal(t, "TR-42", req.Reference)
	assert.Equal(t, "Hamilton", req.Destination.City)
	assert.Equal(t, "k", f.carrier.lastCred.Load().Get("api_key"))

	require.NotNil(t, saved)
	assert.Equal(t, shipment.StatusLabelled, saved.Status())
	assert.Equal(t, "NZ500", saved.Tracking())
	require.Len(t, saved.Parcels(), 1)
	assert.Equal(t, 900, saved.Parcels()[0].WeightG())

	f.uow.AssertExpectations(t)
	f.shipments.AssertExpectations(t)
	f.metrics.AssertExpectations(t)
	f.idempotency.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestBuyLabelCommandHandler_Handle_SameKeyReplaysFirstResponse(t *testing.T) {
	ctx := t.Context()
	f := newBuyFixture(t, nzPostCredentials())
	key := idempotency.Key("abc")

	var stored *idempotency.Record
	f.uow.On("Begin", ctx).Return(nil)
	f.uow.On("Commit", ctx).Return(nil).Once()
	f.transfers.On("Get", ctx, int64(42)).Return(newTransfer(t, 42), nil).Once()
	f.shipments.On("LockByTransfer", ctx, int64(42)).Return(nil, errs.NewObjectNotFoundError("shipment", 42)).Once()
	f.shipments.On("AddIfAbsent", ctx, mock.Anything).Return(true, nil).Once()
	f.shipments.On("Update", ctx, mock.Anything).Return(nil).Once()
	f.idempotency.On("Get", ctx, key).Return(nil, errs.NewObjectNotFoundError("idempotency_key", key)).Twice()
	f.idempotency.On("Add", ctx, mock.AnythingOfType("*idempotency.Record")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*idempotency.Record) }).
		Return(nil).Once()
	f.metrics.On("LabelPurchased", catalog.CarrierNZPost).Once()

	first, err := f.handler.Handle(ctx, buyCommand(t, commands.PurchaseOptions{}, "abc"))
	require.NoError(t, err)
	require.NotNil(t, stored)

	f.idempotency.On("Get", ctx, key).Return(stored, nil).Once()
	second, err := f.handler.Handle(ctx, buyCommand(t, commands.PurchaseOptions{}, "abc"))

	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, string(first.Body), string(second.Body))
	assert.Equal(t, first.StatusCode, second.StatusCode)
	assert.Equal(t, "req-1", second.RequestID)
	assert.Equal(t, int32(1), f.carrier.creates.Load(), "the carrier is called once")
	f.metrics.AssertNumberOfCalls(t, "LabelPurchased", 1)
	f.transfers.AssertNumberOfCalls(t, "Get", 1)
}

func TestBuyLabelCommandHandler_Handle_LostFirstInsertReplays(t *testing.T) {
	// Arrange
	ctx := t.Context()
	f := newBuyFixture(t, nzPostCredentials())
	key := idempotency.Key("race")
	cmd := buyCommand(t, commands.PurchaseOptions{}, "race")
	fingerprint, err := cmd.Fingerprint()
	require.NoError(t, err)
	winner, err := idempotency.NewRecord(key, idempotency.ScopeBuyLabel, 42, fingerprint, 200,
		json.RawMessage(`{"transfer_id":42,"tracking_numbers":["NZ900"]}`), "req-0", fixedNow)
	require.NoError(t, err)

	mock.InOrder(
		f.uow.On("Begin", ctx).Return(nil).Once(),
		f.idempotency.On("Get", ctx, key).Return(nil, errs.NewObjectNotFoundError("idempotency_key", key)).Once(),
		f.transfers.On("Get", ctx, int64(42)).Return(newTransfer(t, 42), nil).Once(),
		f.shipments.On("LockByTransfer", ctx, int64(42)).Return(nil, errs.NewObjectNotFoundError("shipment", 42)).Once(),
		f.shipments.On("AddIfAbsent", ctx, mock.AnythingOfType("*shipment.Shipment")).Return(false, nil).Once(),
		f.shipments.On("LockByTransfer", ctx, int64(42)).Return(labelledShipment(t, 42, "NZ900"), nil).Once(),
		f.idempotency.On("Get", ctx, key).Return(winner, nil).Once(),
	)

	// Act
	outcome, err := f.handler.Handle(ctx, cmd)

	// Assert
	require.NoError(t, err)
	assert.True(t, outcome.Replayed)
	assert.Equal(t, 200, outcome.StatusCode)
	assert.JSONEq(t, `{"transfer_id":42,"tracking_numbers":["NZ900"]}`, string(outcome.Body))
	assert.Zero(t, f.carrier.creates.Load())
	f.shipments.AssertExpectations(t)
	f.idempotency.AssertExpectations(t)
	f.uow.AssertNotCalled(t, "Commit", mock.Anything)
}

func TestBuyLabelCommandHandler_Handle_SameKeyDifferentPayload(t *testing.T) {
	ctx := t.Context()
	f := newBuyFixture(t, nzPostCredentials())

	record, err := idempotency.NewRecord("abc", idempotency.ScopeBuyLabel, 42, "other-fingerprint", 200,
		json.RawMessage(`{"transfer_id":42}`), "req-0", fixedNow)
	require.NoError(t, err)
	f.uow.On("Begin", ctx).Return(nil).Once()
	f.idempotency.On("Get", ctx, idempotency.Key("abc")).Return(record, nil).Once()

	_, err = f.handler.Handle(ctx, buyCommand(t, commands.PurchaseOptions{}, "abc"))

	appErr, ok := errs.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errs.CodeIdempotencyKeyReused, appErr.Code)
	assert.Equal(t, errs.CategoryConflict, appErr.Category)
	assert.Zero(t, f.carrier.creates.Load())
	f.uow.AssertNotCalled(t, "Commit", mock.Anything)
}

func TestBuyLabelCommandHandler_Handle_ExistingLabelIsReturned(t *testing.T) {
	ctx := t.Context()
	f := newBuyFixture(t, nzPostCredentials())
	existing := labelledShipment(t, 42, "NZ100")

	mock.InOrder(
		f.uow.On("Begin", ctx).Return(nil).Once(),
		f.transfers.On("Get", ctx, int64(42)).Return(newTransfer(t, 42), nil).Once(),
		f.shipments.On("LockByTransfer", ctx, int64(42)).Return(existing, nil).Once(),
		f.uow.On("Commit", ctx).Return(nil).Once(),
	)

	outcome, err := f.handler.Handle(ctx, buyCommand(t, commands.PurchaseOptions{}, ""))

	require.NoError(t, err)
	receipt := decodeReceipt(t, outcome)
	assert.True(t, receipt.Existing)
	assert.Equal(t, []string{"NZ100"}, receipt.TrackingNumbers)
	assert.Zero(t, f.carrier.creates.Load())
	f.shipments.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	f.metrics.AssertNotCalled(t, "LabelPurchased", mock.Anything)
}

func TestBuyLabelCommandHandler_Handle_StrictRejectsExistingLabel(t *testing.T) {
	ctx := t.Context()
	f := newBuyFixture(t, nzPostCredentials())

	f.uow.On("Begin", ctx).Return(nil).Once()
	f.transfers.On("Get", ctx, int64(42)).Return(newTransfer(t, 42), nil).Once()
	f.shipments.On("LockByTransfer", ctx, int64(42)).Return(labelledShipment(t, 42, "NZ100"), nil).Once()

	_, err := f.handler.Handle(ctx, buyCommand(t, commands.PurchaseOptions{Strict: true}, ""))

	appErr, ok := errs.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errs.CodeLabelExists, appErr.Code)
	assert.Zero(t, f.carrier.creates.Load())
}

func TestBuyLabelCommandHandler_Handle_ForceNewReplacesLabel(t *testing.T) {
	ctx := t.Context()
	f := newBuyFixture(t, nzPostCredentials())
	existing := labelledShipment(t, 42, "NZ100")
	previous := existing.ActiveLabel()

	mock.InOrder(
		f.uow.On("Begin", ctx).Return(nil).Once(),
		f.transfers.On("Get", ctx, int64(42)).Return(newTransfer(t, 42), nil).Once(),
		f.shipments.On("LockByTransfer", ctx, int64(42)).Return(existing, nil).Once(),
		f.shipments.On("Update", ctx, existing).Return(nil).Once(),
		f.uow.On("Commit", ctx).Return(nil).Once(),
	)
	f.metrics.On("LabelPurchased", catalog.CarrierNZPost).Once()

	override := address.Address{Line1: "7 Side Street", Instructions: "Rear door"}
	outcome, err := f.handler.Handle(ctx, buyCommand(t, commands.PurchaseOptions{ForceNew: true, Destination: &override}, ""))

	require.NoError(t, err)
	assert.Equal(t, []string{"NZ500"}, decodeReceipt(t, outcome).TrackingNumbers)
	assert.False(t, previous.IsActive())
	assert.Len(t, existing.Labels(), 2)
	assert.Equal(t, "NZ500", existing.Tracking())

	req := f.carrier.lastReq.Load()
	require.NotNil(t, req)
	assert.Equal(t, "7 Side Street", req.Destination.Line1)
	assert.Equal(t, "Hamilton", req.Destination.City)
	assert.Equal(t, "Rear door", req.Destination.Instructions)
}

func TestBuyLabelCommandHandler_Handle_MissingCredentials(t *testing.T) {
	ctx := t.Context()
	f := newBuyFixture(t, stubCredentials{})

	f.uow.On("Begin", ctx).Return(nil).Once()
	f.transfers.On("Get", ctx, int64(42)).Return(newTransfer(t, 42), nil).Once()

	_, err := f.handler.Handle(ctx, buyCommand(t, commands.PurchaseOptions{}, ""))

	appErr, ok := errs.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errs.CodeCarrierCredentialsMissing, appErr.Code)
	assert.Equal(t, errs.CategoryAuthz, appErr.Category)
	assert.Equal(t, []string{"api_key", "subscription_key"}, appErr.Details["missing"])
	assert.Zero(t, f.carrier.creates.Load())
	f.shipments.AssertNotCalled(t, "LockByTransfer", mock.Anything, mock.Anything)
}

func TestBuyLabelCommandHandler_Handle_CarrierFailureRollsBack(t *testing.T) {
	ctx := t.Context()
	f := newBuyFixture(t, nzPostCredentials())
	f.carrier.createErr = errors.New("connection reset")

	f.uow.On("Begin", ctx).Return(nil).Once()
	f.transfers.On("Get", ctx, int64(42)).Return(newTransfer(t, 42), nil).Once()
	f.shipments.On("LockByTransfer", ctx, int64(42)).Return(nil, errs.NewObjectNotFoundError("shipment", 42)).Once()
	f.shipments.On("AddIfAbsent", ctx, mock.Anything).Return(true, nil).Once()

	_, err := f.handler.Handle(ctx, buyCommand(t, commands.PurchaseOptions{}, ""))

	appErr, ok := errs.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errs.CodeCarrierError, appErr.Code)
	assert.Equal(t, errs.CategoryUpstream, appErr.Category)
	f.uow.AssertCalled(t, "Rollback", mock.Anything)
	f.uow.AssertNotCalled(t, "Commit", mock.Anything)
	f.shipments.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	assert.Zero(t, f.carrier.cancels.Load())
}

func TestBuyLabelCommandHandler_Handle_PersistFailureVoidsLabel(t *testing.T) {
	ctx := t.Context()
	f := newBuyFixture(t, nzPostCredentials())
	existing := labelledShipment(t, 42, "NZ100")

	f.uow.On("Begin", ctx).Return(nil).Once()
	f.transfers.On("Get", ctx, int64(42)).Return(newTransfer(t, 42), nil).Once()
	f.shipments.On("LockByTransfer", ctx, int64(42)).Return(existing, nil).Once()
	f.shipments.On("Update", ctx, existing).Return(errs.NewStoreError("write failed", errors.New("deadlock"))).Once()

	_, err := f.handler.Handle(ctx, buyCommand(t, commands.PurchaseOptions{ForceNew: true}, ""))

	require.Error(t, err)
	assert.True(t, errs.IsCategory(err, errs.CategoryStore))
	assert.Equal(t, int32(1), f.carrier.cancels.Load())
	assert.Equal(t, "order-NZ500", f.carrier.lastRef.Load().CarrierOrderID)
	f.uow.AssertNotCalled(t, "Commit", mock.Anything)
	f.metrics.AssertNotCalled(t, "LabelPurchased", mock.Anything)
}

func TestBuyLabelCommandHandler_Handle_UnknownCarrier(t *testing.T) {
	ctx := t.Context()
	f := newBuyFixture(t, nzPostCredentials())
	f.uow.On("Begin", ctx).Return(nil).Once()
	f.transfers.On("Get", ctx, int64(42)).Return(newTransfer(t, 42), nil).Once()

	cmd, err := commands.NewBuyLabelCommand(42, newRate(t, "GSS", "Overnight", "9.00"),
		[]rate.ParcelInput{{WeightG: 500}}, rate.Options{}, commands.PurchaseOptions{}, commands.RequestMeta{})
	require.NoError(t, err)

	_, err = f.handler.Handle(ctx, cmd)

	appErr, ok := errs.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errs.CodeCarrierUnknown, appErr.Code)
}

func TestBuyLabelCommandHandler_Handle_NotConstructed(t *testing.T) {
	f := newBuyFixture(t, nzPostCredentials())

	_, err := f.handler.Handle(t.Context(), commands.BuyLabelCommand{})

	require.ErrorIs(t, err, commands.ErrBuyLabelCommandIsNotConstructed)
	f.factory.AssertNotCalled(t, "Create")
}
