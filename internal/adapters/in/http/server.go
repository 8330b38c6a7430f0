package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"freight/internal/core/application/usecases/commands"
	"freight/internal/core/application/usecases/queries"
	"freight/internal/core/domain/model/kernel"
	"freight/internal/core/domain/services"
	"freight/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

type RatesShopper interface {
	Handle(ctx context.Context, query queries.GetRatesQuery) (queries.GetRatesQueryResponse, error)
}

type BoxAllocator interface {
	Handle(ctx context.Context, query queries.AllocateBoxesQuery) (queries.AllocateBoxesQueryResponse, error)
}

type LabelBuyer interface {
	Handle(ctx context.Context, command commands.BuyLabelCommand) (commands.Outcome, error)
}

type LabelCanceller interface {
	Handle(ctx context.Context, command commands.CancelLabelCommand) (commands.Outcome, error)
}

type ShipmentReader interface {
	Handle(ctx context.Context, query queries.GetShipmentQuery) (*queries.GetShipmentQueryResponse, error)
}

type AddressSaver interface {
	Handle(ctx context.Context, command commands.SaveAddressCommand) (commands.SaveAddressResult, error)
}

type ManualDispatcher interface {
	Handle(ctx context.Context, command commands.ManualDispatchCommand) (commands.ManualDispatchResult, error)
}

type AddressValidator interface {
	Handle(query queries.ValidateAddressQuery) (queries.ValidateAddressQueryResponse, error)
}

type ContainerPicker interface {
	Handle(ctx context.Context, query queries.PickContainerQuery) (*services.PickResult, error)
}

type CatalogHealthReader interface {
	Handle(ctx context.Context, query queries.CatalogHealthQuery) (queries.CatalogHealthQueryResponse, error)
}

// Handlers are the use cases behind the HTTP operations.
type Handlers struct {
	Rates           RatesShopper
	Allocation      BoxAllocator
	BuyLabel        LabelBuyer
	CancelLabel     LabelCanceller
	Shipment        ShipmentReader
	SaveAddress     AddressSaver
	ManualDispatch  ManualDispatcher
	ValidateAddress AddressValidator
	PickContainer   ContainerPicker
	CatalogHealth   CatalogHealthReader
}

// ReplayRecorder counts responses served from the idempotency store.
type ReplayRecorder interface {
	IdempotentReplay()
}

// Server implements ServerInterface. It turns requests into commands and
// queries, and results into envelopes.
type Server struct {
	handlers Handlers
	replays  ReplayRecorder
	logger   *slog.Logger
}

var _ ServerInterface = (*Server)(nil)

func NewServer(handlers Handlers, replays ReplayRecorder, logger *slog.Logger) *Server {
	return &Server{
		handlers: handlers,
		replays:  replays,
		logger:   logger.With("component", "http"),
	}
}

// GetRates handles POST /api/v1/transfers/{transferId}/rates.
func (s *Server) GetRates(c echo.Context, transferID int64) error {
	var req RatesRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	query, err := queries.NewGetRatesQuery(transferID, req.Parcels, req.Options, queries.RatePreferences{
		Carrier:       req.Carrier,
		PreferSatchel: req.PreferSatchel,
		Strategy:      req.Strategy,
		CostWeight:    req.CostWeight,
		SpeedWeight:   req.SpeedWeight,
	})
	if err != nil {
		return inputError(err)
	}

	result, err := s.handlers.Rates.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return respondOK(c, ratesResponse(result))
}

// CatalogHealth handles GET /health/catalog. gap_limit bounds the list of
// products without any weight.
func (s *Server) CatalogHealth(c echo.Context) error {
	var gapLimit int
	if raw := c.QueryParam("gap_limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return errs.NewInputError(errs.CodeInputInvalid, "gap_limit must be an integer.",
				map[string]string{"gap_limit": "must be an integer"})
		}
		gapLimit = n
	}
	query, err := queries.NewCatalogHealthQuery(gapLimit)
	if err != nil {
		return inputError(err)
	}

	result, err := s.handlers.CatalogHealth.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return respondOK(c, catalogHealthResponse(result))
}

// AllocateBoxes handles POST /api/v1/transfers/{transferId}/allocation.
func (s *Server) AllocateBoxes(c echo.Context, transferID int64) error {
	var req AllocationRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	query, err := queries.NewAllocateBoxesQuery(transferID, req.Carrier, queries.AllocationOverrides{
		MaxItemsPerBox:    req.MaxItemsPerBox,
		FragileSeparation: req.FragileSeparation,
		Consolidate:       req.Consolidate,
		FallbackWeightG:   req.FallbackWeightG,
	})
	if err != nil {
		return inputError(err)
	}

	result, err := s.handlers.Allocation.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return respondOK(c, allocationResponse(result))
}

// BuyLabel handles POST /api/v1/transfers/{transferId}/label.
func (s *Server) BuyLabel(c echo.Context, transferID int64) error {
	var req BuyLabelRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	selected, err := req.Rate.toDomain()
	if err != nil {
		return inputError(err)
	}
	purchase := commands.PurchaseOptions{ForceNew: req.ForceNew, Strict: req.Strict}
	if req.Destination != nil {
		destination := req.Destination.toDomain()
		purchase.Destination = &destination
	}

	cmd, err := commands.NewBuyLabelCommand(transferID, selected, req.Parcels, req.Options, purchase,
		s.requestMeta(c, req.IdempotencyKey))
	if err != nil {
		return inputError(err)
	}

	outcome, err := s.handlers.BuyLabel.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return s.respondOutcome(c, outcome)
}

// CancelLabel handles DELETE /api/v1/transfers/{transferId}/label.
func (s *Server) CancelLabel(c echo.Context, transferID int64) error {
	var req CancelLabelRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	cmd, err := commands.NewCancelLabelCommand(transferID, s.requestMeta(c, req.IdempotencyKey))
	if err != nil {
		return inputError(err)
	}

	outcome, err := s.handlers.CancelLabel.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return s.respondOutcome(c, outcome)
}

// GetShipment handles GET /api/v1/transfers/{transferId}/shipment.
func (s *Server) GetShipment(c echo.Context, transferID int64) error {
	query, err := queries.NewGetShipmentQuery(transferID)
	if err != nil {
		return inputError(err)
	}

	result, err := s.handlers.Shipment.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return respondOK(c, shipmentView(result))
}

// SaveAddress handles PUT /api/v1/transfers/{transferId}/address.
func (s *Server) SaveAddress(c echo.Context, transferID int64) error {
	var req AddressDTO
	if err := bindBody(c, &req); err != nil {
		return err
	}

	cmd, err := commands.NewSaveAddressCommand(transferID, req.toDomain())
	if err != nil {
		return inputError(err)
	}

	result, err := s.handlers.SaveAddress.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return respondOK(c, saveAddressResponse(result))
}

// ManualDispatch handles POST /api/v1/transfers/{transferId}/manual-dispatch.
func (s *Server) ManualDispatch(c echo.Context, transferID int64) error {
	var req ManualDispatchRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	cmd, err := commands.NewManualDispatchCommand(transferID, req.Mode, req.Carrier, req.Tracking, req.TrackingURL, req.Metadata)
	if err != nil {
		return inputError(err)
	}

	result, err := s.handlers.ManualDispatch.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return respondOK(c, manualDispatchResponse(result))
}

// ValidateAddress handles POST /api/v1/addresses/validate.
func (s *Server) ValidateAddress(c echo.Context) error {
	var req AddressDTO
	if err := bindBody(c, &req); err != nil {
		return err
	}

	result, err := s.handlers.ValidateAddress.Handle(queries.NewValidateAddressQuery(req.toDomain()))
	if err != nil {
		return err
	}
	return respondOK(c, validateAddressResponse(result))
}

// PickContainer handles POST /api/v1/carriers/{carrierCode}/containers/pick.
func (s *Server) PickContainer(c echo.Context, carrierCode string) error {
	var req PickRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	dims, err := kernel.NewDimensions(req.LengthMM, req.WidthMM, req.HeightMM)
	if err != nil {
		return inputError(err)
	}
	query, err := queries.NewPickContainerQuery(carrierCode, req.WeightG, req.VolumeCM3, dims)
	if err != nil {
		return inputError(err)
	}

	result, err := s.handlers.PickContainer.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	view := pickView(result)
	if view == nil {
		return errs.NewInternalError("picker returned no container", nil)
	}
	return respondOK(c, PickResponse{CarrierCode: query.CarrierCode(), PickView: *view})
}

// requestMeta takes the idempotency key from the Idempotency-Key header,
// then X-Idempotency-Key, then the body.
func (s *Server) requestMeta(c echo.Context, bodyKey string) commands.RequestMeta {
	key := strings.TrimSpace(c.Request().Header.Get(HeaderIdempotencyKey))
	if key == "" {
		key = strings.TrimSpace(c.Request().Header.Get(HeaderXIdempotencyKey))
	}
	if key == "" {
		key = strings.TrimSpace(bodyKey)
	}
	return commands.RequestMeta{IdempotencyKey: key, RequestID: requestID(c)}
}

// respondOutcome writes a label command result. A replay reports the
// status and request id of the first call.
func (s *Server) respondOutcome(c echo.Context, outcome commands.Outcome) error {
	status := outcome.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	id := outcome.RequestID
	if id == "" {
		id = requestID(c)
	}
	if outcome.Replayed {
		c.Response().Header().Set(HeaderIdempotentReplay, "true")
		s.replays.IdempotentReplay()
	}
	return c.JSON(status, SuccessEnvelope{OK: true, Data: outcome.Body, RequestID: id})
}

func bindBody(c echo.Context, target any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, target); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code == http.StatusUnsupportedMediaType {
			return errs.NewInputError(errs.CodeInputInvalid, "Requests must be JSON.", nil)
		}
		return errs.NewInputError(errs.CodeInputInvalid, genericMalformedMessage,
			map[string]string{bodyField: "is not valid JSON for this action"})
	}
	return nil
}
