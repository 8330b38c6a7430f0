package http

import (
	"freight/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
)

const apiPrefix = "/api/"

// ServerInterface lists the operations of api/openapi.yml.
type ServerInterface interface {
	// (POST /api/v1/transfers/{transferId}/rates)
	GetRates(ctx echo.Context, transferID int64) error
	// (POST /api/v1/transfers/{transferId}/allocation)
	AllocateBoxes(ctx echo.Context, transferID int64) error
	// (POST /api/v1/transfers/{transferId}/label)
	BuyLabel(ctx echo.Context, transferID int64) error
	// (DELETE /api/v1/transfers/{transferId}/label)
	CancelLabel(ctx echo.Context, transferID int64) error
	// (GET /api/v1/transfers/{transferId}/shipment)
	GetShipment(ctx echo.Context, transferID int64) error
	// (PUT /api/v1/transfers/{transferId}/address)
	SaveAddress(ctx echo.Context, transferID int64) error
	// (POST /api/v1/transfers/{transferId}/manual-dispatch)
	ManualDispatch(ctx echo.Context, transferID int64) error
	// (POST /api/v1/addresses/validate)
	ValidateAddress(ctx echo.Context) error
	// (POST /api/v1/carriers/{carrierCode}/containers/pick)
	PickContainer(ctx echo.Context, carrierCode string) error
}

// ServerInterfaceWrapper binds path parameters and calls the handler.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

func (w *ServerInterfaceWrapper) GetRates(ctx echo.Context) error {
	transferID, err := bindTransferID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.GetRates(ctx, transferID)
}

func (w *ServerInterfaceWrapper) AllocateBoxes(ctx echo.Context) error {
	transferID, err := bindTransferID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.AllocateBoxes(ctx, transferID)
}

func (w *ServerInterfaceWrapper) BuyLabel(ctx echo.Context) error {
	transferID, err := bindTransferID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.BuyLabel(ctx, transferID)
}

func (w *ServerInterfaceWrapper) CancelLabel(ctx echo.Context) error {
	transferID, err := bindTransferID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.CancelLabel(ctx, transferID)
}

func (w *ServerInterfaceWrapper) GetShipment(ctx echo.Context) error {
	transferID, err := bindTransferID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.GetShipment(ctx, transferID)
}

func (w *ServerInterfaceWrapper) SaveAddress(ctx echo.Context) error {
	transferID, err := bindTransferID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.SaveAddress(ctx, transferID)
}

func (w *ServerInterfaceWrapper) ManualDispatch(ctx echo.Context) error {
	transferID, err := bindTransferID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.ManualDispatch(ctx, transferID)
}

func (w *ServerInterfaceWrapper) ValidateAddress(ctx echo.Context) error {
	return w.Handler.ValidateAddress(ctx)
}

func (w *ServerInterfaceWrapper) PickContainer(ctx echo.Context) error {
	var carrierCode string
	err := runtime.BindStyledParameterWithOptions("simple", "carrierCode", ctx.Param("carrierCode"), &carrierCode,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return errs.NewInputError(errs.CodeInputInvalid, "Invalid carrier code.",
			map[string]string{"carrierCode": err.Error()})
	}
	return w.Handler.PickContainer(ctx, carrierCode)
}

// bindTransferID returns binding failures as INPUT errors; the error handler
// renders them.
func bindTransferID(ctx echo.Context) (int64, error) {
	var transferID int64
	err := runtime.BindStyledParameterWithOptions("simple", "transferId", ctx.Param("transferId"), &transferID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return 0, errs.NewInputError(errs.CodeInputInvalid, "Invalid transfer id.",
			map[string]string{"transferId": err.Error()})
	}
	return transferID, nil
}

// EchoRouter is the subset of echo.Echo and echo.Group the routes need.
type EchoRouter interface {
	DELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterHandlers mounts every operation under /api/v1.
func RegisterHandlers(router EchoRouter, si ServerInterface) {
	w := &ServerInterfaceWrapper{Handler: si}
	const base = "/api/v1"

	router.POST(base+"/transfers/:transferId/rates", w.GetRates)
	router.POST(base+"/transfers/:transferId/allocation", w.AllocateBoxes)
	router.POST(base+"/transfers/:transferId/label", w.BuyLabel)
	router.DELETE(base+"/transfers/:transferId/label", w.CancelLabel)
	router.GET(base+"/transfers/:transferId/shipment", w.GetShipment)
	router.PUT(base+"/transfers/:transferId/address", w.SaveAddress)
	router.POST(base+"/transfers/:transferId/manual-dispatch", w.ManualDispatch)
	router.POST(base+"/addresses/validate", w.ValidateAddress)
	router.POST(base+"/carriers/:carrierCode/containers/pick", w.PickContainer)
}
