package http

import (
	"errors"
	"net/http"

	"freight/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

const (
	HeaderRequestID         = "X-Request-ID"
	HeaderIdempotencyKey    = "Idempotency-Key"
	HeaderXIdempotencyKey   = "X-Idempotency-Key"
	HeaderIdempotentReplay  = "Idempotent-Replayed"
	requestIDContextKey     = "request_id"
	genericInternalMessage  = "Something went wrong on our side. Please try again."
	genericMalformedMessage = "The request could not be read."
)

// SuccessEnvelope wraps every successful response.
type SuccessEnvelope struct {
	OK        bool   `json:"ok"`
	Data      any    `json:"data"`
	RequestID string `json:"request_id"`
}

// FailureEnvelope wraps every failed response. Fields carries per-field
// validation messages and Details any structured diagnostics.
type FailureEnvelope struct {
	OK           bool              `json:"ok"`
	ErrorCode    string            `json:"error_code"`
	HumanMessage string            `json:"human_message"`
	Category     errs.Category     `json:"category"`
	Fields       map[string]string `json:"fields,omitempty"`
	Details      map[string]any    `json:"details,omitempty"`
	RequestID    string            `json:"request_id"`
}

// StatusFor maps an application error to its HTTP status.
func StatusFor(appErr *errs.AppError) int {
	switch appErr.Code {
	case errs.CodeUnknownAction:
		return http.StatusBadRequest
	case errs.CodeNotFound:
		return http.StatusNotFound
	case errs.CodeCarrierUnavailable:
		return http.StatusServiceUnavailable
	}

	switch appErr.Category {
	case errs.CategoryInput:
		return http.StatusUnprocessableEntity
	case errs.CategoryAuthn:
		return http.StatusUnauthorized
	case errs.CategoryAuthz:
		return http.StatusForbidden
	case errs.CategoryUpstream:
		return http.StatusBadGateway
	case errs.CategoryConflict:
		return http.StatusConflict
	case errs.CategoryStore:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// classify turns any error into an AppError. Domain sentinels become INPUT
// errors; anything unrecognised is INTERNAL.
func classify(err error) *errs.AppError {
	if appErr, ok := errs.AsAppError(err); ok {
		return appErr
	}
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		return errs.NewNotFoundError("The requested resource does not exist.", err)
	case errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsOutOfRange):
		return errs.NewInputError(errs.CodeInputInvalid, err.Error(), nil)
	default:
		return errs.NewInternalError(genericInternalMessage, err)
	}
}

// inputError classifies an error returned by a command or query constructor.
// Constructors only reject caller input, so plain errors are INPUT_INVALID.
func inputError(err error) *errs.AppError {
	if appErr, ok := errs.AsAppError(err); ok {
		return appErr
	}
	return errs.NewInputError(errs.CodeInputInvalid, err.Error(), nil)
}

func requestID(c echo.Context) string {
	if id, ok := c.Get(requestIDContextKey).(string); ok && id != "" {
		return id
	}
	return c.Response().Header().Get(HeaderRequestID)
}

func respondOK(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, SuccessEnvelope{OK: true, Data: data, RequestID: requestID(c)})
}

func respondError(c echo.Context, appErr *errs.AppError) error {
	message := appErr.Message
	if appErr.Category == errs.CategoryInternal {
		message = genericInternalMessage
	}
	return c.JSON(StatusFor(appErr), FailureEnvelope{
		OK:           false,
		ErrorCode:    appErr.Code,
		HumanMessage: message,
		Category:     appErr.Category,
		Fields:       appErr.Fields,
		Details:      appErr.Details,
		RequestID:    requestID(c),
	})
}
