package errs

import (
	"errors"
	"fmt"
)

// Category classifies an application failure for callers.
// The HTTP adapter derives the response status from it.
type Category string

const (
	CategoryInput    Category = "INPUT"
	CategoryUpstream Category = "UPSTREAM"
	CategoryAuthn    Category = "AUTHN"
	CategoryAuthz    Category = "AUTHZ"
	CategoryStore    Category = "DB"
	CategoryConflict Category = "CONFLICT"
	CategoryInternal Category = "INTERNAL"
)

// Machine codes shared between use cases and the HTTP adapter.
const (
	CodeInputInvalid              = "INPUT_INVALID"
	CodeInputTooManyParcels       = "INPUT_TOO_MANY_PARCELS"
	CodeNotFound                  = "NOT_FOUND"
	CodeCarrierCredentialsMissing = "CARRIER_CREDENTIALS_MISSING"
	CodeCarrierUnknown            = "CARRIER_UNKNOWN"
	CodeCarrierError              = "CARRIER_ERROR"
	CodeCarrierUnavailable        = "CARRIER_UNAVAILABLE"
	CodeNoRatesAvailable          = "NO_RATES_AVAILABLE"
	CodeLabelExists               = "CONFLICT_LABEL_EXISTS"
	CodeConflict                  = "CONFLICT"
	CodeNoLabel                   = "NO_LABEL"
	CodeIdempotencyKeyReused      = "IDEMPOTENCY_KEY_REUSED"
	CodeStoreUnavailable          = "DB_UNAVAILABLE"
	CodeInternal                  = "INTERNAL_ERROR"
	CodeUnknownAction             = "UNKNOWN_ACTION"
	CodeTooBigToShip              = "TOO_BIG_TO_SHIP"
	CodeNoContainers              = "NO_CONTAINERS"
	CodeInvalidWeight             = "INVALID_WEIGHT"
	CodeAllocationFailed          = "ALLOCATION_FAILED"
)

// AppError is an error with a machine code, a human sentence and a category.
// Fields carries per-field validation messages, Details any structured context
// the caller needs to act on the failure.
type AppError struct {
	Code     string
	Message  string
	Category Category
	Fields   map[string]string
	Details  map[string]any
	Err      error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (cause: %s)", e.Code, sanitize(e.Message), sanitize(e.Err.Error()))
	}
	return fmt.Sprintf("%s: %s", e.Code, sanitize(e.Message))
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails returns the same error with structured details attached.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func NewInputError(code, message string, fields map[string]string) *AppError {
	return &AppError{Code: code, Message: message, Category: CategoryInput, Fields: fields}
}

func NewNotFoundError(message string, cause error) *AppError {
	return &AppError{Code: CodeNotFound, Message: message, Category: CategoryInput, Err: cause}
}

func NewAuthzError(code, message string) *AppError {
	return &AppError{Code: code, Message: message, Category: CategoryAuthz}
}

func NewUpstreamError(code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Category: CategoryUpstream, Err: cause}
}

func NewConflictError(code, message string) *AppError {
	return &AppError{Code: code, Message: message, Category: CategoryConflict}
}

func NewStoreError(message string, cause error) *AppError {
	return &AppError{Code: CodeStoreUnavailable, Message: message, Category: CategoryStore, Err: cause}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{Code: CodeInternal, Message: message, Category: CategoryInternal, Err: cause}
}

// AsAppError extracts the outermost AppError from the chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCategory reports whether err carries an AppError of the given category.
func IsCategory(err error, category Category) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Category == category
}

// IsNotFound reports whether err is an AppError with the NOT_FOUND code or
// wraps ErrObjectNotFound.
func IsNotFound(err error) bool {
	if appErr, ok := AsAppError(err); ok && appErr.Code == CodeNotFound {
		return true
	}
	return errors.Is(err, ErrObjectNotFound)
}
