package queries

import (
	"errors"
	"maps"
	"slices"

	"freight/internal/core/domain/model/address"
	"freight/internal/pkg/guard"
	"freight/internal/pkg/validation"
)

var ErrValidateAddressQueryIsNotConstructed = errors.New(
	"ValidateAddressQuery must be created via NewValidateAddressQuery constructor",
)

// WarningInvalidField reports a field that failed format validation, such as
// a malformed email address.
const WarningInvalidField = "invalid_field"

// ValidateAddressQuery normalizes an address the way labels will be bought
// with it and reports every adjustment. It never fails on address content.
type ValidateAddressQuery struct {
	address address.Address

	guard guard.ConstructorGuard
}

func NewValidateAddressQuery(a address.Address) ValidateAddressQuery {
	return ValidateAddressQuery{address: a, guard: guard.NewConstructorGuard()}
}

func (q ValidateAddressQuery) Validate() error {
	return q.guard.Validate(ErrValidateAddressQueryIsNotConstructed)
}

func (q ValidateAddressQuery) Address() address.Address { return q.address }

// ValidateAddressQueryResponse is the normalized address. Valid is false
// when a required field is missing or a field is malformed.
type ValidateAddressQueryResponse struct {
	Normalized address.Normalized
	Warnings   []address.Warning
	Valid      bool
}

// ValidateAddressQueryHandler is stateless.
type ValidateAddressQueryHandler struct{}

func NewValidateAddressQueryHandler() ValidateAddressQueryHandler {
	return ValidateAddressQueryHandler{}
}

type addressFormat struct {
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"omitempty,max=50"`
}

func (h ValidateAddressQueryHandler) Handle(query ValidateAddressQuery) (ValidateAddressQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return ValidateAddressQueryResponse{}, err
	}

	normalized, warnings := query.Address().Normalize()
	warnings = append(make([]address.Warning, 0, len(warnings)), warnings...)
	invalid := validation.Fields(addressFormat{Email: normalized.Email, Phone: normalized.Phone})
	for _, field := range slices.Sorted(maps.Keys(invalid)) {
		warnings = append(warnings, address.Warning{Type: WarningInvalidField, Field: field, Detail: invalid[field]})
	}

	valid := true
	for _, w := range warnings {
		if w.Type == address.WarningMissingRequired || w.Type == WarningInvalidField {
			valid = false
		}
	}
	return ValidateAddressQueryResponse{Normalized: normalized, Warnings: warnings, Valid: valid}, nil
}
