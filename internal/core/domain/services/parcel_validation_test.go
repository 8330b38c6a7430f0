package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freight/internal/core/domain/model/rate"
	"freight/internal/core/domain/services"
	"freight/internal/pkg/errs"
)

func TestValidateParcels(t *testing.T) {
	tests := []struct {
		name          string
		parcels       []rate.ParcelInput
		requireWeight bool
		wantCode      string
		wantFields    map[string]string
	}{
		{
			name:    "quote accepts unknown weight",
			parcels: []rate.ParcelInput{{LengthMM: 300, WidthMM: 200, HeightMM: 100}},
		},
		{
			name:    "quote accepts an empty list",
			parcels: nil,
		},
		{
			name:     "weight below minimum",
			parcels:  []rate.ParcelInput{{WeightG: 1}},
			wantCode: errs.CodeInputInvalid,
			wantFields: map[string]string{
				"parcels[0].weight_g": "must be at least 2",
			},
		},
		{
			name:    "quote accepts kilogram weights",
			parcels: []rate.ParcelInput{{WeightG: 2}, {WeightG: 5}, {WeightG: 30}, {WeightG: 201}},
		},
		{
			name:     "kilogram weight over the parcel limit",
			parcels:  []rate.ParcelInput{{WeightG: 31}, {WeightG: 5}, {WeightG: 200, LengthMM: 1501}},
			wantCode: errs.CodeInputInvalid,
			wantFields: map[string]string{
				"parcels[0].weight_g":  "reads as kilograms; must be at most 30 kg",
				"parcels[2].weight_g":  "reads as kilograms; must be at most 30 kg",
				"parcels[2].length_mm": "must be less than or equal to 1500",
			},
		},
		{
			name:          "purchase takes grams only",
			parcels:       []rate.ParcelInput{{WeightG: 5}},
			requireWeight: true,
			wantCode:      errs.CodeInputInvalid,
			wantFields: map[string]string{
				"parcels[0].weight_g": "must be at least 10",
			},
		},
		{
			name:     "weight and dimension over limits",
			parcels:  []rate.ParcelInput{{WeightG: 1000}, {WeightG: 30001, LengthMM: 1501}},
			wantCode: errs.CodeInputInvalid,
			wantFields: map[string]string{
				"parcels[1].weight_g":  "must be at most 30000",
				"parcels[1].length_mm": "must be less than or equal to 1500",
			},
		},
		{
			name:          "purchase requires weight",
			parcels:       []rate.ParcelInput{{WeightG: 500}, {}},
			requireWeight: true,
			wantCode:      errs.CodeInputInvalid,
			wantFields: map[string]string{
				"parcels[1].weight_g": "is required",
			},
		},
		{
			name:          "purchase requires a parcel",
			requireWeight: true,
			wantCode:      errs.CodeInputInvalid,
			wantFields: map[string]string{
				"parcels": "must contain at least 1 entries",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := services.ValidateParcels(tt.parcels, tt.requireWeight)
			if tt.wantCode == "" {
				require.NoError(t, err)
				return
			}

			appErr, ok := errs.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.Equal(t, errs.CategoryInput, appErr.Category)
			assert.Equal(t, tt.wantFields, appErr.Fields)
		})
	}
}

func TestValidateParcels_TooMany(t *testing.T) {
	parcels := make([]rate.ParcelInput, services.MaxParcels+1)
	for i := range parcels {
		parcels[i] = rate.ParcelInput{WeightG: 100}
	}

	err := services.ValidateParcels(parcels, true)

	appErr, ok := errs.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errs.CodeInputTooManyParcels, appErr.Code)
	assert.Contains(t, appErr.Fields, "parcels")
}
