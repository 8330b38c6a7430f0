package queries_test

import (
	"testing"

	"freight/internal/core/application/usecases/queries"
	"freight/internal/core/domain/model/rate"
	"freight/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGetRatesQuery_Defaults(t *testing.T) {
	q, err := queries.NewGetRatesQuery(42, nil, rate.Options{Signature: true}, queries.RatePreferences{})

	require.NoError(t, err)
	require.NoError(t, q.Validate())
	assert.Equal(t, int64(42), q.TransferID())
	assert.True(t, q.IsAuto())
	assert.Equal(t, rate.MergePreferLive, q.Strategy())
	assert.Equal(t, rate.CheapestOnly(), q.Weights())
	assert.True(t, q.Options().Signature)
}

func TestNewGetRatesQuery_NormalizesCarrier(t *testing.T) {
	q, err := queries.NewGetRatesQuery(42, nil, rate.Options{}, queries.RatePreferences{Carrier: " starshipit "})

	require.NoError(t, err)
	assert.Equal(t, "NZPOST", q.Carrier())
	assert.False(t, q.IsAuto())
}

func TestNewGetRatesQuery_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		id      int64
		parcels []rate.ParcelInput
		prefs   queries.RatePreferences
		wantErr error
	}{
		{name: "transfer id", id: 0, wantErr: queries.ErrTransferIDIsInvalid},
		{name: "weights", id: 1, prefs: queries.RatePreferences{SpeedWeight: -1}, wantErr: queries.ErrWeightsAreInvalid},
		{name: "strategy", id: 1, prefs: queries.RatePreferences{Strategy: "cheapest"}, wantErr: errs.ErrValueIsInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := queries.NewGetRatesQuery(tt.id, tt.parcels, rate.Options{}, tt.prefs)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewGetRatesQuery_ParcelErrorsCarryFields(t *testing.T) {
	_, err := queries.NewGetRatesQuery(42, []rate.ParcelInput{{WeightG: 40000}}, rate.Options{}, queries.RatePreferences{})

	appErr, ok := errs.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errs.CodeInputInvalid, appErr.Code)
	assert.Contains(t, appErr.Fields, "parcels[0].weight_g")
}

func TestGetRatesQuery_Validate_ZeroValue(t *testing.T) {
	var q queries.GetRatesQuery

	err := q.Validate()

	require.ErrorIs(t, err, queries.ErrGetRatesQueryIsNotConstructed)
}
