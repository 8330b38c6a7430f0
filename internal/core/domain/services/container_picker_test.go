package services_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freight/internal/core/domain/model/catalog"
	"freight/internal/core/domain/model/kernel"
	"freight/internal/core/domain/services"
	"freight/internal/pkg/errs"
)

func asFitError(t *testing.T, err error) *services.FitError {
	t.Helper()
	var fe *services.FitError
	require.True(t, errors.As(err, &fe), "expected FitError, got %v", err)
	return fe
}

func TestContainerPicker_Gates(t *testing.T) {
	picker := services.NewContainerPicker()
	containers := []*catalog.ContainerSpec{
		container(t, "BAG-S", catalog.KindBag, 2000, "8.00", dims(t, 300, 200, 50)),
	}

	tests := []struct {
		name        string
		req         services.FitRequest
		code        string
		canContinue bool
		critical    bool
	}{
		{
			name:        "zero weight",
			req:         services.FitRequest{WeightG: 0},
			code:        errs.CodeInvalidWeight,
			canContinue: true,
		},
		{
			name:     "dimension over 3 m",
			req:      services.FitRequest{WeightG: 100, Dimensions: dims(t, 3001, 10, 10)},
			code:     errs.CodeTooBigToShip,
			critical: true,
		},
		{
			name:     "volume over 1 m3",
			req:      services.FitRequest{WeightG: 100, VolumeCM3: 1_000_001},
			code:     errs.CodeTooBigToShip,
			critical: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := picker.Pick(carrier(t), containers, tt.req)

			fe := asFitError(t, err)
			assert.Equal(t, tt.code, fe.Code)
			assert.Equal(t, tt.canContinue, fe.CanContinue)
			assert.Equal(t, tt.critical, fe.Critical)
		})
	}
}

func TestContainerPicker_OversizeGateUsesLongestAxis(t *testing.T) {
	containers := []*catalog.ContainerSpec{
		container(t, "TUBE-3M", catalog.KindBox, 2000, "8.00", dims(t, 3000, 100, 100)),
	}

	tests := []struct {
		name     string
		dims     kernel.Dimensions
		oversize bool
	}{
		{name: "length at the limit", dims: dims(t, 3000, 10, 10)},
		{name: "height over the limit", dims: dims(t, 10, 10, 3001), oversize: true},
		{name: "width over the limit", dims: dims(t, 10, 3200, 10), oversize: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := services.NewContainerPicker().Pick(carrier(t), containers, services.FitRequest{
				WeightG:    100,
				Dimensions: tt.dims,
			})

			if !tt.oversize {
				require.NoError(t, err)
				return
			}
			fe := asFitError(t, err)
			assert.Equal(t, errs.CodeTooBigToShip, fe.Code)
			assert.True(t, fe.Critical)
			assert.Equal(t, tt.dims.Longest(), fe.Diagnostics["longest_mm"])
			assert.Equal(t, services.MaxShippableDimensionMM, fe.Diagnostics["max_allowed_mm"])
		})
	}
}

func TestContainerPicker_NoContainers(t *testing.T) {
	unpriced := container(t, "FREE", catalog.KindBox, 5000, "0", kernel.UnknownDimensions())

	_, err := services.NewContainerPicker().Pick(carrier(t), []*catalog.ContainerSpec{unpriced}, services.FitRequest{WeightG: 100})

	assert.Equal(t, errs.CodeNoContainers, asFitError(t, err).Code)
}

func TestContainerPicker_TooHeavy(t *testing.T) {
	containers := []*catalog.ContainerSpec{
		container(t, "BAG-S", catalog.KindBag, 5000, "8.00", kernel.UnknownDimensions()),
		container(t, "BOX-L", catalog.KindBox, 25000, "22.00", kernel.UnknownDimensions()),
	}

	_, err := services.NewContainerPicker().Pick(carrier(t), containers, services.FitRequest{WeightG: 35000})

	fe := asFitError(t, err)
	assert.Equal(t, errs.CodeTooBigToShip, fe.Code)
	assert.False(t, fe.CanContinue)
	assert.Equal(t, 35000, fe.Diagnostics["required_weight_g"])
	assert.Equal(t, 2, fe.Diagnostics["available_count"])
}

func TestContainerPicker_StrictDimensionPolicy(t *testing.T) {
	containers := []*catalog.ContainerSpec{
		container(t, "NODIMS", catalog.KindBox, 5000, "5.00", kernel.UnknownDimensions()),
	}

	_, err := services.NewContainerPicker().Pick(carrier(t), containers, services.FitRequest{
		WeightG:    500,
		Dimensions: dims(t, 100, 0, 0),
	})

	assert.Equal(t, errs.CodeTooBigToShip, asFitError(t, err).Code)
}

func TestContainerPicker_PicksBestFit(t *testing.T) {
	small := container(t, "BAG-S", catalog.KindBag, 1000, "6.00", dims(t, 300, 250, 80))
	medium := container(t, "BAG-M", catalog.KindBag, 2000, "8.00", dims(t, 400, 300, 100))
	large := container(t, "BOX-L", catalog.KindBox, 10000, "15.00", dims(t, 600, 400, 400))

	result, err := services.NewContainerPicker().Pick(
		carrier(t),
		[]*catalog.ContainerSpec{large, small, medium},
		services.FitRequest{WeightG: 1500, Dimensions: dims(t, 200, 200, 50)},
	)

	require.NoError(t, err)
	assert.Equal(t, "BAG-M", result.Container.Code())
	require.Len(t, result.Alternatives, 1)
	assert.Equal(t, "BOX-L", result.Alternatives[0].Code())

	assert.Equal(t, 1500, result.Analysis.WeightG)
	assert.Equal(t, 400, result.Analysis.VolumetricWeightG)
	assert.Equal(t, 1500, result.Analysis.EffectiveWeightG)
	assert.Equal(t, 2000, result.Analysis.CapacityG)
	assert.InDelta(t, 75.0, result.Analysis.UtilizationPct, 0.001)
	assert.InDelta(t, 4.0, result.Analysis.CostPerKg, 0.001)
}

func TestContainerPicker_VolumetricWeightWins(t *testing.T) {
	bag := container(t, "BAG", catalog.KindBag, 3000, "8.00", kernel.UnknownDimensions())
	box := container(t, "BOX", catalog.KindBox, 10000, "12.00", kernel.UnknownDimensions())

	result, err := services.NewContainerPicker().Pick(carrier(t), []*catalog.ContainerSpec{bag, box}, services.FitRequest{
		WeightG:   500,
		VolumeCM3: 20000,
	})

	require.NoError(t, err)
	assert.Equal(t, 4000, result.Analysis.EffectiveWeightG)
	assert.Equal(t, "BOX", result.Container.Code())
}

func TestContainerPicker_AtMostThreeAlternatives(t *testing.T) {
	var containers []*catalog.ContainerSpec
	for i, code := range []string{"A", "B", "C", "D", "E", "F"} {
		containers = append(containers, container(t, code, catalog.KindBox, 1000*(i+1), "5.00", kernel.UnknownDimensions()))
	}

	result, err := services.NewContainerPicker().Pick(carrier(t), containers, services.FitRequest{WeightG: 500})

	require.NoError(t, err)
	assert.Len(t, result.Alternatives, 3)
	assert.LessOrEqual(t, result.Analysis.EffectiveWeightG, result.Container.CapacityG())
}
