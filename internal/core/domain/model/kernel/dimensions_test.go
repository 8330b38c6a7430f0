package kernel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freight/internal/core/domain/model/kernel"
	"freight/internal/pkg/errs"
)

func mustDims(t *testing.T, l, w, h int) kernel.Dimensions {
	t.Helper()
	d, err := kernel.NewDimensions(l, w, h)
	require.NoError(t, err)
	return d
}

func TestNewDimensions(t *testing.T) {
	tests := []struct {
		name    string
		l, w, h int
		wantErr bool
	}{
		{name: "all known", l: 400, w: 300, h: 200},
		{name: "all unknown", l: 0, w: 0, h: 0},
		{name: "negative length", l: -1, w: 10, h: 10, wantErr: true},
		{name: "width above bound", l: 10, w: kernel.MaxDimensionValueMM + 1, h: 10, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := kernel.NewDimensions(tt.l, tt.w, tt.h)
			if tt.wantErr {
				require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.l, d.Length())
			assert.Equal(t, tt.w, d.Width())
			assert.Equal(t, tt.h, d.Height())
		})
	}
}

func TestDimensions_VolumeCM3(t *testing.T) {
	assert.InDelta(t, 24000.0, mustDims(t, 400, 300, 200).VolumeCM3(), 0.0001)
	assert.Zero(t, mustDims(t, 400, 0, 200).VolumeCM3())
	assert.InDelta(t, 48000.0, kernel.VolumeOf(mustDims(t, 400, 300, 200), 2), 0.0001)
	assert.Zero(t, kernel.VolumeOf(mustDims(t, 400, 300, 200), 0))
}

func TestDimensions_FitsWithin(t *testing.T) {
	container := mustDims(t, 400, 300, 200)

	tests := []struct {
		name      string
		item      kernel.Dimensions
		container kernel.Dimensions
		want      bool
	}{
		{name: "smaller on every axis", item: mustDims(t, 100, 100, 100), container: container, want: true},
		{name: "equal on every axis", item: container, container: container, want: true},
		{name: "one axis too long", item: mustDims(t, 401, 100, 100), container: container, want: false},
		{name: "no rotation applied", item: mustDims(t, 200, 400, 100), container: container, want: false},
		{name: "container without dimensions", item: mustDims(t, 1, 1, 1), container: kernel.UnknownDimensions(), want: false},
		{name: "unknown item axes pass", item: mustDims(t, 100, 0, 0), container: container, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.item.FitsWithin(tt.container))
		})
	}
}

func TestDimensions_Envelope(t *testing.T) {
	env := mustDims(t, 100, 300, 50).Envelope(mustDims(t, 200, 100, 80))

	assert.True(t, env.IsEqual(mustDims(t, 200, 300, 80)))
	assert.Equal(t, 300, env.Longest())
	assert.Equal(t, "200x300x80mm", env.String())
}

func TestDimensions_Flags(t *testing.T) {
	assert.False(t, kernel.UnknownDimensions().HasAny())
	assert.True(t, mustDims(t, 0, 0, 5).HasAny())
	assert.False(t, mustDims(t, 0, 0, 5).HasAll())
	assert.Equal(t, 3001, mustDims(t, 1, 3001, 1).Longest())
	assert.Zero(t, kernel.UnknownDimensions().Longest())
}
