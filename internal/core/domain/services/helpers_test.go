package services_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"freight/internal/core/domain/model/allocation"
	"freight/internal/core/domain/model/catalog"
	"freight/internal/core/domain/model/kernel"
)

func dims(t *testing.T, l, w, h int) kernel.Dimensions {
	t.Helper()
	d, err := kernel.NewDimensions(l, w, h)
	require.NoError(t, err)
	return d
}

func container(t *testing.T, code string, kind catalog.Kind, capG int, cost string, d kernel.Dimensions) *catalog.ContainerSpec {
	t.Helper()
	c, err := catalog.NewContainerSpec(kernel.NewUUID(), catalog.CarrierNZPost, code, code, kind, d, capG, decimal.RequireFromString(cost))
	require.NoError(t, err)
	return c
}

func carrier(t *testing.T) catalog.Carrier {
	t.Helper()
	c, err := catalog.NewCarrier(catalog.CarrierNZPost, "NZ Post", catalog.DefaultCubicFactor, true)
	require.NoError(t, err)
	return c
}

func line(t *testing.T, id string, qty, unitG int, d kernel.Dimensions, category string, h allocation.Handling) allocation.LineItem {
	t.Helper()
	li, err := allocation.NewLineItem(id, qty, unitG, d, category, h)
	require.NoError(t, err)
	return li
}
