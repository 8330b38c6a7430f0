package services

import (
	"slices"

	"freight/internal/core/domain/model/catalog"
	"freight/internal/core/domain/model/rate"

	"github.com/shopspring/decimal"
)

// Fallback pricing used when the catalog cannot price the parcels.
var (
	fallbackBase      = decimal.RequireFromString("10.00")
	fallbackPer500g   = decimal.RequireFromString("1.50")
	fallbackSignature = decimal.RequireFromString("1.00")
	fallbackSaturday  = decimal.RequireFromString("3.00")
)

const (
	catalogEstimateName  = "NZ Post"
	catalogEstimateClass = "Domestic"
)

// ParcelContainer is the catalog container chosen for one parcel.
type ParcelContainer struct {
	ParcelIndex int
	Container   *catalog.ContainerSpec
}

// CatalogEstimate is the baseline price computed from the pricing catalog.
type CatalogEstimate struct {
	Total      decimal.Decimal
	Breakdown  rate.CostBreakdown
	Containers []ParcelContainer
	Formula    bool
}

// CatalogEstimator prices parcels from catalog containers, independent of any
// carrier API.
type CatalogEstimator struct{}

func NewCatalogEstimator() CatalogEstimator {
	return CatalogEstimator{}
}

// Estimate picks a container per parcel: the first fitting satchel when
// preferSatchel is set, otherwise the first fitting non-pallet container in
// satchel-first, cost, capacity order, and the first container when nothing
// fits. If the sum is not positive a weight formula is used instead.
func (CatalogEstimator) Estimate(
	containers []*catalog.ContainerSpec,
	parcels []rate.ParcelInput,
	opts rate.Options,
	preferSatchel bool,
) CatalogEstimate {
	rows := estimateOrder(containers)
	est := CatalogEstimate{Total: decimal.Zero}

	for i, p := range parcels {
		c := firstFitting(rows, p, preferSatchel)
		if c == nil {
			continue
		}
		est.Containers = append(est.Containers, ParcelContainer{ParcelIndex: i, Container: c})
		est.Total = est.Total.Add(c.Cost())
	}

	if est.Total.IsPositive() {
		est.Breakdown = rate.CostBreakdown{Base: est.Total}
		return est
	}

	weightG := max(1, TotalWeightG(parcels))
	est.Formula = true
	est.Breakdown = rate.CostBreakdown{
		Base: fallbackBase.Add(fallbackPer500g.Mul(decimal.NewFromInt(int64(weightG))).Div(decimal.NewFromInt(500))),
	}
	if opts.Signature {
		est.Breakdown.Signature = fallbackSignature
	}
	if opts.Saturday {
		est.Breakdown.Saturday = fallbackSaturday
	}
	est.Breakdown.Base = est.Breakdown.Base.Round(2)
	est.Total = est.Breakdown.Sum().Round(2)
	return est
}

// Rate turns the estimate into an NZ Post rate flagged as a catalog estimate.
func (e CatalogEstimate) Rate(note string) rate.Rate {
	r, _ := rate.NewRate(catalog.CarrierNZPost, catalogEstimateName, catalogEstimateClass, e.Total)
	r = r.WithBreakdown(e.Breakdown).WithNote(note).WithSatchel(true).AsCatalogEstimate()
	if len(e.Containers) > 0 {
		r = r.WithContainerCode(e.Containers[0].Container.Code())
	}
	return r
}

func estimateOrder(containers []*catalog.ContainerSpec) []*catalog.ContainerSpec {
	rows := make([]*catalog.ContainerSpec, 0, len(containers))
	for _, c := range containers {
		if c.Validate() == nil && c.IsPriced() {
			rows = append(rows, c)
		}
	}
	slices.SortStableFunc(rows, func(a, b *catalog.ContainerSpec) int {
		if a.Kind().IsSatchel() != b.Kind().IsSatchel() {
			if a.Kind().IsSatchel() {
				return -1
			}
			return 1
		}
		return compareByCostThenCapacity(a, b)
	})
	return rows
}

func firstFitting(rows []*catalog.ContainerSpec, p rate.ParcelInput, preferSatchel bool) *catalog.ContainerSpec {
	if len(rows) == 0 {
		return nil
	}
	if preferSatchel {
		for _, c := range rows {
			if c.Kind().IsSatchel() && parcelFits(c, p) {
				return c
			}
		}
	}
	for _, c := range rows {
		if c.Kind() != catalog.KindPallet && parcelFits(c, p) {
			return c
		}
	}
	return rows[0]
}

// parcelFits compares weight and each axis known on both sides.
func parcelFits(c *catalog.ContainerSpec, p rate.ParcelInput) bool {
	if p.WeightG > c.CapacityG() {
		return false
	}
	d := c.Dimensions()
	for _, pair := range [][2]int{{p.LengthMM, d.Length()}, {p.WidthMM, d.Width()}, {p.HeightMM, d.Height()}} {
		if pair[0] > 0 && pair[1] > 0 && pair[0] > pair[1] {
			return false
		}
	}
	return true
}
