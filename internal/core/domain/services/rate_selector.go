package services

import (
	"cmp"
	"slices"
	"strings"

	"freight/internal/core/domain/model/rate"
)

// RateSelector orders, ranks and reconciles carrier rates. It has no state.
type RateSelector struct{}

func NewRateSelector() RateSelector {
	return RateSelector{}
}

// Sort returns the rates ordered by ascending cost, satchel services first
// when preferSatchel is set. Equal rates keep a deterministic order by
// provider and service code.
func (RateSelector) Sort(rates []rate.Rate, preferSatchel bool) []rate.Rate {
	out := slices.Clone(rates)
	slices.SortStableFunc(out, func(a, b rate.Rate) int {
		if preferSatchel && a.IsSatchel() != b.IsSatchel() {
			if a.IsSatchel() {
				return -1
			}
			return 1
		}
		return cmp.Or(
			a.Cost().Cmp(b.Cost()),
			strings.Compare(a.Provider(), b.Provider()),
			strings.Compare(a.ServiceCode(), b.ServiceCode()),
		)
	})
	return out
}

// ChooseBest scores each rate as w.Cost × min-max normalized cost plus
// w.Speed × speed rank and returns the lowest score. Ties go to the cheaper
// rate, then to the lower service code. ok is false for an empty slice.
func (RateSelector) ChooseBest(rates []rate.Rate, w rate.Weights) (best rate.Rate, ok bool) {
	if len(rates) == 0 {
		return rate.Rate{}, false
	}

	lo, hi := rates[0].Cost().InexactFloat64(), rates[0].Cost().InexactFloat64()
	for _, r := range rates[1:] {
		c := r.Cost().InexactFloat64()
		lo, hi = min(lo, c), max(hi, c)
	}
	normalize := func(c float64) float64 {
		if hi <= lo {
			return 0
		}
		return (c - lo) / (hi - lo)
	}

	bestScore := 0.0
	for i, r := range rates {
		score := w.Cost*normalize(r.Cost().InexactFloat64()) + w.Speed*SpeedRank(r)
		if i == 0 || score < bestScore || (score == bestScore && rateTieBreak(r, best) < 0) {
			best, bestScore = r, score
		}
	}
	return best, true
}

// SpeedRank is the ETA in days when the carrier gave one; otherwise 1 for
// express, overnight and tonight services, 2 for courier services, 3 for
// anything else.
func SpeedRank(r rate.Rate) float64 {
	if r.ETADays() > 0 {
		return float64(r.ETADays())
	}
	svc := strings.ToLower(r.ServiceCode() + " " + r.Service())
	switch {
	case strings.Contains(svc, "express"), strings.Contains(svc, "overnight"), strings.Contains(svc, "tonight"):
		return 1
	case strings.Contains(svc, "courier"):
		return 2
	default:
		return 3
	}
}

// Merge reconciles the catalog estimate with live rates. With MergeMin the
// cheaper of the cheapest live rate and the estimate wins; the other two
// strategies pick their side unconditionally. The losing side is returned in
// Rejected. A missing side yields live_only or db_only.
func (s RateSelector) Merge(estimate *rate.Rate, live []rate.Rate, strategy rate.MergeStrategy) rate.MergeResult {
	var liveBest *rate.Rate
	if sorted := s.Sort(live, false); len(sorted) > 0 {
		liveBest = &sorted[0]
	}

	switch {
	case estimate == nil && liveBest == nil:
		return rate.MergeResult{Source: rate.MergedLiveOnly}
	case estimate == nil:
		return rate.MergeResult{Source: rate.MergedLiveOnly, Chosen: liveBest}
	case liveBest == nil:
		return rate.MergeResult{Source: rate.MergedDBOnly, Chosen: estimate}
	}

	switch strategy {
	case rate.MergePreferLive:
		return rate.MergeResult{Source: rate.MergedLive, Chosen: liveBest, Rejected: estimate}
	case rate.MergePreferDB:
		return rate.MergeResult{Source: rate.MergedDB, Chosen: estimate, Rejected: liveBest}
	default:
		if liveBest.Cost().LessThan(estimate.Cost()) {
			return rate.MergeResult{Source: rate.MergedLive, Chosen: liveBest, Rejected: estimate}
		}
		return rate.MergeResult{Source: rate.MergedDB, Chosen: estimate, Rejected: liveBest}
	}
}

func rateTieBreak(a, b rate.Rate) int {
	return cmp.Or(
		a.Cost().Cmp(b.Cost()),
		strings.Compare(a.ServiceCode(), b.ServiceCode()),
	)
}
