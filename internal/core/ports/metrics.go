package ports

// Rate shopping outcomes reported to FreightMetrics.
const (
	RateShopLive          = "live"
	RateShopFallback      = "fallback"
	RateShopPinnedFailure = "pinned_failure"
	RateShopNoRates       = "no_rates"
)

// FreightMetrics receives business counters from the use cases.
type FreightMetrics interface {
	RateShopped(outcome string)
	LabelPurchased(carrierCode string)
	LabelCancelled(carrierCode string)
}

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) RateShopped(string)    {}
func (NopMetrics) LabelPurchased(string) {}
func (NopMetrics) LabelCancelled(string) {}
