package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"freight/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := metrics.New(metrics.DefaultConfig())

	t.Run("business counters", func(t *testing.T) {
		m.RateShopped("live")
		m.RateShopped("live")
		m.LabelPurchased("GSS")
		m.LabelCancelled("NZPOST")
		m.IdempotentReplay()

		assert.Equal(t, 2.0, testutil.ToFloat64(m.RateShopsTotal.WithLabelValues("live")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.LabelsPurchasedTotal.WithLabelValues("GSS")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.LabelsCancelledTotal.WithLabelValues("NZPOST")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.IdempotentReplaysTotal))
	})

	t.Run("carrier calls", func(t *testing.T) {
		m.RecordCarrierCall("GSS", "quote", metrics.OutcomeError, 120*time.Millisecond)

		assert.Equal(t, 1.0, testutil.ToFloat64(m.CarrierCallsTotal.WithLabelValues("GSS", "quote", "error")))
	})

	t.Run("breaker state gauge", func(t *testing.T) {
		m.SetCircuitBreakerState("GSS", gobreaker.StateOpen)
		assert.Equal(t, 2.0, testutil.ToFloat64(m.CircuitBreakerState.WithLabelValues("GSS")))

		m.SetCircuitBreakerState("GSS", gobreaker.StateClosed)
		assert.Equal(t, 0.0, testutil.ToFloat64(m.CircuitBreakerState.WithLabelValues("GSS")))
	})

	t.Run("handler exposes the registry", func(t *testing.T) {
		m.RecordHTTPRequest(http.MethodPost, "/api/v1/transfers/:transferId/rates", 200, 30*time.Millisecond)

		rec := httptest.NewRecorder()
		m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "freight_http_requests_total")
		assert.Contains(t, rec.Body.String(), "freight_rate_shops_total")
	})
}
