package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.OrderCreated()
	m.OrderCreated()
	m.PaymentVerified(ResultInvalid)
	m.Settlement(ResultOK)
	m.AffiliateEvent(EventClick)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.ordersCreated))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.paymentsVerified.WithLabelValues(ResultInvalid)))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.paymentsVerified.WithLabelValues(ResultOK)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.settlements.WithLabelValues(ResultOK)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.affiliateEvents.WithLabelValues(EventClick)))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.OrderCreated()
		m.PaymentVerified(ResultOK)
		m.Settlement(ResultOK)
		m.PayoutProcessed(ResultFailed)
		m.AffiliateEvent(EventConversion)
		m.ObserveRequest("GET", "/health", 200, time.Millisecond)
	})
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "/v1/products", http.StatusOK, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "marketplace_http_request_duration_seconds_count"))
	assert.True(t, strings.Contains(body, `route="/v1/products"`))
}
