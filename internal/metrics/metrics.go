package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "marketplace"

// Result labels
const (
	ResultOK       = "ok"
	ResultInvalid  = "invalid"
	ResultReplay   = "replay"
	ResultFailed   = "failed"
	ResultConflict = "conflict"
)

// Affiliate event labels
const (
	EventClick      = "click"
	EventConversion = "conversion"
)

// Metrics holds the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry         *prometheus.Registry
	ordersCreated    prometheus.Counter
	paymentsVerified *prometheus.CounterVec
	settlements      *prometheus.CounterVec
	payoutsProcessed *prometheus.CounterVec
	affiliateEvents  *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry, along with the Go runtime and process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Orders persisted after the gateway order was created.",
		}),
		paymentsVerified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_verified_total",
			Help:      "Payment verification attempts by result.",
		}, []string{"result"}),
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_total",
			Help:      "Settlement applications by result.",
		}, []string{"result"}),
		payoutsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payouts_processed_total",
			Help:      "Payout processing attempts by result.",
		}, []string{"result"}),
		affiliateEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "affiliate_events_total",
			Help:      "Affiliate link clicks and conversions.",
		}, []string{"event"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ordersCreated,
		m.paymentsVerified,
		m.settlements,
		m.payoutsProcessed,
		m.affiliateEvents,
		m.requestDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) OrderCreated() {
	if m == nil {
		return
	}
	m.ordersCreated.Inc()
}

func (m *Metrics) PaymentVerified(result string) {
	if m == nil {
		return
	}
	m.paymentsVerified.WithLabelValues(result).Inc()
}

func (m *Metrics) Settlement(result string) {
	if m == nil {
		return
	}
	m.settlements.WithLabelValues(result).Inc()
}

func (m *Metrics) PayoutProcessed(result string) {
	if m == nil {
		return
	}
	m.payoutsProcessed.WithLabelValues(result).Inc()
}

func (m *Metrics) AffiliateEvent(event string) {
	if m == nil {
		return
	}
	m.affiliateEvents.WithLabelValues(event).Inc()
}

// ObserveRequest records one HTTP request; route is the matched pattern, not the raw path
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
