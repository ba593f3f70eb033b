package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Access decision metrics
	AccessDecisionsTotal *prometheus.CounterVec
	AccessCacheHitsTotal prometheus.Counter
	AccessCacheMissTotal prometheus.Counter
	AccessRetriesTotal   prometheus.Counter

	// Identity gateway metrics
	GatewayCallsTotal   *prometheus.CounterVec
	GatewayCallDuration *prometheus.HistogramVec

	// Ticket metrics
	TicketsOpenTotal  prometheus.Gauge
	TicketCacheHits   prometheus.Counter
	TicketCacheMisses prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gatehouse_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		AccessDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_access_decisions_total",
				Help: "Access decisions by terminal outcome",
			},
			[]string{"outcome"},
		),
		AccessCacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gatehouse_access_cache_hits_total",
				Help: "Decision cache hits",
			},
		),
		AccessCacheMissTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gatehouse_access_cache_misses_total",
				Help: "Decision cache misses (including expired entries)",
			},
		),
		AccessRetriesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gatehouse_access_retries_total",
				Help: "Transient gateway failures observed during access evaluation",
			},
		),
		GatewayCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_gateway_calls_total",
				Help: "Identity gateway calls by endpoint and result",
			},
			[]string{"endpoint", "result"},
		),
		GatewayCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gatehouse_gateway_call_duration_seconds",
				Help:    "Identity gateway call duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		TicketsOpenTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "gatehouse_tickets_open_total",
				Help: "Currently open tickets",
			},
		),
		TicketCacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gatehouse_ticket_cache_hits_total",
				Help: "Ticket read-through cache hits",
			},
		),
		TicketCacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gatehouse_ticket_cache_misses_total",
				Help: "Ticket read-through cache misses",
			},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AccessDecisionsTotal,
		m.AccessCacheHitsTotal,
		m.AccessCacheMissTotal,
		m.AccessRetriesTotal,
		m.GatewayCallsTotal,
		m.GatewayCallDuration,
		m.TicketsOpenTotal,
		m.TicketCacheHits,
		m.TicketCacheMisses,
	)

	return m
}

// Handler returns the /metrics HTTP handler for this registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records metrics for a completed HTTP request
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveGatewayCall records metrics for a completed identity gateway call
func (m *Metrics) ObserveGatewayCall(endpoint, result string, duration time.Duration) {
	m.GatewayCallsTotal.WithLabelValues(endpoint, result).Inc()
	m.GatewayCallDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}
