// Package metrics holds the Prometheus collectors of the binaries.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors
type Metrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	rateLimited     prometheus.Counter
	cacheLookups    *prometheus.CounterVec
	syncMessages    *prometheus.CounterVec
	budgetAlerts    *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pmtrack_http_requests_total",
				Help: "HTTP requests by method, route pattern and status",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pmtrack_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"method", "route"},
		),
		rateLimited: f.NewCounter(
			prometheus.CounterOpts{
				Name: "pmtrack_http_rate_limited_total",
				Help: "Requests rejected by the rate limiter",
			},
		),
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pmtrack_cache_lookups_total",
				Help: "Cache lookups by cache and result",
			},
			[]string{"cache", "result"},
		),
		syncMessages: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pmtrack_sync_messages_total",
				Help: "Timesheet sync messages handled by action and result",
			},
			[]string{"action", "result"},
		),
		budgetAlerts: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pmtrack_budget_alerts",
				Help: "Budget alerts raised by the last watch run",
			},
			[]string{"severity"},
		),
	}
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) IncRateLimited() {
	m.rateLimited.Inc()
}

// CacheLookup counts a hit or a miss of the named cache.
func (m *Metrics) CacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(cache, result).Inc()
}

// SyncMessage counts a handled sync message.
func (m *Metrics) SyncMessage(action string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.syncMessages.WithLabelValues(action, result).Inc()
}

// SetBudgetAlerts replaces the alert gauges with counts per severity.
func (m *Metrics) SetBudgetAlerts(bySeverity map[string]int) {
	m.budgetAlerts.Reset()
	for sev, n := range bySeverity {
		m.budgetAlerts.WithLabelValues(sev).Set(float64(n))
	}
}
