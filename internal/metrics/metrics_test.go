package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCount(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRequest("GET", "/api/entries", 200, 5*time.Millisecond)
	m.ObserveRequest("GET", "/api/entries", 200, 7*time.Millisecond)
	m.ObserveRequest("GET", "", 404, time.Millisecond)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/entries", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")))

	m.IncRateLimited()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimited))

	m.CacheLookup("overview", true)
	m.CacheLookup("overview", false)
	m.CacheLookup("overview", false)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("overview", "miss")))

	m.SyncMessage("upsert", nil)
	m.SyncMessage("upsert", errors.New("boom"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.syncMessages.WithLabelValues("upsert", "error")))

	m.SetBudgetAlerts(map[string]int{"warning": 2})
	m.SetBudgetAlerts(map[string]int{"exceeded": 1})
	assert.Equal(t, 1, testutil.CollectAndCount(m.budgetAlerts))
}

func TestNewRegistersOncePerRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
	assert.NotPanics(t, func() { New(prometheus.NewRegistry()) })
}
