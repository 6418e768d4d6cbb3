package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesrecon/address"
	"salesrecon/reconciliation"
)

type pingerFunc func() error

func (f pingerFunc) Ping() error { return f() }

func TestHealthChecker_Statuses(t *testing.T) {
	ctx := context.Background()
	failing := pingerFunc(func() error { return errors.New("locked") })
	ok := pingerFunc(func() error { return nil })

	hc := NewHealthChecker("test")
	hc.RegisterPinger("database", ok, true)
	result := hc.Check(ctx)
	assert.Equal(t, HealthStatusHealthy, result.Status)
	assert.Equal(t, "test", result.Version)
	assert.Contains(t, result.Components, "database")

	hc.RegisterPinger("cache", failing, false)
	result = hc.Check(ctx)
	assert.Equal(t, HealthStatusDegraded, result.Status)
	assert.Contains(t, result.Components["cache"].Message, "locked")

	hc.RegisterPinger("database", failing, true)
	result = hc.Check(ctx)
	assert.Equal(t, HealthStatusUnhealthy, result.Status)

	hc.LogHealthStatus(ctx)
}

func TestMetrics_Observe(t *testing.T) {
	m := NewMetrics()

	m.ObserveHTTP("", 404, time.Millisecond)
	m.ObserveHTTP("/api/reconcile", 200, time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("unmatched", "404")))

	m.ObserveReconcile(reconciliation.Stats{Outcome: reconciliation.OutcomeOK, InputRows: 5, OutputRows: 3}, time.Second)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reconcileRuns.WithLabelValues("ok")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.reconcileRows.WithLabelValues("input")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.reconcileRows.WithLabelValues("output")))

	m.ObserveAddress(address.SourceRegistry, 2)
	m.ObserveAddress(address.SourceHeuristic, 0)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.addressSources.WithLabelValues("registry")))

	m.ObserveUpload("committed")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploadsTotal.WithLabelValues("committed")))
}

func TestMetrics_RegistryCacheGauges(t *testing.T) {
	m := NewMetrics()
	loader := address.RegistryLoaderFunc(func(ctx context.Context, region string) ([]address.CanonicalAddress, error) {
		return nil, nil
	})
	cache := address.NewCachedRegistry(loader, time.Minute)
	m.RegisterRegistryCache(cache)

	_, err := cache.Get(context.Background(), "Київ")
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(m.Registry(), "salesrecon_registry_cache_loads", "salesrecon_registry_cache_regions")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveHTTP("/x", 200, time.Millisecond)
		m.ObserveReconcile(reconciliation.Stats{}, time.Second)
		m.ObserveAddress(address.SourceRegistry, 1)
		m.ObserveUpload("preview")
		m.RegisterRegistryCache(nil)
	})
	assert.NotNil(t, m.Handler())
}
