package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"salesrecon/address"
	"salesrecon/reconciliation"
)

const namespace = "salesrecon"

// Metrics prometheus-метрики сервиса. Все методы безопасны для nil.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	reconcileRuns     *prometheus.CounterVec
	reconcileRows     *prometheus.CounterVec
	reconcileDuration prometheus.Histogram
	addressSources    *prometheus.CounterVec
	uploadsTotal      *prometheus.CounterVec
}

// NewMetrics создает метрики на собственном реестре
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of HTTP request durations by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		reconcileRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_runs_total",
			Help:      "Reconciliation runs by outcome.",
		}, []string{"outcome"}),
		reconcileRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_rows_total",
			Help:      "Rows seen by reconciliation by kind (input, dropped_unresolved, zero_suppressed, negative, output).",
		}, []string{"kind"}),
		reconcileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconcile_duration_seconds",
			Help:      "Histogram of reconciliation durations.",
			Buckets:   prometheus.DefBuckets,
		}),
		addressSources: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "address_resolutions_total",
			Help:      "Address resolutions by source (registry, heuristic, unresolved).",
		}, []string{"source"}),
		uploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Delivery report uploads by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.reconcileRuns,
		m.reconcileRows,
		m.reconcileDuration,
		m.addressSources,
		m.uploadsTotal,
	)

	return m
}

// Registry реестр метрик
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler HTTP-обработчик /metrics
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveHTTP записывает обработанный запрос
func (m *Metrics) ObserveHTTP(route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// ObserveReconcile записывает статистику прогона сверки
func (m *Metrics) ObserveReconcile(stats reconciliation.Stats, duration time.Duration) {
	if m == nil {
		return
	}
	m.reconcileRuns.WithLabelValues(string(stats.Outcome)).Inc()
	m.reconcileDuration.Observe(duration.Seconds())
	m.reconcileRows.WithLabelValues("input").Add(float64(stats.InputRows))
	m.reconcileRows.WithLabelValues("dropped_unresolved").Add(float64(stats.DroppedUnresolved))
	m.reconcileRows.WithLabelValues("zero_suppressed").Add(float64(stats.ZeroSuppressed))
	m.reconcileRows.WithLabelValues("negative").Add(float64(stats.NegativeIncrements))
	m.reconcileRows.WithLabelValues("output").Add(float64(stats.OutputRows))
}

// ObserveAddress записывает источник разрешения адреса
func (m *Metrics) ObserveAddress(source address.Source, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.addressSources.WithLabelValues(string(source)).Add(float64(count))
}

// ObserveUpload записывает результат загрузки отчета
func (m *Metrics) ObserveUpload(result string) {
	if m == nil {
		return
	}
	m.uploadsTotal.WithLabelValues(result).Inc()
}

// RegisterRegistryCache публикует статистику кэша эталонных адресов
func (m *Metrics) RegisterRegistryCache(cache *address.CachedRegistry) {
	if m == nil || cache == nil {
		return
	}
	stat := func(name, help string, value func(address.CacheStats) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry_cache",
			Name:      name,
			Help:      help,
		}, func() float64 { return value(cache.GetStats()) })
	}
	m.registry.MustRegister(
		stat("hits", "Registry cache hits.", func(s address.CacheStats) float64 { return float64(s.Hits) }),
		stat("misses", "Registry cache misses.", func(s address.CacheStats) float64 { return float64(s.Misses) }),
		stat("loads", "Registry loads from the store.", func(s address.CacheStats) float64 { return float64(s.Loads) }),
		stat("regions", "Regions currently cached.", func(s address.CacheStats) float64 { return float64(s.Size) }),
	)
}
