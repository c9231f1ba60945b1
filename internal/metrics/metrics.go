// Package metrics records service metrics. The Prometheus recorder is used by
// the server; the no-op recorder by the CLI and by tests.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder is the set of metrics the icon pipeline reports.
type Recorder interface {
	RecordCacheLookup(hit bool)
	// RecordResolution records one resolver run. source is the provider that
	// found the icon; it is ignored when found is false.
	RecordResolution(source string, found bool, duration time.Duration)
	RecordItemFailure()
	RecordBatch(size int)
	SetCacheEntries(n int)
}

// PrometheusRecorder records metrics using Prometheus.
type PrometheusRecorder struct {
	cacheLookupsTotal  *prometheus.CounterVec
	resolutionsTotal   *prometheus.CounterVec
	resolutionDuration prometheus.Histogram
	itemFailuresTotal  prometheus.Counter
	batchSize          prometheus.Histogram
	cacheEntries       prometheus.Gauge
}

// NewPrometheusRecorder registers the service metrics with reg.
// Tests pass a fresh prometheus.NewRegistry().
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	cacheLookupsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "company_icons_cache_lookups_total",
		Help: "Icon cache lookups by result",
	}, []string{"result"})

	resolutionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "company_icons_resolutions_total",
		Help: "Icon resolutions by winning source; source=\"none\" when nothing was found",
	}, []string{"source"})

	resolutionDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "company_icons_resolution_duration_seconds",
		Help:    "Time spent resolving a single site",
		Buckets: prometheus.DefBuckets,
	})

	itemFailuresTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "company_icons_item_failures_total",
		Help: "Batch items that failed with an unexpected error",
	})

	batchSize := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "company_icons_batch_size",
		Help:    "Number of companies per batch request",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
	})

	cacheEntries := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "company_icons_cache_entries",
		Help: "Current number of cached icon URLs",
	})

	reg.MustRegister(
		cacheLookupsTotal,
		resolutionsTotal,
		resolutionDuration,
		itemFailuresTotal,
		batchSize,
		cacheEntries,
	)

	return &PrometheusRecorder{
		cacheLookupsTotal:  cacheLookupsTotal,
		resolutionsTotal:   resolutionsTotal,
		resolutionDuration: resolutionDuration,
		itemFailuresTotal:  itemFailuresTotal,
		batchSize:          batchSize,
		cacheEntries:       cacheEntries,
	}
}

func (p *PrometheusRecorder) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	p.cacheLookupsTotal.WithLabelValues(result).Inc()
}

func (p *PrometheusRecorder) RecordResolution(source string, found bool, duration time.Duration) {
	if !found {
		source = "none"
	}
	p.resolutionsTotal.WithLabelValues(source).Inc()
	p.resolutionDuration.Observe(duration.Seconds())
}

func (p *PrometheusRecorder) RecordItemFailure() {
	p.itemFailuresTotal.Inc()
}

func (p *PrometheusRecorder) RecordBatch(size int) {
	p.batchSize.Observe(float64(size))
}

func (p *PrometheusRecorder) SetCacheEntries(n int) {
	p.cacheEntries.Set(float64(n))
}

// NoopRecorder discards everything.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (NoopRecorder) RecordCacheLookup(bool) {}

func (NoopRecorder) RecordResolution(string, bool, time.Duration) {}

func (NoopRecorder) RecordItemFailure() {}

func (NoopRecorder) RecordBatch(int) {}

func (NoopRecorder) SetCacheEntries(int) {}

var (
	_ Recorder = (*PrometheusRecorder)(nil)
	_ Recorder = (*NoopRecorder)(nil)
)
