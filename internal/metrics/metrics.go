package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"CrisisMonitor/internal/domain"
	"CrisisMonitor/internal/ports"
)

// PipelineMetrics records fetch, geocode and run measurements on a private
// registry.
type PipelineMetrics struct {
	registry *prometheus.Registry

	fetchTotal      *prometheus.CounterVec
	fetchDuration   *prometheus.HistogramVec
	fetchArticles   *prometheus.GaugeVec
	geocodeLookups  *prometheus.CounterVec
	runsTotal       prometheus.Counter
	runDuration     prometheus.Histogram
	runArticles     *prometheus.GaugeVec
	categoryArticle *prometheus.GaugeVec
	geocodeRate     prometheus.Gauge
	lastRun         prometheus.Gauge
}

var _ ports.RunObserver = (*PipelineMetrics)(nil)

func NewPipelineMetrics() *PipelineMetrics {
	registry := prometheus.NewRegistry()

	fetchTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crisis_monitor",
			Subsystem: "fetch",
			Name:      "requests_total",
			Help:      "Feed fetches by source and status.",
		},
		[]string{"source", "status"},
	)
	fetchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crisis_monitor",
			Subsystem: "fetch",
			Name:      "duration_seconds",
			Help:      "Feed fetch duration in seconds by source.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15, 30},
		},
		[]string{"source"},
	)
	fetchArticles := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "crisis_monitor",
			Subsystem: "fetch",
			Name:      "articles",
			Help:      "Articles returned by the last fetch of each source.",
		},
		[]string{"source"},
	)
	geocodeLookups := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crisis_monitor",
			Subsystem: "geocode",
			Name:      "lookups_total",
			Help:      "Location lookups by outcome.",
		},
		[]string{"outcome"},
	)
	runsTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "crisis_monitor",
			Subsystem: "run",
			Name:      "total",
			Help:      "Completed pipeline runs.",
		},
	)
	runDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "crisis_monitor",
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Pipeline run duration in seconds.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)
	runArticles := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "crisis_monitor",
			Subsystem: "run",
			Name:      "articles",
			Help:      "Article counts of the last run by stage.",
		},
		[]string{"stage"},
	)
	categoryArticle := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "crisis_monitor",
			Subsystem: "run",
			Name:      "crisis_articles",
			Help:      "Crisis articles of the last run by category.",
		},
		[]string{"category"},
	)
	geocodeRate := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "crisis_monitor",
			Subsystem: "run",
			Name:      "geocode_success_ratio",
			Help:      "Resolved over attempted geocoder lookups in the last run.",
		},
	)
	lastRun := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "crisis_monitor",
			Subsystem: "run",
			Name:      "last_completed_timestamp_seconds",
			Help:      "Unix time the last run completed.",
		},
	)

	registry.MustRegister(fetchTotal, fetchDuration, fetchArticles, geocodeLookups,
		runsTotal, runDuration, runArticles, categoryArticle, geocodeRate, lastRun)

	return &PipelineMetrics{
		registry:        registry,
		fetchTotal:      fetchTotal,
		fetchDuration:   fetchDuration,
		fetchArticles:   fetchArticles,
		geocodeLookups:  geocodeLookups,
		runsTotal:       runsTotal,
		runDuration:     runDuration,
		runArticles:     runArticles,
		categoryArticle: categoryArticle,
		geocodeRate:     geocodeRate,
		lastRun:         lastRun,
	}
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func (m *PipelineMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func (m *PipelineMetrics) SourceFetched(source string, articles int, elapsed time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.fetchTotal.WithLabelValues(source, status).Inc()
	m.fetchDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	m.fetchArticles.WithLabelValues(source).Set(float64(articles))
}

func (m *PipelineMetrics) GeocodeLookup(outcome string) {
	m.geocodeLookups.WithLabelValues(outcome).Inc()
}

func (m *PipelineMetrics) RunCompleted(stats domain.RunStats) {
	m.runsTotal.Inc()
	m.runDuration.Observe(stats.Duration.Seconds())
	m.runArticles.WithLabelValues("fetched").Set(float64(stats.Fetched))
	m.runArticles.WithLabelValues("new").Set(float64(stats.NewSinceLastRun))
	m.runArticles.WithLabelValues("classified").Set(float64(stats.Classified))
	m.runArticles.WithLabelValues("crisis").Set(float64(stats.Crisis))
	m.runArticles.WithLabelValues("mapped").Set(float64(stats.Mapped))
	m.runArticles.WithLabelValues("unmapped").Set(float64(stats.Unmapped))
	for _, cat := range domain.Categories {
		m.categoryArticle.WithLabelValues(string(cat)).Set(float64(stats.CategoryCounts[cat]))
	}
	m.geocodeRate.Set(stats.GeocodeSuccessRate())
	m.lastRun.Set(float64(stats.StartedAt.Add(stats.Duration).Unix()))
}
