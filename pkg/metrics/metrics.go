// Package metrics holds the per-run Prometheus counters of a build.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "witcherkg"

// Run is the set of counters for one pipeline run. Each run gets its own
// registry so that repeated builds in one process do not accumulate.
type Run struct {
	registry *prometheus.Registry

	TriplesAdded     *prometheus.CounterVec
	PagesProcessed   prometheus.Counter
	FeaturesIngested *prometheus.CounterVec
	FeaturesDropped  *prometheus.CounterVec
	PinsResolved     *prometheus.CounterVec
	PinsSkipped      *prometheus.CounterVec
	StageDuration    *prometheus.HistogramVec
}

// NewRun creates and registers the counters.
func NewRun() (*Run, error) {
	r := &Run{
		registry: prometheus.NewRegistry(),

		TriplesAdded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "triples_added_total",
			Help:      "Triples added to the graph, by stage",
		}, []string{"stage"}),

		PagesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_processed_total",
			Help:      "Wiki pages read from the dump",
		}),

		FeaturesIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "features_ingested_total",
			Help:      "GIS features that produced at least one geometry, by layer",
		}, []string{"layer"}),

		FeaturesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "features_dropped_total",
			Help:      "GIS features or rings skipped, by reason",
		}, []string{"reason"}),

		PinsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pins_resolved_total",
			Help:      "Map pins resolved, by tier",
		}, []string{"tier"}),

		PinsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pins_skipped_total",
			Help:      "Map pins skipped, by reason",
		}, []string{"reason"}),

		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of each pipeline stage",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}, []string{"stage"}),
	}

	for _, c := range []prometheus.Collector{
		r.TriplesAdded, r.PagesProcessed, r.FeaturesIngested, r.FeaturesDropped,
		r.PinsResolved, r.PinsSkipped, r.StageDuration,
	} {
		if err := r.registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return r, nil
}

// Registry exposes the run's registry.
func (r *Run) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveStage records how long stage took.
func (r *Run) ObserveStage(stage string, d time.Duration) {
	r.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// AddCounts adds every value of counts to vec under its key.
func AddCounts[K ~string](vec *prometheus.CounterVec, counts map[K]int) {
	for k, n := range counts {
		if n > 0 {
			vec.WithLabelValues(string(k)).Add(float64(n))
		}
	}
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (r *Run) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
