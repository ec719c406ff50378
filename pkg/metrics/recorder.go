// Package metrics exports history activity as Prometheus metrics.
package metrics

import (
	"errors"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-memento/pkg/history"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "memento"

// Config controls how a Recorder registers its collectors.
type Config struct {
	// Namespace defaults to DefaultNamespace.
	Namespace string
	// Registerer defaults to prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
	// Buckets for the undo duration histogram. Defaults to prometheus.DefBuckets.
	Buckets []float64
}

// Recorder is a history.Observer that counts backups and undo outcomes.
type Recorder struct {
	backups      prometheus.Counter
	undos        *prometheus.CounterVec
	skipped      prometheus.Counter
	depth        *prometheus.GaugeVec
	undoDuration prometheus.Histogram
}

var _ history.Observer = (*Recorder)(nil)

// NewRecorder builds a Recorder and registers its collectors.
func NewRecorder(cfg Config) (*Recorder, error) {
	namespace := strings.TrimSpace(cfg.Namespace)
	if namespace == "" {
		namespace = DefaultNamespace
	}
	registerer := cfg.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	buckets := cfg.Buckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	r := &Recorder{
		backups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "backups_total",
			Help:      "Snapshots appended to a history.",
		}),
		undos: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "undo_total",
			Help:      "Undo calls by final outcome.",
		}, []string{"outcome"}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "restore_skipped_total",
			Help:      "Snapshots discarded by the undo recovery loop.",
		}),
		depth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "depth",
			Help:      "Snapshots currently stacked per history.",
		}, []string{"history"}),
		undoDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "undo_duration_seconds",
			Help:      "Time spent in undo, recovery loop included.",
			Buckets:   buckets,
		}),
	}

	var errs []error
	for _, collector := range []prometheus.Collector{r.backups, r.undos, r.skipped, r.depth, r.undoDuration} {
		if err := registerer.Register(collector); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return r, nil
}

// Observe implements history.Observer.
func (r *Recorder) Observe(event history.Event) {
	if r == nil {
		return
	}
	switch event.Outcome {
	case history.OutcomeCaptured:
		r.backups.Inc()
	case history.OutcomeSkipped:
		r.skipped.Inc()
	case history.OutcomeRestored, history.OutcomeEmpty, history.OutcomeFailed:
		r.undos.WithLabelValues(string(event.Outcome)).Inc()
		r.undoDuration.Observe(event.Duration.Seconds())
	case history.OutcomeEvicted:
		return
	}
	r.depth.WithLabelValues(event.HistoryID).Set(float64(event.Depth))
}

// Forget drops the depth series of a history that is no longer used.
func (r *Recorder) Forget(historyID string) {
	if r == nil {
		return
	}
	r.depth.DeleteLabelValues(historyID)
}
