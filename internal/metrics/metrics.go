// Package metrics defines the telemetry contract of the prediction
// pipeline and its Prometheus-backed implementation. The core records
// through the Metrics interface so that tests and library embedders run
// without a live registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "qmdelta"

// Metrics is the telemetry collection API of the calculator. Implementations
// must be safe for concurrent use.
type Metrics interface {
	// RecordValidation records per-outcome molecule counts from one
	// validation pass.
	RecordValidation(outcome string, count int)

	// RecordBaseline records a single baseline-tool invocation.
	RecordBaseline(seconds float64, cacheHit bool)

	// RecordInference records one model pass over one batch.
	RecordInference(model string, batchSize int, seconds float64)

	// RecordPredict records a completed predict call.
	RecordPredict(mode string, molecules int, seconds float64)

	// RecordWeightResolve records a weight-store resolution.
	RecordWeightResolve(model string, cacheHit bool)
}

// ─────────────────────────────────────────────────────────────────────────────
// Prometheus implementation
// ─────────────────────────────────────────────────────────────────────────────

type promMetrics struct {
	validations    *prometheus.CounterVec
	baselineRuns   prometheus.Histogram
	baselineCache  *prometheus.CounterVec
	inference      *prometheus.HistogramVec
	inferenceBatch *prometheus.HistogramVec
	predicts       *prometheus.HistogramVec
	molecules      *prometheus.CounterVec
	weightLookups  *prometheus.CounterVec
}

// NewPrometheusMetrics constructs a Metrics implementation registered on reg.
// Passing prometheus.DefaultRegisterer wires into the process-global
// registry; tests pass a fresh prometheus.NewRegistry().
func NewPrometheusMetrics(reg prometheus.Registerer) (Metrics, error) {
	m := &promMetrics{
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_outcomes_total",
			Help:      "Molecules per validation outcome category.",
		}, []string{"outcome"}),
		baselineRuns: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "baseline_duration_seconds",
			Help:      "Wall-clock duration of external baseline computations.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		baselineCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "baseline_cache_total",
			Help:      "Baseline cache lookups by result.",
		}, []string{"result"}),
		inference: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_duration_seconds",
			Help:      "Per-batch model inference duration.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"model"}),
		inferenceBatch: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_batch_size",
			Help:      "Molecules per model inference batch.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"model"}),
		predicts: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "predict_duration_seconds",
			Help:      "End-to-end predict call duration.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}, []string{"mode"}),
		molecules: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predict_molecules_total",
			Help:      "Molecules submitted to predict calls, by mode.",
		}, []string{"mode"}),
		weightLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weight_resolutions_total",
			Help:      "Weight-store resolutions by model and cache result.",
		}, []string{"model", "result"}),
	}

	for _, c := range []prometheus.Collector{
		m.validations, m.baselineRuns, m.baselineCache,
		m.inference, m.inferenceBatch, m.predicts, m.molecules,
		m.weightLookups,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func cacheLabel(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

func (m *promMetrics) RecordValidation(outcome string, count int) {
	m.validations.WithLabelValues(outcome).Add(float64(count))
}

func (m *promMetrics) RecordBaseline(seconds float64, cacheHit bool) {
	m.baselineCache.WithLabelValues(cacheLabel(cacheHit)).Inc()
	if !cacheHit {
		m.baselineRuns.Observe(seconds)
	}
}

func (m *promMetrics) RecordInference(model string, batchSize int, seconds float64) {
	m.inference.WithLabelValues(model).Observe(seconds)
	m.inferenceBatch.WithLabelValues(model).Observe(float64(batchSize))
}

func (m *promMetrics) RecordPredict(mode string, molecules int, seconds float64) {
	m.predicts.WithLabelValues(mode).Observe(seconds)
	m.molecules.WithLabelValues(mode).Add(float64(molecules))
}

func (m *promMetrics) RecordWeightResolve(model string, cacheHit bool) {
	m.weightLookups.WithLabelValues(model, cacheLabel(cacheHit)).Inc()
}

// ─────────────────────────────────────────────────────────────────────────────
// Noop implementation
// ─────────────────────────────────────────────────────────────────────────────

type noopMetrics struct{}

func (noopMetrics) RecordValidation(string, int)          {}
func (noopMetrics) RecordBaseline(float64, bool)          {}
func (noopMetrics) RecordInference(string, int, float64)  {}
func (noopMetrics) RecordPredict(string, int, float64)    {}
func (noopMetrics) RecordWeightResolve(string, bool)      {}

// NewNoopMetrics returns a Metrics implementation that discards everything.
func NewNoopMetrics() Metrics { return noopMetrics{} }
