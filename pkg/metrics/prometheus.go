package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	predictions  *prometheus.CounterVec
	overrides    *prometheus.CounterVec
	patternFires *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	lastPrice    *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		predictions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_predictions_total",
				Help: "Total number of predictions produced",
			},
			[]string{"symbol", "label"},
		),
		overrides: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_keyword_overrides_total",
				Help: "Total number of keyword-forced label replacements",
			},
			[]string{"symbol"},
		),
		patternFires: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_pattern_fires_total",
				Help: "Correction/rebound pattern rule fires",
			},
			[]string{"pattern"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockpulse_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordPrediction records a produced prediction by final label.
func (r *Recorder) RecordPrediction(symbol, label string) {
	r.predictions.WithLabelValues(symbol, label).Inc()
}

// RecordOverride records a keyword override that replaced a label.
func (r *Recorder) RecordOverride(symbol string) {
	r.overrides.WithLabelValues(symbol).Inc()
}

// RecordPatternFire records one detector rule firing.
func (r *Recorder) RecordPatternFire(pattern string) {
	r.patternFires.WithLabelValues(pattern).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
