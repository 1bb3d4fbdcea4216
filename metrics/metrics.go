// Package metrics exports decode statistics to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ericlevine/matrixscan"
)

// Collector implements matrixscan.Observer. It is safe for concurrent use.
type Collector struct {
	DecodesTotal    *prometheus.CounterVec
	DecodeDuration  *prometheus.HistogramVec
	ErrorsCorrected *prometheus.HistogramVec
}

var _ matrixscan.Observer = (*Collector)(nil)

// NewCollector creates the collectors and registers them on reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		DecodesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "matrixscan_decodes_total",
				Help: "Decode attempts by symbology and outcome.",
			},
			[]string{"format", "outcome"},
		),
		DecodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "matrixscan_decode_duration_seconds",
				Help:    "Time spent in one symbology's detect, sample and bitstream stages.",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"format"},
		),
		ErrorsCorrected: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "matrixscan_errors_corrected",
				Help:    "Codewords repaired by error correction per successful decode.",
				Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64},
			},
			[]string{"format"},
		),
	}
	for _, col := range []prometheus.Collector{c.DecodesTotal, c.DecodeDuration, c.ErrorsCorrected} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ObserveDecode records one attempt.
func (c *Collector) ObserveDecode(format matrixscan.Format, outcome matrixscan.Outcome, elapsed time.Duration, errorsCorrected int) {
	f := format.String()
	c.DecodesTotal.WithLabelValues(f, string(outcome)).Inc()
	c.DecodeDuration.WithLabelValues(f).Observe(elapsed.Seconds())
	if outcome == matrixscan.OutcomeSuccess {
		c.ErrorsCorrected.WithLabelValues(f).Observe(float64(errorsCorrected))
	}
}
