package aggregate

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records recompute activity. A nil *Metrics records nothing.
type Metrics struct {
	recomputes *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics creates the engine metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		recomputes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gameshelf",
				Subsystem: "aggregate",
				Name:      "recomputes_total",
				Help:      "Aggregate recomputations by entity kind and result.",
			},
			[]string{"kind", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gameshelf",
				Subsystem: "aggregate",
				Name:      "recompute_duration_seconds",
				Help:      "Time spent recomputing one entity's aggregates.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
	}
	reg.MustRegister(m.recomputes, m.duration)
	return m
}

func (m *Metrics) observe(kind string, start time.Time, result string) {
	if m == nil {
		return
	}
	m.recomputes.WithLabelValues(kind, result).Inc()
	m.duration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
