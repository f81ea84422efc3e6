package storage

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records collection load and persist activity.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	operations      *prometheus.CounterVec
	persistDuration *prometheus.HistogramVec
	records         *prometheus.GaugeVec
}

// NewMetrics creates the storage metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gameshelf",
				Subsystem: "storage",
				Name:      "operations_total",
				Help:      "Collection loads and persists by result.",
			},
			[]string{"collection", "op", "result"},
		),
		persistDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gameshelf",
				Subsystem: "storage",
				Name:      "persist_duration_seconds",
				Help:      "Time spent writing a collection to the backend.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"collection"},
		),
		records: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "gameshelf",
				Subsystem: "storage",
				Name:      "records",
				Help:      "Records currently held by each collection.",
			},
			[]string{"collection"},
		),
	}
	reg.MustRegister(m.operations, m.persistDuration, m.records)
	return m
}

func (m *Metrics) observe(collection, op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(collection, op, result).Inc()
}

func (m *Metrics) observePersist(collection string, start time.Time) {
	if m == nil {
		return
	}
	m.persistDuration.WithLabelValues(collection).Observe(time.Since(start).Seconds())
}

func (m *Metrics) setRecords(collection string, n int) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(collection).Set(float64(n))
}
