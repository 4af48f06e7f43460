package store

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects Prometheus metrics for store operations.
// A nil *Metrics records nothing.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	entities   *prometheus.GaugeVec
	loading    *prometheus.GaugeVec
}

// NewMetrics registers the store collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_store_operations_total",
			Help: "Store operations by store, operation and result.",
		}, []string{"store", "op", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_store_operation_duration_seconds",
			Help:    "Duration of store operations including the remote call.",
			Buckets: prometheus.DefBuckets,
		}, []string{"store", "op"}),
		entities: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "storefront_store_entities",
			Help: "Number of entities held by the store.",
		}, []string{"store"}),
		loading: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "storefront_store_loading",
			Help: "1 while the store has an operation in flight.",
		}, []string{"store"}),
	}
	if reg != nil {
		reg.MustRegister(m.operations, m.duration, m.entities, m.loading)
	}
	return m
}

func (m *Metrics) observe(store, op string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(store, op, result).Inc()
	m.duration.WithLabelValues(store, op).Observe(elapsed.Seconds())
}

func (m *Metrics) setSize(store string, n int) {
	if m == nil {
		return
	}
	m.entities.WithLabelValues(store).Set(float64(n))
}

func (m *Metrics) setLoading(store string, loading bool) {
	if m == nil {
		return
	}
	v := 0.0
	if loading {
		v = 1
	}
	m.loading.WithLabelValues(store).Set(v)
}
