package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StorefrontMetrics records cart activity and local persistence health.
type StorefrontMetrics struct {
	cartMutations       *prometheus.CounterVec
	persistenceFailures *prometheus.CounterVec
	apiDuration         *prometheus.HistogramVec
}

// NewStorefrontMetrics registers the client metrics on the provided registerer.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutation operations, labeled by operation.",
	}, []string{"op"})
	persistenceFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_persistence_failures_total",
		Help: "Failed local cart persistence operations, labeled by kind.",
	}, []string{"kind"})
	apiDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "api_request_duration_seconds",
		Help:    "Duration of marketplace API requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
	reg.MustRegister(cartMutations, persistenceFailures, apiDuration)
	return &StorefrontMetrics{
		cartMutations:       cartMutations,
		persistenceFailures: persistenceFailures,
		apiDuration:         apiDuration,
	}
}

// IncCartMutation increments the mutation counter for the named operation.
func (m *StorefrontMetrics) IncCartMutation(op string) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncPersistenceFailure increments the failure counter for the given kind (read/write).
func (m *StorefrontMetrics) IncPersistenceFailure(kind string) {
	if m == nil || m.persistenceFailures == nil {
		return
	}
	m.persistenceFailures.WithLabelValues(normalizeLabel(kind)).Inc()
}

// ObserveAPIDuration records the duration of a marketplace API call.
func (m *StorefrontMetrics) ObserveAPIDuration(endpoint string, duration time.Duration) {
	if m == nil || m.apiDuration == nil {
		return
	}
	m.apiDuration.WithLabelValues(normalizeLabel(endpoint)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return "unknown"
	}
	return strings.ReplaceAll(trimmed, " ", "_")
}
