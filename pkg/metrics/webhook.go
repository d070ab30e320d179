package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WebhookMetrics records ingestion outcomes per provider.
type WebhookMetrics struct {
	duration     *prometheus.HistogramVec
	received     *prometheus.CounterVec
	unauthorized *prometheus.CounterVec
	duplicates   *prometheus.CounterVec
	handledItems *prometheus.CounterVec
}

// NewWebhookMetrics registers the webhook pipeline metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "webhook_duration_seconds",
		Help:    "Duration of webhook deliveries in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})
	received := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_received_total",
		Help: "Webhook deliveries received, before authentication.",
	}, []string{"provider"})
	unauthorized := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_unauthorized_total",
		Help: "Webhook deliveries rejected for credential or signature failure.",
	}, []string{"provider"})
	duplicates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_duplicate_total",
		Help: "Webhook redeliveries short-circuited by the dedup key.",
	}, []string{"provider"})
	handledItems := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_handled_items_total",
		Help: "Notification items applied to transactions.",
	}, []string{"provider"})
	reg.MustRegister(duration, received, unauthorized, duplicates, handledItems)
	return &WebhookMetrics{
		duration:     duration,
		received:     received,
		unauthorized: unauthorized,
		duplicates:   duplicates,
		handledItems: handledItems,
	}
}

// ObserveDuration records the delivery duration for the named provider.
func (m *WebhookMetrics) ObserveDuration(provider string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(provider)).Observe(duration.Seconds())
}

// IncReceived counts one inbound delivery.
func (m *WebhookMetrics) IncReceived(provider string) {
	if m == nil || m.received == nil {
		return
	}
	m.received.WithLabelValues(normalizeLabel(provider)).Inc()
}

// IncUnauthorized counts one rejected delivery.
func (m *WebhookMetrics) IncUnauthorized(provider string) {
	if m == nil || m.unauthorized == nil {
		return
	}
	m.unauthorized.WithLabelValues(normalizeLabel(provider)).Inc()
}

// IncDuplicate counts one deduplicated redelivery.
func (m *WebhookMetrics) IncDuplicate(provider string) {
	if m == nil || m.duplicates == nil {
		return
	}
	m.duplicates.WithLabelValues(normalizeLabel(provider)).Inc()
}

// AddHandledItems counts applied notification items.
func (m *WebhookMetrics) AddHandledItems(provider string, n int) {
	if m == nil || m.handledItems == nil || n <= 0 {
		return
	}
	m.handledItems.WithLabelValues(normalizeLabel(provider)).Add(float64(n))
}

func normalizeLabel(provider string) string {
	if provider == "" {
		return "unknown"
	}
	return provider
}
