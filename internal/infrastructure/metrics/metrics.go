package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Message Worker Metrics
var (
	// HTTP request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flowcore",
			Subsystem: "message_worker",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "flowcore",
			Subsystem: "message_worker",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint", "status"},
	)

	// Webhook deliveries by signature verdict and ingest result
	WebhookDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flowcore",
			Subsystem: "message_worker",
			Name:      "webhook_deliveries_total",
			Help:      "Inbound webhook deliveries by result",
		},
		[]string{"result"},
	)

	// Inbound message ingestion results
	MessagesIngestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flowcore",
			Subsystem: "message_worker",
			Name:      "messages_ingested_total",
			Help:      "Inbound messages by ingestion result",
		},
		[]string{"result"},
	)

	// Queue item outcomes
	QueueItemsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flowcore",
			Subsystem: "message_worker",
			Name:      "queue_items_processed_total",
			Help:      "Processed queue items by outcome",
		},
		[]string{"outcome"},
	)

	// Pending work gauge
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "flowcore",
			Subsystem: "message_worker",
			Name:      "queue_depth",
			Help:      "Queue items currently pending",
		},
	)

	// Escalations by reason
	EscalationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flowcore",
			Subsystem: "message_worker",
			Name:      "escalations_total",
			Help:      "Conversations escalated to a human by reason",
		},
		[]string{"reason"},
	)

	// Model call duration
	ModelCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "flowcore",
			Subsystem: "message_worker",
			Name:      "model_call_duration_seconds",
			Help:      "Chat completion call duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"model", "status"},
	)

	// Outbound channel sends
	ChannelSendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flowcore",
			Subsystem: "message_worker",
			Name:      "channel_sends_total",
			Help:      "Outbound channel messages by status",
		},
		[]string{"status"},
	)
)

// RecordRequest records an HTTP request with its duration
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint, status).Observe(durationSec)
}

// RecordWebhook records one inbound webhook delivery
func RecordWebhook(result string) {
	WebhookDeliveriesTotal.WithLabelValues(result).Inc()
}

// RecordIngest records the result of ingesting an inbound message
func RecordIngest(result string) {
	MessagesIngestedTotal.WithLabelValues(result).Inc()
}

// RecordQueueItem records the outcome of one processed queue item
func RecordQueueItem(outcome string) {
	QueueItemsProcessedTotal.WithLabelValues(outcome).Inc()
}

// SetQueueDepth updates the pending queue depth gauge
func SetQueueDepth(depth float64) {
	QueueDepth.Set(depth)
}

// RecordEscalation records a conversation handoff
func RecordEscalation(reason string) {
	EscalationsTotal.WithLabelValues(reason).Inc()
}

// ObserveModelCall records the duration of a chat completion call
func ObserveModelCall(model, status string, durationSec float64) {
	ModelCallDuration.WithLabelValues(model, status).Observe(durationSec)
}

// RecordChannelSend records an outbound message delivery attempt
func RecordChannelSend(status string) {
	ChannelSendsTotal.WithLabelValues(status).Inc()
}
