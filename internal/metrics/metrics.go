// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	webhookNamespace         = "webhookd"
	webhookSubsystemIngest   = "ingest"
	webhookSubsystemDelivery = "delivery"
	webhookSubsystemGC       = "gc"
)

// WebhookMetrics holds all of the metrics needed to properly instrument the
// webhook service.
type WebhookMetrics struct {
	IngestAcceptedCounter prometheus.Counter
	QueueRejectionCounter prometheus.Counter
	AttemptCounter        *prometheus.CounterVec
	AttemptDurationHist   prometheus.Histogram
	DeliveryCounter       *prometheus.CounterVec
	DeliveryLogsDeleted   prometheus.Counter
}

// New creates a new Prometheus-based metrics object to be used throughout the
// webhook service in order to record various performance metrics.
func New() *WebhookMetrics {
	return &WebhookMetrics{
		IngestAcceptedCounter: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: webhookNamespace,
			Subsystem: webhookSubsystemIngest,
			Name:      "accepted_total",
			Help:      "The number of payloads accepted for delivery",
		}),
		QueueRejectionCounter: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: webhookNamespace,
			Subsystem: webhookSubsystemIngest,
			Name:      "queue_rejections_total",
			Help:      "The number of payloads rejected because the delivery queue was full",
		}),
		AttemptCounter: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: webhookNamespace,
			Subsystem: webhookSubsystemDelivery,
			Name:      "attempts_total",
			Help:      "The number of outbound delivery attempts",
		}, []string{"success"}),
		AttemptDurationHist: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: webhookNamespace,
			Subsystem: webhookSubsystemDelivery,
			Name:      "attempt_duration_seconds",
			Help:      "The duration of outbound delivery attempts",
			Buckets:   prometheus.DefBuckets,
		}),
		DeliveryCounter: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: webhookNamespace,
			Subsystem: webhookSubsystemDelivery,
			Name:      "tasks_total",
			Help:      "The number of delivery tasks finished, by final status",
		}, []string{"final_status"}),
		DeliveryLogsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: webhookNamespace,
			Subsystem: webhookSubsystemGC,
			Name:      "delivery_logs_deleted_total",
			Help:      "The number of delivery logs removed by the retention garbage collector",
		}),
	}
}

// RegisterQueueDepth exposes the delivery queue depth as a gauge backed by
// the given length function.
func RegisterQueueDepth(queueLen func() int) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: webhookNamespace,
		Subsystem: webhookSubsystemIngest,
		Name:      "queue_depth",
		Help:      "The number of delivery tasks currently queued",
	}, func() float64 {
		return float64(queueLen())
	})
}

// IncIngestAccepted counts a payload accepted for delivery.
func (m *WebhookMetrics) IncIngestAccepted() {
	m.IngestAcceptedCounter.Inc()
}

// IncQueueRejection counts a payload rejected due to a full queue.
func (m *WebhookMetrics) IncQueueRejection() {
	m.QueueRejectionCounter.Inc()
}

// IncAttempt counts one outbound delivery attempt.
func (m *WebhookMetrics) IncAttempt(success bool) {
	if success {
		m.AttemptCounter.WithLabelValues("true").Inc()
	} else {
		m.AttemptCounter.WithLabelValues("false").Inc()
	}
}

// ObserveAttemptDuration records the duration of one outbound attempt.
func (m *WebhookMetrics) ObserveAttemptDuration(seconds float64) {
	m.AttemptDurationHist.Observe(seconds)
}

// IncDelivery counts one finished delivery task by final status.
func (m *WebhookMetrics) IncDelivery(finalStatus string) {
	m.DeliveryCounter.WithLabelValues(finalStatus).Inc()
}

// AddDeliveryLogsDeleted counts delivery logs removed by the garbage
// collector.
func (m *WebhookMetrics) AddDeliveryLogsDeleted(count int64) {
	m.DeliveryLogsDeleted.Add(float64(count))
}
