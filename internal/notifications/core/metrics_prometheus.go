package core

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"outagealert/internal/types"
)

var _ NotificationMetrics = (*PrometheusNotificationMetrics)(nil)

// PrometheusNotificationMetrics exposes delivery counters and a latency
// histogram for scraping on /metrics.
type PrometheusNotificationMetrics struct {
	deliveries *prometheus.CounterVec
	latency    *prometheus.HistogramVec
}

// NewPrometheusNotificationMetrics registers the collectors with reg.
func NewPrometheusNotificationMetrics(reg prometheus.Registerer) *PrometheusNotificationMetrics {
	m := &PrometheusNotificationMetrics{
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "outagealert",
			Name:      "delivery_attempts_total",
			Help:      "Channel send attempts by channel and result.",
		}, []string{"channel", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "outagealert",
			Name:      "delivery_latency_seconds",
			Help:      "Channel send latency.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"channel"}),
	}
	reg.MustRegister(m.deliveries, m.latency)
	return m
}

func (m *PrometheusNotificationMetrics) RecordDelivery(_ context.Context, channel types.ChannelType, result MetricResult) {
	m.deliveries.WithLabelValues(string(channel), string(result)).Inc()
}

func (m *PrometheusNotificationMetrics) RecordLatency(_ context.Context, channel types.ChannelType, duration time.Duration) {
	m.latency.WithLabelValues(string(channel)).Observe(duration.Seconds())
}
