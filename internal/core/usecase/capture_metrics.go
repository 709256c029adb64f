package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultRecorded = "recorded"
	resultFailed   = "failed"
	resultDropped  = "dropped"
	resultIgnored  = "ignored"
)

// CaptureMetrics exports capture outcomes to Prometheus.
type CaptureMetrics struct {
	events     *prometheus.CounterVec
	queueDepth prometheus.Gauge
}

// NewCaptureMetrics registers the capture collectors on reg.
func NewCaptureMetrics(reg prometheus.Registerer) *CaptureMetrics {
	factory := promauto.With(reg)
	return &CaptureMetrics{
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "audito_capture_events_total",
			Help: "Mutation events seen by audit capture, by outcome",
		}, []string{"result"}),
		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "audito_capture_queue_depth",
			Help: "Mutation events waiting to be written to the audit store",
		}),
	}
}

func (m *CaptureMetrics) inc(result string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(result).Inc()
}

func (m *CaptureMetrics) setQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}
