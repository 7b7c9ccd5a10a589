package processor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels of processed submissions.
const (
	resultAccepted  = "accepted"
	resultDuplicate = "duplicate"
	resultRejected  = "rejected"
)

// Metrics collects processor telemetry.
type Metrics struct {
	submissions  *prometheus.CounterVec
	rejections   *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	lockTimeouts prometheus.Counter
}

// NewMetrics creates the processor collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "lskd"
	}

	m := &Metrics{
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "processor",
				Name:      "submissions_total",
				Help:      "Submitted transactions by type and result",
			},
			[]string{"type", "result"},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "processor",
				Name:      "rejections_total",
				Help:      "Rejected transactions by stage",
			},
			[]string{"stage"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "processor",
				Name:      "processing_duration_seconds",
				Help:      "Time from submission to outcome",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
			},
			[]string{"type"},
		),
		lockTimeouts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "processor",
				Name:      "lock_timeouts_total",
				Help:      "Submissions rejected because account locks were not acquired in time",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(m.submissions, m.rejections, m.duration, m.lockTimeouts)
	}
	return m
}

func (m *Metrics) observe(txType, result string, start time.Time) {
	m.submissions.WithLabelValues(txType, result).Inc()
	m.duration.WithLabelValues(txType).Observe(time.Since(start).Seconds())
}

func (m *Metrics) rejected(stage Stage) {
	m.rejections.WithLabelValues(string(stage)).Inc()
}
