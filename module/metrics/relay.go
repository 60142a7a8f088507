package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dualsig/wallet-relay/module"
)

type RelayCollector struct {
	submitted          prometheus.Counter
	failed             *prometheus.CounterVec
	timeToIncluded     prometheus.Summary
	signatureDurations *prometheus.HistogramVec
}

var _ module.RelayMetrics = (*RelayCollector)(nil)

func NewRelayCollector(registerer prometheus.Registerer) *RelayCollector {
	rc := &RelayCollector{
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name:      "operations_submitted_total",
			Namespace: namespaceRelay,
			Subsystem: subsystemSubmission,
			Help:      "counter for the operations handed to the entry point",
		}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:      "operations_failed_total",
			Namespace: namespaceRelay,
			Subsystem: subsystemSubmission,
			Help:      "counter for the relay requests that did not end in an included operation",
		}, []string{LabelReason}),
		timeToIncluded: prometheus.NewSummary(prometheus.SummaryOpts{
			Name:      "time_to_included_seconds",
			Namespace: namespaceRelay,
			Subsystem: subsystemSubmission,
			Help:      "the duration between submitting an operation and observing its receipt",
			Objectives: map[float64]float64{
				0.01: 0.001,
				0.5:  0.05,
				0.99: 0.001,
			},
			MaxAge:     10 * time.Minute,
			AgeBuckets: 5,
			BufCap:     500,
		}),
		signatureDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:      "collection_duration_seconds",
			Namespace: namespaceRelay,
			Subsystem: subsystemSignatures,
			Help:      "the duration of obtaining a signature from a key holder",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 30, 120},
		}, []string{LabelRole}),
	}
	registerer.MustRegister(rc.submitted, rc.failed, rc.timeToIncluded, rc.signatureDurations)
	return rc
}

func (rc *RelayCollector) OperationSubmitted() {
	rc.submitted.Inc()
}

func (rc *RelayCollector) OperationIncluded(duration time.Duration) {
	rc.timeToIncluded.Observe(duration.Seconds())
}

func (rc *RelayCollector) OperationFailed(reason string) {
	rc.failed.WithLabelValues(reason).Inc()
}

func (rc *RelayCollector) SignatureCollected(role string, duration time.Duration) {
	rc.signatureDurations.WithLabelValues(role).Observe(duration.Seconds())
}
