package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dualsig/wallet-relay/module"
)

type EntryPointCollector struct {
	handled            prometheus.Counter
	rejected           *prometheus.CounterVec
	height             prometheus.Gauge
	operationsPerBlock prometheus.Histogram
}

var _ module.EntryPointMetrics = (*EntryPointCollector)(nil)

func NewEntryPointCollector(registerer prometheus.Registerer) *EntryPointCollector {
	ec := &EntryPointCollector{
		handled: prometheus.NewCounter(prometheus.CounterOpts{
			Name:      "handled_total",
			Namespace: namespaceEntryPoint,
			Subsystem: subsystemOperations,
			Help:      "counter for the operations accepted into a block",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:      "rejected_total",
			Namespace: namespaceEntryPoint,
			Subsystem: subsystemOperations,
			Help:      "counter for the operations rejected at submission",
		}, []string{LabelReason}),
		height: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:      "height",
			Namespace: namespaceEntryPoint,
			Subsystem: subsystemChain,
			Help:      "the number of the latest mined block",
		}),
		operationsPerBlock: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:      "block_operations",
			Namespace: namespaceEntryPoint,
			Subsystem: subsystemChain,
			Help:      "the number of operations included per mined block",
			Buckets:   []float64{0, 1, 2, 5, 10, 50, 100},
		}),
	}
	registerer.MustRegister(ec.handled, ec.rejected, ec.height, ec.operationsPerBlock)
	return ec
}

func (ec *EntryPointCollector) OperationHandled() {
	ec.handled.Inc()
}

func (ec *EntryPointCollector) OperationRejected(reason string) {
	ec.rejected.WithLabelValues(reason).Inc()
}

func (ec *EntryPointCollector) BlockMined(height uint64, operations int) {
	ec.height.Set(float64(height))
	ec.operationsPerBlock.Observe(float64(operations))
}
