package metrics

import (
	"time"

	"github.com/dualsig/wallet-relay/module"
)

type NoopCollector struct{}

var _ module.CacheMetrics = (*NoopCollector)(nil)
var _ module.AuthorizationMetrics = (*NoopCollector)(nil)
var _ module.EntryPointMetrics = (*NoopCollector)(nil)
var _ module.RelayMetrics = (*NoopCollector)(nil)
var _ module.StakeMetrics = (*NoopCollector)(nil)

func NewNoopCollector() *NoopCollector {
	nc := &NoopCollector{}
	return nc
}

func (nc *NoopCollector) CacheEntries(resource string, entries uint)             {}
func (nc *NoopCollector) CacheHit(resource string)                               {}
func (nc *NoopCollector) CacheNotFound(resource string)                          {}
func (nc *NoopCollector) CacheMiss(resource string)                              {}
func (nc *NoopCollector) ActionAccepted(action string)                           {}
func (nc *NoopCollector) ActionRejected(action string, reason string)            {}
func (nc *NoopCollector) EscapeTriggered(role string)                            {}
func (nc *NoopCollector) OperationHandled()                                      {}
func (nc *NoopCollector) OperationRejected(reason string)                        {}
func (nc *NoopCollector) BlockMined(height uint64, operations int)               {}
func (nc *NoopCollector) OperationSubmitted()                                    {}
func (nc *NoopCollector) OperationIncluded(duration time.Duration)               {}
func (nc *NoopCollector) OperationFailed(reason string)                          {}
func (nc *NoopCollector) SignatureCollected(role string, duration time.Duration) {}
func (nc *NoopCollector) AccountStake(stake float64)                             {}
func (nc *NoopCollector) RecommendedMinStake(stake float64)                      {}
func (nc *NoopCollector) StakeToppedUp()                                         {}
