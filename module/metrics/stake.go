package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dualsig/wallet-relay/module"
)

// StakeCollector implements metric collection for the prepaid stake of the
// relayed wallet.
type StakeCollector struct {
	accountStake        prometheus.Gauge
	recommendedMinStake prometheus.Gauge
	topUps              prometheus.Counter
}

var _ module.StakeMetrics = (*StakeCollector)(nil)

func NewStakeCollector(registerer prometheus.Registerer) *StakeCollector {
	accountStake := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespaceRelay,
		Subsystem: subsystemStake,
		Name:      "balance",
		Help:      "the last observed entry point stake of the relayed wallet, in units of ether",
	})
	recommendedMinStake := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespaceRelay,
		Subsystem: subsystemStake,
		Name:      "recommended_min_balance",
		Help:      "the stake threshold; the relay tops up the deposit when the stake falls below it",
	})
	topUps := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespaceRelay,
		Subsystem: subsystemStake,
		Name:      "top_ups_total",
		Help:      "number of stake deposits made by the relay",
	})
	registerer.MustRegister(accountStake, recommendedMinStake, topUps)

	collector := &StakeCollector{
		accountStake:        accountStake,
		recommendedMinStake: recommendedMinStake,
		topUps:              topUps,
	}
	return collector
}

func (m StakeCollector) AccountStake(stake float64) {
	m.accountStake.Set(stake)
}

func (m StakeCollector) RecommendedMinStake(stake float64) {
	m.recommendedMinStake.Set(stake)
}

func (m StakeCollector) StakeToppedUp() {
	m.topUps.Inc()
}
