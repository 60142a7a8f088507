package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dualsig/wallet-relay/module"
)

// AuthorizationCollector the metrics for wallet action authorization
type AuthorizationCollector struct {
	actionsAccepted  *prometheus.CounterVec
	actionsRejected  *prometheus.CounterVec
	escapesTriggered *prometheus.CounterVec
}

// interface check
var _ module.AuthorizationMetrics = (*AuthorizationCollector)(nil)

// NewAuthorizationCollector creates new instance of AuthorizationCollector
func NewAuthorizationCollector(registerer prometheus.Registerer) *AuthorizationCollector {
	ac := &AuthorizationCollector{
		actionsAccepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:      "accepted_total",
			Namespace: namespaceAuthz,
			Subsystem: subsystemActions,
			Help:      "counter for the wallet actions that passed authorization",
		}, []string{LabelAction}),
		actionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:      "rejected_total",
			Namespace: namespaceAuthz,
			Subsystem: subsystemActions,
			Help:      "counter for the rejected wallet actions",
		}, []string{LabelAction, LabelReason}),
		escapesTriggered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:      "escapes_triggered_total",
			Namespace: namespaceAuthz,
			Subsystem: subsystemRecovery,
			Help:      "counter for the escapes started, by initiating role",
		}, []string{LabelRole}),
	}
	registerer.MustRegister(ac.actionsAccepted, ac.actionsRejected, ac.escapesTriggered)
	return ac
}

// ActionAccepted tracks number of authorized actions
func (ac *AuthorizationCollector) ActionAccepted(action string) {
	ac.actionsAccepted.WithLabelValues(action).Inc()
}

// ActionRejected tracks number of rejected actions with reason
func (ac *AuthorizationCollector) ActionRejected(action string, reason string) {
	ac.actionsRejected.WithLabelValues(action, reason).Inc()
}

func (ac *AuthorizationCollector) EscapeTriggered(role string) {
	ac.escapesTriggered.WithLabelValues(role).Inc()
}
