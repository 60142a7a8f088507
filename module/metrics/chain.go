package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ChainCollector gathers the collectors of an emulated chain: storage
// caches, the authorization engine and the entry point.
type ChainCollector struct {
	*CacheCollector
	*AuthorizationCollector
	*EntryPointCollector
}

func NewChainCollector(registerer prometheus.Registerer) *ChainCollector {
	return &ChainCollector{
		CacheCollector:         NewCacheCollector(registerer),
		AuthorizationCollector: NewAuthorizationCollector(registerer),
		EntryPointCollector:    NewEntryPointCollector(registerer),
	}
}
