package module

import (
	"time"
)

type CacheMetrics interface {
	// CacheEntries report the total number of cached items
	CacheEntries(resource string, entries uint)
	// CacheHit report the number of times the queried item is found in the cache
	CacheHit(resource string)
	// CacheNotFound records the number of times the queried item was not found in either cache or database.
	CacheNotFound(resource string)
	// CacheMiss report the number of times the queried item is not found in the cache, but found in the database.
	CacheMiss(resource string)
}

// AuthorizationMetrics tracks the outcome of wallet actions handled by the
// authorization engine.
type AuthorizationMetrics interface {
	// ActionAccepted is called once per action that passed validation and
	// advanced the nonce.
	ActionAccepted(action string)

	// ActionRejected is called for every rejected action with the error code
	// name as reason.
	ActionRejected(action string, reason string)

	// EscapeTriggered tracks recovery requests by initiating role.
	EscapeTriggered(role string)
}

// EntryPointMetrics tracks the emulated entry point and its chain.
type EntryPointMetrics interface {
	OperationHandled()
	OperationRejected(reason string)
	BlockMined(height uint64, operations int)
}

// RelayMetrics tracks the operation relay client.
type RelayMetrics interface {
	OperationSubmitted()
	OperationIncluded(duration time.Duration)
	OperationFailed(reason string)
	SignatureCollected(role string, duration time.Duration)
}

// StakeMetrics tracks the prepaid stake of relayed wallets.
type StakeMetrics interface {
	// AccountStake reports the last observed stake, in units of ether.
	AccountStake(stake float64)
	// RecommendedMinStake reports the threshold below which stake is topped up.
	RecommendedMinStake(stake float64)
	StakeToppedUp()
}
