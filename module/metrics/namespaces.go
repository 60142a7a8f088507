package metrics

// Prometheus metric namespaces
const (
	namespaceAuthz      = "authz"
	namespaceEntryPoint = "entrypoint"
	namespaceRelay      = "relay"
	namespaceStorage    = "storage"
)

// Authorization subsystems
const (
	subsystemActions  = "actions"
	subsystemRecovery = "recovery"
)

// Entry point subsystems
const (
	subsystemOperations = "operations"
	subsystemChain      = "chain"
)

// Relay subsystems
const (
	subsystemSubmission = "submission"
	subsystemSignatures = "signatures"
	subsystemStake      = "stake"
)

// Storage subsystems
const (
	subsystemCache = "cache"
)
