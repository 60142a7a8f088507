package wallet

import (
	"github.com/ethereum/go-ethereum/common"
)

type EventType string

const (
	EventExecuted         EventType = "Executed"
	EventSignerChanged    EventType = "SignerChanged"
	EventGuardianChanged  EventType = "GuardianChanged"
	EventEscapeTriggered  EventType = "EscapeTriggered"
	EventEscapeCanceled   EventType = "EscapeCanceled"
	EventSignerEscaped    EventType = "SignerEscaped"
	EventGuardianEscaped  EventType = "GuardianEscaped"
	EventUserOperation    EventType = "UserOperationEvent"
	EventDeposited        EventType = "Deposited"
	EventTransfer         EventType = "Transfer"
	EventCounterIncrement EventType = "CounterIncremented"
	EventWalletDeployed   EventType = "WalletDeployed"
)

// Event is a log entry emitted while handling an operation.
type Event struct {
	Type           EventType
	Emitter        common.Address
	BlockNumber    uint64
	OperationHash  common.Hash
	OperationIndex uint32
	EventIndex     uint32
	Fields         map[string]string
}

// NewEvent builds an unstamped event; block coordinates are assigned when
// the enclosing block is mined.
func NewEvent(typ EventType, emitter common.Address, kv ...string) Event {
	fields := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}
	return Event{Type: typ, Emitter: emitter, Fields: fields}
}
