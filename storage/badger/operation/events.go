package operation

import (
	"github.com/dgraph-io/badger/v2"

	"github.com/dualsig/wallet-relay/model/wallet"
)

func InsertEvent(event wallet.Event) func(*badger.Txn) error {
	return insert(makePrefix(codeEvent, event.BlockNumber, event.OperationIndex, event.EventIndex), event)
}

// LookupEventsInRange collects the events of blocks start..end inclusive,
// keeping only those of eventType unless it is empty.
func LookupEventsInRange(eventType wallet.EventType, start, end uint64, events *[]wallet.Event) func(*badger.Txn) error {
	iteration := func() (checkFunc, createFunc, handleFunc) {
		check := func(key []byte) bool {
			return true
		}
		var event wallet.Event
		create := func() interface{} {
			return &event
		}
		handle := func() error {
			if eventType == "" || event.Type == eventType {
				*events = append(*events, event)
			}
			return nil
		}
		return check, create, handle
	}

	return iterate(makePrefix(codeEvent, start), makePrefix(codeEvent, end), iteration)
}

// LookupBlockEvents collects all events of a single block.
func LookupBlockEvents(number uint64, events *[]wallet.Event) func(*badger.Txn) error {
	iteration := func() (checkFunc, createFunc, handleFunc) {
		check := func(key []byte) bool {
			return true
		}
		var event wallet.Event
		create := func() interface{} {
			return &event
		}
		handle := func() error {
			*events = append(*events, event)
			return nil
		}
		return check, create, handle
	}

	return traverse(makePrefix(codeEvent, number), iteration)
}
