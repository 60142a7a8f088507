package authz

import (
	"context"

	"github.com/dualsig/wallet-relay/model/wallet"
)

// Dispatcher forwards the call of an execute action to its target.
type Dispatcher interface {
	// Dispatch performs the call. A returned error reverts the whole action.
	Dispatch(ctx context.Context, call wallet.Call) (*CallResult, error)
}

type CallResult struct {
	ReturnData []byte
	Events     []wallet.Event
	GasUsed    uint64
}
