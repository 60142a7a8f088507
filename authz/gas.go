package authz

import (
	"github.com/dualsig/wallet-relay/model/wallet"
)

const (
	// SignatureCheckGas is charged per recovered signature.
	SignatureCheckGas = 3_000
	// StateWriteGas is charged per modified account field.
	StateWriteGas = 5_000
	// CallBaseGas is charged for dispatching an execute call.
	CallBaseGas = 9_000
)

// actionGas is the gas charged by the wallet itself, excluding the call
// dispatched by execute.
func actionGas(kind wallet.ActionKind, consumedNonce bool) uint64 {
	var gas uint64
	if kind.TwoSignature() {
		gas += 2 * SignatureCheckGas
	} else {
		gas += SignatureCheckGas
	}

	switch kind {
	case wallet.ActionExecute:
		gas += CallBaseGas
	case wallet.ActionChangeSigner, wallet.ActionChangeGuardian, wallet.ActionTriggerEscape, wallet.ActionCancelEscape:
		gas += StateWriteGas
	case wallet.ActionEscapeSigner, wallet.ActionEscapeGuardian:
		// key replacement and escape reset
		gas += 2 * StateWriteGas
	}

	if consumedNonce {
		gas += StateWriteGas
	}
	return gas
}
