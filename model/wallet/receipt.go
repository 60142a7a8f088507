package wallet

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Receipt records the outcome of an included operation. Operations are
// validated and executed on acceptance, so only successful ones are included.
type Receipt struct {
	OperationHash  common.Hash
	Sender         common.Address
	Nonce          uint64
	ActualGasUsed  uint64
	ActualGasCost  *big.Int
	BlockNumber    uint64
	BlockTimestamp uint64
	OperationIndex uint32
	Events         []Event
}

// Block is a mined block of the emulated chain.
type Block struct {
	Number     uint64
	Timestamp  uint64
	Operations []common.Hash
}

// Call is a message dispatched by a wallet's execute action.
type Call struct {
	From  common.Address
	To    common.Address
	Value *big.Int
	Data  []byte
}
