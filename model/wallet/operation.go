package wallet

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Operation is the relayed envelope of a wallet action, submitted to an
// entry point by a relayer on behalf of the wallet.
type Operation struct {
	Sender               common.Address
	Nonce                uint64
	CallData             []byte
	CallGas              uint64
	VerificationGas      uint64
	PreVerificationGas   uint64
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	Signature            []byte
}

// Hash identifies the operation for a given entry point and chain. The
// signature is covered: it signs the action message, not this hash, and two
// escapes under the same nonce differ only in their signatures.
func (op *Operation) Hash(entryPoint common.Address, chainID uint64) common.Hash {
	packed := crypto.Keccak256(
		op.Sender.Bytes(),
		uint256Bytes(new(big.Int).SetUint64(op.Nonce)),
		crypto.Keccak256(op.CallData),
		uint256Bytes(new(big.Int).SetUint64(op.CallGas)),
		uint256Bytes(new(big.Int).SetUint64(op.VerificationGas)),
		uint256Bytes(new(big.Int).SetUint64(op.PreVerificationGas)),
		uint256Bytes(op.MaxFeePerGas),
		uint256Bytes(op.MaxPriorityFeePerGas),
		crypto.Keccak256(op.Signature),
	)
	return crypto.Keccak256Hash(
		packed,
		entryPoint.Bytes(),
		uint256Bytes(new(big.Int).SetUint64(chainID)),
	)
}

// TotalGas is the gas limit the operation asks to be prefunded for.
func (op *Operation) TotalGas() uint64 {
	return op.CallGas + op.VerificationGas + op.PreVerificationGas
}

// RequiredPrefund is the stake the sender must hold before the operation is
// accepted.
func (op *Operation) RequiredPrefund() *big.Int {
	fee := op.MaxFeePerGas
	if fee == nil {
		fee = new(big.Int)
	}
	return new(big.Int).Mul(new(big.Int).SetUint64(op.TotalGas()), fee)
}

// CallDataGas estimates the intrinsic gas of the call data: 16 per non-zero
// byte and 4 per zero byte.
func CallDataGas(data []byte) uint64 {
	var gas uint64
	for _, b := range data {
		if b == 0 {
			gas += 4
		} else {
			gas += 16
		}
	}
	return gas
}

func uint256Bytes(n *big.Int) []byte {
	if n == nil {
		return make([]byte, 32)
	}
	return common.LeftPadBytes(n.Bytes(), 32)
}

// GasParams are the gas limits and fees an operation is submitted with.
type GasParams struct {
	CallGas              uint64
	VerificationGas      uint64
	PreVerificationGas   uint64
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

func DefaultGasParams() GasParams {
	return GasParams{
		CallGas:              200_000,
		VerificationGas:      100_000,
		PreVerificationGas:   50_000,
		MaxFeePerGas:         big.NewInt(1_000_000_000),
		MaxPriorityFeePerGas: big.NewInt(1_000_000_000),
	}
}

// NewOperation packs an authorized action into an operation.
func NewOperation(sender common.Address, nonce uint64, action Action, auth Authorization, gas GasParams) (*Operation, error) {
	callData, err := EncodeCallData(action)
	if err != nil {
		return nil, err
	}
	sig, err := EncodeSignatures(action.Kind, auth)
	if err != nil {
		return nil, err
	}
	return &Operation{
		Sender:               sender,
		Nonce:                nonce,
		CallData:             callData,
		CallGas:              gas.CallGas,
		VerificationGas:      gas.VerificationGas,
		PreVerificationGas:   gas.PreVerificationGas,
		MaxFeePerGas:         gas.MaxFeePerGas,
		MaxPriorityFeePerGas: gas.MaxPriorityFeePerGas,
		Signature:            sig,
	}, nil
}
