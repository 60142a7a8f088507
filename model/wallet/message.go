package wallet

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignedMessage computes the canonical message for an authorization:
//
//	keccak256(0x19 ‖ 0x00 ‖ wallet ‖ target ‖ value ‖ data ‖ nonce)
//
// with value and nonce left-padded to 32 bytes. Key holders sign it as an
// EIP-191 personal message.
func SignedMessage(wallet common.Address, target common.Address, value *big.Int, data []byte, nonce uint64) common.Hash {
	if value == nil {
		value = new(big.Int)
	}
	return crypto.Keccak256Hash(
		[]byte{0x19, 0x00},
		wallet.Bytes(),
		target.Bytes(),
		common.LeftPadBytes(value.Bytes(), 32),
		data,
		common.LeftPadBytes(new(big.Int).SetUint64(nonce).Bytes(), 32),
	)
}
