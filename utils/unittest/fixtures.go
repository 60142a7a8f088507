package unittest

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/dualsig/wallet-relay/crypto"
	"github.com/dualsig/wallet-relay/model/wallet"
)

func AddressFixture() common.Address {
	var addr common.Address
	_, _ = rand.Read(addr[:])
	return addr
}

func HashFixture() common.Hash {
	var h common.Hash
	_, _ = rand.Read(h[:])
	return h
}

func KeyFixture(t testing.TB) *crypto.PrivateKey {
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	return key
}

// NamedKey derives a deterministic key from name, so test failures print
// stable addresses.
func NamedKey(t testing.TB, name string) *crypto.PrivateKey {
	key, err := crypto.PrivateKeyFromSeed([]byte(name))
	require.NoError(t, err)
	return key
}

// Ether returns n ether in wei.
func Ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

// Milliether returns n thousandths of an ether in wei.
func Milliether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e15))
}

func WalletConfigFixture(signer, guardian *crypto.PrivateKey, entryPoint common.Address) wallet.Config {
	return wallet.Config{
		Signer:     signer.Address(),
		Guardian:   guardian.Address(),
		EntryPoint: entryPoint,
	}
}

func AccountFixture(t testing.TB, signer, guardian *crypto.PrivateKey) *wallet.Account {
	acct, err := wallet.NewAccount(WalletConfigFixture(signer, guardian, AddressFixture()))
	require.NoError(t, err)
	return acct
}

// SignPair signs the canonical message of action with both keys.
func SignPair(t testing.TB, acct common.Address, action wallet.Action, nonce uint64, signer, guardian *crypto.PrivateKey) wallet.SignaturePair {
	digest := action.Message(acct, nonce)
	return wallet.SignaturePair{
		Signer:   Sign(t, signer, digest),
		Guardian: Sign(t, guardian, digest),
	}
}

// SignSingle signs the canonical message of action for a single role.
func SignSingle(t testing.TB, acct common.Address, action wallet.Action, nonce uint64, role wallet.Role, key *crypto.PrivateKey) wallet.RoleSignature {
	return wallet.RoleSignature{
		Role:      role,
		Signature: Sign(t, key, action.Message(acct, nonce)),
	}
}

func Sign(t testing.TB, key *crypto.PrivateKey, digest common.Hash) wallet.Signature {
	sig, err := key.SignMessage(digest)
	require.NoError(t, err)
	return sig
}

func OperationFixture(sender common.Address, nonce uint64) *wallet.Operation {
	return &wallet.Operation{
		Sender:               sender,
		Nonce:                nonce,
		CallData:             []byte{0x01, 0x02},
		CallGas:              100_000,
		VerificationGas:      100_000,
		PreVerificationGas:   21_000,
		MaxFeePerGas:         big.NewInt(1_000_000_000),
		MaxPriorityFeePerGas: big.NewInt(1_000_000_000),
	}
}

func EventFixture(typ wallet.EventType, block uint64, index uint32) wallet.Event {
	ev := wallet.NewEvent(typ, AddressFixture(), "index", fmt.Sprint(index))
	ev.BlockNumber = block
	ev.EventIndex = index
	ev.OperationHash = HashFixture()
	return ev
}
