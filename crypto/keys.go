package crypto

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// PrivateKey is a secp256k1 key held by a signer or guardian.
type PrivateKey struct {
	key *ecdsa.PrivateKey
}

func GeneratePrivateKey() (*PrivateKey, error) {
	key, err := gethcrypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("could not generate key: %w", err)
	}
	return &PrivateKey{key: key}, nil
}

// DecodePrivateKeyHex parses a hex encoded key, with or without 0x prefix.
func DecodePrivateKeyHex(s string) (*PrivateKey, error) {
	key, err := gethcrypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return nil, fmt.Errorf("could not decode private key: %w", err)
	}
	return &PrivateKey{key: key}, nil
}

// PrivateKeyFromSeed derives a key deterministically from seed. Meant for
// development and tests only.
func PrivateKeyFromSeed(seed []byte) (*PrivateKey, error) {
	key, err := gethcrypto.ToECDSA(gethcrypto.Keccak256(seed))
	if err != nil {
		return nil, fmt.Errorf("could not derive key from seed: %w", err)
	}
	return &PrivateKey{key: key}, nil
}

func (k *PrivateKey) Address() common.Address {
	return gethcrypto.PubkeyToAddress(k.key.PublicKey)
}

// Hex returns the 0x-prefixed hex encoding of the raw key.
func (k *PrivateKey) Hex() string {
	return "0x" + common.Bytes2Hex(gethcrypto.FromECDSA(k.key))
}

func (k *PrivateKey) String() string {
	return k.Address().Hex()
}
