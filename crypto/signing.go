package crypto

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
)

const SignatureLength = 65

var (
	ErrInvalidSignatureLength = errors.New("invalid signature length")
	ErrInvalidRecoveryID      = errors.New("invalid signature recovery id")
	ErrInvalidSignatureValues = errors.New("invalid signature values")
)

// SignMessage signs digest as an EIP-191 personal message. The returned
// signature is [R ‖ S ‖ V] with V in {27, 28}.
func (k *PrivateKey) SignMessage(digest common.Hash) ([]byte, error) {
	sig, err := gethcrypto.Sign(accounts.TextHash(digest.Bytes()), k.key)
	if err != nil {
		return nil, fmt.Errorf("could not sign message: %w", err)
	}
	sig[64] += 27
	return sig, nil
}

// RecoverMessageSigner returns the address that produced sig over the
// personal-message form of digest.
func RecoverMessageSigner(digest common.Hash, sig []byte) (common.Address, error) {
	if len(sig) != SignatureLength {
		return common.Address{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSignatureLength, SignatureLength, len(sig))
	}

	v := sig[64]
	if v >= 27 {
		v -= 27
	}
	if v > 1 {
		return common.Address{}, fmt.Errorf("%w: %d", ErrInvalidRecoveryID, sig[64])
	}

	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	if !gethcrypto.ValidateSignatureValues(v, r, s, true) {
		return common.Address{}, ErrInvalidSignatureValues
	}

	normalized := make([]byte, SignatureLength)
	copy(normalized, sig)
	normalized[64] = v

	pub, err := gethcrypto.SigToPub(accounts.TextHash(digest.Bytes()), normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("could not recover public key: %w", err)
	}
	return gethcrypto.PubkeyToAddress(*pub), nil
}

// VerifyMessage reports whether sig was produced over digest by the holder
// of expected.
func VerifyMessage(digest common.Hash, sig []byte, expected common.Address) (bool, error) {
	signer, err := RecoverMessageSigner(digest, sig)
	if err != nil {
		return false, err
	}
	return signer == expected, nil
}
