package authz

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/dualsig/wallet-relay/authz/errors"
	"github.com/dualsig/wallet-relay/crypto"
	"github.com/dualsig/wallet-relay/model/wallet"
)

// SignatureVerifier checks authorizations against the current keys of an
// account.
type SignatureVerifier struct{}

func NewSignatureVerifier() *SignatureVerifier {
	return &SignatureVerifier{}
}

// VerifyPair checks the signer slot, then the guardian slot.
func (v *SignatureVerifier) VerifyPair(acct *wallet.Account, digest common.Hash, pair wallet.SignaturePair) error {
	for _, role := range []wallet.Role{wallet.RoleSigner, wallet.RoleGuardian} {
		err := v.verifySlot(acct, digest, role, pair.Slot(role))
		if err != nil {
			return err
		}
	}
	return nil
}

// VerifySingle checks the signature of a single-role action against the role
// the action requires.
func (v *SignatureVerifier) VerifySingle(acct *wallet.Account, digest common.Hash, required wallet.Role, sig wallet.RoleSignature) error {
	if sig.Role != wallet.RoleNone && sig.Role != required {
		return errors.NewInvalidSignatureErrorf(sig.Role, "action requires a %s signature", required)
	}
	return v.verifySlot(acct, digest, required, sig.Signature)
}

func (v *SignatureVerifier) verifySlot(acct *wallet.Account, digest common.Hash, role wallet.Role, sig wallet.Signature) error {
	if len(sig) == 0 {
		return errors.NewInvalidSignatureErrorf(role, "signature missing")
	}

	signer, err := crypto.RecoverMessageSigner(digest, sig)
	if err != nil {
		return errors.NewInvalidSignatureErrorf(role, "%w", err)
	}

	if signer != acct.KeyFor(role) {
		return errors.NewInvalidSignatureErrorf(role, "recovered %s, expected %s", signer.Hex(), acct.KeyFor(role).Hex())
	}
	return nil
}
