package wallet

import (
	"fmt"
)

// SignatureLength is the length of a [R ‖ S ‖ V] secp256k1 signature.
const SignatureLength = 65

// Signature is a recoverable signature over a canonical message.
type Signature []byte

// SignaturePair holds the two ordered slots of a joint authorization. An
// empty slot is treated as an invalid signature.
type SignaturePair struct {
	Signer   Signature
	Guardian Signature
}

// Slot returns the signature placed in the slot of role.
func (p SignaturePair) Slot(role Role) Signature {
	switch role {
	case RoleSigner:
		return p.Signer
	case RoleGuardian:
		return p.Guardian
	default:
		return nil
	}
}

// RoleSignature is the authorization of a single-role action.
type RoleSignature struct {
	Role      Role
	Signature Signature
}

// Authorization carries the signatures for either kind of action; only the
// field matching the action is read.
type Authorization struct {
	Pair   SignaturePair
	Single RoleSignature
}

// EncodeSignatures packs the signatures of an authorization into the
// operation signature field: both slots concatenated for joint actions, or
// the role byte followed by the signature for single-role actions.
func EncodeSignatures(kind ActionKind, auth Authorization) ([]byte, error) {
	if kind.TwoSignature() {
		if len(auth.Pair.Signer) != SignatureLength || len(auth.Pair.Guardian) != SignatureLength {
			return nil, fmt.Errorf("signature pair needs two %d byte signatures (got %d and %d)",
				SignatureLength, len(auth.Pair.Signer), len(auth.Pair.Guardian))
		}
		out := make([]byte, 0, 2*SignatureLength)
		out = append(out, auth.Pair.Signer...)
		out = append(out, auth.Pair.Guardian...)
		return out, nil
	}

	if auth.Single.Role != RoleSigner && auth.Single.Role != RoleGuardian {
		return nil, fmt.Errorf("invalid role %d for single signature", auth.Single.Role)
	}
	if len(auth.Single.Signature) != SignatureLength {
		return nil, fmt.Errorf("signature needs %d bytes (got %d)", SignatureLength, len(auth.Single.Signature))
	}
	out := make([]byte, 0, 1+SignatureLength)
	out = append(out, byte(auth.Single.Role))
	out = append(out, auth.Single.Signature...)
	return out, nil
}

// DecodeSignatures is the inverse of EncodeSignatures.
func DecodeSignatures(kind ActionKind, raw []byte) (Authorization, error) {
	var auth Authorization
	if kind.TwoSignature() {
		if len(raw) != 2*SignatureLength {
			return auth, fmt.Errorf("expected %d signature bytes, got %d", 2*SignatureLength, len(raw))
		}
		auth.Pair.Signer = Signature(raw[:SignatureLength])
		auth.Pair.Guardian = Signature(raw[SignatureLength:])
		return auth, nil
	}

	if len(raw) != 1+SignatureLength {
		return auth, fmt.Errorf("expected %d signature bytes, got %d", 1+SignatureLength, len(raw))
	}
	role := Role(raw[0])
	if role != RoleSigner && role != RoleGuardian {
		return auth, fmt.Errorf("invalid role byte %d", raw[0])
	}
	auth.Single.Role = role
	auth.Single.Signature = Signature(raw[1:])
	return auth, nil
}
