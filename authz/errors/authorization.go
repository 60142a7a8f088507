package errors

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/dualsig/wallet-relay/model/wallet"
)

// NewNullTargetErrorf indicates that a required address parameter (call
// target or new key) is the zero address.
func NewNullTargetErrorf(param string, msg string, args ...interface{}) CodedError {
	return NewCodedError(
		ErrCodeNullTargetError,
		"null %s: "+msg,
		append([]interface{}{param}, args...)...)
}

func IsNullTargetError(err error) bool {
	return HasErrorCode(err, ErrCodeNullTargetError)
}

// NewInvalidNonceError indicates that the request nonce does not equal the
// stored nonce.
func NewInvalidNonceError(wallet common.Address, current uint64, provided uint64) CodedError {
	return NewCodedError(
		ErrCodeInvalidNonceError,
		"invalid nonce for wallet %s: expected %d, got %d",
		wallet.Hex(), current, provided)
}

func IsInvalidNonceError(err error) bool {
	return HasErrorCode(err, ErrCodeInvalidNonceError)
}

// NewInvalidSignatureErrorf indicates that the signature in the slot of role
// is missing, malformed, or does not recover to the role's current key.
func NewInvalidSignatureErrorf(role wallet.Role, msg string, args ...interface{}) CodedError {
	return NewCodedError(
		ErrCodeInvalidSignatureError,
		"invalid %s signature: "+msg,
		append([]interface{}{role.String()}, args...)...)
}

func IsInvalidSignatureError(err error) bool {
	return HasErrorCode(err, ErrCodeInvalidSignatureError)
}

// NewEscapeNotMaturedError indicates an attempt to finalize an escape before
// its activation time.
func NewEscapeNotMaturedError(activation uint64, now uint64) CodedError {
	return NewCodedError(
		ErrCodeEscapeNotMaturedError,
		"escape not matured: activates at %d, now %d",
		activation, now)
}

func IsEscapeNotMaturedError(err error) bool {
	return HasErrorCode(err, ErrCodeEscapeNotMaturedError)
}

// NewNoMatchingEscapeErrorf indicates that no escape is pending, or the
// pending one was initiated by the wrong role.
func NewNoMatchingEscapeErrorf(msg string, args ...interface{}) CodedError {
	return NewCodedError(
		ErrCodeNoMatchingEscapeError,
		"no matching escape: "+msg,
		args...)
}

func IsNoMatchingEscapeError(err error) bool {
	return HasErrorCode(err, ErrCodeNoMatchingEscapeError)
}

// NewEscapeAlreadyPendingError indicates a trigger while another escape is
// outstanding.
func NewEscapeAlreadyPendingError(escape wallet.Escape) CodedError {
	return NewCodedError(
		ErrCodeEscapeAlreadyPendingError,
		"escape already pending: initiated by %s, activates at %d",
		escape.InitiatedBy, escape.ActivationTime)
}

func IsEscapeAlreadyPendingError(err error) bool {
	return HasErrorCode(err, ErrCodeEscapeAlreadyPendingError)
}
