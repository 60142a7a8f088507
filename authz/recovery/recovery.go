// Package recovery implements the escape state machine of a wallet:
//
//	Idle --trigger(role)--> Pending(role, activation) --cancel--> Idle
//	                        Pending(role, activation) --finalize(role, now >= activation)--> Idle
//
// Finalizing replaces the key of the role opposite the initiator: a guardian
// escape ends with a new signer key, a signer escape with a new guardian key.
//
// The functions are pure; callers persist the returned state and inject the
// current time.
package recovery

import (
	"time"

	"github.com/dualsig/wallet-relay/authz/errors"
	"github.com/dualsig/wallet-relay/model/wallet"
)

// Trigger starts an escape on behalf of initiator.
func Trigger(current wallet.Escape, initiator wallet.Role, now time.Time, period time.Duration) (wallet.Escape, error) {
	if initiator != wallet.RoleSigner && initiator != wallet.RoleGuardian {
		return current, errors.NewInvalidSignatureErrorf(initiator, "initiator holds no role")
	}
	if current.Pending() {
		return current, errors.NewEscapeAlreadyPendingError(current)
	}
	return wallet.Escape{
		ActivationTime: uint64(now.Add(period).Unix()),
		InitiatedBy:    initiator,
	}, nil
}

// Cancel clears the pending escape.
func Cancel(current wallet.Escape) (wallet.Escape, error) {
	if !current.Pending() {
		return current, errors.NewNoMatchingEscapeErrorf("no escape to cancel")
	}
	return wallet.Escape{}, nil
}

// Finalize completes the pending escape on behalf of finalizer, which must be
// the initiating role. It returns the role whose key is replaced.
func Finalize(current wallet.Escape, finalizer wallet.Role, now time.Time) (wallet.Role, wallet.Escape, error) {
	if !current.Pending() {
		return wallet.RoleNone, current, errors.NewNoMatchingEscapeErrorf("no escape pending")
	}
	if current.InitiatedBy != finalizer {
		return wallet.RoleNone, current, errors.NewNoMatchingEscapeErrorf(
			"escape was initiated by %s and cannot be finalized by %s", current.InitiatedBy, finalizer)
	}
	if !Matured(current, now) {
		return wallet.RoleNone, current, errors.NewEscapeNotMaturedError(current.ActivationTime, uint64(now.Unix()))
	}
	return finalizer.Opposite(), wallet.Escape{}, nil
}

// Matured reports whether the pending escape can be finalized at now.
func Matured(current wallet.Escape, now time.Time) bool {
	return current.Pending() && uint64(now.Unix()) >= current.ActivationTime
}
