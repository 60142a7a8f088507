package relay

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dualsig/wallet-relay/entrypoint"
)

var (
	// ErrRelayTimeout is reported when a submitted operation was not included
	// within the include timeout. The operation may still be included later;
	// it is never resubmitted with the same nonce.
	ErrRelayTimeout = errors.New("relay timeout")

	// ErrReceiptNotFound is returned by senders for operations that are not
	// included yet.
	ErrReceiptNotFound = errors.New("receipt not found")

	// ErrInsufficientStake is returned by senders when the stake of the
	// wallet does not cover an operation.
	ErrInsufficientStake = entrypoint.ErrInsufficientStake

	// ErrBackendBusy is returned by senders that were throttled. The request
	// may be retried.
	ErrBackendBusy = errors.New("backend busy")
)

// TimeoutError is returned when an operation was not seen included in time.
type TimeoutError struct {
	OperationHash common.Hash
	Timeout       time.Duration
}

func (e TimeoutError) Error() string {
	return fmt.Sprintf("%v: operation %s not included within %s", ErrRelayTimeout, e.OperationHash.Hex(), e.Timeout)
}

func (e TimeoutError) Is(target error) bool {
	return target == ErrRelayTimeout
}

// RejectedError is returned when the transport or the entry point refused an
// operation. The wrapped error carries the reason, including coded engine
// errors.
type RejectedError struct {
	Err error
}

func NewRejectedError(err error) RejectedError {
	return RejectedError{Err: err}
}

func (e RejectedError) Error() string {
	return fmt.Sprintf("relay rejected operation: %v", e.Err)
}

func (e RejectedError) Unwrap() error {
	return e.Err
}

func IsRejectedError(err error) bool {
	var rejected RejectedError
	return errors.As(err, &rejected)
}
