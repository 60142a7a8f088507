package errors

import (
	"github.com/ethereum/go-ethereum/common"
)

// NewCallFailedError indicates that the call dispatched by execute failed.
// The whole action is reverted.
func NewCallFailedError(target common.Address, err error) CodedError {
	return WrapCodedError(
		ErrCodeCallFailedError,
		err,
		"call to %s failed", target.Hex())
}

func IsCallFailedError(err error) bool {
	return HasErrorCode(err, ErrCodeCallFailedError)
}

// NewInvalidOperationErrorf indicates an operation that cannot be decoded
// into a wallet action.
func NewInvalidOperationErrorf(msg string, args ...interface{}) CodedError {
	return NewCodedError(
		ErrCodeInvalidOperationError,
		"invalid operation: "+msg,
		args...)
}

func IsInvalidOperationError(err error) bool {
	return HasErrorCode(err, ErrCodeInvalidOperationError)
}

func NewAccountNotFoundError(address common.Address) CodedError {
	return NewCodedError(
		ErrCodeAccountNotFoundError,
		"account not found for address %s",
		address.Hex())
}

func IsAccountNotFoundError(err error) bool {
	return HasErrorCode(err, ErrCodeAccountNotFoundError)
}

func NewAccountAlreadyExistsError(address common.Address) CodedError {
	return NewCodedError(
		ErrCodeAccountAlreadyExistsError,
		"account with address %s already exists",
		address.Hex())
}

func IsAccountAlreadyExistsError(err error) bool {
	return HasErrorCode(err, ErrCodeAccountAlreadyExistsError)
}
