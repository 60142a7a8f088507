package rpc

import (
	"errors"
	"fmt"

	gethrpc "github.com/ethereum/go-ethereum/rpc"

	autherrors "github.com/dualsig/wallet-relay/authz/errors"
	"github.com/dualsig/wallet-relay/relay"
	"github.com/dualsig/wallet-relay/storage"
)

// JSON-RPC error codes, in the range the user operation RPC reserves for
// rejected operations.
const (
	CodeRejected          = -32500
	CodeInsufficientStake = -32505
	CodeInvalidSignature  = -32507
	CodeNotFound          = -32001
)

// ErrorData is attached to rejections caused by coded engine errors, so the
// client can rebuild the coded error.
type ErrorData struct {
	Kind string `json:"kind"`
	Code int    `json:"code"`
}

type jsonError struct {
	code int
	msg  string
	data interface{}
}

var (
	_ gethrpc.Error     = (*jsonError)(nil)
	_ gethrpc.DataError = (*jsonError)(nil)
)

func (e *jsonError) Error() string          { return e.msg }
func (e *jsonError) ErrorCode() int         { return e.code }
func (e *jsonError) ErrorData() interface{} { return e.data }

// serverError maps an error of the entry point onto a JSON-RPC error.
func serverError(err error) error {
	if err == nil {
		return nil
	}

	if coded := autherrors.Find(err); coded != nil {
		code := CodeRejected
		if coded.Code() == autherrors.ErrCodeInvalidSignatureError {
			code = CodeInvalidSignature
		}
		msg := err.Error()
		if m, ok := coded.(interface{ Message() string }); ok {
			msg = m.Message()
		}
		return &jsonError{
			code: code,
			msg:  msg,
			data: ErrorData{Kind: coded.Code().Name(), Code: int(coded.Code())},
		}
	}

	switch {
	case errors.Is(err, relay.ErrInsufficientStake):
		return &jsonError{code: CodeInsufficientStake, msg: err.Error()}
	case errors.Is(err, storage.ErrInsufficientFunds):
		return &jsonError{code: CodeRejected, msg: err.Error()}
	case errors.Is(err, storage.ErrNotFound):
		return &jsonError{code: CodeNotFound, msg: err.Error()}
	}
	return err
}

// clientError rebuilds the error kinds of the relay from a JSON-RPC error.
func clientError(err error) error {
	var rpcErr gethrpc.Error
	if !errors.As(err, &rpcErr) {
		return err
	}

	switch rpcErr.ErrorCode() {
	case CodeInsufficientStake:
		return fmt.Errorf("%w: %s", relay.ErrInsufficientStake, rpcErr.Error())
	case CodeNotFound:
		return fmt.Errorf("%w: %s", storage.ErrNotFound, rpcErr.Error())
	}

	var dataErr gethrpc.DataError
	if !errors.As(err, &dataErr) {
		return err
	}
	data, ok := dataErr.ErrorData().(map[string]interface{})
	if !ok {
		return err
	}
	code, ok := data["code"].(float64)
	if !ok {
		return err
	}
	return autherrors.NewCodedError(autherrors.ErrorCode(code), "%s", rpcErr.Error())
}
