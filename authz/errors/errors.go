package errors

import (
	stdErrors "errors"
	"fmt"
)

// CodedError is an error carrying a stable code that survives transport to
// remote callers.
type CodedError interface {
	Code() ErrorCode

	error
}

type codedError struct {
	code ErrorCode
	err  error
}

// NewCodedError builds a CodedError. The message follows fmt.Errorf rules, so
// %w wraps.
func NewCodedError(code ErrorCode, format string, args ...interface{}) CodedError {
	return codedError{
		code: code,
		err:  fmt.Errorf(format, args...),
	}
}

// WrapCodedError wraps err under the given code.
func WrapCodedError(code ErrorCode, err error, prefixMsgFormat string, formatArguments ...interface{}) CodedError {
	if prefixMsgFormat != "" {
		msg := fmt.Sprintf(prefixMsgFormat, formatArguments...)
		err = fmt.Errorf("%s: %w", msg, err)
	}
	return codedError{
		code: code,
		err:  err,
	}
}

func (err codedError) Unwrap() error {
	return err.err
}

func (err codedError) Error() string {
	return fmt.Sprintf("%v %v", err.code, err.err)
}

func (err codedError) Code() ErrorCode {
	return err.code
}

// Message returns the error text without the code prefix.
func (err codedError) Message() string {
	return err.err.Error()
}

// Find returns the outermost CodedError in the chain of err, or nil.
func Find(err error) CodedError {
	if err == nil {
		return nil
	}

	var coded CodedError
	if !stdErrors.As(err, &coded) {
		return nil
	}
	return coded
}

// HasErrorCode reports whether any error in the chain of err carries code.
func HasErrorCode(err error, code ErrorCode) bool {
	for err != nil {
		var coded CodedError
		if !stdErrors.As(err, &coded) {
			return false
		}
		if coded.Code() == code {
			return true
		}
		err = stdErrors.Unwrap(coded)
	}
	return false
}

// Message returns the message of a coded error without its code prefix.
func Message(err CodedError) string {
	if m, ok := err.(interface{ Message() string }); ok {
		return m.Message()
	}
	return err.Error()
}
