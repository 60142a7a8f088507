package errors

import "fmt"

type ErrorCode uint16

func (ec ErrorCode) String() string {
	return fmt.Sprintf("[Error Code: %d]", ec)
}

const (
	// authorization errors 1100 - 1149
	ErrCodeNullTargetError           ErrorCode = 1100
	ErrCodeInvalidNonceError         ErrorCode = 1101
	ErrCodeInvalidSignatureError     ErrorCode = 1102
	ErrCodeEscapeNotMaturedError     ErrorCode = 1103
	ErrCodeNoMatchingEscapeError     ErrorCode = 1104
	ErrCodeEscapeAlreadyPendingError ErrorCode = 1105

	// execution errors 1150 - 1199
	ErrCodeCallFailedError       ErrorCode = 1150
	ErrCodeInvalidOperationError ErrorCode = 1151

	// account errors 1200 - 1249
	ErrCodeAccountNotFoundError      ErrorCode = 1200
	ErrCodeAccountAlreadyExistsError ErrorCode = 1201
)

var codeNames = map[ErrorCode]string{
	ErrCodeNullTargetError:           "NullTarget",
	ErrCodeInvalidNonceError:         "InvalidNonce",
	ErrCodeInvalidSignatureError:     "InvalidSignature",
	ErrCodeEscapeNotMaturedError:     "EscapeNotMatured",
	ErrCodeNoMatchingEscapeError:     "NoMatchingEscape",
	ErrCodeEscapeAlreadyPendingError: "EscapeAlreadyPending",
	ErrCodeCallFailedError:           "CallFailed",
	ErrCodeInvalidOperationError:     "InvalidOperation",
	ErrCodeAccountNotFoundError:      "AccountNotFound",
	ErrCodeAccountAlreadyExistsError: "AccountAlreadyExists",
}

// Name returns the symbolic name of the code, used as a metrics label and on
// the wire.
func (ec ErrorCode) Name() string {
	name, ok := codeNames[ec]
	if !ok {
		return "Unknown"
	}
	return name
}
