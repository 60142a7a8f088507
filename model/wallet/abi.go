package wallet

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ABIDefinition describes the wallet's state-changing methods. Operation
// call data is encoded against it.
const ABIDefinition = `[
	{"type":"function","name":"execute","stateMutability":"payable","inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"},{"name":"data","type":"bytes"}],"outputs":[]},
	{"type":"function","name":"changeSigner","stateMutability":"nonpayable","inputs":[{"name":"newSigner","type":"address"}],"outputs":[]},
	{"type":"function","name":"changeGuardian","stateMutability":"nonpayable","inputs":[{"name":"newGuardian","type":"address"}],"outputs":[]},
	{"type":"function","name":"triggerEscape","stateMutability":"nonpayable","inputs":[{"name":"initiator","type":"address"}],"outputs":[]},
	{"type":"function","name":"cancelEscape","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"escapeSigner","stateMutability":"nonpayable","inputs":[{"name":"newSigner","type":"address"}],"outputs":[]},
	{"type":"function","name":"escapeGuardian","stateMutability":"nonpayable","inputs":[{"name":"newGuardian","type":"address"}],"outputs":[]}
]`

var walletABI abi.ABI

var kindsByMethod = map[string]ActionKind{
	"execute":        ActionExecute,
	"changeSigner":   ActionChangeSigner,
	"changeGuardian": ActionChangeGuardian,
	"triggerEscape":  ActionTriggerEscape,
	"cancelEscape":   ActionCancelEscape,
	"escapeSigner":   ActionEscapeSigner,
	"escapeGuardian": ActionEscapeGuardian,
}

func init() {
	var err error
	walletABI, err = abi.JSON(strings.NewReader(ABIDefinition))
	if err != nil {
		panic(fmt.Sprintf("invalid wallet ABI: %v", err))
	}
}

// EncodeCallData ABI-encodes the action as wallet call data.
func EncodeCallData(a Action) ([]byte, error) {
	switch a.Kind {
	case ActionExecute:
		value := a.Value
		if value == nil {
			value = new(big.Int)
		}
		data := a.Data
		if data == nil {
			data = []byte{}
		}
		return walletABI.Pack("execute", a.Target, value, data)
	case ActionCancelEscape:
		return walletABI.Pack("cancelEscape")
	case ActionChangeSigner, ActionChangeGuardian, ActionTriggerEscape, ActionEscapeSigner, ActionEscapeGuardian:
		return walletABI.Pack(a.Kind.String(), a.Key)
	default:
		return nil, fmt.Errorf("unknown action kind %d", a.Kind)
	}
}

// DecodeCallData parses wallet call data back into an action.
func DecodeCallData(data []byte) (Action, error) {
	if len(data) < 4 {
		return Action{}, fmt.Errorf("call data too short (%d bytes)", len(data))
	}
	method, err := walletABI.MethodById(data[:4])
	if err != nil {
		return Action{}, fmt.Errorf("unknown selector %x: %w", data[:4], err)
	}
	kind, ok := kindsByMethod[method.Name]
	if !ok {
		return Action{}, fmt.Errorf("method %s is not a wallet action", method.Name)
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return Action{}, fmt.Errorf("could not unpack %s arguments: %w", method.Name, err)
	}

	action := Action{Kind: kind}
	switch kind {
	case ActionExecute:
		if len(args) != 3 {
			return Action{}, fmt.Errorf("execute expects 3 arguments, got %d", len(args))
		}
		target, ok1 := args[0].(common.Address)
		value, ok2 := args[1].(*big.Int)
		payload, ok3 := args[2].([]byte)
		if !ok1 || !ok2 || !ok3 {
			return Action{}, fmt.Errorf("malformed execute arguments")
		}
		action.Target = target
		action.Value = value
		action.Data = payload
	case ActionCancelEscape:
	default:
		if len(args) != 1 {
			return Action{}, fmt.Errorf("%s expects 1 argument, got %d", kind, len(args))
		}
		key, ok := args[0].(common.Address)
		if !ok {
			return Action{}, fmt.Errorf("malformed %s argument", kind)
		}
		action.Key = key
	}
	return action, nil
}
