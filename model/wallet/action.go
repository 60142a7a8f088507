package wallet

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ActionKind enumerates the state-changing operations of a wallet.
type ActionKind uint8

const (
	ActionExecute ActionKind = iota + 1
	ActionChangeSigner
	ActionChangeGuardian
	ActionTriggerEscape
	ActionCancelEscape
	ActionEscapeSigner
	ActionEscapeGuardian
)

var methodSignatures = map[ActionKind]string{
	ActionExecute:        "execute(address,uint256,bytes)",
	ActionChangeSigner:   "changeSigner(address)",
	ActionChangeGuardian: "changeGuardian(address)",
	ActionTriggerEscape:  "triggerEscape(address)",
	ActionCancelEscape:   "cancelEscape()",
	ActionEscapeSigner:   "escapeSigner(address)",
	ActionEscapeGuardian: "escapeGuardian(address)",
}

func (k ActionKind) String() string {
	switch k {
	case ActionExecute:
		return "execute"
	case ActionChangeSigner:
		return "changeSigner"
	case ActionChangeGuardian:
		return "changeGuardian"
	case ActionTriggerEscape:
		return "triggerEscape"
	case ActionCancelEscape:
		return "cancelEscape"
	case ActionEscapeSigner:
		return "escapeSigner"
	case ActionEscapeGuardian:
		return "escapeGuardian"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

func (k ActionKind) Valid() bool {
	_, ok := methodSignatures[k]
	return ok
}

// MethodSignature returns the canonical method signature the selector is
// derived from.
func (k ActionKind) MethodSignature() string {
	return methodSignatures[k]
}

// Selector returns the 4-byte action identifier.
func (k ActionKind) Selector() [4]byte {
	var sel [4]byte
	copy(sel[:], crypto.Keccak256([]byte(methodSignatures[k]))[:4])
	return sel
}

// TwoSignature reports whether the action needs both the signer and the
// guardian.
func (k ActionKind) TwoSignature() bool {
	switch k {
	case ActionExecute, ActionChangeSigner, ActionChangeGuardian, ActionCancelEscape:
		return true
	default:
		return false
	}
}

// Action is a single state-changing request against a wallet.
type Action struct {
	Kind ActionKind

	// Target, Value and Data are only used by ActionExecute.
	Target common.Address
	Value  *big.Int
	Data   []byte

	// Key is the new key for rotations and escapes, and the initiator key
	// for ActionTriggerEscape.
	Key common.Address

	// EscapeRound is the escape round of the wallet the action is bound to.
	// Only single-role actions carry it, see BindTo.
	EscapeRound uint64
}

func Execute(target common.Address, value *big.Int, data []byte) Action {
	return Action{Kind: ActionExecute, Target: target, Value: value, Data: data}
}

func ChangeSigner(newSigner common.Address) Action {
	return Action{Kind: ActionChangeSigner, Key: newSigner}
}

func ChangeGuardian(newGuardian common.Address) Action {
	return Action{Kind: ActionChangeGuardian, Key: newGuardian}
}

func TriggerEscape(initiator common.Address) Action {
	return Action{Kind: ActionTriggerEscape, Key: initiator}
}

func CancelEscape() Action {
	return Action{Kind: ActionCancelEscape}
}

func EscapeSigner(newSigner common.Address) Action {
	return Action{Kind: ActionEscapeSigner, Key: newSigner}
}

func EscapeGuardian(newGuardian common.Address) Action {
	return Action{Kind: ActionEscapeGuardian, Key: newGuardian}
}

// MessageTarget returns the target bound into the canonical message. Wallet
// actions target the wallet itself.
func (a Action) MessageTarget(wallet common.Address) common.Address {
	if a.Kind == ActionExecute {
		return a.Target
	}
	return wallet
}

// MessageValue returns the value bound into the canonical message.
func (a Action) MessageValue() *big.Int {
	if a.Kind == ActionExecute && a.Value != nil {
		return a.Value
	}
	return new(big.Int)
}

// MessageData returns the data bound into the canonical message: the call
// data for execute, and the selector followed by the raw 20-byte key
// argument for wallet actions. Single-role actions append their escape round
// as a 32-byte word.
func (a Action) MessageData() []byte {
	if a.Kind == ActionExecute {
		return a.Data
	}
	sel := a.Kind.Selector()
	data := append([]byte{}, sel[:]...)
	if a.Kind != ActionCancelEscape {
		data = append(data, a.Key.Bytes()...)
	}
	if !a.Kind.TwoSignature() {
		data = append(data, common.LeftPadBytes(new(big.Int).SetUint64(a.EscapeRound).Bytes(), 32)...)
	}
	return data
}

// BindTo returns the action bound to the current escape round of acct. A
// single-role signature is valid only within the round it was made for.
func (a Action) BindTo(acct *Account) Action {
	if a.Kind.TwoSignature() {
		a.EscapeRound = 0
		return a
	}
	a.EscapeRound = acct.EscapeRound
	return a
}

// Message returns the canonical digest key holders sign for this action.
func (a Action) Message(wallet common.Address, nonce uint64) common.Hash {
	return SignedMessage(wallet, a.MessageTarget(wallet), a.MessageValue(), a.MessageData(), nonce)
}

// RequiredRoles lists the roles whose signatures authorize the action, in
// slot order. For triggerEscape the role is resolved from the initiator key.
func (a Action) RequiredRoles(acct *Account) ([]Role, error) {
	switch a.Kind {
	case ActionExecute, ActionChangeSigner, ActionChangeGuardian, ActionCancelEscape:
		return []Role{RoleSigner, RoleGuardian}, nil
	case ActionTriggerEscape:
		role := acct.RoleOf(a.Key)
		if role == RoleNone {
			return nil, fmt.Errorf("initiator %s holds no role on wallet %s", a.Key.Hex(), acct.Address.Hex())
		}
		return []Role{role}, nil
	case ActionEscapeSigner:
		return []Role{RoleGuardian}, nil
	case ActionEscapeGuardian:
		return []Role{RoleSigner}, nil
	default:
		return nil, fmt.Errorf("unknown action kind %d", a.Kind)
	}
}

func (a Action) String() string {
	switch a.Kind {
	case ActionExecute:
		return fmt.Sprintf("execute(%s, %s, %d bytes)", a.Target.Hex(), a.MessageValue(), len(a.Data))
	case ActionCancelEscape:
		return "cancelEscape()"
	default:
		return fmt.Sprintf("%s(%s)", a.Kind, a.Key.Hex())
	}
}
