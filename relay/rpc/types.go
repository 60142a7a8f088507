package rpc

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/dualsig/wallet-relay/model/wallet"
)

// Operation is the JSON form of a wallet.Operation, with the field names of
// the user operation RPC.
type Operation struct {
	Sender               common.Address `json:"sender"`
	Nonce                hexutil.Uint64 `json:"nonce"`
	CallData             hexutil.Bytes  `json:"callData"`
	CallGasLimit         hexutil.Uint64 `json:"callGasLimit"`
	VerificationGasLimit hexutil.Uint64 `json:"verificationGasLimit"`
	PreVerificationGas   hexutil.Uint64 `json:"preVerificationGas"`
	MaxFeePerGas         *hexutil.Big   `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *hexutil.Big   `json:"maxPriorityFeePerGas"`
	Signature            hexutil.Bytes  `json:"signature"`
}

func NewOperation(op *wallet.Operation) Operation {
	return Operation{
		Sender:               op.Sender,
		Nonce:                hexutil.Uint64(op.Nonce),
		CallData:             op.CallData,
		CallGasLimit:         hexutil.Uint64(op.CallGas),
		VerificationGasLimit: hexutil.Uint64(op.VerificationGas),
		PreVerificationGas:   hexutil.Uint64(op.PreVerificationGas),
		MaxFeePerGas:         bigOrZero(op.MaxFeePerGas),
		MaxPriorityFeePerGas: bigOrZero(op.MaxPriorityFeePerGas),
		Signature:            op.Signature,
	}
}

func (o Operation) Operation() *wallet.Operation {
	return &wallet.Operation{
		Sender:               o.Sender,
		Nonce:                uint64(o.Nonce),
		CallData:             o.CallData,
		CallGas:              uint64(o.CallGasLimit),
		VerificationGas:      uint64(o.VerificationGasLimit),
		PreVerificationGas:   uint64(o.PreVerificationGas),
		MaxFeePerGas:         o.MaxFeePerGas.ToInt(),
		MaxPriorityFeePerGas: o.MaxPriorityFeePerGas.ToInt(),
		Signature:            o.Signature,
	}
}

type Event struct {
	Type       string            `json:"type"`
	Address    common.Address    `json:"address"`
	Block      hexutil.Uint64    `json:"blockNumber"`
	UserOpHash common.Hash       `json:"userOpHash"`
	OpIndex    hexutil.Uint      `json:"opIndex"`
	LogIndex   hexutil.Uint      `json:"logIndex"`
	Fields     map[string]string `json:"fields"`
}

func NewEvent(ev wallet.Event) Event {
	return Event{
		Type:       string(ev.Type),
		Address:    ev.Emitter,
		Block:      hexutil.Uint64(ev.BlockNumber),
		UserOpHash: ev.OperationHash,
		OpIndex:    hexutil.Uint(ev.OperationIndex),
		LogIndex:   hexutil.Uint(ev.EventIndex),
		Fields:     ev.Fields,
	}
}

func (e Event) Event() wallet.Event {
	return wallet.Event{
		Type:           wallet.EventType(e.Type),
		Emitter:        e.Address,
		BlockNumber:    uint64(e.Block),
		OperationHash:  e.UserOpHash,
		OperationIndex: uint32(e.OpIndex),
		EventIndex:     uint32(e.LogIndex),
		Fields:         e.Fields,
	}
}

func NewEvents(events []wallet.Event) []Event {
	out := make([]Event, 0, len(events))
	for _, ev := range events {
		out = append(out, NewEvent(ev))
	}
	return out
}

func walletEvents(events []Event) []wallet.Event {
	out := make([]wallet.Event, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Event())
	}
	return out
}

// Receipt is the JSON form of a wallet.Receipt. Included operations always
// succeeded, Success is kept for clients of the user operation RPC.
type Receipt struct {
	UserOpHash     common.Hash    `json:"userOpHash"`
	Sender         common.Address `json:"sender"`
	Nonce          hexutil.Uint64 `json:"nonce"`
	Success        bool           `json:"success"`
	ActualGasUsed  hexutil.Uint64 `json:"actualGasUsed"`
	ActualGasCost  *hexutil.Big   `json:"actualGasCost"`
	BlockNumber    hexutil.Uint64 `json:"blockNumber"`
	BlockTimestamp hexutil.Uint64 `json:"blockTimestamp"`
	OpIndex        hexutil.Uint   `json:"opIndex"`
	Logs           []Event        `json:"logs"`
}

func NewReceipt(r *wallet.Receipt) *Receipt {
	return &Receipt{
		UserOpHash:     r.OperationHash,
		Sender:         r.Sender,
		Nonce:          hexutil.Uint64(r.Nonce),
		Success:        true,
		ActualGasUsed:  hexutil.Uint64(r.ActualGasUsed),
		ActualGasCost:  bigOrZero(r.ActualGasCost),
		BlockNumber:    hexutil.Uint64(r.BlockNumber),
		BlockTimestamp: hexutil.Uint64(r.BlockTimestamp),
		OpIndex:        hexutil.Uint(r.OperationIndex),
		Logs:           NewEvents(r.Events),
	}
}

func (r *Receipt) Receipt() *wallet.Receipt {
	return &wallet.Receipt{
		OperationHash:  r.UserOpHash,
		Sender:         r.Sender,
		Nonce:          uint64(r.Nonce),
		ActualGasUsed:  uint64(r.ActualGasUsed),
		ActualGasCost:  r.ActualGasCost.ToInt(),
		BlockNumber:    uint64(r.BlockNumber),
		BlockTimestamp: uint64(r.BlockTimestamp),
		OperationIndex: uint32(r.OpIndex),
		Events:         walletEvents(r.Logs),
	}
}

type Escape struct {
	ActivationTime hexutil.Uint64 `json:"activationTime"`
	InitiatedBy    string         `json:"initiatedBy"`
}

type Account struct {
	Address     common.Address `json:"address"`
	EntryPoint  common.Address `json:"entryPoint"`
	Signer      common.Address `json:"signer"`
	Guardian    common.Address `json:"guardian"`
	Nonce       hexutil.Uint64 `json:"nonce"`
	Escape      Escape         `json:"escape"`
	EscapeRound hexutil.Uint64 `json:"escapeRound"`
}

func NewAccount(acct *wallet.Account) *Account {
	return &Account{
		Address:    acct.Address,
		EntryPoint: acct.EntryPoint,
		Signer:     acct.Signer,
		Guardian:   acct.Guardian,
		Nonce:      hexutil.Uint64(acct.Nonce),
		Escape: Escape{
			ActivationTime: hexutil.Uint64(acct.Escape.ActivationTime),
			InitiatedBy:    acct.Escape.InitiatedBy.String(),
		},
		EscapeRound: hexutil.Uint64(acct.EscapeRound),
	}
}

func (a *Account) Account() (*wallet.Account, error) {
	role := wallet.RoleNone
	if a.Escape.InitiatedBy != "" && a.Escape.InitiatedBy != wallet.RoleNone.String() {
		var err error
		role, err = wallet.ParseRole(a.Escape.InitiatedBy)
		if err != nil {
			return nil, err
		}
	}
	return &wallet.Account{
		Address:    a.Address,
		EntryPoint: a.EntryPoint,
		Signer:     a.Signer,
		Guardian:   a.Guardian,
		Nonce:      uint64(a.Nonce),
		Escape: wallet.Escape{
			ActivationTime: uint64(a.Escape.ActivationTime),
			InitiatedBy:    role,
		},
		EscapeRound: uint64(a.EscapeRound),
	}, nil
}

func bigOrZero(n *big.Int) *hexutil.Big {
	if n == nil {
		return (*hexutil.Big)(new(big.Int))
	}
	return (*hexutil.Big)(new(big.Int).Set(n))
}
