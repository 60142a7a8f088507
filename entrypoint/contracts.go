package entrypoint

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/dualsig/wallet-relay/authz"
	"github.com/dualsig/wallet-relay/model/wallet"
	"github.com/dualsig/wallet-relay/storage"
)

// Contract is a built-in dispatch target of the emulated chain.
type Contract interface {
	// Call executes a state-changing call.
	Call(ctx context.Context, call wallet.Call) (*authz.CallResult, error)
	// View executes a read-only call.
	View(ctx context.Context, data []byte) ([]byte, error)
}

const (
	// TransferGas is charged for moving value between balances.
	TransferGas = 9_000
	// CounterIncrementGas is charged by the counter contract per increment.
	CounterIncrementGas = 20_000
)

// Dispatcher routes execute calls to built-in contracts and moves the call
// value between balances.
type Dispatcher struct {
	ledger    storage.Ledger
	contracts map[common.Address]Contract
}

var _ authz.Dispatcher = (*Dispatcher)(nil)

func NewDispatcher(ledger storage.Ledger) *Dispatcher {
	return &Dispatcher{
		ledger:    ledger,
		contracts: make(map[common.Address]Contract),
	}
}

func (d *Dispatcher) Register(address common.Address, contract Contract) {
	d.contracts[address] = contract
}

// Dispatch performs the contract call first, then the value transfer. The
// balance is checked up front so a funded call cannot fail after the
// contract has run.
func (d *Dispatcher) Dispatch(ctx context.Context, call wallet.Call) (*authz.CallResult, error) {
	value := call.Value
	if value == nil {
		value = new(big.Int)
	}

	if value.Sign() > 0 {
		balance, err := d.ledger.Balance(call.From)
		if err != nil {
			return nil, fmt.Errorf("could not read balance: %w", err)
		}
		if balance.Cmp(value) < 0 {
			return nil, fmt.Errorf("%w: balance %s, value %s", storage.ErrInsufficientFunds, balance, value)
		}
	}

	result := &authz.CallResult{}
	contract, ok := d.contracts[call.To]
	if ok {
		res, err := contract.Call(ctx, call)
		if err != nil {
			return nil, err
		}
		result = res
	}

	if value.Sign() > 0 {
		err := d.ledger.Transfer(call.From, call.To, value)
		if err != nil {
			return nil, fmt.Errorf("could not transfer value: %w", err)
		}
		result.GasUsed += TransferGas
		result.Events = append(result.Events, wallet.NewEvent(wallet.EventTransfer, call.From,
			"from", call.From.Hex(),
			"to", call.To.Hex(),
			"value", value.String(),
		))
	}

	return result, nil
}

// View runs a read-only call against a built-in contract.
func (d *Dispatcher) View(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	contract, ok := d.contracts[to]
	if !ok {
		return nil, fmt.Errorf("no contract at %s", to.Hex())
	}
	return contract.View(ctx, data)
}

// CounterABIDefinition describes the built-in counter contract.
const CounterABIDefinition = `[
	{"type":"function","name":"count","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"counters","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"event","name":"CounterIncremented","inputs":[{"name":"account","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}]}
]`

var CounterABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(CounterABIDefinition))
	if err != nil {
		panic(fmt.Sprintf("invalid counter ABI: %v", err))
	}
	return parsed
}()

// Counter keeps one counter per caller; count() increments the caller's.
type Counter struct {
	address common.Address
	state   storage.ContractState
}

var _ Contract = (*Counter)(nil)

func NewCounter(address common.Address, state storage.ContractState) *Counter {
	return &Counter{address: address, state: state}
}

func (c *Counter) Call(ctx context.Context, call wallet.Call) (*authz.CallResult, error) {
	method, args, err := c.method(call.Data)
	if err != nil {
		return nil, err
	}

	switch method.Name {
	case "count":
		value, err := c.state.IncrementCounter(c.address, call.From)
		if err != nil {
			return nil, err
		}
		return &authz.CallResult{
			GasUsed: CounterIncrementGas,
			Events: []wallet.Event{wallet.NewEvent(wallet.EventCounterIncrement, c.address,
				"account", call.From.Hex(),
				"value", strconv.FormatUint(value, 10),
			)},
		}, nil
	case "counters":
		out, err := c.counters(args)
		if err != nil {
			return nil, err
		}
		return &authz.CallResult{ReturnData: out}, nil
	default:
		return nil, fmt.Errorf("method %s is not callable", method.Name)
	}
}

func (c *Counter) View(ctx context.Context, data []byte) ([]byte, error) {
	method, args, err := c.method(data)
	if err != nil {
		return nil, err
	}
	if method.Name != "counters" {
		return nil, fmt.Errorf("method %s is not a view", method.Name)
	}
	return c.counters(args)
}

func (c *Counter) counters(args []interface{}) ([]byte, error) {
	account, ok := args[0].(common.Address)
	if !ok {
		return nil, fmt.Errorf("invalid account argument %T", args[0])
	}
	value, err := c.state.Counter(c.address, account)
	if err != nil {
		return nil, err
	}
	return CounterABI.Methods["counters"].Outputs.Pack(new(big.Int).SetUint64(value))
}

func (c *Counter) method(data []byte) (*abi.Method, []interface{}, error) {
	if len(data) < 4 {
		return nil, nil, fmt.Errorf("call data too short (%d bytes)", len(data))
	}
	method, err := CounterABI.MethodById(data[:4])
	if err != nil {
		return nil, nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, fmt.Errorf("could not decode %s arguments: %w", method.Name, err)
	}
	return method, args, nil
}

// CountCallData returns the call data of count().
func CountCallData() []byte {
	data, err := CounterABI.Pack("count")
	if err != nil {
		panic(err)
	}
	return data
}

// CountersCallData returns the call data of counters(account).
func CountersCallData(account common.Address) []byte {
	data, err := CounterABI.Pack("counters", account)
	if err != nil {
		panic(err)
	}
	return data
}

// DecodeCounter unpacks the return data of counters(account).
func DecodeCounter(out []byte) (uint64, error) {
	values, err := CounterABI.Unpack("counters", out)
	if err != nil {
		return 0, err
	}
	value, ok := values[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("unexpected return type %T", values[0])
	}
	return value.Uint64(), nil
}
