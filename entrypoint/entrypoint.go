// Package entrypoint emulates the chain-side collaborator of the relay: an
// entry point contract that checks an operation's prepaid stake, hands its
// call data to the wallet's authorization engine, charges the gas cost and
// records a receipt in the next block.
package entrypoint

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/dgraph-io/badger/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"

	"github.com/dualsig/wallet-relay/authz"
	autherrors "github.com/dualsig/wallet-relay/authz/errors"
	"github.com/dualsig/wallet-relay/model/wallet"
	"github.com/dualsig/wallet-relay/module"
	"github.com/dualsig/wallet-relay/storage"
	bstorage "github.com/dualsig/wallet-relay/storage/badger"
)

// ErrInsufficientStake is returned when the sender's stake does not cover
// the prefund of an operation.
var ErrInsufficientStake = errors.New("insufficient stake")

// Metrics is everything the emulated chain reports to.
type Metrics interface {
	module.CacheMetrics
	module.AuthorizationMetrics
	module.EntryPointMetrics
}

type EntryPoint struct {
	log        zerolog.Logger
	config     Config
	chain      *Chain
	engine     *authz.Engine
	ledger     storage.Ledger
	receipts   storage.Receipts
	dispatcher *Dispatcher
	metrics    module.EntryPointMetrics
}

func New(
	log zerolog.Logger,
	config Config,
	chain *Chain,
	engine *authz.Engine,
	ledger storage.Ledger,
	receipts storage.Receipts,
	dispatcher *Dispatcher,
	metrics module.EntryPointMetrics,
) *EntryPoint {
	return &EntryPoint{
		log:        log.With().Str("component", "entrypoint").Logger(),
		config:     config,
		chain:      chain,
		engine:     engine,
		ledger:     ledger,
		receipts:   receipts,
		dispatcher: dispatcher,
		metrics:    metrics,
	}
}

// Bootstrap wires an entry point, its chain, the authorization engine and
// the built-in counter contract on top of db.
func Bootstrap(log zerolog.Logger, db *badger.DB, metrics Metrics, authzOpts []authz.Option, opts ...Option) (*EntryPoint, error) {
	config := DefaultConfig()
	for _, apply := range opts {
		apply(&config)
	}

	ledger := bstorage.NewLedger(db)
	blocks := bstorage.NewBlocks(metrics, db, config.ReceiptCacheSize)

	dispatcher := NewDispatcher(ledger)
	dispatcher.Register(CounterAddress, NewCounter(CounterAddress, bstorage.NewContractState(db)))

	engine := authz.New(log, bstorage.NewAccounts(db), dispatcher, metrics, authzOpts...)

	chain, err := NewChain(log, blocks, metrics, config.Clock, config.AutoMine)
	if err != nil {
		return nil, err
	}

	return New(log, config, chain, engine, ledger, blocks, dispatcher, metrics), nil
}

func (ep *EntryPoint) Address() common.Address {
	return ep.config.Address
}

func (ep *EntryPoint) ChainID() uint64 {
	return ep.config.ChainID
}

func (ep *EntryPoint) Chain() *Chain {
	return ep.chain
}

func (ep *EntryPoint) Engine() *authz.Engine {
	return ep.engine
}

// OperationHash returns the hash op is identified by on this entry point.
func (ep *EntryPoint) OperationHash(op *wallet.Operation) common.Hash {
	return op.Hash(ep.config.Address, ep.config.ChainID)
}

// HandleOp validates op, applies its action through the authorization
// engine and includes it in the pending block. Rejected operations are not
// included and cost nothing.
func (ep *EntryPoint) HandleOp(ctx context.Context, op *wallet.Operation) (common.Hash, error) {
	if err := ctx.Err(); err != nil {
		return common.Hash{}, err
	}

	receipt, err := ep.handleOp(ctx, op)
	if err != nil {
		reason := "Internal"
		if errors.Is(err, ErrInsufficientStake) {
			reason = "InsufficientStake"
		} else if coded := autherrors.Find(err); coded != nil {
			reason = coded.Code().Name()
		}
		ep.metrics.OperationRejected(reason)
		return common.Hash{}, err
	}

	ep.metrics.OperationHandled()
	ep.log.Info().
		Hex("op_hash", receipt.OperationHash.Bytes()).
		Hex("sender", receipt.Sender.Bytes()).
		Uint64("nonce", receipt.Nonce).
		Uint64("block", receipt.BlockNumber).
		Uint64("gas_used", receipt.ActualGasUsed).
		Msg("operation included")

	return receipt.OperationHash, nil
}

func (ep *EntryPoint) handleOp(ctx context.Context, op *wallet.Operation) (*wallet.Receipt, error) {
	if op == nil || op.Sender == (common.Address{}) {
		return nil, autherrors.NewInvalidOperationErrorf("operation has no sender")
	}
	if op.MaxFeePerGas == nil || op.MaxFeePerGas.Sign() < 0 {
		return nil, autherrors.NewInvalidOperationErrorf("invalid max fee per gas")
	}

	intrinsic := ep.config.PerOpOverhead + wallet.CallDataGas(op.CallData)
	if op.TotalGas() < intrinsic {
		return nil, autherrors.NewInvalidOperationErrorf("gas limit %d below intrinsic gas %d", op.TotalGas(), intrinsic)
	}

	action, err := wallet.DecodeCallData(op.CallData)
	if err != nil {
		return nil, autherrors.NewInvalidOperationErrorf("could not decode call data: %v", err)
	}
	auth, err := wallet.DecodeSignatures(action.Kind, op.Signature)
	if err != nil {
		return nil, autherrors.NewInvalidSignatureErrorf(wallet.RoleNone, "could not decode signatures: %v", err)
	}

	_, err = ep.engine.Account(ctx, op.Sender)
	if err != nil {
		return nil, err
	}

	opHash := ep.OperationHash(op)
	prefund := op.RequiredPrefund()

	return ep.chain.Include(func(slot Slot) (*wallet.Receipt, error) {
		stake, err := ep.ledger.Stake(op.Sender)
		if err != nil {
			return nil, fmt.Errorf("could not read stake: %w", err)
		}
		if stake.Cmp(prefund) < 0 {
			return nil, fmt.Errorf("%w: stake %s, required prefund %s", ErrInsufficientStake, stake, prefund)
		}

		res, err := ep.engine.Apply(ctx, op.Sender, authz.Request{
			Action:        action,
			Nonce:         op.Nonce,
			Authorization: auth,
		}, slot.Timestamp)
		if err != nil {
			return nil, err
		}

		gasUsed := intrinsic + res.GasUsed
		cost := new(big.Int).Mul(new(big.Int).SetUint64(gasUsed), op.MaxFeePerGas)
		if cost.Cmp(prefund) > 0 {
			cost = prefund
		}

		// stake was checked under the chain lock, so charging cannot fail
		// for lack of funds
		err = ep.ledger.Charge(op.Sender, ep.config.Beneficiary, cost)
		if err != nil {
			return nil, fmt.Errorf("could not charge stake: %w", err)
		}

		events := append(res.Events, wallet.NewEvent(wallet.EventUserOperation, ep.config.Address,
			"userOpHash", opHash.Hex(),
			"sender", op.Sender.Hex(),
			"nonce", strconv.FormatUint(op.Nonce, 10),
			"success", "true",
			"actualGasCost", cost.String(),
			"actualGasUsed", strconv.FormatUint(gasUsed, 10),
		))

		return &wallet.Receipt{
			OperationHash: opHash,
			Sender:        op.Sender,
			Nonce:         op.Nonce,
			ActualGasUsed: gasUsed,
			ActualGasCost: cost,
			Events:        events,
		}, nil
	})
}

// Receipt returns the receipt of an operation included in a mined block. It
// returns storage.ErrNotFound until then.
func (ep *EntryPoint) Receipt(ctx context.Context, opHash common.Hash) (*wallet.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ep.receipts.ByHash(opHash)
}

func (ep *EntryPoint) Stake(ctx context.Context, account common.Address) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ep.ledger.Stake(account)
}

func (ep *EntryPoint) Balance(ctx context.Context, address common.Address) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ep.ledger.Balance(address)
}

// AddDepositTo moves amount from the balance of from into the stake of
// account.
func (ep *EntryPoint) AddDepositTo(ctx context.Context, from, account common.Address, amount *big.Int) (*wallet.Receipt, error) {
	err := ep.checkUnsigned(ctx, from)
	if err != nil {
		return nil, err
	}
	return ep.system(ctx, from, "deposit", func() ([]wallet.Event, error) {
		err := ep.ledger.Deposit(from, account, amount)
		if err != nil {
			return nil, err
		}
		stake, err := ep.ledger.Stake(account)
		if err != nil {
			return nil, err
		}
		return []wallet.Event{wallet.NewEvent(wallet.EventDeposited, ep.config.Address,
			"account", account.Hex(),
			"totalDeposit", stake.String(),
		)}, nil
	})
}

// Mint credits amount to address out of thin air. It serves as the faucet of
// development setups.
func (ep *EntryPoint) Mint(ctx context.Context, address common.Address, amount *big.Int) (*wallet.Receipt, error) {
	return ep.system(ctx, common.Address{}, "mint", func() ([]wallet.Event, error) {
		err := ep.ledger.Mint(address, amount)
		if err != nil {
			return nil, err
		}
		return []wallet.Event{wallet.NewEvent(wallet.EventTransfer, common.Address{},
			"from", common.Address{}.Hex(),
			"to", address.Hex(),
			"value", amount.String(),
		)}, nil
	})
}

// Transfer moves amount between plain balances. Funds held by a wallet move
// only through a signed execute, so a wallet is refused as the source.
func (ep *EntryPoint) Transfer(ctx context.Context, from, to common.Address, amount *big.Int) (*wallet.Receipt, error) {
	err := ep.checkUnsigned(ctx, from)
	if err != nil {
		return nil, err
	}
	return ep.system(ctx, from, "transfer", func() ([]wallet.Event, error) {
		err := ep.ledger.Transfer(from, to, amount)
		if err != nil {
			return nil, err
		}
		return []wallet.Event{wallet.NewEvent(wallet.EventTransfer, from,
			"from", from.Hex(),
			"to", to.Hex(),
			"value", amount.String(),
		)}, nil
	})
}

// Deploy creates a wallet bound to this entry point.
func (ep *EntryPoint) Deploy(ctx context.Context, cfg wallet.Config) (*wallet.Account, error) {
	cfg.EntryPoint = ep.config.Address

	var acct *wallet.Account
	_, err := ep.system(ctx, cfg.Signer, "deploy", func() ([]wallet.Event, error) {
		var err error
		acct, err = ep.engine.Deploy(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return []wallet.Event{wallet.NewEvent(wallet.EventWalletDeployed, acct.Address,
			"signer", acct.Signer.Hex(),
			"guardian", acct.Guardian.Hex(),
			"salt", strconv.FormatUint(cfg.Salt, 10),
		)}, nil
	})
	if err != nil {
		return nil, err
	}
	return acct, nil
}

// WalletAddress returns the address a wallet with cfg is deployed under by
// this entry point.
func (ep *EntryPoint) WalletAddress(cfg wallet.Config) common.Address {
	cfg.EntryPoint = ep.config.Address
	return wallet.DeriveAddress(cfg)
}

// CallView runs a read-only call against a built-in contract.
func (ep *EntryPoint) CallView(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ep.dispatcher.View(ctx, to, data)
}

func (ep *EntryPoint) Events(ctx context.Context, eventType wallet.EventType, start, end uint64) ([]wallet.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ep.chain.Events(eventType, start, end)
}

func (ep *EntryPoint) Nonce(ctx context.Context, address common.Address) (uint64, error) {
	return ep.engine.Nonce(ctx, address)
}

func (ep *EntryPoint) Account(ctx context.Context, address common.Address) (*wallet.Account, error) {
	return ep.engine.Account(ctx, address)
}

// system includes a chain entry that is not a relayed operation, such as a
// deposit or a faucet mint. Its hash is derived from the kind and the slot.
// checkUnsigned rejects from as the source of an unsigned balance move if it
// is a wallet.
func (ep *EntryPoint) checkUnsigned(ctx context.Context, from common.Address) error {
	isWallet, err := ep.engine.IsWallet(ctx, from)
	if err != nil {
		return err
	}
	if isWallet {
		return autherrors.NewInvalidOperationErrorf("cannot move funds out of wallet %s without its signatures", from.Hex())
	}
	return nil
}

func (ep *EntryPoint) system(ctx context.Context, sender common.Address, kind string, apply func() ([]wallet.Event, error)) (*wallet.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return ep.chain.Include(func(slot Slot) (*wallet.Receipt, error) {
		events, err := apply()
		if err != nil {
			return nil, err
		}

		var position [12]byte
		binary.BigEndian.PutUint64(position[:8], slot.Number)
		binary.BigEndian.PutUint32(position[8:], slot.Index)
		hash := crypto.Keccak256Hash([]byte(kind), sender.Bytes(), position[:])

		return &wallet.Receipt{
			OperationHash: hash,
			Sender:        sender,
			ActualGasCost: new(big.Int),
			Events:        events,
		}, nil
	})
}
