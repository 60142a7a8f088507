package relay

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dualsig/wallet-relay/entrypoint"
	"github.com/dualsig/wallet-relay/model/wallet"
	"github.com/dualsig/wallet-relay/storage"
)

// Sender delivers signed operations to an entry point.
type Sender interface {
	// SendOperation hands op to the entry point and returns its hash. It does
	// not wait for inclusion.
	SendOperation(ctx context.Context, op *wallet.Operation) (common.Hash, error)

	// Receipt returns ErrReceiptNotFound until the operation is included.
	Receipt(ctx context.Context, opHash common.Hash) (*wallet.Receipt, error)
}

// State gives read access to wallets and their stake.
type State interface {
	Account(ctx context.Context, address common.Address) (*wallet.Account, error)
	Stake(ctx context.Context, address common.Address) (*big.Int, error)
	Events(ctx context.Context, eventType wallet.EventType, start, end uint64) ([]wallet.Event, error)
}

// Funder deposits stake for a wallet from a funding source.
type Funder interface {
	DepositStake(ctx context.Context, account common.Address, amount *big.Int) error
}

// Backend is everything the relay client needs from its transport.
type Backend interface {
	Sender
	State
	Funder
}

// LocalBackend submits operations straight to an in-process entry point.
// Stake is funded from the balance of a funding address.
type LocalBackend struct {
	ep     *entrypoint.EntryPoint
	funder common.Address
}

var _ Backend = (*LocalBackend)(nil)

func NewLocalBackend(ep *entrypoint.EntryPoint, funder common.Address) *LocalBackend {
	return &LocalBackend{ep: ep, funder: funder}
}

func (b *LocalBackend) SendOperation(ctx context.Context, op *wallet.Operation) (common.Hash, error) {
	return b.ep.HandleOp(ctx, op)
}

func (b *LocalBackend) Receipt(ctx context.Context, opHash common.Hash) (*wallet.Receipt, error) {
	receipt, err := b.ep.Receipt(ctx, opHash)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrReceiptNotFound
	}
	return receipt, err
}

func (b *LocalBackend) Account(ctx context.Context, address common.Address) (*wallet.Account, error) {
	return b.ep.Account(ctx, address)
}

func (b *LocalBackend) Stake(ctx context.Context, address common.Address) (*big.Int, error) {
	return b.ep.Stake(ctx, address)
}

func (b *LocalBackend) Events(ctx context.Context, eventType wallet.EventType, start, end uint64) ([]wallet.Event, error) {
	return b.ep.Events(ctx, eventType, start, end)
}

func (b *LocalBackend) DepositStake(ctx context.Context, account common.Address, amount *big.Int) error {
	_, err := b.ep.AddDepositTo(ctx, b.funder, account, amount)
	return err
}

func (b *LocalBackend) EntryPoint() *entrypoint.EntryPoint {
	return b.ep
}

func (b *LocalBackend) Nonce(ctx context.Context, address common.Address) (uint64, error) {
	return b.ep.Nonce(ctx, address)
}

func (b *LocalBackend) Balance(ctx context.Context, address common.Address) (*big.Int, error) {
	return b.ep.Balance(ctx, address)
}

func (b *LocalBackend) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	return b.ep.CallView(ctx, to, data)
}

func (b *LocalBackend) Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error {
	_, err := b.ep.Transfer(ctx, from, to, amount)
	return err
}

func (b *LocalBackend) Mint(ctx context.Context, address common.Address, amount *big.Int) error {
	_, err := b.ep.Mint(ctx, address, amount)
	return err
}

func (b *LocalBackend) Deploy(ctx context.Context, cfg wallet.Config) (*wallet.Account, error) {
	return b.ep.Deploy(ctx, cfg)
}
