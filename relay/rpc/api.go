package rpc

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/dualsig/wallet-relay/entrypoint"
	"github.com/dualsig/wallet-relay/model/wallet"
	"github.com/dualsig/wallet-relay/storage"
)

// EthAPI serves the user operation methods under the eth namespace.
type EthAPI struct {
	ep *entrypoint.EntryPoint
}

func (api *EthAPI) SendUserOperation(ctx context.Context, op Operation, entryPoint common.Address) (common.Hash, error) {
	if entryPoint != api.ep.Address() {
		return common.Hash{}, &jsonError{code: CodeRejected, msg: fmt.Sprintf("unsupported entry point %s", entryPoint.Hex())}
	}
	opHash, err := api.ep.HandleOp(ctx, op.Operation())
	return opHash, serverError(err)
}

// GetUserOperationReceipt returns null for operations that are not included.
func (api *EthAPI) GetUserOperationReceipt(ctx context.Context, opHash common.Hash) (*Receipt, error) {
	receipt, err := api.ep.Receipt(ctx, opHash)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return NewReceipt(receipt), nil
}

func (api *EthAPI) SupportedEntryPoints() []common.Address {
	return []common.Address{api.ep.Address()}
}

func (api *EthAPI) ChainId() hexutil.Uint64 {
	return hexutil.Uint64(api.ep.ChainID())
}

func (api *EthAPI) BlockNumber() hexutil.Uint64 {
	return hexutil.Uint64(api.ep.Chain().Height())
}

// AAAPI serves stake, balance and chain control methods under the aa
// namespace. Deposits are paid from the funding address of the server.
type AAAPI struct {
	ep     *entrypoint.EntryPoint
	funder common.Address
}

func (api *AAAPI) GetStake(ctx context.Context, account common.Address) (*hexutil.Big, error) {
	stake, err := api.ep.Stake(ctx, account)
	if err != nil {
		return nil, serverError(err)
	}
	return (*hexutil.Big)(stake), nil
}

func (api *AAAPI) DepositStake(ctx context.Context, account common.Address, amount *hexutil.Big) (*Receipt, error) {
	value, err := positive(amount)
	if err != nil {
		return nil, err
	}
	receipt, err := api.ep.AddDepositTo(ctx, api.funder, account, value)
	if err != nil {
		return nil, serverError(err)
	}
	return NewReceipt(receipt), nil
}

func (api *AAAPI) GetBalance(ctx context.Context, address common.Address) (*hexutil.Big, error) {
	balance, err := api.ep.Balance(ctx, address)
	if err != nil {
		return nil, serverError(err)
	}
	return (*hexutil.Big)(balance), nil
}

func (api *AAAPI) Mint(ctx context.Context, address common.Address, amount *hexutil.Big) (*Receipt, error) {
	value, err := positive(amount)
	if err != nil {
		return nil, err
	}
	receipt, err := api.ep.Mint(ctx, address, value)
	if err != nil {
		return nil, serverError(err)
	}
	return NewReceipt(receipt), nil
}

func (api *AAAPI) Transfer(ctx context.Context, from, to common.Address, amount *hexutil.Big) (*Receipt, error) {
	value, err := positive(amount)
	if err != nil {
		return nil, err
	}
	receipt, err := api.ep.Transfer(ctx, from, to, value)
	if err != nil {
		return nil, serverError(err)
	}
	return NewReceipt(receipt), nil
}

func (api *AAAPI) Call(ctx context.Context, to common.Address, data hexutil.Bytes) (hexutil.Bytes, error) {
	out, err := api.ep.CallView(ctx, to, data)
	if err != nil {
		return nil, serverError(err)
	}
	return out, nil
}

// GetEvents returns the events of blocks from..to inclusive. An empty
// eventType matches every event.
func (api *AAAPI) GetEvents(ctx context.Context, eventType string, from, to hexutil.Uint64) ([]Event, error) {
	events, err := api.ep.Events(ctx, wallet.EventType(eventType), uint64(from), uint64(to))
	if err != nil {
		return nil, serverError(err)
	}
	return NewEvents(events), nil
}

// Mine seals the pending block and returns the new height.
func (api *AAAPI) Mine(ctx context.Context) (hexutil.Uint64, error) {
	block, err := api.ep.Chain().Mine(ctx)
	if err != nil {
		return 0, err
	}
	return hexutil.Uint64(block.Number), nil
}

func (api *AAAPI) SetNextBlockTimestamp(ctx context.Context, timestamp hexutil.Uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return api.ep.Chain().SetNextBlockTimestamp(time.Unix(int64(timestamp), 0))
}

// WalletAPI serves wallet state under the wallet namespace.
type WalletAPI struct {
	ep *entrypoint.EntryPoint
}

func (api *WalletAPI) GetNonce(ctx context.Context, address common.Address) (hexutil.Uint64, error) {
	nonce, err := api.ep.Nonce(ctx, address)
	if err != nil {
		return 0, serverError(err)
	}
	return hexutil.Uint64(nonce), nil
}

func (api *WalletAPI) GetAccount(ctx context.Context, address common.Address) (*Account, error) {
	acct, err := api.ep.Account(ctx, address)
	if err != nil {
		return nil, serverError(err)
	}
	return NewAccount(acct), nil
}

// GetSignedMessage returns the digest key holders sign to execute a call
// from the wallet at nonce.
func (api *WalletAPI) GetSignedMessage(ctx context.Context, address, to common.Address, value *hexutil.Big, data hexutil.Bytes, nonce hexutil.Uint64) (common.Hash, error) {
	var v *big.Int
	if value != nil {
		v = value.ToInt()
	}
	digest, err := api.ep.Engine().SignedMessage(ctx, address, wallet.Execute(to, v, data), uint64(nonce))
	return digest, serverError(err)
}

func (api *WalletAPI) Deploy(ctx context.Context, signer, guardian common.Address, salt hexutil.Uint64) (*Account, error) {
	acct, err := api.ep.Deploy(ctx, wallet.Config{Signer: signer, Guardian: guardian, Salt: uint64(salt)})
	if err != nil {
		return nil, serverError(err)
	}
	return NewAccount(acct), nil
}

func positive(amount *hexutil.Big) (*big.Int, error) {
	if amount == nil || amount.ToInt().Sign() <= 0 {
		return nil, &jsonError{code: CodeRejected, msg: "amount must be positive"}
	}
	return amount.ToInt(), nil
}
