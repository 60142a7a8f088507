package cmd

import (
	"context"
	"fmt"
	"math/big"

	"github.com/dgraph-io/badger/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"

	"github.com/dualsig/wallet-relay/authz"
	"github.com/dualsig/wallet-relay/crypto"
	"github.com/dualsig/wallet-relay/entrypoint"
	"github.com/dualsig/wallet-relay/model/wallet"
	"github.com/dualsig/wallet-relay/relay"
	"github.com/dualsig/wallet-relay/relay/rpc"
)

// devFunderSeed derives the funding key of development setups.
const devFunderSeed = "wallet-relay development funder"

// node is the chain a command talks to: an in-process emulation or a
// remote relay.
type node interface {
	relay.Backend
	Nonce(ctx context.Context, address common.Address) (uint64, error)
	Balance(ctx context.Context, address common.Address) (*big.Int, error)
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error
	Mint(ctx context.Context, address common.Address, amount *big.Int) error
	Deploy(ctx context.Context, cfg wallet.Config) (*wallet.Account, error)
}

var (
	_ node = (*relay.LocalBackend)(nil)
	_ node = (*rpc.Client)(nil)
)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func funderAddress() (common.Address, error) {
	if s := viper.GetString("funder"); s != "" {
		if !common.IsHexAddress(s) {
			return common.Address{}, fmt.Errorf("invalid funder address %q", s)
		}
		return common.HexToAddress(s), nil
	}
	key, err := crypto.PrivateKeyFromSeed([]byte(devFunderSeed))
	if err != nil {
		return common.Address{}, err
	}
	return key.Address(), nil
}

func authzOptions() ([]authz.Option, error) {
	policy, err := authz.ParseNoncePolicy(viper.GetString("nonce-policy"))
	if err != nil {
		return nil, err
	}
	return []authz.Option{
		authz.WithNoncePolicy(policy),
		authz.WithEscapeSecurityPeriod(viper.GetDuration("escape-period")),
	}, nil
}

func openDB(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("could not open badger at %q: %w", dir, err)
	}
	return db, nil
}

// bootstrapLocal opens the emulated chain in the data directory and funds
// the funder from the faucet when its balance is empty.
func bootstrapLocal(ctx context.Context, metrics entrypoint.Metrics, opts ...entrypoint.Option) (*entrypoint.EntryPoint, *badger.DB, common.Address, error) {
	db, err := openDB(viper.GetString("datadir"))
	if err != nil {
		return nil, nil, common.Address{}, err
	}

	fail := func(err error) (*entrypoint.EntryPoint, *badger.DB, common.Address, error) {
		_ = db.Close()
		return nil, nil, common.Address{}, err
	}

	authzOpts, err := authzOptions()
	if err != nil {
		return fail(err)
	}
	opts = append([]entrypoint.Option{entrypoint.WithChainID(viper.GetUint64("chain-id"))}, opts...)
	ep, err := entrypoint.Bootstrap(log, db, metrics, authzOpts, opts...)
	if err != nil {
		return fail(fmt.Errorf("could not bootstrap entry point: %w", err))
	}

	funder, err := funderAddress()
	if err != nil {
		return fail(err)
	}
	balance, err := ep.Balance(ctx, funder)
	if err != nil {
		return fail(err)
	}
	if balance.Sign() == 0 {
		if _, err := ep.Mint(ctx, funder, ether(1000)); err != nil {
			return fail(fmt.Errorf("could not fund %s: %w", funder.Hex(), err))
		}
		log.Info().Str("funder", funder.Hex()).Msg("funded development funder")
	}

	return ep, db, funder, nil
}

// connect returns the remote relay when --relay-url is set and an
// in-process chain otherwise. The returned function releases it.
func connect(ctx context.Context, metrics entrypoint.Metrics) (node, common.Address, func(), error) {
	if url := viper.GetString("relay-url"); url != "" {
		client, err := rpc.Dial(ctx, log, url, rpc.DefaultClientConfig())
		if err != nil {
			return nil, common.Address{}, nil, err
		}
		funder, err := funderAddress()
		if err != nil {
			client.Close()
			return nil, common.Address{}, nil, err
		}
		return client, funder, client.Close, nil
	}

	ep, db, funder, err := bootstrapLocal(ctx, metrics)
	if err != nil {
		return nil, common.Address{}, nil, err
	}
	return relay.NewLocalBackend(ep, funder), funder, func() { _ = db.Close() }, nil
}

func decodeKey(flag string) (*crypto.PrivateKey, error) {
	s := viper.GetString(flag)
	if s == "" {
		return nil, fmt.Errorf("missing --%s", flag)
	}
	key, err := crypto.DecodePrivateKeyHex(s)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", flag, err)
	}
	return key, nil
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}
