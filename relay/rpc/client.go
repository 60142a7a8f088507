package rpc

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/dualsig/wallet-relay/model/wallet"
	"github.com/dualsig/wallet-relay/relay"
)

var ErrRelayUnavailable = errors.New("relay unavailable")

type ClientConfig struct {
	// MaxFailures is the number of consecutive transport failures that opens
	// the circuit breaker.
	MaxFailures uint32
	// BreakerTimeout is how long the breaker stays open before letting a
	// probe request through.
	BreakerTimeout time.Duration
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		MaxFailures:    5,
		BreakerTimeout: 10 * time.Second,
	}
}

// Client talks to a remote relay. Transport failures trip a circuit
// breaker; errors returned by the relay itself do not.
type Client struct {
	log        zerolog.Logger
	url        string
	rpc        *gethrpc.Client
	breaker    *gobreaker.CircuitBreaker
	entryPoint common.Address
	chainID    uint64
}

var _ relay.Backend = (*Client)(nil)

// Dial connects to the relay at url and discovers its entry point.
func Dial(ctx context.Context, log zerolog.Logger, url string, config ClientConfig) (*Client, error) {
	rpcClient, err := gethrpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("could not dial relay %s: %w", url, err)
	}

	log = log.With().Str("component", "relay_rpc_client").Str("url", url).Logger()
	c := &Client{
		log: log,
		url: url,
		rpc: rpcClient,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    url,
		Timeout: config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			if err == nil || throttled(err) {
				return true
			}
			var rpcErr gethrpc.Error
			return errors.As(err, &rpcErr)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("relay circuit breaker changed state")
		},
	})

	var entryPoints []common.Address
	err = c.call(ctx, &entryPoints, "eth_supportedEntryPoints")
	if err != nil {
		rpcClient.Close()
		return nil, fmt.Errorf("could not get entry points: %w", err)
	}
	if len(entryPoints) == 0 {
		rpcClient.Close()
		return nil, fmt.Errorf("relay %s supports no entry point", url)
	}
	c.entryPoint = entryPoints[0]

	var chainID hexutil.Uint64
	err = c.call(ctx, &chainID, "eth_chainId")
	if err != nil {
		rpcClient.Close()
		return nil, fmt.Errorf("could not get chain id: %w", err)
	}
	c.chainID = uint64(chainID)

	return c, nil
}

func (c *Client) Close() {
	c.rpc.Close()
}

func (c *Client) EntryPoint() common.Address {
	return c.entryPoint
}

func (c *Client) ChainID() uint64 {
	return c.chainID
}

func (c *Client) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.rpc.CallContext(ctx, result, method, args...)
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return fmt.Errorf("%w: %s: %v", ErrRelayUnavailable, c.url, err)
	}
	if throttled(err) {
		return fmt.Errorf("%w: %s: %v", relay.ErrBackendBusy, c.url, err)
	}
	if err != nil {
		return clientError(err)
	}
	return nil
}

// throttled reports whether the relay answered with its rate limit. A
// throttling relay is reachable, so it does not count against the breaker.
func throttled(err error) bool {
	var httpErr gethrpc.HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests
}

func (c *Client) SendOperation(ctx context.Context, op *wallet.Operation) (common.Hash, error) {
	var opHash common.Hash
	err := c.call(ctx, &opHash, "eth_sendUserOperation", NewOperation(op), c.entryPoint)
	return opHash, err
}

func (c *Client) Receipt(ctx context.Context, opHash common.Hash) (*wallet.Receipt, error) {
	var receipt *Receipt
	err := c.call(ctx, &receipt, "eth_getUserOperationReceipt", opHash)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, relay.ErrReceiptNotFound
	}
	return receipt.Receipt(), nil
}

func (c *Client) Account(ctx context.Context, address common.Address) (*wallet.Account, error) {
	var acct Account
	err := c.call(ctx, &acct, "wallet_getAccount", address)
	if err != nil {
		return nil, err
	}
	return acct.Account()
}

func (c *Client) Nonce(ctx context.Context, address common.Address) (uint64, error) {
	var nonce hexutil.Uint64
	err := c.call(ctx, &nonce, "wallet_getNonce", address)
	return uint64(nonce), err
}

func (c *Client) SignedMessage(ctx context.Context, address, to common.Address, value *big.Int, data []byte, nonce uint64) (common.Hash, error) {
	var digest common.Hash
	err := c.call(ctx, &digest, "wallet_getSignedMessage", address, to, bigArg(value), hexutil.Bytes(data), hexutil.Uint64(nonce))
	return digest, err
}

func (c *Client) Deploy(ctx context.Context, cfg wallet.Config) (*wallet.Account, error) {
	var acct Account
	err := c.call(ctx, &acct, "wallet_deploy", cfg.Signer, cfg.Guardian, hexutil.Uint64(cfg.Salt))
	if err != nil {
		return nil, err
	}
	return acct.Account()
}

func (c *Client) Stake(ctx context.Context, address common.Address) (*big.Int, error) {
	var stake hexutil.Big
	err := c.call(ctx, &stake, "aa_getStake", address)
	if err != nil {
		return nil, err
	}
	return stake.ToInt(), nil
}

func (c *Client) DepositStake(ctx context.Context, account common.Address, amount *big.Int) error {
	var receipt *Receipt
	return c.call(ctx, &receipt, "aa_depositStake", account, bigArg(amount))
}

func (c *Client) Balance(ctx context.Context, address common.Address) (*big.Int, error) {
	var balance hexutil.Big
	err := c.call(ctx, &balance, "aa_getBalance", address)
	if err != nil {
		return nil, err
	}
	return balance.ToInt(), nil
}

func (c *Client) Mint(ctx context.Context, address common.Address, amount *big.Int) error {
	var receipt *Receipt
	return c.call(ctx, &receipt, "aa_mint", address, bigArg(amount))
}

func (c *Client) Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error {
	var receipt *Receipt
	return c.call(ctx, &receipt, "aa_transfer", from, to, bigArg(amount))
}

func (c *Client) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	var out hexutil.Bytes
	err := c.call(ctx, &out, "aa_call", to, hexutil.Bytes(data))
	return out, err
}

func (c *Client) Events(ctx context.Context, eventType wallet.EventType, start, end uint64) ([]wallet.Event, error) {
	var events []Event
	err := c.call(ctx, &events, "aa_getEvents", string(eventType), hexutil.Uint64(start), hexutil.Uint64(end))
	if err != nil {
		return nil, err
	}
	return walletEvents(events), nil
}

func (c *Client) Mine(ctx context.Context) (uint64, error) {
	var height hexutil.Uint64
	err := c.call(ctx, &height, "aa_mine")
	return uint64(height), err
}

func (c *Client) SetNextBlockTimestamp(ctx context.Context, ts time.Time) error {
	return c.call(ctx, nil, "aa_setNextBlockTimestamp", hexutil.Uint64(ts.Unix()))
}

func bigArg(n *big.Int) *hexutil.Big {
	if n == nil {
		return nil
	}
	return (*hexutil.Big)(n)
}
