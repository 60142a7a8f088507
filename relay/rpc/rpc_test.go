package rpc_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dualsig/wallet-relay/authz"
	autherrors "github.com/dualsig/wallet-relay/authz/errors"
	"github.com/dualsig/wallet-relay/crypto"
	"github.com/dualsig/wallet-relay/entrypoint"
	"github.com/dualsig/wallet-relay/model/wallet"
	"github.com/dualsig/wallet-relay/module/metrics"
	"github.com/dualsig/wallet-relay/relay"
	"github.com/dualsig/wallet-relay/relay/rpc"
	"github.com/dualsig/wallet-relay/utils/unittest"
)

var genesis = time.Unix(1_700_000_000, 0)

type remote struct {
	ep     *entrypoint.EntryPoint
	server *httptest.Server
	client *rpc.Client
	funder common.Address
}

func newRemote(t *testing.T, config rpc.Config, authzOpts ...authz.Option) *remote {
	db := unittest.InMemoryBadgerDB(t)
	ep, err := entrypoint.Bootstrap(unittest.Logger(), db, metrics.NewNoopCollector(), authzOpts,
		entrypoint.WithClock(func() time.Time { return genesis }))
	require.NoError(t, err)

	config.Funder = unittest.AddressFixture()
	_, err = ep.Mint(context.Background(), config.Funder, unittest.Ether(10))
	require.NoError(t, err)

	handler, err := rpc.NewHandler(unittest.Logger(), ep, config)
	require.NoError(t, err)
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := rpc.Dial(context.Background(), unittest.Logger(), server.URL, rpc.DefaultClientConfig())
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return &remote{ep: ep, server: server, client: client, funder: config.Funder}
}

func (r *remote) relayClient(signer, guardian *crypto.PrivateKey) *relay.Client {
	collector := metrics.NewNoopCollector()
	holders := relay.Holders{
		Signer:   relay.NewLocalKeyHolder(signer),
		Guardian: relay.NewLocalKeyHolder(guardian),
	}
	return relay.NewClient(unittest.Logger(), r.client, holders, collector, collector,
		relay.WithPollInterval(5*time.Millisecond))
}

func TestRemoteCounter(t *testing.T) {
	r := newRemote(t, rpc.DefaultConfig())
	ctx := context.Background()
	s0, g0 := unittest.NamedKey(t, "S0"), unittest.NamedKey(t, "G0")

	assert.Equal(t, r.ep.Address(), r.client.EntryPoint())
	assert.Equal(t, r.ep.ChainID(), r.client.ChainID())

	acct, err := r.client.Deploy(ctx, wallet.Config{Signer: s0.Address(), Guardian: g0.Address()})
	require.NoError(t, err)
	assert.Equal(t, r.ep.WalletAddress(wallet.Config{Signer: s0.Address(), Guardian: g0.Address()}), acct.Address)
	assert.Equal(t, wallet.RoleNone, acct.Escape.InitiatedBy)

	outcome, err := r.relayClient(s0, g0).Execute(ctx, acct.Address, entrypoint.CounterAddress, nil, entrypoint.CountCallData())
	require.NoError(t, err)

	local, err := r.ep.Receipt(ctx, outcome.OperationHash)
	require.NoError(t, err)
	assert.Equal(t, local.BlockNumber, outcome.Receipt.BlockNumber)
	assert.Equal(t, 0, local.ActualGasCost.Cmp(outcome.Receipt.ActualGasCost))
	require.Len(t, outcome.Events, len(local.Events))
	for i := range local.Events {
		assert.Equal(t, local.Events[i].Type, outcome.Events[i].Type)
		assert.Equal(t, local.Events[i].Fields, outcome.Events[i].Fields)
	}

	out, err := r.client.Call(ctx, entrypoint.CounterAddress, entrypoint.CountersCallData(acct.Address))
	require.NoError(t, err)
	count, err := entrypoint.DecodeCounter(out)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	nonce, err := r.client.Nonce(ctx, acct.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), nonce)

	deposits, err := r.client.Events(ctx, wallet.EventDeposited, 0, outcome.Receipt.BlockNumber)
	require.NoError(t, err)
	require.Len(t, deposits, 1)
	assert.Equal(t, acct.Address.Hex(), deposits[0].Fields["account"])

	digest, err := r.client.SignedMessage(ctx, acct.Address, entrypoint.CounterAddress, nil, entrypoint.CountCallData(), 1)
	require.NoError(t, err)
	assert.Equal(t, wallet.Execute(entrypoint.CounterAddress, nil, entrypoint.CountCallData()).Message(acct.Address, 1), digest)
}

func TestRemoteRecovery(t *testing.T) {
	r := newRemote(t, rpc.DefaultConfig())
	ctx := context.Background()
	s0, s1, g0 := unittest.NamedKey(t, "S0"), unittest.NamedKey(t, "S1"), unittest.NamedKey(t, "G0")

	acct, err := r.client.Deploy(ctx, wallet.Config{Signer: s0.Address(), Guardian: g0.Address()})
	require.NoError(t, err)
	client := r.relayClient(s0, g0)

	_, err = client.TriggerEscape(ctx, acct.Address, g0.Address())
	require.NoError(t, err)

	remoteAcct, err := r.client.Account(ctx, acct.Address)
	require.NoError(t, err)
	assert.Equal(t, wallet.RoleGuardian, remoteAcct.Escape.InitiatedBy)

	_, err = client.EscapeSigner(ctx, acct.Address, s1.Address())
	require.Error(t, err)
	assert.True(t, relay.IsRejectedError(err))
	assert.True(t, autherrors.IsEscapeNotMaturedError(err), err)

	require.NoError(t, r.client.SetNextBlockTimestamp(ctx, genesis.Add(authz.DefaultEscapeSecurityPeriod+time.Hour)))
	_, err = client.EscapeSigner(ctx, acct.Address, s1.Address())
	require.NoError(t, err)

	remoteAcct, err = r.client.Account(ctx, acct.Address)
	require.NoError(t, err)
	assert.Equal(t, s1.Address(), remoteAcct.Signer)
}

func TestRemoteErrors(t *testing.T) {
	r := newRemote(t, rpc.DefaultConfig())
	ctx := context.Background()
	s0, g0 := unittest.NamedKey(t, "S0"), unittest.NamedKey(t, "G0")

	acct, err := r.client.Deploy(ctx, wallet.Config{Signer: s0.Address(), Guardian: g0.Address()})
	require.NoError(t, err)

	_, err = r.client.Deploy(ctx, wallet.Config{Signer: s0.Address(), Guardian: g0.Address()})
	assert.True(t, autherrors.IsAccountAlreadyExistsError(err), err)

	_, err = r.client.Account(ctx, unittest.AddressFixture())
	assert.True(t, autherrors.IsAccountNotFoundError(err), err)

	_, err = r.client.Receipt(ctx, unittest.HashFixture())
	assert.ErrorIs(t, err, relay.ErrReceiptNotFound)

	action := wallet.CancelEscape()
	sigs := unittest.SignPair(t, acct.Address, action, 5, s0, g0)
	op, err := wallet.NewOperation(acct.Address, 5, action, wallet.Authorization{Pair: sigs}, wallet.DefaultGasParams())
	require.NoError(t, err)

	t.Run("insufficient stake", func(t *testing.T) {
		_, err := r.client.SendOperation(ctx, op)
		assert.ErrorIs(t, err, relay.ErrInsufficientStake)
	})

	t.Run("coded rejection", func(t *testing.T) {
		require.NoError(t, r.client.DepositStake(ctx, acct.Address, unittest.Ether(1)))
		_, err := r.client.SendOperation(ctx, op)
		assert.True(t, autherrors.IsInvalidNonceError(err), err)
		unittest.AssertErrSubstringMatch(t, autherrors.NewInvalidNonceError(acct.Address, 0, 5), err)
	})

	t.Run("unsigned transfer out of a wallet", func(t *testing.T) {
		require.NoError(t, r.client.Mint(ctx, acct.Address, unittest.Ether(1)))

		err := r.client.Transfer(ctx, acct.Address, r.funder, unittest.Ether(1))
		assert.True(t, autherrors.IsInvalidOperationError(err), err)

		balance, err := r.client.Balance(ctx, acct.Address)
		require.NoError(t, err)
		assert.Equal(t, 0, unittest.Ether(1).Cmp(balance))
	})

	t.Run("invalid amount", func(t *testing.T) {
		err := r.client.DepositStake(ctx, acct.Address, nil)
		assert.Error(t, err)
	})
}

func TestRateLimit(t *testing.T) {
	config := rpc.DefaultConfig()
	config.RateLimit = 0.001
	config.Burst = 2
	r := newRemote(t, config)

	// dialing used up the burst of this client
	for i := 0; i < 2*int(rpc.DefaultClientConfig().MaxFailures); i++ {
		_, err := r.client.Stake(context.Background(), unittest.AddressFixture())
		require.Error(t, err)
		assert.Contains(t, err.Error(), http.StatusText(http.StatusTooManyRequests))
		assert.ErrorIs(t, err, relay.ErrBackendBusy)
		// a throttling relay is reachable and never trips the breaker
		assert.NotErrorIs(t, err, rpc.ErrRelayUnavailable)
	}

	t.Run("each client has its own burst", func(t *testing.T) {
		handler, err := rpc.NewHandler(unittest.Logger(), r.ep, config)
		require.NoError(t, err)

		get := func(remoteAddr string) int {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.RemoteAddr = remoteAddr
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			return rec.Code
		}

		assert.Equal(t, http.StatusOK, get("10.0.0.1:1000"))
		assert.Equal(t, http.StatusOK, get("10.0.0.1:1001"))
		assert.Equal(t, http.StatusTooManyRequests, get("10.0.0.1:1002"))
		assert.Equal(t, http.StatusOK, get("10.0.0.2:1000"))
	})
}

func TestWaitThroughThrottling(t *testing.T) {
	config := rpc.DefaultConfig()
	r := newRemote(t, config)
	ctx := context.Background()
	s0, g0 := unittest.NamedKey(t, "S0"), unittest.NamedKey(t, "G0")

	acct, err := r.client.Deploy(ctx, wallet.Config{Signer: s0.Address(), Guardian: g0.Address()})
	require.NoError(t, err)
	client := r.relayClient(s0, g0)
	pending, err := client.Send(ctx, acct.Address, wallet.Execute(entrypoint.CounterAddress, nil, entrypoint.CountCallData()))
	require.NoError(t, err)

	// dialing takes the whole burst, so receipt polls are throttled until
	// tokens refill
	config.RateLimit = 20
	config.Burst = 2
	handler, err := rpc.NewHandler(unittest.Logger(), r.ep, config)
	require.NoError(t, err)
	throttling := httptest.NewServer(handler)
	t.Cleanup(throttling.Close)

	remote, err := rpc.Dial(ctx, unittest.Logger(), throttling.URL, rpc.DefaultClientConfig())
	require.NoError(t, err)
	t.Cleanup(remote.Close)
	collector := metrics.NewNoopCollector()
	waiter := relay.NewClient(unittest.Logger(), remote, relay.Holders{}, collector, collector,
		relay.WithPollInterval(time.Millisecond))

	receipt, err := waiter.Wait(ctx, pending.OperationHash)
	require.NoError(t, err)
	assert.Equal(t, pending.OperationHash, receipt.OperationHash)
}

func TestCircuitBreaker(t *testing.T) {
	r := newRemote(t, rpc.DefaultConfig())
	ctx := context.Background()

	client, err := rpc.Dial(ctx, unittest.Logger(), r.server.URL, rpc.ClientConfig{MaxFailures: 2, BreakerTimeout: time.Minute})
	require.NoError(t, err)
	defer client.Close()

	// relay errors do not count as failures
	for i := 0; i < 3; i++ {
		_, err := client.Account(ctx, unittest.AddressFixture())
		require.Error(t, err)
		assert.NotErrorIs(t, err, rpc.ErrRelayUnavailable)
	}

	r.server.Close()
	for i := 0; i < 2; i++ {
		_, err := client.Stake(ctx, unittest.AddressFixture())
		require.Error(t, err)
		assert.NotErrorIs(t, err, rpc.ErrRelayUnavailable)
	}

	_, err = client.Stake(ctx, unittest.AddressFixture())
	assert.ErrorIs(t, err, rpc.ErrRelayUnavailable)
}

func TestHealth(t *testing.T) {
	r := newRemote(t, rpc.DefaultConfig())

	resp, err := http.Get(r.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(r.server.URL, "application/json", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"eth_chainId","params":[]}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
