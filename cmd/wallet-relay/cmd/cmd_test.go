package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dualsig/wallet-relay/authz"
	"github.com/dualsig/wallet-relay/model/wallet"
	"github.com/dualsig/wallet-relay/module/metrics"
	"github.com/dualsig/wallet-relay/relay"
	"github.com/dualsig/wallet-relay/utils/unittest"
)

func TestAuthzOptions(t *testing.T) {
	t.Cleanup(viper.Reset)

	viper.Set("nonce-policy", authz.NonceTwoSignatureOnly.String())
	viper.Set("escape-period", time.Hour)
	opts, err := authzOptions()
	require.NoError(t, err)

	config := authz.DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	assert.Equal(t, authz.NonceTwoSignatureOnly, config.NoncePolicy)
	assert.Equal(t, time.Hour, config.EscapeSecurityPeriod)

	viper.Set("nonce-policy", "sometimes")
	_, err = authzOptions()
	assert.Error(t, err)
}

func TestConnectLocal(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("escape-period", authz.DefaultEscapeSecurityPeriod)
	viper.Set("chain-id", uint64(31337))
	ctx := context.Background()

	n, funder, closeFn, err := connect(ctx, metrics.NewNoopCollector())
	require.NoError(t, err)
	defer closeFn()

	local, ok := n.(*relay.LocalBackend)
	require.True(t, ok)
	assert.Equal(t, uint64(31337), local.EntryPoint().ChainID())

	balance, err := n.Balance(ctx, funder)
	require.NoError(t, err)
	assert.Zero(t, ether(1000).Cmp(balance))

	s0, g0 := unittest.NamedKey(t, "S0"), unittest.NamedKey(t, "G0")
	cfg := wallet.Config{Signer: s0.Address(), Guardian: g0.Address(), EntryPoint: entryPointOf(n)}

	deployed, err := deployOrLoad(ctx, n, cfg)
	require.NoError(t, err)
	loaded, err := deployOrLoad(ctx, n, cfg)
	require.NoError(t, err)
	assert.Equal(t, deployed.Address, loaded.Address)
	assert.Equal(t, s0.Address(), loaded.Signer)
}
