package cmd

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	autherrors "github.com/dualsig/wallet-relay/authz/errors"
	"github.com/dualsig/wallet-relay/entrypoint"
	"github.com/dualsig/wallet-relay/model/wallet"
	"github.com/dualsig/wallet-relay/module/metrics"
	"github.com/dualsig/wallet-relay/relay"
	"github.com/dualsig/wallet-relay/relay/rpc"
)

var runopCmd = &cobra.Command{
	Use:   "runop",
	Short: "Increment the counter contract through a wallet",
	Long: `Deploys the wallet of the given keys unless it exists, makes sure it has
balance and stake, and sends a count() call signed by both keys.`,
	Run: runop,
}

func init() {
	rootCmd.AddCommand(runopCmd)

	flags := runopCmd.Flags()
	flags.String("signer-key", "", "hex private key of the signer")
	flags.String("guardian-key", "", "hex private key of the guardian")
	flags.Uint64("salt", 0, "salt of the wallet address")
	flags.Duration("signature-timeout", relay.DefaultSignatureTimeout, "how long to wait for signatures")
	flags.Duration("include-timeout", relay.DefaultIncludeTimeout, "how long to wait for the operation to be included")
	bindFlags(flags)
}

// minWalletBalance is the balance a wallet is prefunded to before counting.
var minWalletBalance = new(big.Int).Div(ether(1), big.NewInt(100))

func runop(_ *cobra.Command, _ []string) {
	ctx := context.Background()

	signerKey, err := decodeKey("signer-key")
	if err != nil {
		log.Fatal().Err(err).Msg("could not load signer key")
	}
	guardianKey, err := decodeKey("guardian-key")
	if err != nil {
		log.Fatal().Err(err).Msg("could not load guardian key")
	}

	registry := prometheus.NewRegistry()
	n, funder, closeFn, err := connect(ctx, metrics.NewNoopCollector())
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect")
	}
	defer closeFn()

	cfg := wallet.Config{
		Signer:     signerKey.Address(),
		Guardian:   guardianKey.Address(),
		EntryPoint: entryPointOf(n),
		Salt:       viper.GetUint64("salt"),
	}
	acct, err := deployOrLoad(ctx, n, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("could not load wallet")
	}
	lg := log.With().Str("wallet", acct.Address.Hex()).Logger()

	balance, err := n.Balance(ctx, acct.Address)
	if err != nil {
		lg.Fatal().Err(err).Msg("could not get wallet balance")
	}
	if balance.Cmp(minWalletBalance) < 0 {
		err = n.Transfer(ctx, funder, acct.Address, new(big.Int).Sub(minWalletBalance, balance))
		if err != nil {
			lg.Fatal().Err(err).Msg("could not prefund wallet")
		}
		lg.Info().Msg("prefunded wallet")
	}

	client := relay.NewClient(log, n,
		relay.Holders{
			Signer:   relay.NewLocalKeyHolder(signerKey),
			Guardian: relay.NewLocalKeyHolder(guardianKey),
		},
		metrics.NewRelayCollector(registry),
		metrics.NewStakeCollector(registry),
		relay.WithSignatureTimeout(viper.GetDuration("signature-timeout")),
		relay.WithIncludeTimeout(viper.GetDuration("include-timeout")),
	)

	err = client.EnsureStake(ctx, acct.Address)
	if err != nil {
		lg.Fatal().Err(err).Msg("could not stake wallet")
	}

	start := time.Now()
	outcome, err := client.Execute(ctx, acct.Address, entrypoint.CounterAddress, nil, entrypoint.CountCallData())
	if err != nil {
		lg.Fatal().Err(err).Msg("could not run operation")
	}

	out, err := n.Call(ctx, entrypoint.CounterAddress, entrypoint.CountersCallData(acct.Address))
	if err != nil {
		lg.Fatal().Err(err).Msg("could not read counter")
	}
	count, err := entrypoint.DecodeCounter(out)
	if err != nil {
		lg.Fatal().Err(err).Msg("could not decode counter")
	}

	fmt.Printf("wallet: %s\n", acct.Address.Hex())
	fmt.Printf("operation: %s (nonce %d, block %d, %s)\n",
		outcome.OperationHash.Hex(), outcome.Nonce, outcome.Receipt.BlockNumber, time.Since(start).Round(time.Millisecond))
	fmt.Printf("counter: %d\n", count)
	fmt.Printf("gas paid: %s wei\n", outcome.Receipt.ActualGasCost)

	events, err := client.Events(ctx, "", outcome.Receipt)
	if err != nil {
		lg.Fatal().Err(err).Msg("could not get events")
	}
	for _, event := range events {
		fmt.Printf("  %s %s %v\n", event.Type, event.Emitter.Hex(), event.Fields)
	}
}

// deployOrLoad deploys the wallet of cfg, or loads it when it is already
// deployed.
func deployOrLoad(ctx context.Context, n node, cfg wallet.Config) (*wallet.Account, error) {
	acct, err := n.Deploy(ctx, cfg)
	if err == nil {
		log.Info().Str("wallet", acct.Address.Hex()).Msg("deployed wallet")
		return acct, nil
	}
	if !autherrors.IsAccountAlreadyExistsError(err) {
		return nil, err
	}
	return n.Account(ctx, wallet.DeriveAddress(cfg))
}

func entryPointOf(n node) common.Address {
	switch b := n.(type) {
	case *relay.LocalBackend:
		return b.EntryPoint().Address()
	case *rpc.Client:
		return b.EntryPoint()
	}
	return entrypoint.DefaultAddress
}
