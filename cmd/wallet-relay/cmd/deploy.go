package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dualsig/wallet-relay/model/wallet"
	"github.com/dualsig/wallet-relay/module/metrics"
)

var (
	flagSigner   string
	flagGuardian string
	flagSalt     uint64
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy a wallet controlled by a signer and a guardian",
	Run:   deploy,
}

func init() {
	rootCmd.AddCommand(deployCmd)

	deployCmd.Flags().StringVar(&flagSigner, "signer", "", "signer address")
	deployCmd.Flags().StringVar(&flagGuardian, "guardian", "", "guardian address")
	deployCmd.Flags().Uint64Var(&flagSalt, "salt", 0, "salt of the wallet address")
	_ = deployCmd.MarkFlagRequired("signer")
	_ = deployCmd.MarkFlagRequired("guardian")
}

func deploy(_ *cobra.Command, _ []string) {
	ctx := context.Background()

	signer, err := parseAddress(flagSigner)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid signer")
	}
	guardian, err := parseAddress(flagGuardian)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid guardian")
	}

	n, _, closeFn, err := connect(ctx, metrics.NewNoopCollector())
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect")
	}
	defer closeFn()

	acct, err := n.Deploy(ctx, wallet.Config{Signer: signer, Guardian: guardian, Salt: flagSalt})
	if err != nil {
		log.Fatal().Err(err).Msg("could not deploy wallet")
	}
	fmt.Printf("wallet: %s\n", acct.Address.Hex())
	fmt.Printf("signer: %s\n", acct.Signer.Hex())
	fmt.Printf("guardian: %s\n", acct.Guardian.Hex())
}
