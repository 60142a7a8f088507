package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dualsig/wallet-relay/model/wallet"
	"github.com/dualsig/wallet-relay/module/metrics"
)

var accountCmd = &cobra.Command{
	Use:   "account <wallet>",
	Short: "Show the keys, nonce, escape, balance and stake of a wallet",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		address, err := parseAddress(args[0])
		if err != nil {
			log.Fatal().Err(err).Msg("invalid wallet")
		}

		n, _, closeFn, err := connect(ctx, metrics.NewNoopCollector())
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect")
		}
		defer closeFn()

		acct, err := n.Account(ctx, address)
		if err != nil {
			log.Fatal().Err(err).Msg("could not get wallet")
		}
		balance, err := n.Balance(ctx, address)
		if err != nil {
			log.Fatal().Err(err).Msg("could not get balance")
		}
		stake, err := n.Stake(ctx, address)
		if err != nil {
			log.Fatal().Err(err).Msg("could not get stake")
		}

		fmt.Printf("wallet: %s\n", acct.Address.Hex())
		fmt.Printf("signer: %s\n", acct.Signer.Hex())
		fmt.Printf("guardian: %s\n", acct.Guardian.Hex())
		fmt.Printf("nonce: %d\n", acct.Nonce)
		fmt.Printf("balance: %s wei\n", balance)
		fmt.Printf("stake: %s wei\n", stake)
		if acct.Escape.InitiatedBy != wallet.RoleNone {
			fmt.Printf("escape: initiated by %s, active at %s\n",
				acct.Escape.InitiatedBy, time.Unix(int64(acct.Escape.ActivationTime), 0).UTC().Format(time.RFC3339))
		}
	},
}

func init() {
	rootCmd.AddCommand(accountCmd)
}
