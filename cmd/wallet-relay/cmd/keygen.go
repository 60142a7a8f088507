package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dualsig/wallet-relay/crypto"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a secp256k1 key for a signer or guardian",
	Run: func(cmd *cobra.Command, args []string) {
		key, err := crypto.GeneratePrivateKey()
		if err != nil {
			log.Fatal().Err(err).Msg("could not generate key")
		}
		fmt.Printf("address: %s\n", key.Address().Hex())
		fmt.Printf("private key: %s\n", key.Hex())
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
}
