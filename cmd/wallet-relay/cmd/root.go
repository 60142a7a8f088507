package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dualsig/wallet-relay/authz"
	"github.com/dualsig/wallet-relay/entrypoint"
)

const envPrefix = "WALLET_RELAY"

var (
	flagConfig string
	log        zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "wallet-relay",
	Short: "Emulate, serve and drive dual-control wallets through an operation relay",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := zerolog.ParseLevel(viper.GetString("log-level"))
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		log = log.Level(level)
		return nil
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagConfig, "config", "", "config file (yaml, toml or json)")
	flags.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	flags.String("datadir", "", "badger directory of the emulated chain, kept in memory when empty")
	flags.String("relay-url", "", "JSON-RPC url of a remote relay, the chain is emulated in process when empty")
	flags.Uint64("chain-id", entrypoint.DefaultChainID, "chain id of the emulated chain")
	flags.Duration("escape-period", authz.DefaultEscapeSecurityPeriod, "security period before an escape can be finalized")
	flags.String("nonce-policy", authz.NonceEveryAction.String(), "which actions consume the nonce (every-action, two-signature-only)")
	flags.String("funder", "", "address paying stake deposits and prefunds, a development key is used when empty")
	bindFlags(flags)

	log = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if flagConfig == "" {
		return
	}
	viper.SetConfigFile(flagConfig)
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal().Err(err).Str("config", flagConfig).Msg("could not read config file")
	}
}

// bindFlags makes flags resolvable through viper, so each can also be set
// from the config file or a WALLET_RELAY_ prefixed environment variable.
func bindFlags(flags *pflag.FlagSet) {
	flags.VisitAll(func(flag *pflag.Flag) {
		if err := viper.BindPFlag(flag.Name, flag); err != nil {
			panic(fmt.Sprintf("could not bind flag %s: %v", flag.Name, err))
		}
	})
}
