package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dualsig/wallet-relay/entrypoint"
	"github.com/dualsig/wallet-relay/module/metrics"
	"github.com/dualsig/wallet-relay/relay/rpc"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run an emulated chain and serve it over JSON-RPC",
	Run:   serve,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	flags := serveCmd.Flags()
	flags.String("listen", rpc.DefaultConfig().ListenAddress, "address the JSON-RPC server listens on")
	flags.String("metrics-listen", "127.0.0.1:8080", "address the metrics server listens on, disabled when empty")
	flags.Bool("profiler", false, "serve pprof on the metrics server")
	flags.Duration("block-interval", 0, "mine pending operations every interval, a block per operation when zero")
	flags.Float64("rate-limit", rpc.DefaultRateLimit, "requests per second accepted from each JSON-RPC client")
	flags.Int("burst", rpc.DefaultBurst, "request burst accepted from each JSON-RPC client")
	flags.String("allowed-origins", "*", "comma separated CORS origins")
	bindFlags(flags)
}

func serve(_ *cobra.Command, _ []string) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	registry := prometheus.NewRegistry()
	collector := metrics.NewChainCollector(registry)

	interval := viper.GetDuration("block-interval")
	ep, db, funder, err := bootstrapLocal(ctx, collector, entrypoint.WithAutoMine(interval == 0))
	if err != nil {
		log.Fatal().Err(err).Msg("could not start emulated chain")
	}
	defer db.Close()

	config := rpc.DefaultConfig()
	config.ListenAddress = viper.GetString("listen")
	config.Funder = funder
	config.RateLimit = viper.GetFloat64("rate-limit")
	config.Burst = viper.GetInt("burst")
	config.AllowedOrigins = strings.Split(viper.GetString("allowed-origins"), ",")

	server, err := rpc.NewServer(log, ep, config)
	if err != nil {
		log.Fatal().Err(err).Msg("could not create relay server")
	}

	if addr := viper.GetString("metrics-listen"); addr != "" {
		metricsServer := metrics.NewServer(log, addr, registry, viper.GetBool("profiler"))
		<-metricsServer.Ready()
		defer func() { <-metricsServer.Done() }()
	}

	if interval > 0 {
		go ep.Chain().Run(ctx, interval)
	}

	go func() {
		log.Info().
			Str("listen", config.ListenAddress).
			Str("entry_point", ep.Address().Hex()).
			Uint64("chain_id", ep.ChainID()).
			Str("funder", funder.Hex()).
			Msg("relay server started")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("relay server failed")
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("could not shut down relay server gracefully")
	}
	log.Info().Msg("relay server stopped")
}
