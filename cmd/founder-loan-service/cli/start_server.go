package cli

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/gitdigital/founder-loan-service/internal/config"
	"github.com/gitdigital/founder-loan-service/internal/observability/metrics"
	"github.com/gitdigital/founder-loan-service/internal/observability/tracing"
	"github.com/gitdigital/founder-loan-service/internal/queue"
	"github.com/gitdigital/founder-loan-service/internal/types"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func StartServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start-server",
		Short: "Starts the founder loan service consuming loan commands",
		Args:  cobra.ExactArgs(0),
		RunE:  startServer,
	}

	return cmd
}

func startServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx = tracing.InjectTraceID(ctx)
	log := log.Ctx(ctx)

	// load config
	cfgPath := GetConfigPath()
	cfg, err := config.New(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msgf("error while loading config file: %s", cfgPath)
	}

	// Create a basic zap logger
	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatal().Err(err).Msg("error while creating zap logger")
	}
	defer func() {
		// syncing stderr fails on some platforms, there is nothing left to do about it
		_ = zapLogger.Sync()
	}()

	qm, err := queue.NewQueueManager(&cfg.Queue, zapLogger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize queue manager")
	}
	defer func() {
		if err := qm.Stop(); err != nil {
			log.Error().Err(err).Msg("error while stopping queue manager")
		}
	}()

	srv, stopService, err := newService(ctx, cfg, qm)
	if err != nil {
		log.Fatal().Err(err).Msg("error while creating service")
	}
	defer stopService()

	// a fresh deployment is initialized from the protocol section
	if _, initErr := srv.InitializeProtocolFromConfig(ctx); initErr != nil &&
		!types.IsErrorCode(initErr, types.AlreadyInitialized) {
		log.Fatal().Err(initErr).Msg("error while initializing protocol")
	}

	// initialize metrics with the metrics port from config
	metricsPort := cfg.Metrics.GetMetricsPort()
	metrics.Init(metricsPort)

	if err := qm.Start(); err != nil {
		log.Fatal().Err(err).Msg("error while starting queue manager")
	}
	srv.StartOutboxRelay(ctx)

	log.Info().Msg("Founder loan service started")
	err = qm.ReceiveCommands(ctx, srv.HandleCommand)
	if err != nil && !errors.Is(err, ctx.Err()) {
		return err
	}

	log.Info().Msg("Founder loan service stopped")
	return nil
}
