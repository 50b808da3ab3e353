package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/2lambda123/nasa-cumulus-sub001/config"
	"github.com/2lambda123/nasa-cumulus-sub001/internal/app"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/tracing"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var envFile string
	var once bool

	root := &cobra.Command{
		Use:           "migrator",
		Short:         "Migrate Cumulus executions, granules and PDRs from DynamoDB to PostgreSQL",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), envFile, once)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file loaded before the environment is read")
	root.Flags().BoolVar(&once, "once", false, "migrate once and print the summary instead of serving the API (same as RUN_ONCE=true)")
	return root
}

func run(parent context.Context, envFile string, once bool) error {
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg, err := config.Load(nil)
	if err != nil {
		return err
	}

	logger, zapLogger, err := app.NewLogger(cfg.LogLevel, cfg.PrettyLogs)
	if err != nil {
		return err
	}
	defer func() { _ = zapLogger.Sync() }()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		ServiceName: cfg.AppName,
		Endpoint:    cfg.OTLPEndpoint,
		Protocol:    cfg.OTLPProtocol,
		Insecure:    cfg.OTLPInsecure,
	}, logger)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	a := app.New(cfg, logger)
	if err := a.Start(ctx); err != nil {
		logger.WithError(err).Error("Startup failed")
		return err
	}
	defer func() { _ = a.Stop(context.Background()) }()

	if once || cfg.RunOnce {
		return a.RunOnce(ctx, os.Stdout)
	}
	return a.Serve(ctx)
}
