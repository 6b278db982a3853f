package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/miochat-server/internal/app"
	"github.com/vovakirdan/miochat-server/internal/config"
	"github.com/vovakirdan/miochat-server/internal/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		overrides  config.Config
	)

	cmd := &cobra.Command{
		Use:           "miochat-server",
		Short:         "Real-time room chat relay with bot personas",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath, overrides)
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	flags := cmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "config file path (default ./config.yaml or $MIOCHAT_CONFIG_DEFAULT_PATH)")
	flags.StringVar(&overrides.Addr, "addr", "", "HTTP listen address")
	flags.IntVar(&overrides.Port, "port", 0, "HTTP listen port, overrides --addr")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.DurationVar(&overrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")

	return cmd
}

func run(parent context.Context, configPath string, overrides config.Config) error {
	_ = godotenv.Load(".env")

	bootLog := log.New("info")
	cfg, resolvedPath, err := config.Load(bootLog, configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.UpdateFrom(overrides)

	logger := log.New(cfg.LogLevel)
	logger.Debug().Str("path", resolvedPath).Msg("config loaded")

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application := app.New(&cfg, logger)

	logger.Info().Str("addr", application.Addr()).Bool("bots", application.BotsEnabled()).Msg("starting miochat server")
	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
