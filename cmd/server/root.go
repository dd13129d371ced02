package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/livestage-server/internal/app"
	"github.com/vovakirdan/livestage-server/internal/config"
	applog "github.com/vovakirdan/livestage-server/internal/log"
)

type rootFlags struct {
	configPath string
	overrides  config.Config
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "livestage-server",
		Short:         "Livestreaming backend: media grants, viewer presence and room chat",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd.Context(), flags)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "path to config file (default ./config.yaml)")
	pf.StringVar(&flags.overrides.LogLevel, "log-level", "", "log level: debug, info, warn, error")

	f := cmd.Flags()
	f.StringVar(&flags.overrides.Addr, "addr", "", "HTTP listen address")
	f.StringVar(&flags.overrides.Port, "port", "", "HTTP listen port, overrides --addr")
	f.DurationVar(&flags.overrides.ReadHeaderTimeout, "read-header-timeout", 0, "HTTP read header timeout")
	f.DurationVar(&flags.overrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")

	cmd.AddCommand(newTokenCmd(flags))
	return cmd
}

// loadConfig resolves configuration and returns a console logger on out at the configured level.
func loadConfig(flags *rootFlags, out io.Writer) (config.Config, *zerolog.Logger, error) {
	console := func(level string) *zerolog.Logger {
		return applog.NewWithWriter(level, zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}
	bootLogger := console("info")

	cfg, path, err := config.Load(bootLogger, flags.configPath)
	if err != nil {
		return cfg, bootLogger, fmt.Errorf("load config: %w", err)
	}
	cfg.UpdateFrom(flags.overrides)

	logger := console(cfg.LogLevel)
	logger.Debug().Str("path", path).Msg("config loaded")
	return cfg, logger, nil
}

func runServer(ctx context.Context, flags *rootFlags) error {
	cfg, logger, err := loadConfig(flags, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize application")
		return err
	}

	logger.Info().Str("addr", application.Addr()).Msg("starting livestage server")
	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
