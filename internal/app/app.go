package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/livestage-server/internal/callengine/livekit"
	"github.com/vovakirdan/livestage-server/internal/config"
	"github.com/vovakirdan/livestage-server/internal/core"
	"github.com/vovakirdan/livestage-server/internal/metrics"
	"github.com/vovakirdan/livestage-server/internal/presence"
	transporthttp "github.com/vovakirdan/livestage-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	tracker         *presence.Tracker
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	lk := cfg.LiveKit
	logger.Info().
		Str("livekit_url", lk.URL).
		Str("livekit_api_key", config.Redact(lk.APIKey)).
		Str("livekit_api_secret", config.Redact(lk.APISecret)).
		Str("fixed_room", lk.FixedRoom).
		Msg("livekit configuration")

	m := metrics.New(metrics.WithViewerSeriesLimit(cfg.MaxViewerSeries))
	engine := livekit.New(lk, livekit.WithObserver(m), livekit.WithLogger(logger))
	if err := engine.CheckConfig(); err != nil {
		if lk.RequireAtStartup {
			return nil, fmt.Errorf("check livekit config: %w", err)
		}
		logger.Warn().Err(err).Msg("token issuance will fail until livekit is configured")
	}

	hub := core.NewHub(m, logger)
	tracker := presence.NewTracker(m)
	server := transporthttp.NewServer(transporthttp.Deps{
		Hub:     hub,
		Tracker: tracker,
		Engine:  engine,
		Metrics: m,
	}, *cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		tracker:         tracker,
		log:             logger,
	}, nil
}

// Addr reports the address the server listens on.
func (a *App) Addr() string {
	return a.server.Addr
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go a.hub.Run(ctx)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}

		a.log.Info().Int("rooms_with_viewers", a.tracker.Len()).Msg("presence state discarded")
		return <-serverErr
	}
}
