package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/livestage-server/internal/callengine"
	"github.com/vovakirdan/livestage-server/internal/config"
	"github.com/vovakirdan/livestage-server/internal/core"
	"github.com/vovakirdan/livestage-server/internal/metrics"
	"github.com/vovakirdan/livestage-server/internal/presence"
)

// Deps are the components served over HTTP.
type Deps struct {
	Hub     *core.Hub
	Tracker *presence.Tracker
	Engine  callengine.Engine
	Metrics *metrics.Metrics
}

// NewServer builds an HTTP server with all routes registered.
func NewServer(deps Deps, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           NewRouter(deps, cfg, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter builds the root handler. /ws is served straight from the mux because
// gin's response writer refuses to hijack once the upgrade response has started.
func NewRouter(deps Deps, cfg config.Config, logger *zerolog.Logger) stdhttp.Handler {
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(deps.Hub, cfg, logger))
	mux.Handle("/", newAPIRouter(deps, cfg, logger))
	return mux
}

// newAPIRouter registers the REST routes on a gin engine.
func newAPIRouter(deps Deps, cfg config.Config, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logger.Warn().Err(err).Strs("trusted_proxies", cfg.TrustedProxies).Msg("invalid trusted proxies, trusting none")
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))
	router.Use(MetricsMiddleware(deps.Metrics))
	router.Use(CORSMiddleware(cfg.AllowedOrigins))

	router.GET("/health", healthHandler)
	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	tokens := NewTokenHandlers(deps.Engine, logger)
	viewers := NewViewerHandlers(deps.Tracker, logger)

	api := router.Group("/api")
	{
		api.POST("/token", RateLimitMiddleware(cfg.TokenRateLimit), tokens.IssueToken)
		api.POST("/viewers", viewers.UpdateViewers)
		api.GET("/viewers/:roomName", viewers.GetViewers)
	}

	return router
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
