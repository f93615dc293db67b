package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"betlogic/config"
	"betlogic/web/handlers"
	"betlogic/web/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	router   *gin.Engine
	analyzer handlers.Analyzer
	lister   handlers.FixtureLister
	limiter  *middleware.IPRateLimiter
	logger   *zap.Logger
	config   *config.Config
}

func NewServer(analyzer handlers.Analyzer, lister handlers.FixtureLister, logger *zap.Logger, config *config.Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	if err := router.SetTrustedProxies(config.TrustedProxyList()); err != nil {
		logger.Warn("Invalid TRUSTED_PROXIES, trusting no proxy", zap.Error(err))
		_ = router.SetTrustedProxies(nil)
	}

	router.Use(gin.Recovery())
	router.Use(middleware.RequestContext(logger))
	router.Use(middleware.CORS(config.AllowOrigin))

	server := &Server{
		router:   router,
		analyzer: analyzer,
		lister:   lister,
		logger:   logger,
		config:   config,
		limiter: middleware.NewIPRateLimiter(middleware.RateLimiterConfig{
			AnalysesPerMinute: config.RateLimitAnalysesPerMin,
			BurstSize:         config.RateLimitBurstSize,
		}, logger),
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	analysisHandler := handlers.NewAnalysisHandler(s.analyzer, s.config.OpenRouterAPIKey != "", s.config.DebugErrors, s.logger)
	fixturesHandler := handlers.NewFixturesHandler(s.lister, s.logger)

	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	analyze := []gin.HandlerFunc{
		middleware.BearerAuth(s.config.InternalKey),
		middleware.RateLimitMiddleware(s.limiter),
		analysisHandler.Analyze,
	}
	s.router.POST("/analyze", analyze...)
	s.router.POST("/api/analiza", analyze...)

	s.router.GET("/fixtures", fixturesHandler.List)
	s.router.GET("/api/meciuri", fixturesHandler.Legacy)

	if s.config.UIEnabled() {
		pageHandler := handlers.NewPageHandler(s.analyzer, s.lister, s.logger)
		s.router.GET("/", pageHandler.Index)
		s.router.POST("/view", middleware.RateLimitMiddleware(s.limiter), pageHandler.View)
	} else if s.config.WebUIEnabled {
		s.logger.Info("Match picker disabled because an internal key is configured")
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.logger.Info("Starting web server", zap.String("address", addr))
	defer s.limiter.Stop()

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.logger.Error("Web server failed to start", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
