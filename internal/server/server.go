package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/walma-app/walma/internal/assets"
	"github.com/walma-app/walma/internal/completion"
	"github.com/walma-app/walma/internal/level"
	"github.com/walma-app/walma/internal/logger"
	"github.com/walma-app/walma/internal/store"
)

// Config wires the playback API.
type Config struct {
	Catalog  *level.Catalog
	Resolver assets.Resolver

	// Math, when set, adds image service URLs to math parts using
	// MathParams (Token is filled in per unit).
	Math       *assets.MathLocator
	MathParams assets.MathParams

	Reporter      completion.Reporter
	ReportTimeout time.Duration

	// Events supplies completion marks for the level list. Optional.
	Events store.EventRepo

	// SessionTTL drops sessions with no requests for this long. Sessions
	// that never completed report nothing.
	SessionTTL time.Duration
	// CompletedTTL keeps a completed session readable this long after its
	// last request once the report has finished.
	CompletedTTL time.Duration

	Log *logger.Logger
}

const (
	DefaultSessionTTL   = 30 * time.Minute
	DefaultCompletedTTL = 5 * time.Minute
)

// Server serves level content and drives playback sessions over HTTP.
type Server struct {
	catalog       *level.Catalog
	resolver      assets.Resolver
	math          *assets.MathLocator
	mathParams    assets.MathParams
	reporter      completion.Reporter
	reportTimeout time.Duration
	events        store.EventRepo
	log           *logger.Logger

	sessionTTL   time.Duration
	completedTTL time.Duration
	now          func() time.Time

	sessions *registry
	engine   *gin.Engine
}

// New builds a Server and its routes.
func New(cfg Config) (*Server, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("server: catalog is required")
	}
	if cfg.Log == nil {
		cfg.Log = logger.Nop()
	}
	if cfg.Reporter == nil {
		cfg.Reporter = completion.Discard
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.CompletedTTL <= 0 {
		cfg.CompletedTTL = DefaultCompletedTTL
	}
	s := &Server{
		catalog:       cfg.Catalog,
		resolver:      cfg.Resolver,
		math:          cfg.Math,
		mathParams:    cfg.MathParams,
		reporter:      cfg.Reporter,
		reportTimeout: cfg.ReportTimeout,
		events:        cfg.Events,
		log:           cfg.Log.With("service", "PlaybackAPI"),
		sessionTTL:    cfg.SessionTTL,
		completedTTL:  cfg.CompletedTTL,
		now:           time.Now,
		sessions:      newRegistry(),
	}
	s.engine = s.routes()
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/healthz", s.health)

	router.GET("/levels", s.listLevels)
	router.GET("/levels/:id", s.getLevel)
	router.POST("/levels/check", s.checkLevel)

	sessions := router.Group("/sessions")
	{
		sessions.POST("", s.createSession)
		sessions.GET("/:id", s.getSession)
		sessions.POST("/:id/select", s.selectOption)
		sessions.POST("/:id/submit", s.submit)
		sessions.POST("/:id/toggle-explanation", s.toggleExplanation)
		sessions.POST("/:id/advance", s.advance)
		sessions.DELETE("/:id", s.abandon)
	}
	return router
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}

// sweepSessions drops expired sessions.
func (s *Server) sweepSessions() {
	for _, sess := range s.sessions.sweep(s.now(), s.sessionTTL, s.completedTTL) {
		s.log.Info("session expired",
			"session_id", sess.seq.SessionID(),
			"level_id", sess.seq.Level().ID,
			"phase", sess.seq.Phase().String(),
		)
	}
}

// janitor sweeps sessions until ctx is done.
func (s *Server) janitor(ctx context.Context) {
	interval := min(s.completedTTL, s.sessionTTL, time.Minute)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepSessions()
		}
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go s.janitor(janitorCtx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("playback API listening", "addr", addr, "levels", s.catalog.Len())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.log.Info("playback API stopped")
	return nil
}
