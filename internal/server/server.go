// Package server exposes the pipeline over HTTP. All business rules live
// in the core packages; handlers only decode requests, resolve the
// caller's identity and map errors.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fitops/coachdesk/internal/cache"
	"github.com/fitops/coachdesk/internal/notify"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StartOpts holds configuration for the API server.
type StartOpts struct {
	DB        *gorm.DB
	Cache     *cache.Cache // nil disables caching
	Notifier  *notify.Notifier
	Logger    *zap.Logger
	Port      int
	JWTSecret string
}

// Start launches the API server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("server: db is required")
	}
	if opts.JWTSecret == "" {
		return fmt.Errorf("server: jwt secret is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	router := Router(opts)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	opts.Logger.Info("api server listening", zap.Int("port", opts.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// Router builds the full route table. Exposed separately so tests can
// drive it with httptest without binding a port.
func Router(opts StartOpts) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(opts.Logger))

	h := &handlers{
		db:       opts.DB,
		cache:    opts.Cache,
		notifier: opts.Notifier,
		log:      opts.Logger,
	}
	registerRoutes(router, h, []byte(opts.JWTSecret))
	return router
}
