package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/webtech-network/autograder-sub001/pkg/logging"
)

// Application is the bootstrapped grading service: configuration already
// loaded, every component in Services already constructed and the sandbox
// pool already pre-warmed. Run starts serving and blocks until the process
// is asked to stop.
type Application struct {
	config   *Config
	services *Services
}

// NewApplication performs the full bootstrap sequence (SPEC_FULL.md ambient
// stack): configure logging, load config.ServiceConfig, and construct every
// service the grading pipeline depends on.
func NewApplication(cfg *Config) (*Application, error) {
	level := logging.LevelInfo
	if cfg.Debug {
		level = logging.LevelDebug
	}
	logging.InitForService(level, os.Stdout)

	services, err := InitializeServices(cfg)
	if err != nil {
		logging.Error("Bootstrap", err, "failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{config: cfg, services: services}, nil
}

// Run starts the HTTP submission API (§6) and blocks until ctx is
// cancelled or the process receives SIGINT/SIGTERM, then shuts down the
// sandbox pool and repository connection before returning.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := a.services.ServiceConfig.HTTP.Addr
	server := &http.Server{
		Addr:    addr,
		Handler: a.services.HTTPHandler.Handler(),
	}

	serveErr := make(chan error, 1)
	go func() {
		logging.Info("Bootstrap", "grading service listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logging.Info("Bootstrap", "shutdown signal received")
	case err := <-serveErr:
		runErr = err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error("Bootstrap", err, "HTTP server shutdown failed")
	}
	a.services.Shutdown(shutdownCtx)

	return runErr
}
