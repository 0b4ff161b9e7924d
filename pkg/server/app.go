package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"FinInfer/internal/handler/ws"
	"FinInfer/internal/middleware"
	"FinInfer/pkg/cache"
	"FinInfer/pkg/config"
	xhttp "FinInfer/pkg/http"
	applogger "FinInfer/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
	pipeline    *middleware.DecisionPipeline
	hub         *ws.Hub
	cacheSvc    cache.Service
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	pipeline *middleware.DecisionPipeline,
	hub *ws.Hub,
	cacheSvc cache.Service,
) *App {
	return &App{
		cfg:         cfg,
		log:         log,
		httpHandler: handler,
		pipeline:    pipeline,
		hub:         hub,
		cacheSvc:    cacheSvc,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.pipeline.Start(ctx)
	a.log.Info("decision pipeline started")

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services. The HTTP server stops first so no
// new decisions enter the pipeline while it drains.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.hub != nil {
		a.hub.Close()
	}

	// drains buffered records before the sinks close
	a.pipeline.Stop()
	a.pipeline.CloseSinks()

	if a.cacheSvc != nil {
		if err := a.cacheSvc.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
