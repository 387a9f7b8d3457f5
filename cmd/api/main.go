package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"avquotes-service/internal/application"
	"avquotes-service/internal/bootstrap"
	"avquotes-service/internal/config"
	infraconfig "avquotes-service/internal/infrastructure/config"
	httpserver "avquotes-service/internal/infrastructure/http"
	"avquotes-service/internal/infrastructure/logx"
	"avquotes-service/internal/infrastructure/tracex"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() { _ = godotenv.Load() }

func main() {
	logger := logx.L()
	defer func() { _ = logger.Sync() }()
	cfg := config.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := tracex.Init(ctx, tracex.Options{Enabled: cfg.TracingEnabled})
	if err != nil {
		logger.Fatal("init tracing", zap.Error(err))
	}

	app, cleanup, err := bootstrap.InitAPI(ctx)
	if err != nil {
		logger.Fatal("bootstrap api", zap.Error(err))
	}
	defer cleanup()

	if app.Poller != nil {
		go func() {
			if err := app.Poller.Start(ctx); errors.Is(err, application.ErrAuth) {
				// Keep serving the last good data; readings report reauth_required.
				logger.Error("poller stopped: reauth required", zap.Error(err))
			}
		}()
	}

	addr := ":" + cfg.Port
	server := &http.Server{
		Addr:    addr,
		Handler: httpserver.NewRouter(app.Server),
	}

	go func() {
		logger.Info("server started", zap.String("addr", addr), zap.String("worker_type", cfg.WorkerType))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, shCancel := context.WithTimeout(context.Background(), infraconfig.DefaultShutdownTimeout)
	defer shCancel()
	_ = server.Shutdown(shutdownCtx)
	_ = shutdownTracing(shutdownCtx)
	logger.Info("server stopped")
}
