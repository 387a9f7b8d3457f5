package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"avquotes-service/internal/application"
	"avquotes-service/internal/bootstrap"
	"avquotes-service/internal/config"
	infraconfig "avquotes-service/internal/infrastructure/config"
	"avquotes-service/internal/infrastructure/logx"
	"avquotes-service/internal/infrastructure/tracex"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() { _ = godotenv.Load() }

func main() { os.Exit(run()) }

func run() int {
	log := logx.L()
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := tracex.Init(ctx, tracex.Options{Enabled: config.Load().TracingEnabled})
	if err != nil {
		log.Error("init tracing", zap.Error(err))
		return 1
	}
	defer func() {
		shCtx, shCancel := context.WithTimeout(context.Background(), infraconfig.DefaultShutdownTimeout)
		defer shCancel()
		_ = shutdownTracing(shCtx)
	}()

	start, cleanup, err := bootstrap.InitWorkerApp(ctx)
	if err != nil {
		log.Error("init worker", zap.Error(err))
		return 1
	}
	defer cleanup()

	if err := start(ctx); err != nil {
		if errors.Is(err, application.ErrAuth) {
			log.Error("reauth required: update AV_API_KEY and restart", zap.Error(err))
		} else {
			log.Error("worker exited", zap.Error(err))
		}
		return 1
	}
	return 0
}
