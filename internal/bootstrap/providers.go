package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"avquotes-service/internal/application"
	"avquotes-service/internal/config"
	"avquotes-service/internal/infrastructure/alphavantage"
	infraconfig "avquotes-service/internal/infrastructure/config"
	httpserver "avquotes-service/internal/infrastructure/http"
	"avquotes-service/internal/infrastructure/httpx"
	"avquotes-service/internal/infrastructure/logx"
	"avquotes-service/internal/infrastructure/memstore"
	"avquotes-service/internal/infrastructure/pg"
	redisstore "avquotes-service/internal/infrastructure/redis"
	"avquotes-service/internal/infrastructure/worker"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrMissingDBURL = errors.New("DATABASE_URL is required for STORAGE=pg")

// fakePrice is what PROVIDER=fake reports for every symbol.
const fakePrice = 100.0

// Stores groups the persistence adapters selected by STORAGE.
type Stores struct {
	Snapshots application.SnapshotStore
	Jobs      application.RefreshJobRepo
	Ping      func(ctx context.Context) error
}

// API is what cmd/api runs: the HTTP server and, for WORKER_TYPE=inproc,
// the poller.
type API struct {
	Config config.Config
	Server *httpserver.Server
	Poller *worker.Poller
}

func ProvideLogger() *zap.Logger { return logx.L() }

func ProvideConfig() config.Config { return config.Load() }

func ProvideEntry(cfg config.Config) (config.Entry, error) {
	e, err := config.LoadEntry(cfg.EntryFile)
	if err != nil {
		return config.Entry{}, fmt.Errorf("load entry: %w", err)
	}
	return e, nil
}

func ProvideHTTPClient(cfg config.Config) *httpx.Client {
	return httpx.New(cfg.RequestTimeout, infraconfig.UserAgent)
}

func ProvideQuoteClient(cfg config.Config, entry config.Entry, hc *httpx.Client) (application.QuoteClient, error) {
	switch cfg.Provider {
	case "fake":
		return alphavantage.NewFake(fakePrice), nil
	case "", "alphavantage":
		return alphavantage.NewClient(entry.APIKey,
			alphavantage.WithBaseURL(cfg.AVBaseURL),
			alphavantage.WithHTTPClient(hc),
		)
	default:
		return nil, fmt.Errorf("unsupported PROVIDER=%q", cfg.Provider)
	}
}

func ProvideCycle(client application.QuoteClient, entry config.Entry, cfg config.Config, log *zap.Logger) application.QuoteCycle {
	return application.NewFetchCycle(client, entry.Symbols, cfg.Pace, log.Named("cycle"))
}

func ProvideStores(ctx context.Context, log *zap.Logger, cfg config.Config) (Stores, func(), error) {
	switch cfg.Storage {
	case "", "memory":
		return Stores{
			Snapshots: memstore.NewSnapshotStore(),
			Jobs:      memstore.NewRefreshJobRepo(),
		}, func() {}, nil
	case "pg":
		if cfg.DatabaseURL == "" {
			return Stores{}, func() {}, ErrMissingDBURL
		}
		db, err := pg.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return Stores{}, func() {}, err
		}
		if err := pg.RunMigrations(ctx, db); err != nil {
			db.Close()
			return Stores{}, func() {}, err
		}
		cleanup := func() {
			log.Info("closing pg")
			db.Close()
		}
		return Stores{
			Snapshots: pg.NewSnapshotStore(db),
			Jobs:      pg.NewRefreshJobRepo(db),
			Ping:      db.Ping,
		}, cleanup, nil
	default:
		return Stores{}, func() {}, fmt.Errorf("unsupported STORAGE=%q", cfg.Storage)
	}
}

// ProvideRedisClient connects only when a Redis-backed feature is enabled;
// otherwise it returns a nil client.
func ProvideRedisClient(ctx context.Context, cfg config.Config) (*redis.Client, func(), error) {
	if cfg.IdempotencyBackend != "redis" && cfg.SnapshotCache != "redis" {
		return nil, func() {}, nil
	}
	client, err := redisstore.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, func() {}, err
	}
	return client, func() { _ = client.Close() }, nil
}

func ProvideIdempotency(client *redis.Client, cfg config.Config) application.IdempotencyStore {
	if client == nil || cfg.IdempotencyBackend != "redis" {
		return application.NoopIdempotency{}
	}
	return redisstore.NewIdempotencyStore(client, cfg.RedisTTL)
}

func ProvideSnapshotStore(stores Stores, client *redis.Client, cfg config.Config, log *zap.Logger) application.SnapshotStore {
	if client == nil || cfg.SnapshotCache != "redis" {
		return stores.Snapshots
	}
	return redisstore.NewSnapshotCache(stores.Snapshots, client, cfg.SnapshotCacheTTL, log.Named("snapshot_cache"))
}

func ProvideQuoteService(
	cycle application.QuoteCycle,
	snapshots application.SnapshotStore,
	stores Stores,
	idem application.IdempotencyStore,
	entry config.Entry,
	log *zap.Logger,
) *application.QuoteService {
	return application.NewQuoteService(cycle, snapshots,
		application.WithJobs(stores.Jobs),
		application.WithIdempotency(idem),
		application.WithLogger(log.Named("service")),
		application.WithSettings(application.Settings{
			Symbols:  entry.Symbols,
			Fields:   entry.ShowSensors,
			Decimals: entry.Decimals,
			Entry:    entry.Redacted(),
		}),
	)
}

func ProvideServer(svc *application.QuoteService, stores Stores) *httpserver.Server {
	srv := httpserver.NewServer(svc)
	if stores.Ping != nil {
		srv.SetReadyCheck(stores.Ping)
	}
	return srv
}

func ProvidePoller(svc *application.QuoteService, entry config.Entry, cfg config.Config, log *zap.Logger) *worker.Poller {
	return &worker.Poller{
		Service:    svc,
		ScanEvery:  entry.ScanInterval,
		PollEvery:  cfg.WorkerPoll,
		BatchLimit: cfg.WorkerBatchSize,
		Log:        log.Named("poller"),
	}
}

func ProvideAPI(cfg config.Config, srv *httpserver.Server, poller *worker.Poller) *API {
	api := &API{Config: cfg, Server: srv}
	if cfg.WorkerType == "inproc" {
		api.Poller = poller
	}
	return api
}
