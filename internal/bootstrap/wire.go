//go:build wireinject

package bootstrap

import (
	"context"

	"avquotes-service/internal/application"
	"avquotes-service/internal/infrastructure/worker"

	"github.com/google/wire"
)

var infraSet = wire.NewSet(
	ProvideLogger,
	ProvideConfig,
	ProvideEntry,
	ProvideHTTPClient,
	ProvideQuoteClient,
	ProvideCycle,
	ProvideStores,
	ProvideRedisClient,
	ProvideIdempotency,
	ProvideSnapshotStore,
	ProvideQuoteService,
	ProvidePoller,
)

// InitAPI builds the HTTP server (plus optional in-process poller) and its cleanup.
func InitAPI(ctx context.Context) (*API, func(), error) {
	wire.Build(
		infraSet,
		ProvideServer,
		ProvideAPI,
	)
	return nil, nil, nil
}

// InitPoller builds the standalone worker's poller and its cleanup.
func InitPoller(ctx context.Context) (*worker.Poller, func(), error) {
	wire.Build(infraSet)
	return nil, nil, nil
}

// InitQuoteService builds only the service, for one-shot tools.
func InitQuoteService(ctx context.Context) (*application.QuoteService, func(), error) {
	wire.Build(infraSet)
	return nil, nil, nil
}
