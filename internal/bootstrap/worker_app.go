package bootstrap

import (
	"context"
	"fmt"
)

type WorkerApp func(ctx context.Context) error

// InitWorkerApp wires the standalone poller. The returned runner blocks
// until ctx is done or the provider rejects the API key.
func InitWorkerApp(ctx context.Context) (WorkerApp, func(), error) {
	p, cleanup, err := InitPoller(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("init poller: %w", err)
	}
	return p.Start, cleanup, nil
}
