package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"avquotes-service/internal/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const DefaultPace = 2 * time.Second

var tracer = otel.Tracer("avquotes-service/application")

// LogThrottle logs the first failure of a streak at error level and the
// repeats at debug level until Success is called.
type LogThrottle struct {
	failing bool
}

func (t *LogThrottle) Failure(log *zap.Logger, msg string, fields ...zap.Field) {
	if t.failing {
		log.Debug(msg, fields...)
		return
	}
	t.failing = true
	log.Error(msg, fields...)
}

func (t *LogThrottle) Success()      { t.failing = false }
func (t *LogThrottle) Failing() bool { return t.failing }

// FetchCycle fetches every configured symbol one after another, pausing
// Pace between requests to stay under the provider's per-minute quota.
// Run is not safe for concurrent use; QuoteService serializes calls.
type FetchCycle struct {
	Client  QuoteClient
	Symbols []domain.Symbol
	Pace    time.Duration
	Sleep   func(ctx context.Context, d time.Duration) error
	Log     *zap.Logger

	transportLog LogThrottle
}

var _ QuoteCycle = (*FetchCycle)(nil)

func NewFetchCycle(client QuoteClient, symbols []domain.Symbol, pace time.Duration, log *zap.Logger) *FetchCycle {
	return &FetchCycle{Client: client, Symbols: symbols, Pace: pace, Log: log}
}

func (c *FetchCycle) Run(ctx context.Context) (domain.QuoteSet, error) {
	log := c.Log
	if log == nil {
		log = zap.NewNop()
	}
	sleep := c.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	ctx, span := tracer.Start(ctx, "fetch_cycle")
	defer span.End()
	span.SetAttributes(attribute.Int("symbols", len(c.Symbols)))

	out := make(domain.QuoteSet, len(c.Symbols))
	for i, sym := range c.Symbols {
		q, err := c.fetch(ctx, sym)
		switch {
		case err == nil:
			out[sym] = q
		case errors.Is(err, ErrAuth):
			log.Error("cycle.auth_failed", zap.String("symbol", string(sym)), zap.Error(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "auth")
			return nil, err
		default:
			c.logFailure(log, sym, err)
		}

		if i < len(c.Symbols)-1 {
			if err := sleep(ctx, c.Pace); err != nil {
				return nil, err
			}
		}
	}

	// Cancellation during the last fetch is not a provider failure.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("fetched", len(out)))
	if len(out) == 0 {
		span.SetStatus(codes.Error, "no symbols fetched")
		return nil, fmt.Errorf("%w: 0 of %d symbols", ErrAllSymbolsFailed, len(c.Symbols))
	}
	c.transportLog.Success()
	return out, nil
}

func (c *FetchCycle) fetch(ctx context.Context, sym domain.Symbol) (domain.Quote, error) {
	ctx, span := tracer.Start(ctx, "fetch_symbol")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", string(sym)))
	q, err := c.Client.GlobalQuote(ctx, sym)
	if err != nil {
		span.RecordError(err)
	}
	return q, err
}

func (c *FetchCycle) logFailure(log *zap.Logger, sym domain.Symbol, err error) {
	var (
		rl *RateLimitedError
		pe *ProviderError
		te *TransportError
	)
	fields := []zap.Field{zap.String("symbol", string(sym)), zap.Error(err)}
	switch {
	case errors.As(err, &rl):
		log.Warn("cycle.rate_limited", zap.String("symbol", string(sym)), zap.String("note", rl.Note))
	case errors.As(err, &pe):
		log.Error("cycle.provider_error", fields...)
	case errors.As(err, &te) && te.StatusCode != 0:
		log.Error("cycle.bad_status", append(fields, zap.Int("status", te.StatusCode))...)
	default:
		c.transportLog.Failure(log, "cycle.transport_error", fields...)
	}
}

// SleepContext pauses for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
