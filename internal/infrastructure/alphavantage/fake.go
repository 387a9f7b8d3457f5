package alphavantage

import (
	"context"
	"fmt"
	"time"

	"avquotes-service/internal/application"
	"avquotes-service/internal/domain"
)

var _ application.QuoteClient = (*Fake)(nil)

// Fake serves a fixed quote for every symbol; used with PROVIDER=fake.
type Fake struct {
	price float64
}

func NewFake(price float64) *Fake { return &Fake{price: price} }

func (f *Fake) GlobalQuote(_ context.Context, symbol domain.Symbol) (domain.Quote, error) {
	p := fmt.Sprintf("%.4f", f.price)
	return domain.Quote{
		domain.KeySymbol:           string(symbol),
		domain.KeyOpen:             p,
		domain.KeyHigh:             p,
		domain.KeyLow:              p,
		domain.KeyPrice:            p,
		domain.KeyVolume:           "0",
		domain.KeyLatestTradingDay: time.Now().UTC().Format(time.DateOnly),
		domain.KeyPreviousClose:    p,
		domain.KeyChange:           "0.0000",
		domain.KeyChangePercent:    "0.0000%",
	}, nil
}
