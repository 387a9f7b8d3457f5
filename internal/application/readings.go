package application

import (
	"context"
	"fmt"

	"avquotes-service/internal/domain"
)

const entityPrefix = "avquotes"

// Reading is one displayed value: a (symbol, field) pair resolved against
// the current snapshot.
type Reading struct {
	EntityID   string            `json:"entity_id"`
	Name       string            `json:"name"`
	Symbol     domain.Symbol     `json:"symbol"`
	Field      domain.FieldID    `json:"field"`
	Unit       string            `json:"unit,omitempty"`
	Icon       string            `json:"icon,omitempty"`
	Value      domain.Value      `json:"value"`
	Available  bool              `json:"available"`
	Attributes map[string]string `json:"attributes"`
}

func (s *QuoteService) Readings(ctx context.Context) ([]Reading, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Reading, 0, len(s.settings.Symbols)*len(s.settings.Fields))
	for _, sym := range s.settings.Symbols {
		for _, id := range s.settings.Fields {
			f, ok := domain.LookupField(id)
			if !ok {
				continue
			}
			out = append(out, s.reading(snap, sym, f))
		}
	}
	return out, nil
}

// Reading resolves one configured symbol and enabled field. Unknown
// combinations return ErrNotFound; a known one without data is returned
// with Available=false.
func (s *QuoteService) Reading(ctx context.Context, symbol, field string) (Reading, error) {
	sym := domain.NormalizeSymbol(symbol)
	if !s.configured(sym) {
		return Reading{}, fmt.Errorf("symbol %s: %w", sym, ErrNotFound)
	}
	f, ok := domain.LookupField(domain.FieldID(field))
	if !ok || !s.enabled(f.ID) {
		return Reading{}, fmt.Errorf("field %s: %w", field, ErrNotFound)
	}
	snap, err := s.store.Load(ctx)
	if err != nil {
		return Reading{}, err
	}
	return s.reading(snap, sym, f), nil
}

func (s *QuoteService) reading(snap domain.Snapshot, sym domain.Symbol, f domain.Field) Reading {
	r := Reading{
		EntityID: fmt.Sprintf("%s_%s_%s", entityPrefix, sym, f.ID),
		Name:     fmt.Sprintf("%s %s", sym, f.Name),
		Symbol:   sym,
		Field:    f.ID,
		Unit:     f.Unit,
		Icon:     f.Icon,
	}
	q, ok := snap.Quote(sym)
	if !ok {
		return r
	}
	r.Value = domain.Extract(q, f, s.settings.Decimals)
	r.Available = r.Value.Present()
	r.Attributes = map[string]string{
		"last_refreshed": q.LatestTradingDay(),
		"symbol":         string(sym),
	}
	return r
}

func (s *QuoteService) configured(sym domain.Symbol) bool {
	for _, v := range s.settings.Symbols {
		if v == sym {
			return true
		}
	}
	return false
}

func (s *QuoteService) enabled(id domain.FieldID) bool {
	for _, v := range s.settings.Fields {
		if v == id {
			return true
		}
	}
	return false
}
