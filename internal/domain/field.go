package domain

import (
	"fmt"
	"strings"
)

type FieldID string

const (
	FieldPrice         FieldID = "price"
	FieldChange        FieldID = "change"
	FieldChangePercent FieldID = "change_percent"
	FieldVolume        FieldID = "volume"
	FieldHigh          FieldID = "high"
	FieldLow           FieldID = "low"
	FieldPreviousClose FieldID = "previous_close"
)

// Field describes one displayable reading of a quote.
type Field struct {
	ID           FieldID
	Name         string
	Key          string
	Unit         string
	IsPercentage bool
	Icon         string
}

var fields = []Field{
	{ID: FieldPrice, Name: "Price", Key: KeyPrice, Unit: "$", Icon: "mdi:cash"},
	{ID: FieldChange, Name: "Change", Key: KeyChange, Unit: "$", Icon: "mdi:chart-line-variant"},
	{ID: FieldChangePercent, Name: "Change Percent", Key: KeyChangePercent, Unit: "%", IsPercentage: true, Icon: "mdi:chart-line"},
	{ID: FieldVolume, Name: "Volume", Key: KeyVolume, Icon: "mdi:chart-bar"},
	{ID: FieldHigh, Name: "Day High", Key: KeyHigh, Unit: "$", Icon: "mdi:arrow-up-bold"},
	{ID: FieldLow, Name: "Day Low", Key: KeyLow, Unit: "$", Icon: "mdi:arrow-down-bold"},
	{ID: FieldPreviousClose, Name: "Previous Close", Key: KeyPreviousClose, Unit: "$", Icon: "mdi:history"},
}

var DefaultFields = []FieldID{FieldPrice, FieldChange, FieldChangePercent}

// Fields returns the registry in display order.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

func LookupField(id FieldID) (Field, bool) {
	for _, f := range fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// ParseFieldIDs validates a comma separated list of field ids against the
// registry. Repeated ids are kept once, at their first position.
func ParseFieldIDs(csv string) ([]FieldID, error) {
	var out []FieldID
	seen := make(map[FieldID]bool)
	for _, p := range strings.Split(csv, ",") {
		id := FieldID(strings.ToLower(strings.TrimSpace(p)))
		if id == "" {
			continue
		}
		if _, ok := LookupField(id); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, id)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}
