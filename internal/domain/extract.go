package domain

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

type ValueKind int

const (
	ValueAbsent ValueKind = iota
	ValueNumber
	ValueText
)

// Value is a reading extracted from a quote: a rounded number, the raw
// provider text when it is not numeric, or absent.
type Value struct {
	Kind   ValueKind
	Number float64
	Text   string
}

func (v Value) Present() bool { return v.Kind != ValueAbsent }

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueNumber:
		return json.Marshal(v.Number)
	case ValueText:
		return json.Marshal(v.Text)
	default:
		return []byte("null"), nil
	}
}

// maxExponent bounds the decimal exponent Extract will round. Rounding
// rescales with big.Int arithmetic, so a provider numeral like "1e100000000"
// would otherwise never finish.
const maxExponent = 400

// Extract reads field f from q and rounds it to decimals places, half away
// from zero. It never fails: a missing key yields an absent Value, and a
// value that is not a representable number is returned unchanged as text.
// A trailing "%" is accepted only on percentage fields.
func Extract(q Quote, f Field, decimals int) Value {
	raw, ok := q.Get(f.Key)
	if !ok {
		return Value{}
	}
	s := strings.TrimSpace(raw)
	if f.IsPercentage {
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Value{Kind: ValueText, Text: raw}
	}
	if exp := d.Exponent(); exp > maxExponent || exp < -maxExponent {
		return Value{Kind: ValueText, Text: raw}
	}
	if decimals < 0 {
		decimals = 0
	}
	n := d.Round(int32(decimals)).InexactFloat64()
	if math.IsInf(n, 0) || math.IsNaN(n) {
		return Value{Kind: ValueText, Text: raw}
	}
	return Value{Kind: ValueNumber, Number: n}
}
