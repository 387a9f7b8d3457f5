package domain

import "strings"

type Symbol string

// ParseSymbols splits a comma separated list, trimming and upper-casing each
// item. Empty items are dropped; order and duplicates are preserved.
func ParseSymbols(csv string) []Symbol {
	parts := strings.Split(csv, ",")
	out := make([]Symbol, 0, len(parts))
	for _, p := range parts {
		s := strings.ToUpper(strings.TrimSpace(p))
		if s == "" {
			continue
		}
		out = append(out, Symbol(s))
	}
	return out
}

func NormalizeSymbol(s string) Symbol {
	return Symbol(strings.ToUpper(strings.TrimSpace(s)))
}

func JoinSymbols(symbols []Symbol) string {
	parts := make([]string, len(symbols))
	for i, s := range symbols {
		parts[i] = string(s)
	}
	return strings.Join(parts, ",")
}
