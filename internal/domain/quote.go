package domain

// Provider field keys of a GLOBAL_QUOTE payload.
const (
	KeySymbol           = "01. symbol"
	KeyOpen             = "02. open"
	KeyHigh             = "03. high"
	KeyLow              = "04. low"
	KeyPrice            = "05. price"
	KeyVolume           = "06. volume"
	KeyLatestTradingDay = "07. latest trading day"
	KeyPreviousClose    = "08. previous close"
	KeyChange           = "09. change"
	KeyChangePercent    = "10. change percent"
)

// Quote holds the provider's fields verbatim; values are parsed on read.
type Quote map[string]string

func (q Quote) Get(key string) (string, bool) {
	if q == nil {
		return "", false
	}
	v, ok := q[key]
	return v, ok
}

func (q Quote) LatestTradingDay() string {
	v, _ := q.Get(KeyLatestTradingDay)
	return v
}

type QuoteSet map[Symbol]Quote
