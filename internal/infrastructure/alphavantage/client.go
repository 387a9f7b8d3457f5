package alphavantage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"avquotes-service/internal/application"
	"avquotes-service/internal/domain"
	"avquotes-service/internal/infrastructure/httpx"
)

//go:generate mockgen -package=alphavantage_test -destination=mock_http_doer_test.go -source=client.go HTTPDoer

const (
	DefaultBaseURL = "https://www.alphavantage.co/query"

	functionGlobalQuote = "GLOBAL_QUOTE"
	validationSymbol    = "AAPL"
	authErrorMarker     = "the apikey parameter"
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *httpx.Client
}

var _ application.QuoteClient = (*Client)(nil)

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.BaseURL = u }
}

// WithHTTPDoer replaces the underlying transport while keeping the user agent.
func WithHTTPDoer(d HTTPDoer) Option {
	return func(c *Client) {
		ua := ""
		if c.HTTP != nil {
			ua = c.HTTP.UserAgent
		}
		c.HTTP = &httpx.Client{HTTP: d, UserAgent: ua}
	}
}

func WithHTTPClient(h *httpx.Client) Option {
	return func(c *Client) { c.HTTP = h }
}

func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("alphavantage: api key is required")
	}
	c := &Client{BaseURL: DefaultBaseURL, APIKey: apiKey, HTTP: &httpx.Client{HTTP: http.DefaultClient}}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// envelope holds the top-level keys the provider may answer with.
type envelope struct {
	GlobalQuote  map[string]string `json:"Global Quote"`
	Note         *string           `json:"Note"`
	Information  *string           `json:"Information"`
	ErrorMessage *string           `json:"Error Message"`
}

func (c *Client) GlobalQuote(ctx context.Context, symbol domain.Symbol) (domain.Quote, error) {
	var body envelope
	if err := c.get(ctx, symbol, &body); err != nil {
		return nil, toTransportError(symbol, err)
	}
	return classify(symbol, body)
}

// ValidateKey reports whether the provider accepts the configured key. A
// rate-limit note counts as valid: the key was recognised.
func (c *Client) ValidateKey(ctx context.Context) (bool, error) {
	var body envelope
	if err := c.get(ctx, validationSymbol, &body); err != nil {
		return false, toTransportError(validationSymbol, err)
	}
	if body.ErrorMessage != nil && isAuthMessage(*body.ErrorMessage) {
		return false, nil
	}
	return true, nil
}

func (c *Client) get(ctx context.Context, symbol domain.Symbol, out *envelope) error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("alphavantage: invalid base url: %w", err)
	}
	q := u.Query()
	q.Set("function", functionGlobalQuote)
	q.Set("symbol", string(symbol))
	q.Set("apikey", c.APIKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("alphavantage: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.HTTP.DoJSON(ctx, req, out)
}

func classify(symbol domain.Symbol, body envelope) (domain.Quote, error) {
	switch {
	case body.GlobalQuote != nil:
		if len(body.GlobalQuote) == 0 {
			return nil, &application.ProviderError{Symbol: symbol, Message: "empty quote"}
		}
		return domain.Quote(body.GlobalQuote), nil
	case body.Note != nil:
		return nil, &application.RateLimitedError{Symbol: symbol, Note: *body.Note}
	case body.Information != nil:
		return nil, &application.RateLimitedError{Symbol: symbol, Note: *body.Information}
	case body.ErrorMessage != nil:
		if isAuthMessage(*body.ErrorMessage) {
			return nil, &application.AuthError{Message: *body.ErrorMessage}
		}
		return nil, &application.ProviderError{Symbol: symbol, Message: *body.ErrorMessage}
	default:
		return nil, &application.ProviderError{Symbol: symbol, Message: "unexpected response"}
	}
}

func isAuthMessage(msg string) bool {
	return strings.Contains(strings.ToLower(msg), authErrorMarker)
}

func toTransportError(symbol domain.Symbol, err error) error {
	var se *httpx.StatusError
	if errors.As(err, &se) {
		return &application.TransportError{Symbol: symbol, StatusCode: se.StatusCode, Err: err}
	}
	return &application.TransportError{Symbol: symbol, Err: err}
}
