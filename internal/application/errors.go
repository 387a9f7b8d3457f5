package application

import (
	"errors"
	"fmt"

	"avquotes-service/internal/domain"
)

var ErrNotFound = errors.New("not found")
var ErrConflict = errors.New("conflict")

var (
	// ErrAuth signals that the provider rejected the API key; callers should
	// ask for new credentials instead of retrying.
	ErrAuth             = errors.New("authentication failed")
	ErrAllSymbolsFailed = errors.New("failed to fetch any symbol")
)

// TransportError covers network failures, timeouts, non-200 statuses and
// undecodable bodies. StatusCode is zero when no response was received.
type TransportError struct {
	Symbol     domain.Symbol
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.Symbol, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.Symbol, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RateLimitedError is returned when the provider answers with a quota note.
type RateLimitedError struct {
	Symbol domain.Symbol
	Note   string
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited on %s: %s", e.Symbol, e.Note)
}

type ProviderError struct {
	Symbol  domain.Symbol
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error for %s: %s", e.Symbol, e.Message)
}

type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return "invalid api key: " + e.Message }
func (e *AuthError) Unwrap() error { return ErrAuth }
