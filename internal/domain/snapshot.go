package domain

import "time"

// Snapshot is the latest quote set together with the outcome of the most
// recent cycle. Symbols only change on a successful cycle.
type Snapshot struct {
	Symbols           QuoteSet  `json:"symbols"`
	UpdatedAt         time.Time `json:"updated_at"`
	LastAttemptAt     time.Time `json:"last_attempt_at"`
	LastUpdateSuccess bool      `json:"last_update_success"`
	LastError         string    `json:"last_error,omitempty"`
	ReauthRequired    bool      `json:"reauth_required"`
}

func (s Snapshot) Quote(sym Symbol) (Quote, bool) {
	q, ok := s.Symbols[sym]
	return q, ok
}

// Stale reports whether the last attempt did not produce fresh data.
func (s Snapshot) Stale() bool {
	return !s.LastAttemptAt.IsZero() && !s.LastUpdateSuccess
}
