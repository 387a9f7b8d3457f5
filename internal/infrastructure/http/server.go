package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"avquotes-service/internal/application"
	"avquotes-service/internal/domain"
	"avquotes-service/internal/infrastructure/logx"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Server struct {
	svc  *application.QuoteService
	ping func(ctx context.Context) error
}

func NewServer(svc *application.QuoteService) *Server { return &Server{svc: svc} }

// SetReadyCheck installs the check behind /readyz.
func (s *Server) SetReadyCheck(fn func(ctx context.Context) error) { s.ping = fn }

type quoteResponse struct {
	Symbol domain.Symbol `json:"symbol"`
	Quote  domain.Quote  `json:"quote"`
}

type refreshResponse struct {
	RefreshID   string    `json:"refresh_id"`
	Status      string    `json:"status"`
	Error       *string   `json:"error,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s *Server) GetQuotes(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Snapshot(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) GetQuote(w http.ResponseWriter, r *http.Request) {
	sym := chi.URLParam(r, "symbol")
	q, err := s.svc.Quote(r.Context(), sym)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			notFound(w)
			return
		}
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quoteResponse{Symbol: domain.NormalizeSymbol(sym), Quote: q})
}

func (s *Server) GetSensors(w http.ResponseWriter, r *http.Request) {
	readings, err := s.svc.Readings(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, readings)
}

func (s *Server) GetSensor(w http.ResponseWriter, r *http.Request) {
	rd, err := s.svc.Reading(r.Context(), chi.URLParam(r, "symbol"), strings.ToLower(chi.URLParam(r, "field")))
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			notFound(w)
			return
		}
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rd)
}

func (s *Server) RequestRefresh(w http.ResponseWriter, r *http.Request) {
	var idem *string
	if k := strings.TrimSpace(r.Header.Get("X-Idempotency-Key")); k != "" {
		idem = &k
	}
	id, err := s.svc.RequestRefresh(r.Context(), idem)
	if err != nil {
		if errors.Is(err, application.ErrConflict) {
			writeError(w, http.StatusConflict, "idempotency key already used")
			return
		}
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"refresh_id": id})
}

func (s *Server) GetRefresh(w http.ResponseWriter, r *http.Request) {
	job, err := s.svc.GetRefresh(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			notFound(w)
			return
		}
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{
		RefreshID:   job.ID,
		Status:      string(job.Status),
		Error:       job.Error,
		RequestedAt: job.RequestedAt,
		UpdatedAt:   job.UpdatedAt,
	})
}

func (s *Server) GetDiagnostics(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Diagnostics(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type errorEnvelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes before writing the header so an unencodable value turns
// into a 500 envelope instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		logx.L().Error("http.encode_failed", zap.Error(err))
		status = http.StatusInternalServerError
		b, _ = json.Marshal(errorEnvelope{Code: status, Message: http.StatusText(status)})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(b, '\n'))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorEnvelope{Code: status, Message: msg})
}

func notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
}

func internalError(w http.ResponseWriter, err error) {
	logx.L().Error("http.internal_error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}
