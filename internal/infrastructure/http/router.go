package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()
	r.Use(withRequestMeta, withAccessLog, withRecover)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/readyz", s.ready)

	r.Route("/quotes", func(r chi.Router) {
		r.Get("/", s.GetQuotes)
		r.Get("/{symbol}", s.GetQuote)
	})
	r.Route("/sensors", func(r chi.Router) {
		r.Get("/", s.GetSensors)
		r.Get("/{symbol}/{field}", s.GetSensor)
	})
	r.Post("/refresh", s.RequestRefresh)
	r.Get("/refresh/{id}", s.GetRefresh)
	r.Get("/diagnostics", s.GetDiagnostics)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	if s.ping != nil {
		if err := s.ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "storage not ready")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("READY"))
}
