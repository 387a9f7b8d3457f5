package httpserver

import (
	"context"
	"net/http"
	"time"

	"avquotes-service/internal/infrastructure/logx"
	"avquotes-service/internal/infrastructure/tracex"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

const (
	headerRequestID = "X-Request-ID"
	headerTraceID   = "X-Trace-Id"
)

var tracer = otel.Tracer("avquotes-service/http")

// requestMeta travels in the request context so every log line of a request
// can be correlated.
type requestMeta struct {
	RequestID string
	TraceID   string
}

type metaKey struct{}

func metaFrom(ctx context.Context) requestMeta {
	m, _ := ctx.Value(metaKey{}).(requestMeta)
	return m
}

func (m requestMeta) fields() []zap.Field {
	return []zap.Field{zap.String("request_id", m.RequestID), zap.String("trace_id", m.TraceID)}
}

func headerOr(r *http.Request, name string) string {
	if v := r.Header.Get(name); v != "" {
		return v
	}
	return uuid.NewString()
}

// withRequestMeta opens the server span and assigns request and trace ids.
// An active otel span wins over a caller supplied X-Trace-Id.
func withRequestMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path)
		defer span.End()

		meta := requestMeta{RequestID: headerOr(r, headerRequestID)}
		if tid, _, ok := tracex.Fields(ctx); ok {
			meta.TraceID = tid
		} else {
			meta.TraceID = headerOr(r, headerTraceID)
		}
		w.Header().Set(headerRequestID, meta.RequestID)
		w.Header().Set(headerTraceID, meta.TraceID)

		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, metaKey{}, meta)))
	})
}

func withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		began := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		fields := append(metaFrom(r.Context()).fields(),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("took", time.Since(began)),
		)
		logx.L().Info("http.request", fields...)
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			fields := append(metaFrom(r.Context()).fields(), zap.Any("panic", rec))
			logx.L().Error("http.panic", fields...)
			writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		}()
		next.ServeHTTP(w, r)
	})
}
