package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

type RequestRecorder interface {
	Record(status int, duration time.Duration)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Logger writes one structured line per request and feeds the request
// metrics when a recorder is given.
func Logger(log zerolog.Logger, recorder RequestRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			elapsed := time.Since(start)

			if recorder != nil {
				recorder.Record(rec.status, elapsed)
			}

			event := log.Info()
			if rec.status >= 500 {
				event = log.Error()
			} else if rec.status >= 400 {
				event = log.Warn()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rec.status).
				Int64("durationMs", elapsed.Milliseconds()).
				Str("requestId", GetRequestID(r.Context())).
				Msg("http request")
		})
	}
}
