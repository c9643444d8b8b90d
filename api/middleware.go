package api

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/vkoehler/memtrace/lib/recorder"
)

// --------------------------------------------------------------------------
// Middleware (logging)
// --------------------------------------------------------------------------

// statusWriter is a custom ResponseWriter that captures the status code
type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code before writing it
func (sw *statusWriter) WriteHeader(code int) {
	sw.statusCode = code
	sw.ResponseWriter.WriteHeader(code)
}

// requestLogger logs every handled request with method, path, status
// and duration.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			sw := &statusWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(sw, r)

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", sw.statusCode).
				Dur("duration", time.Since(start)).
				Msg("handled request")
		})
	}
}

// --------------------------------------------------------------------------
// Middleware (trace sampling)
// --------------------------------------------------------------------------

// traceSampler triggers a trace on every Nth handled request. The trace
// runs after the response has been written so request latency stays
// unaffected by the garbage collection pass.
func traceSampler(rec *recorder.Recorder, every int, logger zerolog.Logger) func(http.Handler) http.Handler {
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)

			if counter.Add(1)%uint64(every) != 0 {
				return
			}
			if _, err := rec.Trace(); err != nil {
				logger.Error().Err(err).Msg("sampled trace failed")
			}
		})
	}
}
