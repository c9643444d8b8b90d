package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/VictoriaMetrics/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/vkoehler/memtrace/lib/cache"
	"github.com/vkoehler/memtrace/lib/record"
	"github.com/vkoehler/memtrace/lib/recorder"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	defaultLimit = 10  // Records returned when no limit parameter is given
	maxLimit     = 100 // Upper bound for the limit parameter
)

// --------------------------------------------------------------------------
// Wire Types
// --------------------------------------------------------------------------

// TraceResponse is the body returned after a successful trace.
type TraceResponse struct {
	Index uint64 `json:"index"`
}

// RecordPosition is one position of a retrieval response. Missing is
// true when the snapshot for this index was evicted; Record is only
// set when the snapshot was fetched and decoded.
type RecordPosition struct {
	Index   uint64         `json:"index"`
	Missing bool           `json:"missing"`
	Record  *record.Record `json:"record,omitempty"`
}

// RecordsResponse is the body of a retrieval response, newest first.
type RecordsResponse struct {
	Records []RecordPosition `json:"records"`
}

// errorResponse carries a machine-readable error message.
type errorResponse struct {
	Error string `json:"error"`
}

// --------------------------------------------------------------------------
// Server
// --------------------------------------------------------------------------

// ServerConfig configures the HTTP surface of the recorder.
type ServerConfig struct {
	// Endpoint is the listen address, e.g. ":8080".
	Endpoint string

	// SampleEvery triggers a trace every Nth handled request. 0
	// disables request-driven tracing.
	SampleEvery int
}

// Server exposes a recorder over HTTP.
type Server struct {
	recorder   *recorder.Recorder
	cfg        ServerConfig
	logger     zerolog.Logger
	router     chi.Router
	httpServer *http.Server
}

// NewServer wires the routes for the given recorder. The logger may be
// nil for a silent server.
func NewServer(rec *recorder.Recorder, cfg ServerConfig, logger *zerolog.Logger) *Server {
	log := zerolog.Nop()
	if logger != nil {
		log = *logger
	}

	s := &Server{
		recorder: rec,
		cfg:      cfg,
		logger:   log,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))
	if cfg.SampleEvery > 0 {
		r.Use(traceSampler(rec, cfg.SampleEvery, s.logger))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/trace", s.handleTrace)
		r.Get("/records", s.handleRecords)
	})
	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)

	s.router = r
	return s
}

// Router returns the configured route tree, e.g. for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// ListenAndServe starts the server and blocks until it is shut down.
func (s *Server) ListenAndServe() error {
	s.httpServer = &http.Server{
		Addr:    s.cfg.Endpoint,
		Handler: s.router,
	}
	s.logger.Info().Str("endpoint", s.cfg.Endpoint).Msg("starting HTTP server")
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// --------------------------------------------------------------------------
// Handlers
// --------------------------------------------------------------------------

// handleTrace runs one trace and reports the allocated index.
func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	index, err := s.recorder.Trace()
	if err != nil {
		s.logger.Error().Err(err).Msg("trace failed")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, TraceResponse{Index: index})
}

// handleRecords returns the most recent snapshots, newest first.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	limit, err := queryUint(r, "limit", defaultLimit)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a non-negative integer"})
		return
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset, err := queryUint(r, "offset", 0)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "offset must be a non-negative integer"})
		return
	}

	snapshots, err := s.recorder.GetRecords(limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Msg("retrieval failed")
		writeError(w, err)
		return
	}

	resp := RecordsResponse{Records: make([]RecordPosition, 0, len(snapshots))}
	for _, snap := range snapshots {
		pos := RecordPosition{Index: snap.Index}
		if snap.Err != nil {
			pos.Missing = true
		} else {
			pos.Record = snap.Record
		}
		resp.Records = append(resp.Records, pos)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleMetrics exposes all registered metrics in Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	metrics.WritePrometheus(w, true)
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// queryUint parses an optional unsigned query parameter.
func queryUint(r *http.Request, name string, fallback uint64) (uint64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseUint(raw, 10, 64)
}

// writeJSON serializes a response body with the given status code.
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps backend failures to status codes. An unreachable
// cache is a 503 since a retry may hit a recovered backend; everything
// else is a 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if cache.IsUnavailable(err) {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
