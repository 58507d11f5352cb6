package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/geotelemetry-etl/internal/domain"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// DataService produces and holds the processed document.
type DataService interface {
	ReadinessChecker
	ProcessAll(ctx context.Context, force bool) (*domain.Document, error)
	Current() *domain.Document
	Invalidate() error
}

// envelope is the body of every /api response.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Stats is the /api/data/stats payload.
type Stats struct {
	RunID          string                      `json:"run_id"`
	ProcessingTime time.Time                   `json:"processing_time"`
	TotalRecords   int                         `json:"total_records"`
	Counts         domain.RecordCounts         `json:"counts"`
	ByFormat       map[domain.SourceFormat]int `json:"by_format"`
	ByStatus       map[domain.Status]int       `json:"by_status"`
	CoverageLayers int                         `json:"coverage_layers_count"`
	StatusSummary  domain.StatusSummary        `json:"status_summary"`
	DataCleaning   domain.CleaningSummary      `json:"data_cleaning"`
}

// Server exposes health, readiness, metrics and data endpoints.
type Server struct {
	httpServer *http.Server
	data       DataService
	logger     *slog.Logger
}

// NewServer creates an HTTP server with probe, metrics and /api/data routes.
func NewServer(addr string, data DataService, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			// A forced update decodes every input file inside the request.
			WriteTimeout: 5 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		data:   data,
		logger: logger,
	}

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", handleReady(data))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/data", func(r chi.Router) {
		r.Use(s.logRequests)
		r.Get("/", s.handleData)
		r.Get("/stats", s.handleStats)
		r.Get("/coverage", s.handleCoverage)
		r.Post("/update", s.handleUpdate)
		r.Post("/cache/clear", s.handleClearCache)
	})

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("api request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// handleData returns the current document, producing one when none is held
// or force_update is set. refresh_cache drops the cached document first.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	force, err := queryBool(r, "force_update")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Message: "invalid force_update", Error: err.Error()})
		return
	}
	refresh, err := queryBool(r, "refresh_cache")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Message: "invalid refresh_cache", Error: err.Error()})
		return
	}

	if refresh {
		if err := s.data.Invalidate(); err != nil {
			s.logger.Warn("cache invalidation failed", "error", err)
		}
	}

	doc := s.data.Current()
	if doc == nil || force {
		doc, err = s.data.ProcessAll(r.Context(), force)
		if err != nil {
			s.logger.Error("data processing failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, envelope{
				Message: "data processing failed",
				Error:   err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: doc, Message: "data retrieved"})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	doc := s.data.Current()
	if doc == nil {
		writeNotInitialized(w)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: statsOf(doc), Message: "stats retrieved"})
}

func (s *Server) handleCoverage(w http.ResponseWriter, _ *http.Request) {
	doc := s.data.Current()
	if doc == nil {
		writeNotInitialized(w)
		return
	}
	layers := doc.CoverageLayers
	if layers == nil {
		layers = []domain.CoverageArea{}
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: layers, Message: "coverage retrieved"})
}

// handleUpdate drops every cache file and reprocesses all inputs.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := s.data.Invalidate(); err != nil {
		s.logger.Warn("cache invalidation failed", "error", err)
	}
	doc, err := s.data.ProcessAll(r.Context(), true)
	if err != nil {
		s.logger.Error("data update failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, envelope{Message: "data update failed", Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: statsOf(doc), Message: "data updated"})
}

func (s *Server) handleClearCache(w http.ResponseWriter, _ *http.Request) {
	if err := s.data.Invalidate(); err != nil {
		s.logger.Error("cache clear failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, envelope{Message: "cache clear failed", Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "cache cleared"})
}

func statsOf(doc *domain.Document) Stats {
	return Stats{
		RunID:          doc.Metadata.RunID,
		ProcessingTime: doc.Metadata.ProcessingTime,
		TotalRecords:   doc.Metadata.TotalRecords,
		Counts:         doc.Metadata.Counts,
		ByFormat:       doc.Metadata.ByFormat,
		ByStatus:       doc.Metadata.ByStatus,
		CoverageLayers: len(doc.CoverageLayers),
		StatusSummary:  doc.StatusSummary,
		DataCleaning:   doc.Metadata.DataCleaning,
	}
}

func queryBool(r *http.Request, key string) (bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}

func writeNotInitialized(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, envelope{Message: "data not initialized; request /api/data first"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
