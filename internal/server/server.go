// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the search pipeline and the search history over a
// JSON HTTP API for a browser form.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/advisor-search/internal/history"
	"github.com/pdiddy/advisor-search/internal/metrics"
	"github.com/pdiddy/advisor-search/internal/search"
	"github.com/pdiddy/advisor-search/pkg/types"
)

// maxBodyBytes bounds a search request body.
const maxBodyBytes = 64 << 10

// Response statuses of POST /api/search. They are mutually exclusive.
const (
	StatusOK    = "ok"
	StatusEmpty = "empty"
	StatusError = "error"
)

// Searcher runs one search. *search.Searcher implements it.
type Searcher interface {
	Run(ctx context.Context, req types.SearchRequest) search.Report
}

// History stores and reads recorded searches. *history.Store implements it.
type History interface {
	Record(ctx context.Context, e history.Entry) (history.Entry, error)
	List(ctx context.Context, opts history.ListOptions) ([]history.Entry, error)
	Get(ctx context.Context, id string) (history.Entry, error)
}

// Options configures a Server. History and Metrics are optional.
type Options struct {
	Searcher Searcher
	History  History
	Metrics  *metrics.Metrics
	Provider string
	// Record stores every search in History.
	Record bool
	Logger *logrus.Logger
}

// Server handles the HTTP API.
type Server struct {
	opts Options
	log  *logrus.Logger
}

// New returns a Server for opts.
func New(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{opts: opts, log: log}
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Post("/api/search", s.search)
	r.Get("/api/history", s.listHistory)
	r.Get("/api/history/{id}", s.getHistory)
	r.Get("/health", s.health)
	if s.opts.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Metrics.Registry, promhttp.HandlerOpts{}))
	}
	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

type searchResponse struct {
	Status   string                  `json:"status"`
	Results  []types.ProfessorRecord `json:"results"`
	Attempts int                     `json:"attempts,omitempty"`
	ID       string                  `json:"id,omitempty"`
}

type errorResponse struct {
	Status   string `json:"status"`
	Error    string `json:"error"`
	Attempts int    `json:"attempts,omitempty"`
	ID       string `json:"id,omitempty"`
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	var body types.SearchRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeJSONStatus(w, errorResponse{Status: StatusError, Error: "request body must be a JSON search request"}, http.StatusBadRequest)
		return
	}

	req, err := types.NewSearchRequest(body.Keywords, body.Filters)
	if err != nil {
		writeJSONStatus(w, errorResponse{Status: StatusError, Error: err.Error()}, http.StatusBadRequest)
		return
	}

	rep := s.opts.Searcher.Run(r.Context(), req)

	var id string
	if s.opts.Record && s.opts.History != nil {
		// The request context is done once the client goes away; the
		// canceled search is still recorded.
		entry, err := s.opts.History.Record(context.WithoutCancel(r.Context()), history.FromReport(rep, s.opts.Provider))
		if err != nil {
			s.log.WithError(err).Warn("recording search failed")
		} else {
			id = entry.ID
		}
	}

	if rep.Err != nil {
		writeJSONStatus(w, errorResponse{
			Status:   StatusError,
			Error:    rep.Err.Message,
			Attempts: rep.Attempts,
			ID:       id,
		}, statusFor(rep.Err.Kind))
		return
	}

	resp := searchResponse{Status: StatusOK, Results: rep.Records, Attempts: rep.Attempts, ID: id}
	if len(resp.Results) == 0 {
		resp.Status = StatusEmpty
		resp.Results = []types.ProfessorRecord{}
	}
	writeJSONStatus(w, resp, http.StatusOK)
}

// statusFor maps a failure kind to an HTTP status.
func statusFor(kind search.Kind) int {
	switch kind {
	case search.KindInvalid:
		return http.StatusBadRequest
	case search.KindQuota:
		return http.StatusTooManyRequests
	case search.KindConfig:
		return http.StatusInternalServerError
	case search.KindCanceled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	if s.opts.History == nil {
		writeJSONStatus(w, map[string]string{"error": "history is disabled"}, http.StatusNotFound)
		return
	}

	opts := history.ListOptions{Keyword: r.URL.Query().Get("keyword")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeJSONStatus(w, map[string]string{"error": fmt.Sprintf("invalid limit %q", raw)}, http.StatusBadRequest)
			return
		}
		opts.Limit = limit
	}

	entries, err := s.opts.History.List(r.Context(), opts)
	if err != nil {
		s.log.WithError(err).Error("listing history failed")
		writeJSONStatus(w, map[string]string{"error": "could not read history"}, http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSONStatus(w, map[string]any{"searches": entries}, http.StatusOK)
}

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	if s.opts.History == nil {
		writeJSONStatus(w, map[string]string{"error": "history is disabled"}, http.StatusNotFound)
		return
	}

	entry, err := s.opts.History.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, history.ErrNotFound) {
		writeJSONStatus(w, map[string]string{"error": "search not found"}, http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.WithError(err).Error("reading history failed")
		writeJSONStatus(w, map[string]string{"error": "could not read history"}, http.StatusInternalServerError)
		return
	}
	writeJSONStatus(w, entry, http.StatusOK)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSONStatus(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func writeJSONStatus(w http.ResponseWriter, value any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(value)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			return
		}
		s.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start),
			"request_id": middleware.GetReqID(r.Context()),
		}).Info("request")
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
