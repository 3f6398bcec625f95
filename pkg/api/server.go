// Package api exposes the analysis workflow and the reference data
// endpoints over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/tradegraph/tradegraph/pkg/analysis"
	"github.com/tradegraph/tradegraph/pkg/market/store"
)

// AnalysisRunner runs one analysis request to completion.
type AnalysisRunner interface {
	Run(ctx context.Context, req analysis.Request) (analysis.State, error)
}

// Server is the HTTP API over the analysis runner and the data store.
type Server struct {
	httpServer *http.Server
	runner     AnalysisRunner
	store      store.Store
	logger     *slog.Logger
}

// NewServer creates an API server bound to addr.
// logger may be nil, in which case slog.Default() is used.
func NewServer(addr string, runner AnalysisRunner, st store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		runner: runner,
		store:  st,
		logger: logger,
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/analyze", s.handleAnalyze)
	mux.HandleFunc("/api/data/hsn-codes", s.handleCodes)
	mux.HandleFunc("/api/data/countries", s.handleCountries)
	return mux
}

// Start begins serving HTTP requests in the background.
func (s *Server) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.logger.Info("api server listening", "addr", s.httpServer.Addr)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server", "error", err.Error())
		}
	}()
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response", "error", err.Error())
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// POST /api/analyze runs one analysis request.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req analysis.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	state, err := s.runner.Run(r.Context(), req)
	if err != nil {
		var verr *analysis.ValidationError
		if errors.As(err, &verr) {
			s.writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		s.logger.Error("analysis run failed", "error", err.Error())
		s.writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	if state.Error != "" {
		s.writeJSON(w, http.StatusInternalServerError, state)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

// GET /api/data/hsn-codes lists the distinct product classification codes.
func (s *Server) handleCodes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	codes, err := s.store.Codes(r.Context())
	if err != nil {
		s.logger.Error("listing hsn codes", "error", err.Error())
		s.writeError(w, http.StatusInternalServerError, "listing hsn codes failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"hsn_codes": codes})
}

// GET /api/data/countries lists the distinct country names.
func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	countries, err := s.store.Countries(r.Context())
	if err != nil {
		s.logger.Error("listing countries", "error", err.Error())
		s.writeError(w, http.StatusInternalServerError, "listing countries failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"countries": countries})
}
