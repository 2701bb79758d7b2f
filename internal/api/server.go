// Package api exposes scans over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"IntradayScreener/internal/collector"
	"IntradayScreener/internal/model"
	"IntradayScreener/internal/scanner"
)

// Scanner runs one scan pass.
type Scanner interface {
	Scan(ctx context.Context, symbols []string, interval model.Interval, lookbackDays int) *model.ScanResult
}

// Defaults fill query parameters the caller leaves out.
type Defaults struct {
	Symbols  []string
	Interval model.Interval
	Lookback int
}

// Server serves GET /api/v1/scan and GET /healthz.
type Server struct {
	scanner  Scanner
	defaults Defaults
	logger   zerolog.Logger
	handler  http.Handler
}

// NewServer builds the HTTP handler around sc.
func NewServer(sc Scanner, defaults Defaults) *Server {
	s := &Server{
		scanner:  sc,
		defaults: defaults,
		logger:   log.With().Str("component", "api").Logger(),
	}
	s.handler = s.newRouter()
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler { return s.handler }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info().Msg("HTTP server stopped")
	return nil
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ok")
}

// scan handles GET /api/v1/scan?symbols=A,B&interval=5m&lookback=3.
func (s *Server) scan(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	symbols := s.defaults.Symbols
	if raw := q.Get("symbols"); raw != "" {
		symbols = scanner.ParseSymbols(raw)
	}
	if len(symbols) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("no symbols given"))
		return
	}

	interval := s.defaults.Interval
	if raw := q.Get("interval"); raw != "" {
		iv, err := model.ParseInterval(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		interval = iv
	}

	lookback := s.defaults.Lookback
	if raw := q.Get("lookback"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("lookback %q is not a number", raw))
			return
		}
		lookback = n
	}
	if err := collector.ValidateLookback(lookback); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusOK, s.scanner.Scan(r.Context(), symbols, interval, lookback))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
