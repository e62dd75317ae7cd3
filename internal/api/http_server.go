package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"printcalc/internal/config"
	"printcalc/internal/domain"
	"printcalc/internal/metrics"
	"printcalc/internal/pricing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const (
	requestIDHeader = "X-Request-ID"
	maxBodyBytes    = 64 << 10
)

// HealthCheck probes one dependency; a non-nil error marks the service unhealthy.
type HealthCheck func(ctx context.Context) error

// HTTPServer exposes health, metrics and the quote endpoint.
type HTTPServer struct {
	cfg     config.APIConfig
	quoter  domain.Quoter
	limiter *rateLimiter
	checks  map[string]HealthCheck
	server  *http.Server
	logger  *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, quoter domain.Quoter, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{
		cfg:     cfg,
		quoter:  quoter,
		limiter: newRateLimiter(cfg.RateLimit),
		checks:  make(map[string]HealthCheck),
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/api/v1/quote", srv.rateLimit(http.HandlerFunc(srv.handleQuote)))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.requestLogger(mux),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

// AddHealthCheck registers a named probe for /healthz. Call before Start.
func (s *HTTPServer) AddHealthCheck(name string, check HealthCheck) {
	s.checks[name] = check
}

func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			zerolog.Ctx(r.Context()).Warn().Err(err).Str("check", name).Msg("Health check failed")
			continue
		}
		results[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "unavailable"
	}
	writeJSON(w, status, map[string]any{"status": overall, "checks": results})
}

type quoteResponse struct {
	Price         string            `json:"price"`
	UnitPrice     string            `json:"unit_price"`
	DeadlineDays  int               `json:"deadline_days"`
	QuantityUsed  int               `json:"quantity_used"`
	ModifiersUsed []string          `json:"modifiers_used"`
	Warnings      []pricing.Warning `json:"warnings"`
}

func (s *HTTPServer) handleQuote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req pricing.Request
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	res, err := s.quoter.Calculate(r.Context(), req)
	if err != nil {
		code, msg := quoteErrorStatus(err)
		if code == http.StatusInternalServerError {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("Quote failed")
		}
		writeError(w, code, msg)
		return
	}

	resp := quoteResponse{
		Price:         res.Price.StringFixed(2),
		UnitPrice:     res.UnitPrice.String(),
		DeadlineDays:  res.DeadlineDays,
		QuantityUsed:  res.QuantityUsed,
		ModifiersUsed: res.ModifiersUsed,
		Warnings:      res.Warnings,
	}
	if resp.ModifiersUsed == nil {
		resp.ModifiersUsed = []string{}
	}
	if resp.Warnings == nil {
		resp.Warnings = []pricing.Warning{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func quoteErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, pricing.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, pricing.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, pricing.ErrInvalidData):
		return http.StatusUnprocessableEntity, "reference data is inconsistent"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (s *HTTPServer) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(clientKey(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger attaches a request-scoped logger and counts responses per endpoint.
func (s *HTTPServer) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		reqLogger := s.logger.With().Str("request_id", requestID).Logger()
		r = r.WithContext(reqLogger.WithContext(r.Context()))

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		metrics.IncHTTP(endpointLabel(r.URL.Path), recorder.status)
		reqLogger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func endpointLabel(path string) string {
	switch path {
	case "/healthz", "/metrics", "/api/v1/quote":
		return path
	default:
		return "other"
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
