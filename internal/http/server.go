// Package http serves the JSON API over the ledger and the aggregator.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Kristiina602/collecting-stock/internal/log"
	"github.com/Kristiina602/collecting-stock/internal/middleware/ratelimit"
	"github.com/Kristiina602/collecting-stock/internal/middleware/security"
	"github.com/Kristiina602/collecting-stock/internal/middleware/trace"
	"github.com/Kristiina602/collecting-stock/internal/services"
)

// Options wires a Server. Ready may be nil, in which case the server is
// always ready. TrustedProxies are CIDRs allowed to set forwarding headers
// on top of the loopback and private ranges.
type Options struct {
	Addr               string
	Ledger             *services.Ledger
	Aggregator         *services.Aggregator
	Ready              func(ctx context.Context) error
	Logger             *log.Logger
	RateLimitPerMinute int
	TrustedProxies     []string
}

type Server struct {
	http.Server
	ledger      *services.Ledger
	aggregator  *services.Aggregator
	ready       func(ctx context.Context) error
	logger      *log.Logger
	rateLimiter *ratelimit.Limiter
	detector    *security.Detector
	tracer      *trace.Middleware

	shutdownOnce sync.Once
}

const readyTimeout = 2 * time.Second

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server. It fails only on a malformed trusted proxy CIDR.
func NewServer(opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		ledger:     opts.Ledger,
		aggregator: opts.Aggregator,
		ready:      opts.Ready,
		logger:     logger,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
		}),
		detector: security.NewDetector(),
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	s.routes(mux)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/users", s.handleCreateUser)
	mux.HandleFunc("GET /api/users", s.handleListUsers)
	mux.HandleFunc("GET /api/users/{id}", s.handleGetUser)
	mux.HandleFunc("DELETE /api/users/{id}", s.handleDeleteUser)
	mux.HandleFunc("GET /api/users/{id}/profit", s.handleUserProfit)
	mux.HandleFunc("GET /api/sales", s.handleSales)

	mux.HandleFunc("POST /api/stock", s.handleCreateRecord)
	mux.HandleFunc("GET /api/stock", s.handleListRecords)
	mux.HandleFunc("GET /api/stock/years", s.handleRecordYears)
	mux.HandleFunc("GET /api/stock/{id}", s.handleGetRecord)
	mux.HandleFunc("PUT /api/stock/{id}", s.handleUpdateRecord)
	mux.HandleFunc("DELETE /api/stock/{id}", s.handleDeleteRecord)

	mux.HandleFunc("PUT /api/prices", s.handleUpsertPrice)
	mux.HandleFunc("POST /api/prices", s.handleUpsertPrice)
	mux.HandleFunc("GET /api/prices", s.handleListPrices)
	mux.HandleFunc("GET /api/prices/current", s.handleCurrentPrice)
	mux.HandleFunc("GET /api/prices/years", s.handlePriceYears)
	mux.HandleFunc("GET /api/prices/analysis", s.handlePriceAnalysis)
	mux.HandleFunc("DELETE /api/prices/{id}", s.handleDeletePrice)
}

// middleware wraps h, outermost first: tracing and logging, security
// headers, method screening, then rate limiting of mutating requests.
func (s *Server) middleware(h http.Handler) http.Handler {
	limited := s.rateLimiter.Middleware(s.detector.ExtractClientIP, ratelimit.Mutating, s.onRateLimited)(h)
	screened := s.detector.Middleware(s.logger)(limited)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(screened)
	return s.tracer.Middleware(headers)
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, envelope{Error: "Rate limit exceeded. Please try again later."})
}

// Shutdown gracefully shuts down the server and its background routines,
// then logs the request counters gathered by the middleware.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)

		traffic := s.tracer.GetMetrics()
		screening := s.detector.GetMetrics()
		s.logger.Info("HTTP server stopped",
			"total_requests", traffic.TotalRequests,
			"avg_response_us", traffic.AverageResponseTime,
			"suspicious_requests", screening.SuspiciousRequests,
			"rejected_requests", screening.RejectedRequests,
			"rate_limited_clients", s.rateLimiter.ActiveClients())
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
