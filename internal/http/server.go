package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"bilancio/internal/categories"
	"bilancio/internal/log"
	"bilancio/internal/services"

	"github.com/google/uuid"
)

// Server serves the JSON API on top of the month service and category store.
type Server struct {
	http.Server
	months     *services.MonthService
	categories *categories.Store
	ready      func(ctx context.Context) error
	logger     *log.Logger

	rateLimiter  *rateLimiter
	metrics      securityMetrics
	now          func() time.Time
	shutdownOnce sync.Once
}

type ServerOption func(*Server)

// WithReadiness sets the check behind /readyz.
func WithReadiness(check func(ctx context.Context) error) ServerOption {
	return func(s *Server) { s.ready = check }
}

func WithLogger(l *log.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// WithRateLimit sets how many mutating requests a client may send per minute.
func WithRateLimit(perMinute int) ServerOption {
	return func(s *Server) { s.rateLimiter = newRateLimiter(perMinute) }
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, months *services.MonthService, cats *categories.Store, opts ...ServerOption) *Server {
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		months:      months,
		categories:  cats,
		ready:       func(context.Context) error { return nil },
		rateLimiter: newRateLimiter(defaultRateLimit),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(log.Config{Level: slog.LevelInfo, Component: log.ComponentHTTP})
	}
	go s.rateLimiter.startCleanup()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/months/{month}", s.handleMonth)
	mux.HandleFunc("PUT /api/months/{month}/initial-balance", s.handleSetInitialBalance)

	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}/category", s.handleLinkTransactionCategory)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.HandleFunc("POST /api/budgets", s.handleCreateBudget)
	mux.HandleFunc("PUT /api/budgets/{id}", s.handleUpdateBudget)
	mux.HandleFunc("DELETE /api/budgets/{id}", s.handleDeleteBudget)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("PUT /api/categories/{id}", s.handleUpdateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	var handler http.Handler = mux
	handler = s.withSecurity(handler)
	handler = log.AccessLog(extractClientIP)(handler)
	handler = log.RequestIDMiddleware(requestID)(handler)
	handler = log.Middleware(s.logger)(handler)
	s.Handler = handler
	return s
}

// Shutdown stops background cleanup and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withSecurity sets security headers, logs scanner traffic and rate limits
// mutating requests.
func (s *Server) withSecurity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		clientIP := extractClientIP(r)
		setSecurityHeaders(w.Header())
		w.Header().Set("X-Request-ID", log.RequestIDFromContext(ctx))

		if detectSuspiciousRequest(r, &s.metrics) {
			log.FromContext(ctx).WarnContext(ctx, "Suspicious request",
				log.FieldClientIP, clientIP, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
		}

		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP, &s.metrics) {
			log.FromContext(ctx).WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
			ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").
				Header("Retry-After", strconv.Itoa(int(s.rateLimiter.retryAfter(clientIP).Seconds()))).
				Write(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

// requestID reuses a well-formed X-Request-ID header or mints a new UUID.
func requestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		if _, err := uuid.Parse(id); err == nil {
			return id
		}
	}
	return uuid.NewString()
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	NewJSONResponse().Data(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.ready(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
		ErrorResponse(http.StatusServiceUnavailable, "not ready").Write(w)
		return
	}
	NewJSONResponse().Data(map[string]string{"status": "ready"}).Write(w)
}
