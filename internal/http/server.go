// Package http exposes the JSON API the mobile app consumes: record writes,
// on-demand analyses, and the precomputed suggestion feed.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"budgetbridge/internal/analysis"
	"budgetbridge/internal/cache"
	"budgetbridge/internal/core"
	"budgetbridge/internal/services"
)

// Recorder is the write surface behind the record endpoints.
type Recorder interface {
	CreateExpense(ctx context.Context, e core.ExpenseRecord) (string, error)
	CreateIncome(ctx context.Context, in core.IncomeRecord) (string, error)
	CreateGoal(ctx context.Context, g core.GoalRecord) (string, error)
	UpdateGoalAmount(ctx context.Context, user, id string, current core.Money) error
	DeleteExpense(ctx context.Context, user, id string) error
}

// Analyzer runs the on-demand analyses.
type Analyzer interface {
	AnalyzeSpending(ctx context.Context, user string) services.SpendingResult
	AnalyzeSavings(ctx context.Context, user string) services.SavingsResult
	Suggest(ctx context.Context, user string) ([]analysis.Suggestion, error)
}

// SuggestionReader serves the worker-precomputed suggestion feed.
type SuggestionReader interface {
	ListSuggestions(ctx context.Context, user string) ([]analysis.Suggestion, error)
}

type Server struct {
	http.Server
	recorder    Recorder
	analyzer    Analyzer
	suggestions SuggestionReader
	rateLimiter *rateLimiter

	// Analysis responses cached per user, invalidated on that user's writes.
	spendingCache *cache.LRUCache[services.SpendingResult]
	savingsCache  *cache.LRUCache[services.SavingsResult]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// Options tunes server-internal caching.
type Options struct {
	CacheSize int
	CacheTTL  time.Duration
}

// NewServer wires routes and starts the cache and rate limiter janitors.
func NewServer(addr string, recorder Recorder, analyzer Analyzer, suggestions SuggestionReader, opts Options) *Server {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		recorder:         recorder,
		analyzer:         analyzer,
		suggestions:      suggestions,
		rateLimiter:      newRateLimiter(),
		spendingCache:    cache.NewLRUCache[services.SpendingResult](opts.CacheSize, opts.CacheTTL),
		savingsCache:     cache.NewLRUCache[services.SavingsResult](opts.CacheSize, opts.CacheTTL),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.HandleFunc("POST /expenses", s.withMiddleware(s.handleCreateExpense))
	mux.HandleFunc("DELETE /expenses/{id}", s.withMiddleware(s.handleDeleteExpense))
	mux.HandleFunc("POST /incomes", s.withMiddleware(s.handleCreateIncome))
	mux.HandleFunc("POST /goals", s.withMiddleware(s.handleCreateGoal))
	mux.HandleFunc("PATCH /goals/{id}", s.withMiddleware(s.handleUpdateGoalAmount))
	mux.HandleFunc("GET /analysis/spending", s.withMiddleware(s.handleSpendingAnalysis))
	mux.HandleFunc("GET /analysis/savings", s.withMiddleware(s.handleSavingsAnalysis))
	mux.HandleFunc("GET /suggestions", s.withMiddleware(s.handleListSuggestions))

	return s
}

// withMiddleware adds request IDs, security headers, rate limiting for
// writes, and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			spending := s.spendingCache.CleanExpired()
			savings := s.savingsCache.CleanExpired()
			if spending > 0 || savings > 0 {
				slog.Debug("Cache cleanup completed",
					"spending_entries_removed", spending,
					"savings_entries_removed", savings)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// invalidateUser drops all cached analyses for one user after a write.
func (s *Server) invalidateUser(user string) {
	s.spendingCache.Invalidate(user)
	s.savingsCache.Invalidate(user)
}

// Shutdown stops the janitor goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		close(s.stopCacheCleanup)
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
