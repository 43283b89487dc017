// Package http exposes the assistant over a small JSON API next to the chat
// transports: health checks, a message endpoint and category management.
package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"carteira/internal/core"
	"carteira/internal/log"
	"carteira/internal/reply"
)

// Assistant is the part of services.Assistant the API drives.
type Assistant interface {
	Reply(ctx context.Context, sender, text string) reply.Reply
	AddCategory(ctx context.Context, typ core.TransactionType, name string) error
}

// CategoryLister returns the category set in use.
type CategoryLister interface {
	Categories(ctx context.Context) core.CategorySet
}

// Options configure a Server. AllowedSender is the only sender the API
// endpoints accept; left empty, they reject everyone.
type Options struct {
	AllowedSender string
	Logger        *log.Logger
	Now           func() time.Time
}

type Server struct {
	http.Server
	assistant     Assistant
	categories    CategoryLister
	allowedSender string
	logger        *log.Logger
	rateLimiter   *rateLimiter
	metrics       *securityMetrics
	appMetrics    appMetrics
	started       time.Time
	shutdownOnce  sync.Once
}

type appMetrics struct {
	messages int64
	rejected int64
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, assistant Assistant, categories CategoryLister, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		assistant:     assistant,
		categories:    categories,
		allowedSender: opts.AllowedSender,
		logger:        logger,
		rateLimiter:   newRateLimiter(opts.Now),
		metrics:       &securityMetrics{},
		started:       opts.Now(),
	}
	go s.rateLimiter.startCleanup()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("POST /api/messages", s.withSecurity(s.handleMessage))
	mux.HandleFunc("GET /api/categories", s.withSecurity(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.withSecurity(s.handleAddCategory))

	var handler http.Handler = mux
	handler = log.AccessLog(handler)
	handler = log.RequestIDMiddleware(func(r *http.Request) string {
		if id := sanitizeInput(r.Header.Get("X-Request-ID")); id != "" && len(id) <= 64 {
			return id
		}
		return generateRequestID()
	})(handler)
	handler = log.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// withSecurity adds security headers, rejects suspicious requests and rate
// limits mutating calls per client IP.
func (s *Server) withSecurity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientIP := extractClientIP(r)
		securityHeaders(w.Header())

		if detectSuspiciousRequest(r, s.metrics) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request rejected",
				log.FieldClientIP, clientIP, log.FieldPath, r.URL.Path)
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP, s.metrics) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldClientIP, clientIP, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		next(w, r)
	}
}

// Shutdown stops the rate limiter cleanup and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) countMessage(accepted bool) {
	if accepted {
		atomic.AddInt64(&s.appMetrics.messages, 1)
	} else {
		atomic.AddInt64(&s.appMetrics.rejected, 1)
	}
}
