package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/cors"

	"docpilot/internal/docstore"
	"docpilot/internal/log"
)

const (
	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout is the timeout for reading request headers.
	// This prevents Slowloris attacks (CWE-400).
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response.
	// Agent runs can be slow, so this is generous.
	WriteTimeout = 180 * time.Second

	// IdleTimeout is the maximum keep-alive wait between requests.
	IdleTimeout = 120 * time.Second
)

// ServerConfig contains configuration for creating the gateway server.
type ServerConfig struct {
	Logger      log.Logger
	Client      *docstore.Client // Required
	DefaultUser string           // Conversation owner when the request names none
	CORSOrigins []string         // Allowed origins for CORS
	TrustProxy  bool             // Trust X-Real-IP/X-Forwarded-For headers
	RateBurst   int              // Rate limiter burst size per IP (0 = default 60)
}

// Server is the gateway HTTP server.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger
}

// NewServer creates a gateway server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Client == nil {
		return nil, errors.New("docstore client is required")
	}
	if cfg.DefaultUser == "" {
		return nil, errors.New("default user is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	ch := &chatHandler{
		client:      cfg.Client,
		defaultUser: cfg.DefaultUser,
		logger:      logger,
	}
	dh := &docsHandler{client: cfg.Client, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat/message", ch.send)
	mux.HandleFunc("GET /api/chat/conversations", ch.listConversations)
	mux.HandleFunc("GET /api/chat/messages", ch.getMessages)
	mux.HandleFunc("GET /api/docs", dh.getDocument)

	// Rate limiter: per-IP token bucket (1 token/sec refill)
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newRateLimiter(1.0, burst)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		MaxAge:         3600,
	})

	// Build middleware stack (outermost first):
	//   Recovery → RequestID → Tracing → Logging → CORS → RateLimit → Routes
	// RequestID must be before Tracing and Logging so request_id is
	// available to both. CORS must be before RateLimit so preflight
	// OPTIONS gets proper CORS headers.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsHandler.Handler(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = tracingMiddleware()(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w)
		handler.ServeHTTP(w, r)
	})

	// Top-level mux keeps health probes outside the middleware stack.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health)
	topMux.Handle("GET /ready", readiness(cfg.Client, logger))
	topMux.Handle("/", final)

	return &Server{mux: topMux, logger: logger}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run starts the HTTP server on addr and blocks until ctx is canceled or
// the server fails. Shutdown is graceful with a bounded timeout.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
