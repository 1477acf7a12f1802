package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/emporia/emporia/internal/server/ratelimit"
)

type serverImpl struct {
	cfg    Config
	logger *slog.Logger

	// HTTP State
	httpMux    *http.ServeMux
	httpServer *http.Server

	// Rate Limiting
	rateLimiter     ratelimit.Limiter // General rate limiter
	authRateLimiter ratelimit.Limiter // Stricter auth-specific rate limiter

	// Lifecycle State
	mu      sync.Mutex
	started bool
}

// New creates a new Service instance.
func New(cfg Config, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "server")

	s := &serverImpl{
		cfg:     cfg,
		logger:  logger,
		httpMux: http.NewServeMux(),
	}

	if cfg.RateLimit.Enabled {
		s.rateLimiter = ratelimit.NewMemoryLimiter(ratelimit.Config{
			Enabled:  true,
			Requests: cfg.RateLimit.Requests,
			Window:   cfg.RateLimit.Window,
		})
		authWindow := cfg.RateLimit.AuthWindow
		if authWindow == 0 {
			authWindow = cfg.RateLimit.Window
		}
		s.authRateLimiter = ratelimit.NewMemoryLimiter(ratelimit.Config{
			Enabled:  true,
			Requests: cfg.RateLimit.AuthRequests,
			Window:   authWindow,
		})
	}

	return s
}

func (s *serverImpl) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("server already started")
	}
	s.started = true

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port)),
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.HTTPReadTimeout,
		WriteTimeout: s.cfg.HTTPWriteTimeout,
		IdleTimeout:  s.cfg.HTTPIdleTimeout,
	}
	srv := s.httpServer
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return nil // Normal shutdown signal
	}
}

func (s *serverImpl) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.httpServer != nil {
		s.logger.Info("Stopping HTTP server")
		if serr := s.httpServer.Shutdown(ctx); serr != nil {
			err = fmt.Errorf("http shutdown error: %w", serr)
		}
	}

	// Stop rate limiter cleanup goroutines
	for _, l := range []ratelimit.Limiter{s.rateLimiter, s.authRateLimiter} {
		if stoppable, ok := l.(ratelimit.Stoppable); ok {
			stoppable.Stop()
		}
	}
	return err
}

func (s *serverImpl) RegisterHTTPHandler(pattern string, handler http.Handler) {
	s.httpMux.Handle(pattern, handler)
}

func (s *serverImpl) HTTPMux() *http.ServeMux {
	return s.httpMux
}

func (s *serverImpl) AuthRateLimiter() ratelimit.Limiter {
	return s.authRateLimiter
}

func (s *serverImpl) Handler() http.Handler {
	return s.wrapMiddleware(s.httpMux)
}
