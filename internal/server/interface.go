package server

import (
	"context"
	"net/http"

	"github.com/emporia/emporia/internal/server/ratelimit"
)

// Service is the HTTP listener with the shared middleware chain.
type Service interface {
	// Start starts the HTTP listener.
	// It blocks until a fatal error occurs or the context is canceled.
	Start(ctx context.Context) error

	// Stop initiates a graceful shutdown.
	// It waits for active connections to drain or for the context to expire.
	Stop(ctx context.Context) error

	// RegisterHTTPHandler registers a handler for a specific pattern.
	// This must be called BEFORE Start().
	RegisterHTTPHandler(pattern string, handler http.Handler)

	// HTTPMux returns the underlying HTTP ServeMux for direct route registration.
	// This must be called BEFORE Start().
	HTTPMux() *http.ServeMux

	// AuthRateLimiter is the stricter limiter for credential routes, or nil
	// when rate limiting is disabled.
	AuthRateLimiter() ratelimit.Limiter

	// Handler returns the mux wrapped in the middleware chain.
	Handler() http.Handler
}
