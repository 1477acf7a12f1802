package gateway

import (
	"net/http"

	"github.com/emporia/emporia/internal/core/identity/authn"
	"github.com/emporia/emporia/internal/core/identity/authz"
	"github.com/emporia/emporia/internal/gateway/config"
	"github.com/emporia/emporia/internal/gateway/rest"
	"github.com/emporia/emporia/internal/metrics"
	"github.com/emporia/emporia/internal/server/ratelimit"
)

// Server is a route registrar for the API layer.
// It mounts the storefront REST API and the metrics endpoint on a ServeMux.
type Server struct {
	rest    *rest.Handler
	metrics config.MetricsConfig
}

// ServerOption is a function that configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	authRateLimiter ratelimit.Limiter
	gateway         config.GatewayConfig
}

// WithAuthRateLimiter applies a stricter rate limiter to the credential routes.
func WithAuthRateLimiter(limiter ratelimit.Limiter) ServerOption {
	return func(c *serverConfig) {
		c.authRateLimiter = limiter
	}
}

// WithConfig sets the gateway configuration. Without it metrics stay unmounted.
func WithConfig(cfg config.GatewayConfig) ServerOption {
	return func(c *serverConfig) {
		c.gateway = cfg
	}
}

// NewServer creates a new API Server (route registrar).
func NewServer(auth authn.Service, policy authz.Engine, svc rest.Services, opts ...ServerOption) *Server {
	cfg := &serverConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	var restOpts []rest.HandlerOption
	if cfg.authRateLimiter != nil {
		restOpts = append(restOpts, rest.WithAuthRateLimiter(cfg.authRateLimiter))
	}

	return &Server{
		rest:    rest.NewHandler(auth, policy, svc, restOpts...),
		metrics: cfg.gateway.Metrics,
	}
}

// RegisterRoutes registers all API routes to the given ServeMux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	s.rest.RegisterRoutes(mux)

	if s.metrics.Enabled {
		mux.Handle("GET "+s.metrics.Path, metrics.Handler())
	}
}
