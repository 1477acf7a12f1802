package ratelimit

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/emporia/emporia/internal/metrics"
)

// Middleware returns an HTTP middleware that limits requests per client IP.
func Middleware(limiter Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(GetClientIP(r)) {
				Reject(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Reject writes the 429 response and counts it.
func Reject(w http.ResponseWriter) {
	metrics.RateLimited.Inc()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "60")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": "Too many requests, please try again later",
	})
}

// GetClientIP extracts the client IP address from the request.
// It checks X-Forwarded-For header first (for proxied requests),
// then X-Real-IP, and finally falls back to RemoteAddr.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Take the first IP (original client)
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
