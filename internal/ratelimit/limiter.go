// Package ratelimit provides fixed-window request limiting for the guest
// auth routes.
package ratelimit

import (
	"context"
	"net"
	"net/http"

	"github.com/companyhub/company-api/internal/httputil"
	"github.com/companyhub/company-api/internal/logging"
)

// Limiter reports whether another request is allowed under the given key.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Middleware rejects requests over the limit with a 429 envelope.
// Requests are keyed by client IP.
func Middleware(limiter Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := limiter.Allow(r.Context(), clientIP(r))
			if err != nil {
				// Fail open so a limiter outage does not take auth down
				logger := logging.GetLoggerFromContext(r.Context())
				logger.Error("rate limiter check failed", "error", err.Error())
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				httputil.WithErrorStatus(w, "Too many attempts, please try again later.", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	// RealIP middleware rewrites RemoteAddr from X-Forwarded-For
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
