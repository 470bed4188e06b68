package middleware

import (
	"net"
	"net/http"

	"github.com/rs/zerolog/log"

	"inkpost/internal/ratelimit"
	"inkpost/internal/response"
)

// RateLimit returns a middleware that rate-limits by client IP. When the
// limiter itself fails the request is let through and the failure logged.
func RateLimit(l ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := l.Allow(r.Context(), clientIP(r))
			if err != nil {
				log.Warn().Err(err).Str("path", r.URL.Path).Msg("rate limiter unavailable")
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				response.Fail(w, http.StatusTooManyRequests, "too many requests, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the host part of the remote address. Proxy headers are
// only honoured when chi's RealIP has already rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
