package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/vidaflow/backend/internal/ratelimit"
	"github.com/vidaflow/backend/pkg/utils"
)

type ctxKey int

const rateLimitKey ctxKey = iota

// ClientIdentity derives the rate-limit identity from forwarded-IP headers.
// The first X-Forwarded-For hop wins, then X-Real-IP, then "unknown".
func ClientIdentity(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return "unknown"
}

// RateLimit checks every request against the limiter, stamps the
// X-RateLimit-* headers, and rejects with 429 when the client's window is
// exhausted. The decision is stored on the request context so handlers can
// echo live rate-limit metadata in their bodies.
func RateLimit(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := limiter.Check(ClientIdentity(r))

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.Reset, 10))

			if !result.Allowed {
				utils.RespondError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			ctx := context.WithValue(r.Context(), rateLimitKey, result)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimitFrom returns the decision recorded by the RateLimit middleware.
func RateLimitFrom(ctx context.Context) (ratelimit.Result, bool) {
	result, ok := ctx.Value(rateLimitKey).(ratelimit.Result)
	return result, ok
}
