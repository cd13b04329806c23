// File: internal/middleware/ratelimit.go
package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/iyunix/go-converse/internal/metrics"
	"github.com/iyunix/go-converse/internal/ratelimit"
)

// RateLimitMiddleware limits requests per authenticated user, falling back
// to the client IP when no user is in the context. Mount it after auth.
func RateLimitMiddleware(limiter *ratelimit.MemoryRateLimiter, name string, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identifier := "ip:" + ratelimit.GetClientIP(r)
			if userID, ok := UserIDFromContext(r.Context()); ok {
				identifier = fmt.Sprintf("user:%d", userID)
			}

			allowed, info := limiter.Allow(identifier)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))

			if !allowed {
				log.Warn().Str("limiter", name).Str("key", identifier).Bool("banned", info.Banned).
					Msg("[RateLimit] blocked request")
				m.RecordRateLimited()

				if info.RetryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(info.RetryAfter.Seconds()))))
				}
				writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
