package router

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Fixed-window counter. The first hit sets the key with an expiry so a
// crashed window cannot leak a counter without TTL.
var throttleScript = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 then
	redis.call('EXPIRE', KEYS[1], ARGV[1])
end
return current
`)

// Throttle limits requests per client IP using a Redis fixed window.
//
// When Redis is unreachable the request is allowed through; throttling is a
// safeguard, not a dependency.
func Throttle(client *redis.Client, limit int, window time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := r.RemoteAddr
			if ip == "" {
				next.ServeHTTP(w, r)
				return
			}

			key := fmt.Sprintf("throttle:%s:%s:%s", r.Method, matchedRoutePath(r), ip)
			current, err := throttleScript.Run(r.Context(), client, []string{key}, int(window.Seconds())).Int64()
			if err != nil {
				slog.WarnContext(r.Context(), "throttle check failed, allowing request", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			remaining := int64(limit) - current
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if current > int64(limit) {
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				writeJSON(w, errorResponse{Message: "Too many requests, please try again later"}, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
