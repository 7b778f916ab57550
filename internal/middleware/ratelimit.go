package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"
)

type visitor struct {
	tokens float64
	seen   time.Time
}

// RateLimit applies a per-IP token bucket: a full bucket holds limit tokens
// and refills at limit per window. Throttled clients get a Retry-After hint
// since the endpoints behind it trigger expensive upstream calls.
func RateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	if window <= 0 {
		window = time.Minute
	}
	rate := float64(limit) / window.Seconds()
	burst := float64(limit)

	var mu sync.Mutex
	visitors := make(map[string]*visitor)
	lastPrune := time.Now()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			ip := ClientIP(r)

			mu.Lock()
			if now.Sub(lastPrune) > 10*window {
				for k, v := range visitors {
					if now.Sub(v.seen) > 2*window {
						delete(visitors, k)
					}
				}
				lastPrune = now
			}
			v, ok := visitors[ip]
			if !ok {
				v = &visitor{tokens: burst}
				visitors[ip] = v
			} else {
				v.tokens = math.Min(burst, v.tokens+now.Sub(v.seen).Seconds()*rate)
			}
			v.seen = now
			if v.tokens < 1 {
				wait := window
				if rate > 0 {
					if d := time.Duration((1 - v.tokens) / rate * float64(time.Second)); d < wait {
						wait = d
					}
				}
				mu.Unlock()
				w.Header().Set("Retry-After", strconv.Itoa(int(wait/time.Second)+1))
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			v.tokens--
			mu.Unlock()

			next.ServeHTTP(w, r)
		})
	}
}
