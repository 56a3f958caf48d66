package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// visitorTTL is how long an idle client's bucket is remembered.
const visitorTTL = 3 * time.Minute

// rateLimiter is a token bucket per client IP. A client may burst up to
// perMinute requests and then refills at perMinute per minute.
type rateLimiter struct {
	visitors  *cache.Cache
	limit     rate.Limit
	burst     int
	onLimited http.HandlerFunc
}

func newRateLimiter(perMinute int, onLimited http.HandlerFunc) *rateLimiter {
	return &rateLimiter{
		visitors:  cache.New(visitorTTL, time.Minute),
		limit:     rate.Limit(float64(perMinute) / 60),
		burst:     perMinute,
		onLimited: onLimited,
	}
}

// limiter returns the bucket for ip, creating it on first use.
func (rl *rateLimiter) limiter(ip string) *rate.Limiter {
	if v, ok := rl.visitors.Get(ip); ok {
		lim := v.(*rate.Limiter)
		rl.visitors.Set(ip, lim, cache.DefaultExpiration)
		return lim
	}

	lim := rate.NewLimiter(rl.limit, rl.burst)
	if err := rl.visitors.Add(ip, lim, cache.DefaultExpiration); err != nil {
		// Lost the race with a concurrent request from the same client.
		if v, ok := rl.visitors.Get(ip); ok {
			return v.(*rate.Limiter)
		}
	}
	return lim
}

func (rl *rateLimiter) allow(ip string) bool {
	return rl.limiter(ip).Allow()
}

// middleware rate limits by r.RemoteAddr, which TrustedRealIP has already
// resolved to the client address.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(r.RemoteAddr) {
			retry := time.Duration(float64(time.Second) / float64(rl.limit))
			w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds()+0.5)))
			rl.onLimited(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
