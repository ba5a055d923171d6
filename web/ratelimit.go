package web

import (
	"net"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const limiterIdle = 10 * time.Minute

// clientLimiter keeps one token bucket per client address; idle buckets expire.
type clientLimiter struct {
	limit   rate.Limit
	burst   int
	buckets *cache.Cache
}

// newClientLimiter returns nil when rps <= 0, which disables limiting.
func newClientLimiter(rps float64, burst int) *clientLimiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &clientLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		buckets: cache.New(limiterIdle, limiterIdle),
	}
}

func (c *clientLimiter) allow(key string) bool {
	if v, ok := c.buckets.Get(key); ok {
		c.buckets.SetDefault(key, v)
		return v.(*rate.Limiter).Allow()
	}
	l := rate.NewLimiter(c.limit, c.burst)
	// 并发首次访问时以先写入者为准
	if err := c.buckets.Add(key, l, cache.DefaultExpiration); err != nil {
		if v, ok := c.buckets.Get(key); ok {
			l = v.(*rate.Limiter)
		}
	}
	return l.Allow()
}

func (c *clientLimiter) middleware(next http.Handler) http.Handler {
	if c == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !c.allow(clientKey(r)) {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey uses RemoteAddr, which chi's RealIP middleware has already rewritten.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
