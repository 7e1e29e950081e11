package ingress

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// defaultBurst and defaultRPS are the per-IP leaky-bucket defaults
// named in spec §4.2 ("20 requests burst, 10/s refill").
const (
	defaultBurst = 20
	defaultRPS   = 10
)

// IPRateLimiter is a per-client-IP leaky bucket middleware, built on
// the same golang.org/x/time/rate primitive as internal/limiter's
// tenant-level backpressure limiter.
type IPRateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	rps     float64
	burst   int
}

// NewIPRateLimiter builds a limiter with spec-default rps/burst.
func NewIPRateLimiter() *IPRateLimiter {
	return &IPRateLimiter{
		buckets: make(map[string]*rate.Limiter),
		rps:     defaultRPS,
		burst:   defaultBurst,
	}
}

func (l *IPRateLimiter) limiterFor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.buckets[ip]; ok {
		return b
	}
	b := rate.NewLimiter(rate.Limit(l.rps), l.burst)
	l.buckets[ip] = b
	return b
}

// Middleware rejects with 429 once a client IP's bucket is exhausted.
func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !l.limiterFor(ip).Allow() {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
