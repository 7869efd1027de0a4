package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const defaultLimiterTTL = 10 * time.Minute

// IPRateLimiter manages token buckets for individual client IPs.
type IPRateLimiter struct {
	ips  map[string]*rateLimiterEntry
	mu   sync.Mutex
	r    rate.Limit
	b    int
	ttl  time.Duration
	done chan struct{}
	once sync.Once
}

type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter creates a new IP-based rate limiter.
// r is the rate (requests per second), b is the burst size.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	limiter := &IPRateLimiter{
		ips:  make(map[string]*rateLimiterEntry),
		r:    r,
		b:    b,
		ttl:  defaultLimiterTTL,
		done: make(chan struct{}),
	}

	go limiter.cleanupLoop()

	return limiter
}

// GetLimiter returns the bucket for ip, creating it on first use.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	entry, exists := i.ips[ip]
	if !exists {
		limiter := rate.NewLimiter(i.r, i.b)
		i.ips[ip] = &rateLimiterEntry{
			limiter:  limiter,
			lastSeen: time.Now(),
		}
		return limiter
	}

	entry.lastSeen = time.Now()
	return entry.limiter
}

// Allow reports whether one more request from ip fits its bucket.
func (i *IPRateLimiter) Allow(ip string) bool {
	return i.GetLimiter(ip).Allow()
}

// Close stops the sweeper. Safe to call more than once.
func (i *IPRateLimiter) Close() {
	i.once.Do(func() { close(i.done) })
}

func (i *IPRateLimiter) len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.ips)
}

func (i *IPRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(i.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-i.done:
			return
		case now := <-ticker.C:
			i.sweep(now)
		}
	}
}

// sweep drops buckets not used since now-ttl.
func (i *IPRateLimiter) sweep(now time.Time) {
	i.mu.Lock()
	defer i.mu.Unlock()

	cutoff := now.Add(-i.ttl)
	for ip, entry := range i.ips {
		if entry.lastSeen.Before(cutoff) {
			delete(i.ips, ip)
		}
	}
}

// extractIP returns the client IP without the port. With RealIP enabled,
// RemoteAddr already holds the forwarded address.
func extractIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// RateLimitMiddleware returns middleware that rate limits requests by IP.
func RateLimitMiddleware(limiter *IPRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(extractIP(r)) {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
