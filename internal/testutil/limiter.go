package testutil

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

type ipAddr string

// ipLimiter hands every client address its own token bucket. Buckets idle
// for longer than ttl are dropped by the sweeper.
type ipLimiter struct {
	mu       sync.Mutex
	limiters map[ipAddr]*rate.Limiter
	lastSeen map[ipAddr]time.Time

	rate  rate.Limit
	burst int
	ttl   time.Duration
}

func newIPLimiter(requests int, window, ttl time.Duration) *ipLimiter {
	return &ipLimiter{
		limiters: make(map[ipAddr]*rate.Limiter),
		lastSeen: make(map[ipAddr]time.Time),
		rate:     rate.Every(window / time.Duration(requests)),
		burst:    requests,
		ttl:      ttl,
	}
}

// sweep removes idle buckets every interval until ctx ends.
func (l *ipLimiter) sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.mu.Lock()
			for ip, seen := range l.lastSeen {
				if time.Since(seen) > l.ttl {
					delete(l.limiters, ip)
					delete(l.lastSeen, ip)
				}
			}
			l.mu.Unlock()
		}
	}
}

func clientIP(r *http.Request) ipAddr {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return ipAddr(strings.TrimSpace(ips[len(ips)-1]))
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return ipAddr(r.RemoteAddr)
	}
	return ipAddr(host)
}

func (l *ipLimiter) allow(ip ipAddr) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	bucket, ok := l.limiters[ip]
	if !ok {
		bucket = rate.NewLimiter(l.rate, l.burst)
		l.limiters[ip] = bucket
	}
	l.lastSeen[ip] = time.Now()
	return bucket.Allow()
}

func (l *ipLimiter) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

func (l *ipLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !l.allow(ip) {
			log.Warn().
				Str("ip", string(ip)).
				Str("path", r.URL.Path).
				Str("method", r.Method).
				Msg("rate limit exceeded")
			reject(w, http.StatusTooManyRequests, "Too many requests. Try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
