package api

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"
)

const defaultLimitMessage = "Too many requests, please try again later."

// ipLimiterEntry holds a rate limiter and last-seen timestamp for cleanup.
type ipLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter manages per-IP rate limiters.
type IPRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiterEntry
	rate     rate.Limit
	burst    int
	message  string
	done     chan struct{}
	stopOnce sync.Once
}

// NewIPRateLimiter creates a rate limiter that allows r events per second with
// the given burst size. For "5 per minute" pass rate.Every(12*time.Second) with burst 5.
func NewIPRateLimiter(r rate.Limit, burst int) *IPRateLimiter {
	rl := &IPRateLimiter{
		limiters: make(map[string]*ipLimiterEntry),
		rate:     r,
		burst:    burst,
		message:  defaultLimitMessage,
		done:     make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// NewWindowLimiter allows max requests per window for each client IP. The
// whole budget is available as a burst and refills evenly over the window.
func NewWindowLimiter(max int, window time.Duration, message string) *IPRateLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	rl := NewIPRateLimiter(rate.Every(window/time.Duration(max)), max)
	if msg := strings.TrimSpace(message); msg != "" {
		rl.message = msg
	}
	return rl
}

// Stop ends the background cleanup goroutine.
func (rl *IPRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// Middleware adapts the limiter for router.Use.
func (rl *IPRateLimiter) Middleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return RateLimitHandler(rl, next)
	}
}

// getLimiter returns the rate limiter for the given IP, creating one if needed.
func (rl *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, exists := rl.limiters[ip]
	if !exists {
		limiter := rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[ip] = &ipLimiterEntry{limiter: limiter, lastSeen: time.Now()}
		return limiter
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// idleTTL is how long an IP may stay silent before its limiter is dropped.
// It is never shorter than a full refill, so eviction cannot hand out a fresh burst early.
func (rl *IPRateLimiter) idleTTL() time.Duration {
	ttl := 10 * time.Minute
	if rl.rate > 0 {
		refill := time.Duration(float64(rl.burst) / float64(rl.rate) * float64(time.Second))
		if refill > ttl {
			ttl = refill
		}
	}
	return ttl
}

// cleanup evicts entries that have been idle longer than idleTTL.
func (rl *IPRateLimiter) cleanup() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()
	ttl := rl.idleTTL()
	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.mu.Lock()
			for ip, entry := range rl.limiters {
				if time.Since(entry.lastSeen) > ttl {
					delete(rl.limiters, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// retryAfter is the wait in whole seconds until the next token is available.
func (rl *IPRateLimiter) retryAfter() string {
	if rl.rate <= 0 || rl.rate == rate.Inf {
		return "60"
	}
	interval := time.Duration(float64(time.Second) / float64(rl.rate)).Round(time.Millisecond)
	secs := int(math.Ceil(interval.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// getClientIP extracts the client IP, honouring proxy headers first.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}

// RateLimitHandler wraps an http.Handler with per-IP rate limiting.
// Returns 429 Too Many Requests when the limit is exceeded.
func RateLimitHandler(rl *IPRateLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.deny(w, r) {
			return
		}
		next.ServeHTTP(w, r)
	})
}

// deny consumes a token for the caller and writes the 429 response when none is left.
func (rl *IPRateLimiter) deny(w http.ResponseWriter, r *http.Request) bool {
	ip := getClientIP(r)
	limiter := rl.getLimiter(ip)
	allowed := limiter.Allow()

	remaining := int(limiter.Tokens())
	if remaining < 0 {
		remaining = 0
	}
	w.Header().Set("RateLimit-Limit", strconv.Itoa(rl.burst))
	w.Header().Set("RateLimit-Remaining", strconv.Itoa(remaining))

	if allowed {
		return false
	}
	httpLog.WithField("ip", ip).WithField("path", r.URL.Path).Info("rate limit exceeded")
	w.Header().Set("Retry-After", rl.retryAfter())
	WriteError(w, http.StatusTooManyRequests, rl.message)
	return true
}
