package middleware

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tubeline/backend/internal/logging"
)

// RateLimiter controls how frequently a caller may perform an action.
type RateLimiter interface {
	Allow(key string) bool
}

// retryHinter is implemented by limiters that know how long a rejected caller should wait.
type retryHinter interface {
	RetryAfter() time.Duration
}

const defaultRetryAfter = time.Minute

// LimitByIP rejects callers that exceed limiter for the given scope with 429.
// Scopes keep login and signup attempts in separate buckets for the same address.
func LimitByIP(limiter RateLimiter, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			ip := clientIP(r)
			if !limiter.Allow(scopedKey(scope, ip)) {
				wait := defaultRetryAfter
				if h, ok := limiter.(retryHinter); ok {
					wait = h.RetryAfter()
				}
				logging.FromContext(r.Context()).Warn("rate limit exceeded", "scope", scope, "client_ip", ip, "retry_after", wait)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				writeError(w, http.StatusTooManyRequests, "too many requests, try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func scopedKey(scope, ip string) string {
	if scope == "" {
		return ip
	}
	return fmt.Sprintf("%s:%s", scope, ip)
}

// clientIP prefers the left-most X-Forwarded-For entry and falls back to the peer address.
func clientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return host
	}
	return addr
}

type bucket struct {
	tokens   *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter keeps one token bucket per key. Buckets idle for longer than the
// ttl are swept at most once per ttl.
type KeyedLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	every     rate.Limit
	interval  time.Duration
	burst     int
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewIPRateLimiter allows `requests` events per `window` for each key, with
// `burst` events available up front. Unused keys are forgotten after ttl.
func NewIPRateLimiter(requests int, window time.Duration, burst int, ttl time.Duration) RateLimiter {
	return newKeyedLimiter(requests, window, burst, ttl, time.Now)
}

func newKeyedLimiter(requests int, window time.Duration, burst int, ttl time.Duration, now func() time.Time) *KeyedLimiter {
	requests = max(requests, 1)
	burst = max(burst, 1)
	if window <= 0 {
		window = time.Second
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	interval := window / time.Duration(requests)
	return &KeyedLimiter{
		buckets:   make(map[string]*bucket),
		every:     rate.Every(interval),
		interval:  interval,
		burst:     burst,
		ttl:       ttl,
		lastSweep: now(),
		now:       now,
	}
}

// Allow consumes one token from key's bucket.
func (l *KeyedLimiter) Allow(key string) bool {
	if key == "" {
		key = "unknown"
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.ttl {
		l.sweepLocked(now)
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: rate.NewLimiter(l.every, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.tokens.AllowN(now, 1)
}

// RetryAfter is the time needed to regain a single token.
func (l *KeyedLimiter) RetryAfter() time.Duration {
	return l.interval
}

func (l *KeyedLimiter) sweepLocked(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.ttl {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}

func (l *KeyedLimiter) tracked(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.buckets[key]
	return ok
}
