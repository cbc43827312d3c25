package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/phrazzld/natours-api/internal/api/shared"
	"github.com/phrazzld/natours-api/internal/config"
)

// idleVisitor is how long an address may stay silent before its bucket is
// forgotten.
const idleVisitor = 3 * time.Hour

// maxVisitors bounds the number of tracked addresses. The least recently
// seen address is dropped first.
const maxVisitors = 100_000

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client address with a token bucket
// refilled evenly over the configured window.
//
// Clients are identified by r.RemoteAddr. Forwarded headers are only honored
// when a RealIP middleware runs first, which should be configured only behind
// a trusted proxy.
type RateLimiter struct {
	mu       sync.Mutex
	visitors *lru.Cache[string, *visitor]
	limit    rate.Limit
	burst    int
	window   time.Duration
	now      func() time.Time
}

// NewRateLimiter creates a limiter allowing cfg.Requests per cfg.Window.
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	return newRateLimiter(cfg, maxVisitors, time.Now)
}

func newRateLimiter(cfg config.RateLimitConfig, capacity int, now func() time.Time) *RateLimiter {
	visitors, err := lru.New[string, *visitor](capacity)
	if err != nil {
		panic("middleware: rate limiter capacity must be positive")
	}
	return &RateLimiter{
		visitors: visitors,
		limit:    rate.Every(cfg.Window / time.Duration(cfg.Requests)),
		burst:    cfg.Requests,
		window:   cfg.Window,
		now:      now,
	}
}

// Handler rejects requests beyond the allowance with 429.
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := l.now()
		lim := l.visitor(clientIP(r), now)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.burst))
		if !lim.AllowN(now, 1) {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", strconv.Itoa(int(l.retryAfter().Seconds())))
			shared.RespondWithError(w, r, http.StatusTooManyRequests, l.message())
			return
		}
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(lim.TokensAt(now))))
		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) visitor(ip string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Recency order matches lastSeen, so idle visitors sit at the old end.
	for {
		_, oldest, ok := l.visitors.GetOldest()
		if !ok || now.Sub(oldest.lastSeen) <= idleVisitor {
			break
		}
		l.visitors.RemoveOldest()
	}

	v, ok := l.visitors.Get(ip)
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors.Add(ip, v)
	}
	v.lastSeen = now
	return v.limiter
}

func (l *RateLimiter) retryAfter() time.Duration {
	d := time.Duration(float64(time.Second) / float64(l.limit))
	if d < time.Second {
		d = time.Second
	}
	return d
}

func (l *RateLimiter) message() string {
	if l.window == time.Hour {
		return "Too many requests from this IP, please try again in an hour!"
	}
	return fmt.Sprintf("Too many requests from this IP, please try again in %s!", l.window)
}

// clientIP strips the port from the request's remote address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
