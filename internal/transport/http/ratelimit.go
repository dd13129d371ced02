package http

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/vovakirdan/livestage-server/internal/config"
)

// limiterIdleTTL is how long an unused per-client limiter is kept.
const limiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiterStore stores per-key (for example, per IP) rate limiters.
type rateLimiterStore struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	rate      rate.Limit
	burstSize int
	lastSweep time.Time
	now       func() time.Time
}

func newRateLimiterStore(r rate.Limit, burst int) *rateLimiterStore {
	return &rateLimiterStore{
		limiters:  make(map[string]*limiterEntry),
		rate:      r,
		burstSize: burst,
		now:       time.Now,
	}
}

func (s *rateLimiterStore) getLimiter(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	entry, exists := s.limiters[key]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(s.rate, s.burstSize)}
		s.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// sweep drops idle limiters at most once per TTL. Caller holds mu.
func (s *rateLimiterStore) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < limiterIdleTTL {
		return
	}
	s.lastSweep = now
	for key, entry := range s.limiters {
		if now.Sub(entry.lastSeen) >= limiterIdleTTL {
			delete(s.limiters, key)
		}
	}
}

func (s *rateLimiterStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}

// remoteHost extracts the IP part from the request's remote address.
// Forwarding headers are ignored; gin resolves them against the trusted proxy list.
func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitMiddleware applies IP-based token bucket limiting keyed by gin's ClientIP,
// which honours X-Forwarded-For only from trusted proxies.
func RateLimitMiddleware(cfg config.RateLimitConfig) gin.HandlerFunc {
	if cfg.RequestsPerSecond <= 0 {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	store := newRateLimiterStore(rate.Limit(cfg.RequestsPerSecond), burst)

	return func(c *gin.Context) {
		if !store.getLimiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Error: msgRateLimited})
			return
		}
		c.Next()
	}
}

// newMessageLimiter limits chat messages on a single connection. A nil limiter allows everything.
func newMessageLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
}

func allowMessage(l *rate.Limiter) bool {
	return l == nil || l.Allow()
}
