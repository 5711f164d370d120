package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiterConfig configures rate limiting behavior
type RateLimiterConfig struct {
	RequestsPerSecond float64
	Burst             int
	// IdleTTL evicts limiters of callers not seen for this long
	IdleTTL time.Duration
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiterMap stores one limiter per caller: the verified signer when known, else the client IP
type rateLimiterMap struct {
	limiters map[string]*limiterEntry
	mu       sync.Mutex
	config   RateLimiterConfig
}

func newRateLimiterMap(config RateLimiterConfig) *rateLimiterMap {
	if config.IdleTTL <= 0 {
		config.IdleTTL = 10 * time.Minute
	}
	return &rateLimiterMap{
		limiters: make(map[string]*limiterEntry),
		config:   config,
	}
}

func (rl *rateLimiterMap) getLimiter(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	e, ok := rl.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.Burst)}
		rl.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

// evict drops limiters idle for longer than IdleTTL
func (rl *rateLimiterMap) evict(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, e := range rl.limiters {
		if now.Sub(e.lastSeen) > rl.config.IdleTTL {
			delete(rl.limiters, key)
		}
	}
}

func callerKey(c *gin.Context) string {
	if signer, ok := Signer(c); ok {
		return "signer:" + signer.String()
	}
	return "ip:" + c.ClientIP()
}

// RateLimiterMiddleware limits requests per caller. Mount it after SignerAuth to limit per signer.
func RateLimiterMiddleware(config RateLimiterConfig) gin.HandlerFunc {
	limiterMap := newRateLimiterMap(config)
	var lastEvict time.Time
	var evictMu sync.Mutex

	return func(c *gin.Context) {
		now := time.Now()
		evictMu.Lock()
		if now.Sub(lastEvict) > limiterMap.config.IdleTTL {
			lastEvict = now
			evictMu.Unlock()
			limiterMap.evict(now)
		} else {
			evictMu.Unlock()
		}

		limiter := limiterMap.getLimiter(callerKey(c), now)
		if !limiter.AllowN(now, 1) {
			reservation := limiter.ReserveN(now, 1)
			retryAfter := reservation.DelayFrom(now).Seconds()
			reservation.CancelAt(now)

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded. Please try again later.",
				"retry_after": retryAfter,
			})
			return
		}
		c.Next()
	}
}
