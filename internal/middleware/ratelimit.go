package middleware

import (
	"strconv"
	"sync"
	"time"

	"gestly/internal/caching"
	"gestly/internal/common"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	rateLimitWindow   = time.Minute
	limiterIdleExpiry = 10 * time.Minute
)

// RateLimiter enforces a per-business request budget per minute. With a
// shared cache the budget is a fixed window counted in Redis; without one,
// or when the cache fails, each instance applies a token bucket.
type RateLimiter struct {
	cache     caching.CacheService
	perMinute int
	logger    *zap.Logger
	now       func() time.Time

	mu       sync.Mutex
	limiters map[string]*localLimiter
}

type localLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter accepts a nil cache for single-instance deployments.
func NewRateLimiter(cache caching.CacheService, perMinute int, logger *zap.Logger) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 120
	}
	return &RateLimiter{
		cache:     cache,
		perMinute: perMinute,
		logger:    logger,
		now:       time.Now,
		limiters:  make(map[string]*localLimiter),
	}
}

func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, err := PrincipalFrom(c)
			if err != nil {
				return err
			}
			key := p.BusinessID.String()

			remaining, retryAfter, allowed := rl.allow(c, key)
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(rl.perMinute))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !allowed {
				return common.RateLimited(retryAfter)
			}
			return next(c)
		}
	}
}

func (rl *RateLimiter) allow(c echo.Context, key string) (int, time.Duration, bool) {
	if rl.cache != nil {
		count, ttl, err := rl.cache.HitWindow(c.Request().Context(), key, rateLimitWindow)
		if err == nil {
			remaining := rl.perMinute - int(count)
			if remaining < 0 {
				remaining = 0
			}
			if ttl <= 0 {
				ttl = rateLimitWindow
			}
			return remaining, ttl, count <= int64(rl.perMinute)
		}
		rl.logger.Warn("shared rate limit unavailable, using local limiter", zap.Error(err))
	}
	return rl.allowLocal(key)
}

func (rl *RateLimiter) allowLocal(key string) (int, time.Duration, bool) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.limiters[key]
	if !ok {
		rl.prune(now)
		l = &localLimiter{limiter: rate.NewLimiter(rate.Limit(float64(rl.perMinute)/rateLimitWindow.Seconds()), rl.perMinute)}
		rl.limiters[key] = l
	}
	l.lastSeen = now

	r := l.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return 0, delay, false
	}
	return int(l.limiter.TokensAt(now)), 0, true
}

// prune drops limiters of businesses idle for a while. Callers hold mu.
func (rl *RateLimiter) prune(now time.Time) {
	for key, l := range rl.limiters {
		if now.Sub(l.lastSeen) > limiterIdleExpiry {
			delete(rl.limiters, key)
		}
	}
}
