package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jmehdipour/rfm-dashboard/internal/logger"
	echo "github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimitConfig config for Redis-based RPS limiter.
type RateLimitConfig struct {
	Redis          *redis.Client
	RPS            int           // requests per window per user; <= 0 disables
	KeyPrefix      string        // e.g. "rl:user:"
	Window         time.Duration // usually 1s
	RetryAfterHint bool          // set Retry-After header when limited
}

// RateLimitMiddleware applies a simple fixed-window per-user RPS limit.
// It expects the username in echo.Context (set by AuthMiddleware). Without
// redis it falls back to an in-process token bucket per user.
func RateLimitMiddleware(cfg RateLimitConfig) echo.MiddlewareFunc {
	if cfg.Window <= 0 {
		cfg.Window = time.Second
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "rl:user:"
	}
	local := newLocalLimiter(cfg.RPS)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := UsernameFromCtx(c)
			if !ok || cfg.RPS <= 0 {
				// no limit configured: allow
				return next(c)
			}
			if cfg.Redis == nil {
				if !local.allow(user) {
					return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limited"})
				}
				return next(c)
			}

			// fixed-window key: rl:user:{name}:{unix_sec}
			now := time.Now()
			key := cfg.KeyPrefix + user + ":" + strconv.FormatInt(now.Unix(), 10)

			// INCR and set expiry 2*window (safety)
			pipe := cfg.Redis.Pipeline()
			cnt := pipe.Incr(c.Request().Context(), key)
			pipe.Expire(c.Request().Context(), key, cfg.Window*2)
			_, err := pipe.Exec(c.Request().Context())
			if err != nil {
				logger.Log.Warn("ratelimit: redis unavailable, allowing request", zap.Error(err))
				return next(c)
			}

			if cnt.Val() > int64(cfg.RPS) {
				if cfg.RetryAfterHint {
					// seconds until next window
					remain := cfg.Window - time.Duration(now.UnixNano()%int64(cfg.Window))
					if remain > 0 {
						c.Response().Header().Set("Retry-After", strconv.Itoa(int(remain.Round(time.Second)/time.Second)))
					}
				}
				return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limited"})
			}
			return next(c)
		}
	}
}

// localLimiter keeps one token bucket per user, for single-process setups.
type localLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	r        rate.Limit
	b        int
}

func newLocalLimiter(rps int) *localLimiter {
	return &localLimiter{
		limiters: make(map[string]*rate.Limiter),
		r:        rate.Limit(rps),
		b:        max(rps, 1),
	}
}

func (l *localLimiter) allow(user string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[user]
	if !ok {
		lim = rate.NewLimiter(l.r, l.b)
		l.limiters[user] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}
