package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/edwanmarques/portfolio/internal/config"
)

// windowScript counts a hit in a fixed window and returns the running
// count together with the milliseconds left in the window.
var windowScript = redis.NewScript(`
    local count = redis.call('INCR', KEYS[1])
    if count == 1 then
        redis.call('PEXPIRE', KEYS[1], ARGV[1])
    end
    local ttl = redis.call('PTTL', KEYS[1])
    if ttl < 0 then
        redis.call('PEXPIRE', KEYS[1], ARGV[1])
        ttl = tonumber(ARGV[1])
    end
    return { count, ttl }
`)

// WindowCounter records one hit for key and reports the number of hits in
// the current window and when that window resets.
type WindowCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (count int64, reset time.Duration, err error)
}

// RedisWindow counts hits in Redis so limits hold across processes.
type RedisWindow struct {
	rdb *redis.Client
}

func NewRedisWindow(rdb *redis.Client) *RedisWindow { return &RedisWindow{rdb: rdb} }

func (w *RedisWindow) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	vals, err := windowScript.Run(ctx, w.rdb, []string{key}, window.Milliseconds()).Result()
	if err != nil {
		return 0, 0, err
	}
	arr, ok := vals.([]interface{})
	if !ok || len(arr) != 2 {
		return 0, 0, redis.Nil
	}
	return asInt64(arr[0]), time.Duration(asInt64(arr[1])) * time.Millisecond, nil
}

// MemoryWindow counts hits in process. It backs the limiter when Redis is
// not configured and whenever a Redis call fails.
type MemoryWindow struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
	now     func() time.Time
}

type windowEntry struct {
	count int64
	reset time.Time
}

func NewMemoryWindow(now func() time.Time) *MemoryWindow {
	if now == nil {
		now = time.Now
	}
	return &MemoryWindow{entries: map[string]*windowEntry{}, now: now}
}

func (w *MemoryWindow) Hit(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := w.now()
	e, ok := w.entries[key]
	if !ok || !now.Before(e.reset) {
		e = &windowEntry{reset: now.Add(window)}
		w.entries[key] = e
		w.sweep(now)
	}
	e.count++
	return e.count, e.reset.Sub(now), nil
}

// sweep drops finished windows; called with mu held.
func (w *MemoryWindow) sweep(now time.Time) {
	if len(w.entries) < 1024 {
		return
	}
	for k, e := range w.entries {
		if !now.Before(e.reset) {
			delete(w.entries, k)
		}
	}
}

// WindowLimiter caps requests per client address inside a fixed window.
// Every request counts, whatever its outcome.
type WindowLimiter struct {
	cfg      config.LoginLimitConfig
	primary  WindowCounter
	fallback *MemoryWindow
	message  string
}

// NewLoginLimiter builds the login limiter. A nil rdb keeps all counting in
// process.
func NewLoginLimiter(cfg config.LoginLimitConfig, rdb *redis.Client) *WindowLimiter {
	l := &WindowLimiter{
		cfg:      cfg,
		fallback: NewMemoryWindow(nil),
		message:  "Too many login attempts. Please try again in 15 minutes.",
	}
	if rdb != nil {
		l.primary = NewRedisWindow(rdb)
	}
	return l
}

// WithCounter replaces the primary counter; tests use it to pin the clock.
func (l *WindowLimiter) WithCounter(wc WindowCounter) *WindowLimiter {
	l.primary = wc
	return l
}

func (l *WindowLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if !l.cfg.Enabled {
			return next
		}
		return func(c echo.Context) error {
			ip := c.RealIP()
			if ip == "" {
				ip = "unknown"
			}
			key := l.cfg.Prefix + ":ip:" + ip

			count, reset, err := l.hit(c, key)
			if err != nil {
				c.Logger().Warnf("[ratelimit] counter error for key=%s: %v", key, err)
				return next(c)
			}

			remaining := int64(l.cfg.Max) - count
			if remaining < 0 {
				remaining = 0
			}
			secs := int(math.Ceil(reset.Seconds()))
			if secs < 0 {
				secs = 0
			}
			h := c.Response().Header()
			h.Set("RateLimit-Limit", strconv.Itoa(l.cfg.Max))
			h.Set("RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			h.Set("RateLimit-Reset", strconv.Itoa(secs))

			if count > int64(l.cfg.Max) {
				h.Set("Retry-After", strconv.Itoa(secs))
				return c.JSON(http.StatusTooManyRequests, echo.Map{"message": l.message})
			}
			return next(c)
		}
	}
}

func (l *WindowLimiter) hit(c echo.Context, key string) (int64, time.Duration, error) {
	ctx := c.Request().Context()
	if l.primary != nil {
		count, reset, err := l.primary.Hit(ctx, key, l.cfg.Window)
		if err == nil {
			return count, reset, nil
		}
		c.Logger().Warnf("[ratelimit] primary counter failed, using memory: %v", err)
	}
	return l.fallback.Hit(ctx, key, l.cfg.Window)
}
