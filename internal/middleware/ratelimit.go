package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/edwanmarques/portfolio/internal/config"
)

// bucketScript refills a token bucket by whole intervals, takes one token
// when available and returns {allowed, tokens left, ms until next token}.
var bucketScript = redis.NewScript(`
    local key = KEYS[1]
    local now_ms = tonumber(ARGV[1])
    local capacity = tonumber(ARGV[2])
    local refill = tonumber(ARGV[3])
    local interval_ms = tonumber(ARGV[4])
    local ttl_s = tonumber(ARGV[5])

    local state = redis.call('HMGET', key, 'tokens', 'last_ms')
    local tokens = tonumber(state[1])
    local last = tonumber(state[2])
    if tokens == nil or last == nil then
        tokens = capacity
        last = now_ms
    end

    if interval_ms > 0 and refill > 0 then
        local steps = math.floor(math.max(0, now_ms - last) / interval_ms)
        if steps > 0 then
            tokens = math.min(capacity, tokens + steps * refill)
            last = last + steps * interval_ms
        end
    end

    local allowed = 0
    local wait_ms = 0
    if tokens > 0 then
        allowed = 1
        tokens = tokens - 1
    else
        wait_ms = math.max(0, interval_ms - (now_ms - last))
    end

    redis.call('HSET', key, 'tokens', tokens, 'last_ms', last)
    redis.call('EXPIRE', key, ttl_s)
    return { allowed, tokens, wait_ms }
`)

// BucketResult is the outcome of taking one token.
type BucketResult struct {
	Allowed   bool
	Remaining int64
	RetryIn   time.Duration
}

// BucketStore takes one token from the bucket stored under key.
type BucketStore interface {
	Take(ctx context.Context, key string, cfg config.RateLimitConfig, now time.Time) (BucketResult, error)
}

// RedisBucket keeps bucket state in Redis hashes.
type RedisBucket struct {
	rdb *redis.Client
}

func NewRedisBucket(rdb *redis.Client) *RedisBucket { return &RedisBucket{rdb: rdb} }

func (b *RedisBucket) Take(ctx context.Context, key string, cfg config.RateLimitConfig, now time.Time) (BucketResult, error) {
	vals, err := bucketScript.Run(ctx, b.rdb, []string{key},
		now.UnixMilli(),
		cfg.Capacity,
		cfg.RefillTokens,
		cfg.RefillInterval.Milliseconds(),
		int64(cfg.TTL/time.Second),
	).Result()
	if err != nil {
		return BucketResult{}, err
	}
	arr, ok := vals.([]interface{})
	if !ok || len(arr) != 3 {
		return BucketResult{}, redis.Nil
	}
	return BucketResult{
		Allowed:   asInt64(arr[0]) == 1,
		Remaining: asInt64(arr[1]),
		RetryIn:   time.Duration(asInt64(arr[2])) * time.Millisecond,
	}, nil
}

// TokenBucket is the global per-client request limiter for /api. It fails
// open: a store error lets the request through.
type TokenBucket struct {
	cfg   config.RateLimitConfig
	store BucketStore
	now   func() time.Time
}

func NewTokenBucketLimiter(cfg config.RateLimitConfig, store BucketStore) *TokenBucket {
	return &TokenBucket{cfg: cfg, store: store, now: time.Now}
}

// NewTokenBucket is the Redis-backed limiter middleware. It is a
// pass-through when disabled or when Redis is unavailable.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return NewTokenBucketLimiter(cfg, NewRedisBucket(rdb)).Middleware()
}

func (b *TokenBucket) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(b.cfg, c)
			res, err := b.store.Take(c.Request().Context(), key, b.cfg, b.now())
			if err != nil {
				if b.cfg.Debug {
					c.Logger().Warnf("[ratelimit] store error for key=%s: %v", key, err)
				}
				return next(c)
			}

			h := c.Response().Header()
			h.Set("RateLimit-Limit", strconv.Itoa(b.cfg.Capacity))
			h.Set("RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			if !res.Allowed {
				secs := int(math.Ceil(res.RetryIn.Seconds()))
				if secs < 0 {
					secs = 0
				}
				h.Set("RateLimit-Reset", strconv.Itoa(secs))
				h.Set("Retry-After", strconv.Itoa(secs))
				if b.cfg.Debug {
					c.Logger().Infof("[ratelimit] block key=%s retry=%s", key, res.RetryIn)
				}
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"message": "Too many requests, please try again later.",
				})
			}
			return next(c)
		}
	}
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	}
	return 0
}

// buildRateKey composes the bucket key from the configured strategy: ip
// (default), route, or ip_route. The bucket runs ahead of the session guard,
// so there is no per-user strategy.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	parts := []string{cfg.Prefix}
	strategy := strings.ToLower(cfg.KeyStrategy)
	if strategy == "" {
		strategy = "ip"
	}
	for _, s := range strings.Split(strategy, "_") {
		switch s {
		case "ip":
			parts = append(parts, "ip", ip)
		case "route":
			parts = append(parts, "route", c.Request().Method+" "+c.Path())
		}
	}
	return strings.Join(parts, ":")
}
