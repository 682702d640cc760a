package config

import (
    "os"
    "strconv"
    "time"
)

// RateLimitConfig drives the global token bucket applied to every /api
// route. Defaults allow 100 requests per 15 minutes per client address.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    TTL            time.Duration
    KeyStrategy    string
    Prefix         string
    Debug          bool
}

func LoadRateLimitConfig() RateLimitConfig {
    def := RateLimitConfig{
        Enabled:        envBool("RATE_LIMIT_ENABLED", true),
        Capacity:       envInt("RATE_LIMIT_MAX_REQUESTS", 100),
        RefillTokens:   1,
        RefillInterval: 0,
        TTL:            envDur("RATE_LIMIT_TTL", 30*time.Minute),
        KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "ip"),
        Prefix:         envStr("RATE_LIMIT_PREFIX", "rl"),
        Debug:          envBool("RATE_LIMIT_DEBUG", false),
    }
    if def.Capacity < 1 { def.Capacity = 1 }
    // The window is spread evenly across the bucket so a drained client
    // regains its full budget after one window.
    window := envWindow("RATE_LIMIT_WINDOW_MS", 15*time.Minute)
    def.RefillInterval = window / time.Duration(def.Capacity)
    if every := envDur("RATE_LIMIT_REFILL_EVERY", 0); every > 0 {
        def.RefillInterval = every
    }
    if def.RefillInterval <= 0 { def.RefillInterval = time.Second }
    minTTL := 5 * def.RefillInterval
    if def.TTL < minTTL { def.TTL = minTTL }
    return def
}

// LoginLimitConfig caps login attempts per client address inside a fixed
// window, independent of whether the credentials were correct.
type LoginLimitConfig struct {
    Enabled bool
    Max     int
    Window  time.Duration
    Prefix  string
}

func LoadLoginLimitConfig() LoginLimitConfig {
    cfg := LoginLimitConfig{
        Enabled: envBool("LOGIN_RATE_LIMIT_ENABLED", true),
        Max:     envInt("LOGIN_RATE_LIMIT_MAX", 5),
        Window:  envDur("LOGIN_RATE_LIMIT_WINDOW", 15*time.Minute),
        Prefix:  envStr("LOGIN_RATE_LIMIT_PREFIX", "login"),
    }
    if cfg.Max < 1 { cfg.Max = 1 }
    if cfg.Window <= 0 { cfg.Window = 15 * time.Minute }
    return cfg
}

// DefaultLoginLimitConfig is the 5-per-15-minutes policy without reading the
// environment.
func DefaultLoginLimitConfig() LoginLimitConfig {
    return LoginLimitConfig{Enabled: true, Max: 5, Window: 15 * time.Minute, Prefix: "login"}
}

func envStr(k, d string) string { if v := os.Getenv(k); v != "" { return v }; return d }
func envBool(k string, d bool) bool {
    v := os.Getenv(k)
    if v == "" { return d }
    switch v {
    case "1","true","TRUE","True","yes","YES","on","ON": return true
    case "0","false","FALSE","False","no","NO","off","OFF": return false
    }
    return d
}
func envInt(k string, d int) int {
    v := os.Getenv(k); if v == "" { return d }
    if n, err := strconv.Atoi(v); err == nil { return n }
    return d
}
func envDur(k string, d time.Duration) time.Duration {
    v := os.Getenv(k); if v == "" { return d }
    if dur, err := time.ParseDuration(v); err == nil { return dur }
    return d
}

// envWindow accepts either a Go duration or a bare millisecond count.
func envWindow(k string, d time.Duration) time.Duration {
    v := os.Getenv(k); if v == "" { return d }
    if ms, err := strconv.Atoi(v); err == nil && ms > 0 { return time.Duration(ms) * time.Millisecond }
    if dur, err := time.ParseDuration(v); err == nil && dur > 0 { return dur }
    return d
}
