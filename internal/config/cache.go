package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// CacheConfig defines settings for the public project response cache.
// When Enabled is false or no Redis client is configured, caching is off.
// Every key lives under Prefix so a project write can purge the whole
// namespace at once.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

type cacheEnv struct {
	Enabled      bool     `env:"CACHE_ENABLED" envDefault:"true"`
	Methods      []string `env:"CACHE_METHODS" envSeparator:"," envDefault:"GET"`
	TTL          string   `env:"CACHE_TTL" envDefault:"60s"`
	KeyStrategy  string   `env:"CACHE_KEY_STRATEGY" envDefault:"path_query"`
	Prefix       string   `env:"CACHE_PREFIX" envDefault:"cache:projects"`
	MaxBodyBytes int      `env:"CACHE_MAX_BODY_BYTES" envDefault:"1048576"`
}

// LoadCacheConfig reads the CACHE_* variables. Malformed values fall back
// to the defaults rather than failing startup.
func LoadCacheConfig() CacheConfig {
	var raw cacheEnv
	if err := env.Parse(&raw); err != nil {
		raw = cacheEnv{Enabled: true, Methods: []string{"GET"}, KeyStrategy: "path_query", Prefix: "cache:projects", MaxBodyBytes: 1 << 20}
	}
	ttl, err := time.ParseDuration(raw.TTL)
	if err != nil || ttl <= 0 {
		ttl = time.Minute
	}
	methods := map[string]bool{}
	for _, m := range raw.Methods {
		if m = strings.ToUpper(strings.TrimSpace(m)); m != "" {
			methods[m] = true
		}
	}
	return CacheConfig{
		Enabled:      raw.Enabled,
		Methods:      methods,
		TTL:          ttl,
		KeyStrategy:  raw.KeyStrategy,
		Prefix:       raw.Prefix,
		MaxBodyBytes: raw.MaxBodyBytes,
	}
}
