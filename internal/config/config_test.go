package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "dev-secret")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "3000" || cfg.SessionCookieName != "portfolio.sid" || cfg.SessionTTL != 30*24*time.Hour {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.DB.Driver != "mysql" || cfg.DB.Name != "portfolio" || !cfg.DB.AutoMigrate {
		t.Fatalf("unexpected db defaults: %+v", cfg.DB)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:5173" {
		t.Fatalf("cors = %v", cfg.CORSOrigins)
	}
	if cfg.TrustProxy || len(cfg.TrustedProxies) != 0 {
		t.Fatalf("proxy headers trusted by default: %v %v", cfg.TrustProxy, cfg.TrustedProxies)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SESSION_SECRET", "dev-secret")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("CORS_ORIGINS", "https://a.dev,https://b.dev")
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://guest:guest@mq:5672/")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DB.Driver != "postgres" || len(cfg.CORSOrigins) != 2 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.AMQPURL != "amqp://guest:guest@mq:5672/" {
		t.Fatalf("AMQP_URL fallback = %q", cfg.AMQPURL)
	}
}

func TestValidate(t *testing.T) {
	base := Config{Env: "development", SessionSecret: "x", SessionTTL: time.Hour, DB: DatabaseConfig{Driver: "mysql"}}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"missing secret", func(c *Config) { c.SessionSecret = " " }, "SESSION_SECRET is required"},
		{"short secret in production", func(c *Config) { c.Env = "production" }, "at least 32"},
		{"bad driver", func(c *Config) { c.DB.Driver = "sqlite" }, "unsupported DB_DRIVER"},
		{"zero ttl", func(c *Config) { c.SessionTTL = 0 }, "SESSION_TTL"},
		{"trusted proxies", func(c *Config) { c.TrustedProxies = []string{"10.0.0.0/8", " 192.168.1.0/24"} }, ""},
		{"bad proxy cidr", func(c *Config) { c.TrustedProxies = []string{"10.0.0.1"} }, "TRUSTED_PROXIES"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadRateLimitConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "100")
	t.Setenv("RATE_LIMIT_WINDOW_MS", "900000")
	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 100 || cfg.RefillInterval != 9*time.Second {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.TTL < 5*cfg.RefillInterval {
		t.Fatalf("ttl %s shorter than refill floor", cfg.TTL)
	}
}

func TestLoadLoginLimitConfig(t *testing.T) {
	t.Setenv("LOGIN_RATE_LIMIT_MAX", "0")
	cfg := LoadLoginLimitConfig()
	if cfg.Max != 1 || cfg.Window != 15*time.Minute || !cfg.Enabled {
		t.Fatalf("cfg = %+v", cfg)
	}
	if d := DefaultLoginLimitConfig(); d.Max != 5 || d.Window != 15*time.Minute {
		t.Fatalf("default = %+v", d)
	}
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_TTL", "bogus")
	cfg := LoadCacheConfig()
	if cfg.TTL != time.Minute || !cfg.Methods["GET"] || cfg.Prefix != "cache:projects" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestNewRedisClientDisabled(t *testing.T) {
	t.Setenv("REDIS_ENABLED", "false")
	if NewRedisClient() != nil {
		t.Fatalf("expected nil client when disabled")
	}
}

func TestRedisConfigOptions(t *testing.T) {
	cfg := RedisConfig{Addr: "cache:6379", Host: "redis.internal", Port: "6380", DB: 2, TLS: true}
	opts := cfg.Options()
	if opts.Addr != "redis.internal:6380" || opts.DB != 2 {
		t.Fatalf("opts = %+v", opts)
	}
	if opts.TLSConfig == nil || opts.TLSConfig.InsecureSkipVerify {
		t.Fatalf("tls = %+v", opts.TLSConfig)
	}

	cfg = RedisConfig{Addr: "cache:6379", Host: "only-host"}
	if got := cfg.Options().Addr; got != "cache:6379" {
		t.Fatalf("addr = %q", got)
	}
}

func TestLoadCacheConfigMethods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("CACHE_TTL", "2m")
	cfg := LoadCacheConfig()
	if !cfg.Methods["GET"] || !cfg.Methods["HEAD"] || len(cfg.Methods) != 2 || cfg.TTL != 2*time.Minute {
		t.Fatalf("cfg = %+v", cfg)
	}
}
