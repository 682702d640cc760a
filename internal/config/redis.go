package config

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"
)

// RedisConfig locates the Redis server backing the login limiter, the
// global request limiter and the public project cache. REDIS_HOST and
// REDIS_PORT win over REDIS_ADDR when both are set.
type RedisConfig struct {
	Enabled     bool   `env:"REDIS_ENABLED" envDefault:"true"`
	Addr        string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Host        string `env:"REDIS_HOST"`
	Port        string `env:"REDIS_PORT"`
	Password    string `env:"REDIS_PASSWORD"`
	DB          int    `env:"REDIS_DB" envDefault:"0"`
	TLS         bool   `env:"REDIS_TLS"`
	TLSInsecure bool   `env:"REDIS_TLS_INSECURE"` // self-signed brokers
}

func (c RedisConfig) address() string {
	if c.Host != "" && c.Port != "" {
		return net.JoinHostPort(c.Host, c.Port)
	}
	return c.Addr
}

// Options converts the config into go-redis client options.
func (c RedisConfig) Options() *redis.Options {
	opts := &redis.Options{
		Addr:     c.address(),
		Password: c.Password,
		DB:       c.DB,
	}
	if c.TLS {
		opts.TLSConfig = &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: c.TLSInsecure,
		}
	}
	return opts
}

// NewRedisClient connects using the REDIS_* variables. It returns nil when
// Redis is disabled, misconfigured or unreachable; callers degrade: the
// login limiter counts in process and the global limiter and cache turn off.
func NewRedisClient() *redis.Client {
	var cfg RedisConfig
	if err := env.Parse(&cfg); err != nil || !cfg.Enabled {
		return nil
	}
	client := redis.NewClient(cfg.Options())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
