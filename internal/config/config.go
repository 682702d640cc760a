package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable; defaults mirror a local development setup.
type Config struct {
	Env  string `env:"APP_ENV" envDefault:"development"` // application environment (development/test/production)
	Port string `env:"APP_PORT" envDefault:"3000"`       // HTTP port to listen on

	DB DatabaseConfig

	SessionSecret        string        `env:"SESSION_SECRET"`                                // HMAC key for the session cookie
	SessionCookieName    string        `env:"SESSION_COOKIE_NAME" envDefault:"portfolio.sid"` // cookie holding the signed session id
	SessionTTL           time.Duration `env:"SESSION_TTL" envDefault:"720h"`                  // 30 days
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"1h"`         // expired-session cleanup period
	BcryptCost           int           `env:"BCRYPT_COST" envDefault:"10"`                    // bcrypt cost for password hashing

	CORSOrigins       []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	EnableCompression bool     `env:"ENABLE_COMPRESSION" envDefault:"false"`
	BodyLimit         string   `env:"BODY_LIMIT" envDefault:"1M"`

	// Client addresses come from the socket unless TRUST_PROXY is set; then
	// X-Forwarded-For is honoured when the hop is a trusted proxy. With
	// TRUSTED_PROXIES empty, echo's loopback/private defaults apply.
	TrustProxy     bool     `env:"TRUST_PROXY" envDefault:"false"`
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	AMQPURL                string `env:"RABBITMQ_URL"`                               // empty disables contact notifications
	ContactConsumerEnabled bool   `env:"CONTACT_CONSUMER_ENABLED" envDefault:"false"` // run the contact.received consumer in-process
	ContactLogDir          string `env:"CONTACT_LOG_DIR" envDefault:"logs"`
}

// DatabaseConfig describes how to reach the relational store. DATABASE_URL
// wins over the discrete DB_* variables when set.
type DatabaseConfig struct {
	Driver          string        `env:"DB_DRIVER" envDefault:"mysql"` // mysql | postgres
	URL             string        `env:"DATABASE_URL"`
	User            string        `env:"DB_USER" envDefault:"root"`
	Pass            string        `env:"DB_PASS"`
	Host            string        `env:"DB_HOST" envDefault:"127.0.0.1"`
	Port            string        `env:"DB_PORT"`
	Name            string        `env:"DB_NAME" envDefault:"portfolio"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"25"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	AutoMigrate     bool          `env:"DB_AUTOMIGRATE" envDefault:"true"`
	LogLevel        string        `env:"DB_LOG_LEVEL" envDefault:"warn"` // silent | error | warn | info
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.AMQPURL == "" {
		cfg.AMQPURL = os.Getenv("AMQP_URL")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDatabase parses only the database section; maintenance commands use it
// so they do not need the HTTP-side secrets.
func LoadDatabase() (DatabaseConfig, error) {
	var cfg DatabaseConfig
	if err := env.Parse(&cfg); err != nil {
		return DatabaseConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate reports configuration that would make the server unsafe or
// unable to start.
func (c Config) Validate() error {
	if strings.TrimSpace(c.SessionSecret) == "" {
		return errors.New("SESSION_SECRET is required")
	}
	if c.IsProduction() && len(c.SessionSecret) < 32 {
		return errors.New("SESSION_SECRET must be at least 32 characters in production")
	}
	switch strings.ToLower(c.DB.Driver) {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(strings.TrimSpace(cidr)); err != nil {
			return fmt.Errorf("TRUSTED_PROXIES: invalid CIDR %q", cidr)
		}
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	return nil
}

// IsProduction reports whether secure cookies and HSTS should be enabled.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production") || strings.EqualFold(c.Env, "prod")
}
