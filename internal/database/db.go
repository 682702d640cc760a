package database

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/edwanmarques/portfolio/internal/config"
	"github.com/edwanmarques/portfolio/internal/model"
)

// Open connects to MySQL or Postgres through GORM and verifies the
// connection.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  logLevel(cfg.LogLevel),
				IgnoreRecordNotFoundError: true,
			},
		),
		// duplicate-key errors surface as gorm.ErrDuplicatedKey
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// Pool settings
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the four tables the API needs.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.AdminUser{},
		&model.ContactMessage{},
		&model.Project{},
		&model.Session{},
	)
}

// Close releases the underlying pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch strings.ToLower(cfg.Driver) {
	case "mysql", "":
		dsn, err := MySQLDSN(cfg)
		if err != nil {
			return nil, err
		}
		return mysql.Open(dsn), nil
	case "postgres", "postgresql":
		return postgres.Open(PostgresDSN(cfg)), nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
}

// MySQLDSN builds a go-sql-driver DSN. A mysql:// DATABASE_URL is
// converted; any other non-empty URL is assumed to already be a DSN.
func MySQLDSN(cfg config.DatabaseConfig) (string, error) {
	raw := strings.TrimSpace(cfg.URL)
	if raw != "" && !strings.HasPrefix(raw, "mysql://") {
		return raw, nil
	}

	mc := gomysql.NewConfig()
	mc.Net = "tcp"
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.Params = map[string]string{"charset": "utf8mb4"}

	if raw != "" {
		u, err := url.Parse(raw)
		if err != nil {
			return "", err
		}
		port := u.Port()
		if port == "" {
			port = "3306"
		}
		mc.User = u.User.Username()
		mc.Passwd, _ = u.User.Password()
		mc.Addr = u.Hostname() + ":" + port
		mc.DBName = strings.TrimPrefix(u.Path, "/")
		if mc.DBName == "" {
			return "", fmt.Errorf("mysql url missing database name")
		}
		for k, v := range u.Query() {
			if len(v) > 0 {
				mc.Params[k] = v[0]
			}
		}
		return mc.FormatDSN(), nil
	}

	port := cfg.Port
	if port == "" {
		port = "3306"
	}
	mc.User = cfg.User
	mc.Passwd = cfg.Pass
	mc.Addr = cfg.Host + ":" + port
	mc.DBName = cfg.Name
	return mc.FormatDSN(), nil
}

// PostgresDSN returns DATABASE_URL unchanged or a key/value DSN built from
// the discrete settings.
func PostgresDSN(cfg config.DatabaseConfig) string {
	if raw := strings.TrimSpace(cfg.URL); raw != "" {
		return raw
	}
	port := cfg.Port
	if port == "" {
		port = "5432"
	}
	parts := []string{
		"host=" + cfg.Host,
		"port=" + port,
		"user=" + cfg.User,
		"dbname=" + cfg.Name,
		"sslmode=disable",
		"TimeZone=UTC",
	}
	if cfg.Pass != "" {
		parts = append(parts, "password="+cfg.Pass)
	}
	return strings.Join(parts, " ")
}

func logLevel(s string) logger.LogLevel {
	switch strings.ToLower(s) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
