package router // package router wires middleware and routes onto an echo instance

import (
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/edwanmarques/portfolio/internal/config"
	"github.com/edwanmarques/portfolio/internal/handler"
	"github.com/edwanmarques/portfolio/internal/middleware"
	"github.com/edwanmarques/portfolio/internal/repository"
)

// Deps is everything the HTTP surface needs. Redis and Notifier are
// optional; the remaining stores are required.
type Deps struct {
	Config config.Config

	Users    repository.UserStore
	Contacts repository.ContactStore
	Projects repository.ProjectStore
	Sessions repository.SessionStore

	Redis    *redis.Client
	Notifier handler.ContactNotifier

	RateLimit  config.RateLimitConfig
	LoginLimit config.LoginLimitConfig
	Cache      config.CacheConfig

	// LoginLimiter overrides the limiter built from LoginLimit.
	LoginLimiter *middleware.WindowLimiter
	// AccessLog enables the request logger on /api paths.
	AccessLog bool
}

// New builds the fully wired echo instance.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.HTTPErrorHandler
	e.IPExtractor = clientIPExtractor(d.Config)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))
	if d.AccessLog {
		e.Use(accessLog())
	}
	e.Use(middleware.SecurityHeaders(d.Config.IsProduction()))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     d.Config.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAccept},
		AllowCredentials: true,
	}))
	if d.Config.BodyLimit != "" {
		e.Use(echomw.BodyLimit(d.Config.BodyLimit))
	}
	if d.Config.EnableCompression {
		e.Use(echomw.Gzip())
	}

	session := middleware.SessionConfig{
		CookieName: d.Config.SessionCookieName,
		Secret:     d.Config.SessionSecret,
		TTL:        d.Config.SessionTTL,
		Secure:     d.Config.IsProduction(),
		Store:      d.Sessions,
	}
	if session.CookieName == "" {
		session.CookieName = "portfolio.sid"
	}

	limiter := d.LoginLimiter
	if limiter == nil {
		limiter = middleware.NewLoginLimiter(d.LoginLimit, d.Redis)
	}
	cache := middleware.NewResponseCache(d.Cache, d.Redis)

	api := e.Group("/api", middleware.NewTokenBucket(d.RateLimit, d.Redis))
	RegisterRoutes(api)
	RegisterAuth(api, handler.NewAuthHandler(d.Users, session, d.Config.BcryptCost), session, limiter)
	RegisterContacts(api, handler.NewContactHandler(d.Contacts, d.Notifier), session)
	RegisterProjects(api, handler.NewProjectHandler(d.Projects, cache), session, cache)
	return e
}

// RegisterRoutes registers routes that need neither a session nor a store.
func RegisterRoutes(g *echo.Group) {
	g.GET("/health", handler.Health)
}

// RegisterAuth registers setup, login, check and logout. Only check sits
// behind the session guard; login is rate limited per client address.
func RegisterAuth(g *echo.Group, a *handler.AuthHandler, s middleware.SessionConfig, limiter *middleware.WindowLimiter) {
	auth := g.Group("/auth")
	auth.POST("/setup", a.Setup)
	auth.POST("/login", a.Login, limiter.Middleware())
	auth.GET("/check", a.Check, middleware.RequireSession(s))
	auth.POST("/logout", a.Logout)
}

// RegisterContacts exposes the public contact form and the admin listing.
func RegisterContacts(g *echo.Group, h *handler.ContactHandler, s middleware.SessionConfig) {
	g.POST("/contact", h.Submit)
	g.GET("/contacts", h.List, middleware.RequireSession(s))
}

// RegisterProjects exposes public reads, cached when Redis is present, and
// session-gated writes.
func RegisterProjects(g *echo.Group, h *handler.ProjectHandler, s middleware.SessionConfig, cache *middleware.ResponseCache) {
	g.GET("/projects", h.List, cache.Middleware())
	g.GET("/projects/:slug", h.GetBySlug, cache.Middleware())

	guard := middleware.RequireSession(s)
	g.POST("/projects", h.Create, guard)
	g.PATCH("/projects/:id", h.Update, guard)
	g.DELETE("/projects/:id", h.Delete, guard)
}

// clientIPExtractor decides what c.RealIP returns, and with it every rate
// limit key. Forwarding headers are ignored unless TrustProxy is set, so a
// client cannot choose its own key.
func clientIPExtractor(cfg config.Config) echo.IPExtractor {
	if !cfg.TrustProxy {
		return echo.ExtractIPDirect()
	}
	var opts []echo.TrustOption
	if len(cfg.TrustedProxies) > 0 {
		opts = append(opts, echo.TrustLoopback(false), echo.TrustLinkLocal(false), echo.TrustPrivateNet(false))
		for _, cidr := range cfg.TrustedProxies {
			if _, ipNet, err := net.ParseCIDR(strings.TrimSpace(cidr)); err == nil {
				opts = append(opts, echo.TrustIPRange(ipNet))
			}
		}
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

func accessLog() echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		Skipper:      func(c echo.Context) bool { return !strings.HasPrefix(c.Request().URL.Path, "/api") },
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			if v.Error != nil {
				c.Logger().Warnf("%s %s %d %s id=%s err=%v", v.Method, v.URI, v.Status, v.Latency, v.RequestID, v.Error)
				return nil
			}
			c.Logger().Infof("%s %s %d %s id=%s", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			return nil
		},
	})
}
