package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/edwanmarques/portfolio/internal/repository"
	"github.com/edwanmarques/portfolio/internal/utils"
)

// UserIDKey is the echo context key holding the authenticated admin id
// (uint64) once RequireSession has passed.
const UserIDKey = "user_id"

// SessionConfig describes the session cookie shared by the guard and the
// auth handlers.
type SessionConfig struct {
	CookieName string
	Secret     string
	TTL        time.Duration
	Secure     bool
	Store      repository.SessionStore
	Now        func() time.Time
}

func (s SessionConfig) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// ReadSessionID returns the raw session id carried by the request cookie,
// or "" when the cookie is missing or does not verify.
func (s SessionConfig) ReadSessionID(c echo.Context) string {
	ck, err := c.Cookie(s.CookieName)
	if err != nil || ck.Value == "" {
		return ""
	}
	raw, err := utils.ParseSessionToken(s.Secret, ck.Value)
	if err != nil {
		return ""
	}
	return raw
}

// SetSessionCookie writes the signed cookie for tok.
func (s SessionConfig) SetSessionCookie(c echo.Context, tok utils.SessionToken) {
	c.SetCookie(&http.Cookie{
		Name:     s.CookieName,
		Value:    tok.Signed,
		Path:     "/",
		Expires:  tok.Exp,
		MaxAge:   int(s.TTL / time.Second),
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearSessionCookie expires the cookie on the client.
func (s SessionConfig) ClearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     s.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// Lookup resolves a raw session id against the store. Expired rows are
// deleted and reported as repository.ErrNotFound; a failed delete is joined
// onto that error so callers still treat the session as absent.
func (s SessionConfig) Lookup(ctx context.Context, raw string) (*ActiveSession, error) {
	if raw == "" {
		return nil, repository.ErrNotFound
	}
	hashed := utils.HashSessionID(raw)
	sess, err := s.Store.Get(ctx, hashed)
	if err != nil {
		return nil, err
	}
	if sess.Expired(s.now()) {
		if err := s.Store.Delete(ctx, hashed); err != nil {
			return nil, errors.Join(repository.ErrNotFound, fmt.Errorf("delete expired session: %w", err))
		}
		return nil, repository.ErrNotFound
	}
	return &ActiveSession{ID: hashed, UserID: sess.UserID}, nil
}

// ActiveSession is a verified, unexpired session. ID is the stored hash.
type ActiveSession struct {
	ID     string
	UserID uint64
}

// RequireSession rejects requests without a live server-side session with
// 401 and stores the admin id under UserIDKey otherwise.
func RequireSession(s SessionConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := s.ReadSessionID(c)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
			}
			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			sess, err := s.Lookup(ctx, raw)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					if err != repository.ErrNotFound {
						c.Logger().Warnf("session lookup: %v", err)
					}
					return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
				}
				c.Logger().Errorf("session lookup: %v", err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Internal server error"})
			}
			c.Set(UserIDKey, sess.UserID)
			return next(c)
		}
	}
}
