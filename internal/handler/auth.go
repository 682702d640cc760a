package handler

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/edwanmarques/portfolio/internal/middleware"
	"github.com/edwanmarques/portfolio/internal/model"
	"github.com/edwanmarques/portfolio/internal/repository"
	"github.com/edwanmarques/portfolio/internal/utils"
)

// AuthHandler bundles dependencies for the admin auth endpoints.
type AuthHandler struct {
	Users      repository.UserStore
	Session    middleware.SessionConfig
	BcryptCost int

	// FailureDelay is slept after a failed login. Nil means a random
	// 0-100ms pause.
	FailureDelay func() time.Duration

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthHandler(users repository.UserStore, session middleware.SessionConfig, bcryptCost int) *AuthHandler {
	return &AuthHandler{Users: users, Session: session, BcryptCost: bcryptCost}
}

// ----- DTOs -----

type credentialsReq struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=6"`
}

func (r *credentialsReq) normalize() { r.Username = strings.TrimSpace(r.Username) }

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Setup creates the one and only admin. It is refused once any admin
// exists.
func (h *AuthHandler) Setup(c echo.Context) error {
	ctx, cancel := storeCtx(c)
	defer cancel()

	n, err := h.Users.Count(ctx)
	if err != nil {
		return internalError("Failed to create admin user", err)
	}
	if n > 0 {
		return errSetupDone
	}

	var req credentialsReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	hash, err := utils.HashPassword(req.Password, h.BcryptCost)
	if err != nil {
		return internalError("Failed to create admin user", err)
	}
	u := &model.AdminUser{Username: req.Username, PasswordHash: hash}
	if err := h.Users.CreateFirst(ctx, u); err != nil {
		if errors.Is(err, repository.ErrForbidden) || errors.Is(err, repository.ErrConflict) {
			return errSetupDone
		}
		return internalError("Failed to create admin user", err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Admin user created successfully",
		"userId":  u.ID,
	})
}

// Login verifies credentials and starts a fresh session. Unknown users and
// wrong passwords produce the same response.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return errInvalidInput
	}
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return errInvalidInput
	}

	ctx, cancel := storeCtx(c)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		// burn the same bcrypt work as a real comparison
		utils.VerifyPassword(h.dummy(), req.Password)
		h.failurePause(ctx)
		return errInvalidCredentials
	case err != nil:
		return internalError("Login failed", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		h.failurePause(ctx)
		return errInvalidCredentials
	}

	// Regenerate: whatever session the request carried is discarded.
	if old := h.Session.ReadSessionID(c); old != "" {
		if err := h.Session.Store.Delete(ctx, utils.HashSessionID(old)); err != nil {
			c.Logger().Warnf("login: drop previous session: %v", err)
		}
	}

	tok, err := utils.IssueSessionToken(h.Session.Secret, h.Session.TTL, time.Now())
	if err != nil {
		return internalError("Login failed", err)
	}
	sess := &model.Session{ID: utils.HashSessionID(tok.Raw), UserID: u.ID, ExpiresAt: tok.Exp}
	if err := h.Session.Store.Create(ctx, sess); err != nil {
		return internalError("Login failed", err)
	}
	h.Session.SetSessionCookie(c, tok)

	return c.JSON(http.StatusOK, echo.Map{"message": "Login successful"})
}

// Check re-reads the admin behind the session; a session whose user has
// since been removed is treated as absent.
func (h *AuthHandler) Check(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	ctx, cancel := storeCtx(c)
	defer cancel()
	if _, err := h.Users.GetByID(ctx, uid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errUnauthorized
		}
		return internalError("Failed to verify session", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User authenticated", "userId": uid})
}

// Logout destroys the current session, if any, and clears the cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	if raw := h.Session.ReadSessionID(c); raw != "" {
		ctx, cancel := storeCtx(c)
		defer cancel()
		if err := h.Session.Store.Delete(ctx, utils.HashSessionID(raw)); err != nil {
			return internalError("Logout failed", err)
		}
	}
	h.Session.ClearSessionCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "Logout successful"})
}

func (h *AuthHandler) dummy() string {
	h.dummyOnce.Do(func() { h.dummyHash = utils.DummyHash(h.BcryptCost) })
	return h.dummyHash
}

func (h *AuthHandler) failurePause(ctx context.Context) {
	d := time.Duration(rand.Int63n(int64(100 * time.Millisecond)))
	if h.FailureDelay != nil {
		d = h.FailureDelay()
	}
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
