package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/edwanmarques/portfolio/internal/config"
	"github.com/edwanmarques/portfolio/internal/model"
	"github.com/edwanmarques/portfolio/internal/repository"
	"github.com/edwanmarques/portfolio/internal/repository/memstore"
	"github.com/edwanmarques/portfolio/internal/utils"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }

func okHandler(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func TestWindowLimiterBlocksAfterMax(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewLoginLimiter(config.DefaultLoginLimitConfig(), nil).WithCounter(NewMemoryWindow(clock.Now))

	e := echo.New()
	e.POST("/login", okHandler, l.Middleware())

	do := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	for i := 1; i <= 5; i++ {
		if rec := do("10.0.0.1"); rec.Code != http.StatusOK {
			t.Fatalf("attempt %d: status = %d", i, rec.Code)
		}
	}
	rec := do("10.0.0.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("6th attempt: status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After")
	}
	if rec := do("10.0.0.2"); rec.Code != http.StatusOK {
		t.Fatalf("other client: status = %d", rec.Code)
	}

	clock.t = clock.t.Add(15 * time.Minute)
	if rec := do("10.0.0.1"); rec.Code != http.StatusOK {
		t.Fatalf("after window: status = %d", rec.Code)
	}
}

type failingCounter struct{}

func (failingCounter) Hit(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return 0, 0, context.DeadlineExceeded
}

func TestWindowLimiterFallsBackToMemory(t *testing.T) {
	l := NewLoginLimiter(config.DefaultLoginLimitConfig(), nil).WithCounter(failingCounter{})
	e := echo.New()
	e.POST("/login", okHandler, l.Middleware())

	var last int
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429 from memory fallback", last)
	}
}

func TestRequireSession(t *testing.T) {
	store := memstore.NewSessions()
	now := time.Now().UTC()
	sc := SessionConfig{CookieName: "portfolio.sid", Secret: "s3cret", TTL: time.Hour, Store: store}

	live, _ := utils.IssueSessionToken(sc.Secret, time.Hour, now)
	_ = store.Create(context.Background(), &model.Session{ID: utils.HashSessionID(live.Raw), UserID: 7, ExpiresAt: live.Exp})

	stale, _ := utils.IssueSessionToken(sc.Secret, time.Hour, now)
	_ = store.Create(context.Background(), &model.Session{ID: utils.HashSessionID(stale.Raw), UserID: 7, ExpiresAt: now.Add(-time.Minute)})

	orphan, _ := utils.IssueSessionToken(sc.Secret, time.Hour, now)
	forged, _ := utils.IssueSessionToken("other-secret", time.Hour, now)

	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		id, ok := UserID(c)
		if !ok {
			return c.NoContent(http.StatusTeapot)
		}
		return c.JSON(http.StatusOK, echo.Map{"userId": id})
	}, RequireSession(sc))

	tests := []struct {
		name   string
		cookie string
		want   int
	}{
		{"no cookie", "", http.StatusUnauthorized},
		{"live session", live.Signed, http.StatusOK},
		{"expired session", stale.Signed, http.StatusUnauthorized},
		{"unknown session", orphan.Signed, http.StatusUnauthorized},
		{"forged signature", forged.Signed, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: sc.CookieName, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	if _, err := store.Get(context.Background(), utils.HashSessionID(stale.Raw)); err == nil {
		t.Fatalf("expired session row should be deleted on lookup")
	}
}

func TestSessionCookieFlags(t *testing.T) {
	sc := SessionConfig{CookieName: "portfolio.sid", Secret: "x", TTL: 30 * 24 * time.Hour, Secure: true}
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
	sc.SetSessionCookie(c, utils.SessionToken{Signed: "v", Exp: time.Now().Add(sc.TTL)})

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %d", len(cookies))
	}
	ck := cookies[0]
	if !ck.HttpOnly || !ck.Secure || ck.SameSite != http.SameSiteStrictMode || ck.MaxAge != 30*24*3600 {
		t.Fatalf("unexpected cookie flags: %+v", ck)
	}
}

func TestSecurityHeaders(t *testing.T) {
	e := echo.New()
	e.Use(SecurityHeaders(false))
	e.GET("/", okHandler)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	want := map[string]string{
		"X-Frame-Options":         "DENY",
		"X-XSS-Protection":        "1; mode=block",
		"X-Content-Type-Options":  "nosniff",
		"Referrer-Policy":         "strict-origin-when-cross-origin",
		"Content-Security-Policy": ContentSecurityPolicy,
	}
	for k, v := range want {
		if got := rec.Header().Get(k); got != v {
			t.Fatalf("%s = %q, want %q", k, got, v)
		}
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Fatalf("HSTS must be off outside production")
	}
}

func TestCacheKeyUsesRequestPath(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache:projects", KeyStrategy: "path_query"}
	e := echo.New()
	a := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/projects/a", nil), httptest.NewRecorder())
	b := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/projects/b", nil), httptest.NewRecorder())
	a.SetPath("/api/projects/:slug")
	b.SetPath("/api/projects/:slug")
	if cacheKeyFrom(cfg, a) == cacheKeyFrom(cfg, b) {
		t.Fatalf("different slugs must not share a cache key")
	}
}

func TestResponseCacheInactiveWithoutRedis(t *testing.T) {
	rc := NewResponseCache(config.CacheConfig{Enabled: true}, nil)
	if err := rc.Purge(context.Background()); err != nil {
		t.Fatalf("purge: %v", err)
	}
	e := echo.New()
	e.GET("/", okHandler, rc.Middleware())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || rec.Header().Get("X-Cache") != "" {
		t.Fatalf("expected passthrough, got %d %q", rec.Code, rec.Header().Get("X-Cache"))
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`[]`))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	status, got, body, ok := decodePayload(bs)
	if !ok || status != http.StatusOK || string(body) != "[]" || got.Get("Content-Type") != "application/json" {
		t.Fatalf("decode mismatch: %d %v %q %v", status, got, body, ok)
	}
	if _, _, _, ok := decodePayload([]byte{1, 2}); ok {
		t.Fatalf("short payload must not decode")
	}
}

// countingBucket allows the first n takes per key and then refuses.
type countingBucket struct {
	n     int64
	taken map[string]int64
	err   error
}

func (b *countingBucket) Take(_ context.Context, key string, _ config.RateLimitConfig, _ time.Time) (BucketResult, error) {
	if b.err != nil {
		return BucketResult{}, b.err
	}
	b.taken[key]++
	if b.taken[key] > b.n {
		return BucketResult{RetryIn: 1500 * time.Millisecond}, nil
	}
	return BucketResult{Allowed: true, Remaining: b.n - b.taken[key]}, nil
}

func TestTokenBucketMiddleware(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 2, Prefix: "rl", KeyStrategy: "ip"}
	store := &countingBucket{n: 2, taken: map[string]int64{}}
	e := echo.New()
	e.GET("/api/health", okHandler, NewTokenBucketLimiter(cfg, store).Middleware())

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.RemoteAddr = "192.0.2.1:5555"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}
	for i := 0; i < 2; i++ {
		if rec := do(); rec.Code != http.StatusOK {
			t.Fatalf("request %d: %d", i, rec.Code)
		}
	}
	rec := do()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "2" {
		t.Fatalf("Retry-After = %q", got)
	}
	if got := rec.Header().Get("RateLimit-Limit"); got != "2" {
		t.Fatalf("RateLimit-Limit = %q", got)
	}
	if _, ok := store.taken["rl:ip:192.0.2.1"]; !ok {
		t.Fatalf("unexpected keys: %v", store.taken)
	}
}

func TestTokenBucketFailsOpen(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, Prefix: "rl"}
	store := &countingBucket{err: context.DeadlineExceeded}
	e := echo.New()
	e.GET("/x", okHandler, NewTokenBucketLimiter(cfg, store).Middleware())
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: %d", i, rec.Code)
		}
	}
}

func TestBuildRateKeyStrategies(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.RemoteAddr = "198.51.100.4:1"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/projects")

	cases := map[string]string{
		"":         "rl:ip:198.51.100.4",
		"ip":       "rl:ip:198.51.100.4",
		"route":    "rl:route:GET /api/projects",
		"ip_route": "rl:ip:198.51.100.4:route:GET /api/projects",
	}
	for strategy, want := range cases {
		got := buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: strategy}, c)
		if got != want {
			t.Fatalf("strategy %q: got %q want %q", strategy, got, want)
		}
	}
}

// undeletableSessions refuses every delete.
type undeletableSessions struct {
	*memstore.Sessions
}

func (undeletableSessions) Delete(context.Context, string) error {
	return errors.New("connection reset")
}

func TestRequireSessionLogsFailedExpiredDelete(t *testing.T) {
	store := undeletableSessions{memstore.NewSessions()}
	now := time.Now().UTC()
	sc := SessionConfig{CookieName: "portfolio.sid", Secret: "s3cret", TTL: time.Hour, Store: store}

	stale, _ := utils.IssueSessionToken(sc.Secret, time.Hour, now)
	_ = store.Create(context.Background(), &model.Session{ID: utils.HashSessionID(stale.Raw), UserID: 7, ExpiresAt: now.Add(-time.Minute)})

	_, err := sc.Lookup(context.Background(), stale.Raw)
	if !errors.Is(err, repository.ErrNotFound) || !strings.Contains(err.Error(), "connection reset") {
		t.Fatalf("lookup err = %v", err)
	}

	var logs bytes.Buffer
	e := echo.New()
	e.Logger.SetOutput(&logs)
	e.GET("/me", okHandler, RequireSession(sc))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: sc.CookieName, Value: stale.Signed})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(logs.String(), "delete expired session") {
		t.Fatalf("delete failure not logged: %q", logs.String())
	}
}
