package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/edwanmarques/portfolio/internal/config"
)

// openTestRedis connects to PORTFOLIO_TEST_REDIS_ADDR. The tests are
// skipped when it is not set.
func openTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("PORTFOLIO_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PORTFOLIO_TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Fatalf("ping %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func keysUnder(t *testing.T, rdb *redis.Client, prefix string) []string {
	t.Helper()
	keys, err := rdb.Keys(context.Background(), prefix+":*").Result()
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	return keys
}

func TestProjectCachePurgedOnWrite(t *testing.T) {
	rdb := openTestRedis(t)
	ns := fmt.Sprintf("test:%d", time.Now().UnixNano())
	cachePrefix := ns + ":cache"
	t.Cleanup(func() {
		ctx := context.Background()
		if keys, _ := rdb.Keys(ctx, ns+":*").Result(); len(keys) > 0 {
			_ = rdb.Del(ctx, keys...).Err()
		}
	})

	d := testDeps()
	d.Redis = rdb
	d.LoginLimit.Prefix = ns + ":login"
	d.Cache = config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          time.Minute,
		KeyStrategy:  "path_query",
		Prefix:       cachePrefix,
		MaxBodyBytes: 1 << 20,
	}
	e := New(d)

	admin := newBrowser(e)
	admin.do(http.MethodPost, "/api/auth/setup", `{"username":"admin","password":"secret1"}`)
	if rec := admin.do(http.MethodPost, "/api/auth/login", `{"username":"admin","password":"secret1"}`); rec.Code != http.StatusOK {
		t.Fatalf("login: %d", rec.Code)
	}
	if rec := admin.do(http.MethodPost, "/api/projects", `{"title":"Demo","slug":"demo","description":"x","image":"/i.png","category":"fullstack","technologies":["TS"]}`); rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body)
	}

	visitor := newBrowser(e)
	visitor.ip = "198.51.100.20"
	get := func(path, wantCache string, wantStatus int) map[string]any {
		t.Helper()
		rec := visitor.do(http.MethodGet, path, "")
		if rec.Code != wantStatus {
			t.Fatalf("GET %s: status %d, want %d", path, rec.Code, wantStatus)
		}
		if got := rec.Header().Get("X-Cache"); got != wantCache {
			t.Fatalf("GET %s: X-Cache %q, want %q", path, got, wantCache)
		}
		var body map[string]any
		_ = json.Unmarshal(rec.Body.Bytes(), &body)
		return body
	}

	get("/api/projects/demo", "MISS", http.StatusOK)
	if body := get("/api/projects/demo", "HIT", http.StatusOK); body["title"] != "Demo" {
		t.Fatalf("cached title = %v", body["title"])
	}
	get("/api/projects", "MISS", http.StatusOK)
	get("/api/projects", "HIT", http.StatusOK)

	if rec := admin.do(http.MethodPatch, "/api/projects/1", `{"title":"Renamed"}`); rec.Code != http.StatusOK {
		t.Fatalf("patch: %d %s", rec.Code, rec.Body)
	}
	if keys := keysUnder(t, rdb, cachePrefix); len(keys) != 0 {
		t.Fatalf("keys left after update: %v", keys)
	}
	if body := get("/api/projects/demo", "MISS", http.StatusOK); body["title"] != "Renamed" {
		t.Fatalf("title after update = %v", body["title"])
	}
	get("/api/projects/demo", "HIT", http.StatusOK)

	if rec := admin.do(http.MethodDelete, "/api/projects/1", ""); rec.Code != http.StatusOK {
		t.Fatalf("delete: %d %s", rec.Code, rec.Body)
	}
	if keys := keysUnder(t, rdb, cachePrefix); len(keys) != 0 {
		t.Fatalf("keys left after delete: %v", keys)
	}
	get("/api/projects/demo", "MISS", http.StatusNotFound)
	// Errors are never stored.
	get("/api/projects/demo", "MISS", http.StatusNotFound)
}
