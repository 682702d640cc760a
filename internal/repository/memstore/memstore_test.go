package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/edwanmarques/portfolio/internal/model"
	"github.com/edwanmarques/portfolio/internal/repository"
)

func TestUsersCreateFirst(t *testing.T) {
	ctx := context.Background()
	s := NewUsers()
	if err := s.CreateFirst(ctx, &model.AdminUser{Username: "admin", PasswordHash: "h"}); err != nil {
		t.Fatalf("first: %v", err)
	}
	if err := s.CreateFirst(ctx, &model.AdminUser{Username: "other", PasswordHash: "h"}); !errors.Is(err, repository.ErrForbidden) {
		t.Fatalf("second: %v", err)
	}
	u, err := s.GetByUsername(ctx, "admin")
	if err != nil || u.ID != 1 {
		t.Fatalf("get: %+v %v", u, err)
	}
	if err := s.UpdatePassword(ctx, 1, "h2"); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := s.UpdatePassword(ctx, 9, "h2"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("update missing: %v", err)
	}
	if n, _ := s.DeleteAll(ctx); n != 1 {
		t.Fatalf("deleted = %d", n)
	}
	if _, err := s.First(ctx); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("first after delete: %v", err)
	}
}

func TestProjectsSlugUniqueness(t *testing.T) {
	ctx := context.Background()
	s := NewProjects()
	a := &model.Project{Title: "A", Slug: "a", Technologies: datatypes.JSONSlice[string]{"Go"}}
	b := &model.Project{Title: "B", Slug: "b", Technologies: datatypes.JSONSlice[string]{"Go"}}
	if err := s.Create(ctx, a); err != nil {
		t.Fatalf("create a: %v", err)
	}
	if err := s.Create(ctx, b); err != nil {
		t.Fatalf("create b: %v", err)
	}
	if err := s.Create(ctx, &model.Project{Title: "dup", Slug: "a"}); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("dup create: %v", err)
	}

	upd := b.Clone()
	upd.Slug = "a"
	upd.Title = "changed"
	if err := s.Update(ctx, &upd); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("dup update: %v", err)
	}
	got, _ := s.GetByID(ctx, b.ID)
	if got.Title != "B" || got.Slug != "b" {
		t.Fatalf("row modified by failed update: %+v", got)
	}
	if n, _ := s.Count(ctx); n != 2 {
		t.Fatalf("count = %d", n)
	}
}

func TestProjectsUpdateKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	s := NewProjects()
	p := &model.Project{Slug: "p"}
	_ = s.Create(ctx, p)
	upd := p.Clone()
	upd.CreatedAt = time.Unix(0, 0)
	upd.Title = "new"
	if err := s.Update(ctx, &upd); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := s.GetByID(ctx, p.ID)
	if !got.CreatedAt.Equal(p.CreatedAt) || got.Title != "new" {
		t.Fatalf("got %+v", got)
	}
	if err := s.Update(ctx, &model.Project{ID: 99, Slug: "z"}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("update missing: %v", err)
	}
}

func TestProjectsReturnCopies(t *testing.T) {
	ctx := context.Background()
	s := NewProjects()
	p := &model.Project{Slug: "p", Technologies: datatypes.JSONSlice[string]{"Go"}, Meta: datatypes.JSONMap{"k": "v"}}
	_ = s.Create(ctx, p)
	p.Technologies[0] = "mutated"

	got, _ := s.GetBySlug(ctx, "p")
	got.Meta["k"] = "mutated"
	again, _ := s.GetBySlug(ctx, "p")
	if again.Technologies[0] != "Go" || again.Meta["k"] != "v" {
		t.Fatalf("store aliased caller data: %+v", again)
	}
}

func TestContactsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewContacts()
	for _, name := range []string{"first", "second"} {
		_ = s.Create(ctx, &model.ContactMessage{Name: name})
	}
	items, _ := s.List(ctx)
	if len(items) != 2 || items[0].Name != "second" {
		t.Fatalf("order = %+v", items)
	}
}

func TestSessionsExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewSessions()
	now := time.Now()
	_ = s.Create(ctx, &model.Session{ID: "live", UserID: 1, ExpiresAt: now.Add(time.Hour)})
	_ = s.Create(ctx, &model.Session{ID: "dead", UserID: 1, ExpiresAt: now.Add(-time.Hour)})
	_ = s.Create(ctx, &model.Session{ID: "other", UserID: 2, ExpiresAt: now.Add(time.Hour)})

	if n, _ := s.CountActive(ctx, now); n != 2 {
		t.Fatalf("active = %d", n)
	}
	if n, _ := s.DeleteExpired(ctx, now); n != 1 {
		t.Fatalf("expired deleted = %d", n)
	}
	if n, _ := s.DeleteByUser(ctx, 1); n != 1 {
		t.Fatalf("by user = %d", n)
	}
	if _, err := s.Get(ctx, "other"); err != nil {
		t.Fatalf("other user's session removed: %v", err)
	}
	if err := s.Delete(ctx, "missing"); err != nil {
		t.Fatalf("delete is idempotent: %v", err)
	}
}
