package repository

import (
	"context"
	"time"

	"github.com/edwanmarques/portfolio/internal/model"
)

// UserStore persists admin accounts.
type UserStore interface {
	Count(ctx context.Context) (int64, error)
	// CreateFirst inserts u only when no admin exists yet; otherwise it
	// returns ErrForbidden. Concurrent callers observe exactly one success.
	CreateFirst(ctx context.Context, u *model.AdminUser) error
	GetByUsername(ctx context.Context, username string) (*model.AdminUser, error)
	GetByID(ctx context.Context, id uint64) (*model.AdminUser, error)
	First(ctx context.Context) (*model.AdminUser, error)
	UpdatePassword(ctx context.Context, id uint64, hash string) error
	DeleteAll(ctx context.Context) (int64, error)
}

// ContactStore persists contact-form submissions. There is no update or
// delete path.
type ContactStore interface {
	Create(ctx context.Context, c *model.ContactMessage) error
	List(ctx context.Context) ([]model.ContactMessage, error)
	Count(ctx context.Context) (int64, error)
}

// ProjectStore persists the portfolio catalog. Create and Update return
// ErrConflict when the slug is taken and leave every row untouched.
type ProjectStore interface {
	List(ctx context.Context) ([]model.Project, error)
	GetByID(ctx context.Context, id uint64) (*model.Project, error)
	GetBySlug(ctx context.Context, slug string) (*model.Project, error)
	Create(ctx context.Context, p *model.Project) error
	Update(ctx context.Context, p *model.Project) error
	Delete(ctx context.Context, id uint64) error
	Count(ctx context.Context) (int64, error)
}

// SessionStore is the server-side session record contract: write, read,
// destroy. IDs passed in are already hashed.
type SessionStore interface {
	Create(ctx context.Context, s *model.Session) error
	Get(ctx context.Context, id string) (*model.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID uint64) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	CountActive(ctx context.Context, now time.Time) (int64, error)
}
