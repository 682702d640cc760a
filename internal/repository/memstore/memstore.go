// Package memstore implements the repository ports with mutex-guarded maps.
// It backs handler tests and the server's -memory development mode; each
// store instance is independent, so nothing here is process-wide.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/edwanmarques/portfolio/internal/model"
	"github.com/edwanmarques/portfolio/internal/repository"
)

// Users is an in-memory repository.UserStore.
type Users struct {
	mu     sync.RWMutex
	nextID uint64
	rows   map[uint64]model.AdminUser
}

func NewUsers() *Users { return &Users{rows: map[uint64]model.AdminUser{}} }

func (s *Users) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.rows)), nil
}

func (s *Users) CreateFirst(_ context.Context, u *model.AdminUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rows) > 0 {
		return repository.ErrForbidden
	}
	s.nextID++
	u.ID = s.nextID
	s.rows[u.ID] = *u
	return nil
}

func (s *Users) GetByUsername(_ context.Context, username string) (*model.AdminUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.rows {
		if u.Username == username {
			out := u
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Users) GetByID(_ context.Context, id uint64) (*model.AdminUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *Users) First(_ context.Context) (*model.AdminUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var first *model.AdminUser
	for _, u := range s.rows {
		if first == nil || u.ID < first.ID {
			v := u
			first = &v
		}
	}
	if first == nil {
		return nil, repository.ErrNotFound
	}
	return first, nil
}

func (s *Users) UpdatePassword(_ context.Context, id uint64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	s.rows[id] = u
	return nil
}

func (s *Users) DeleteAll(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.rows))
	s.rows = map[uint64]model.AdminUser{}
	return n, nil
}

// Contacts is an in-memory repository.ContactStore.
type Contacts struct {
	mu     sync.RWMutex
	nextID uint64
	rows   []model.ContactMessage
	now    func() time.Time
}

func NewContacts() *Contacts { return &Contacts{now: time.Now} }

func (s *Contacts) Create(_ context.Context, c *model.ContactMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	c.ID = s.nextID
	c.CreatedAt = s.now().UTC()
	s.rows = append(s.rows, *c)
	return nil
}

// List returns messages newest first, matching the SQL store.
func (s *Contacts) List(_ context.Context) ([]model.ContactMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ContactMessage, 0, len(s.rows))
	for i := len(s.rows) - 1; i >= 0; i-- {
		out = append(out, s.rows[i])
	}
	return out, nil
}

func (s *Contacts) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.rows)), nil
}

// Projects is an in-memory repository.ProjectStore. Every value crossing the
// boundary is cloned so callers never alias stored slices or maps.
type Projects struct {
	mu     sync.RWMutex
	nextID uint64
	rows   map[uint64]model.Project
	now    func() time.Time
}

func NewProjects() *Projects { return &Projects{rows: map[uint64]model.Project{}, now: time.Now} }

func (s *Projects) List(_ context.Context) ([]model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Project, 0, len(s.rows))
	for _, p := range s.rows {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Projects) GetByID(_ context.Context, id uint64) (*model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := p.Clone()
	return &out, nil
}

func (s *Projects) GetBySlug(_ context.Context, slug string) (*model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.rows {
		if p.Slug == slug {
			out := p.Clone()
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Projects) Create(_ context.Context, p *model.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.slugTaken(p.Slug, 0) {
		return repository.ErrConflict
	}
	s.nextID++
	p.ID = s.nextID
	p.CreatedAt = s.now().UTC()
	s.rows[p.ID] = p.Clone()
	return nil
}

func (s *Projects) Update(_ context.Context, p *model.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.rows[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if s.slugTaken(p.Slug, p.ID) {
		return repository.ErrConflict
	}
	next := p.Clone()
	next.CreatedAt = cur.CreatedAt
	s.rows[p.ID] = next
	return nil
}

func (s *Projects) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

func (s *Projects) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.rows)), nil
}

// slugTaken must be called with mu held.
func (s *Projects) slugTaken(slug string, except uint64) bool {
	for id, p := range s.rows {
		if id != except && p.Slug == slug {
			return true
		}
	}
	return false
}

// Sessions is an in-memory repository.SessionStore.
type Sessions struct {
	mu   sync.RWMutex
	rows map[string]model.Session
}

func NewSessions() *Sessions { return &Sessions{rows: map[string]model.Session{}} }

func (s *Sessions) Create(_ context.Context, sess *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[sess.ID]; ok {
		return repository.ErrConflict
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}
	s.rows[sess.ID] = *sess
	return nil
}

func (s *Sessions) Get(_ context.Context, id string) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &sess, nil
}

func (s *Sessions) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
	return nil
}

func (s *Sessions) DeleteByUser(_ context.Context, userID uint64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, sess := range s.rows {
		if sess.UserID == userID {
			delete(s.rows, id)
			n++
		}
	}
	return n, nil
}

func (s *Sessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, sess := range s.rows {
		if sess.Expired(now) {
			delete(s.rows, id)
			n++
		}
	}
	return n, nil
}

func (s *Sessions) CountActive(_ context.Context, now time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, sess := range s.rows {
		if !sess.Expired(now) {
			n++
		}
	}
	return n, nil
}

var (
	_ repository.UserStore    = (*Users)(nil)
	_ repository.ContactStore = (*Contacts)(nil)
	_ repository.ProjectStore = (*Projects)(nil)
	_ repository.SessionStore = (*Sessions)(nil)
)
