package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/edwanmarques/portfolio/internal/model"
)

// SessionRepo persists sessions keyed by the hash of the raw session id.
type SessionRepo struct{ DB *gorm.DB }

func NewSessionRepo(db *gorm.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Create inserts a session row.
func (r *SessionRepo) Create(ctx context.Context, s *model.Session) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	return translate(r.DB.WithContext(ctx).Create(s).Error)
}

// Get returns the session for a hashed id. Expiry is left to the caller.
func (r *SessionRepo) Get(ctx context.Context, id string) (*model.Session, error) {
	var s model.Session
	if err := r.DB.WithContext(ctx).Where("sid = ?", id).First(&s).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// Delete destroys a session; deleting a missing id is not an error.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Where("sid = ?", id).Delete(&model.Session{}).Error
}

// DeleteByUser revokes every session of a user.
func (r *SessionRepo) DeleteByUser(ctx context.Context, userID uint64) (int64, error) {
	res := r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Session{})
	return res.RowsAffected, res.Error
}

// DeleteExpired removes rows whose expiry is at or before now.
func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Where("expire <= ?", now).Delete(&model.Session{})
	return res.RowsAffected, res.Error
}

// CountActive counts sessions that have not yet expired.
func (r *SessionRepo) CountActive(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Session{}).Where("expire > ?", now).Count(&n).Error
	return n, err
}
