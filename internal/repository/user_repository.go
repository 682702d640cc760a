package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/edwanmarques/portfolio/internal/model"
)

type UserRepo struct{ DB *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{DB: db} }

// Count returns the number of admin rows.
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.AdminUser{}).Count(&n).Error
	return n, err
}

// CreateFirst inserts the bootstrap admin inside a transaction that locks the
// users table, so two racing setup calls cannot both see an empty table.
func (r *UserRepo) CreateFirst(ctx context.Context, u *model.AdminUser) error {
	u.Username = strings.TrimSpace(u.Username)
	var err error
	// A racing setup on MySQL surfaces as a deadlock on the gap lock; the
	// retry then sees the winner's row and reports ErrForbidden.
	for attempt := 0; attempt < 3; attempt++ {
		err = r.createFirst(ctx, u)
		if !isDeadlock(err) {
			break
		}
	}
	if errors.Is(err, ErrForbidden) {
		return err
	}
	return translate(err)
}

func (r *UserRepo) createFirst(ctx context.Context, u *model.AdminUser) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("LOCK TABLE users IN SHARE ROW EXCLUSIVE MODE").Error; err != nil {
				return err
			}
			if err := tx.Model(&model.AdminUser{}).Count(&n).Error; err != nil {
				return err
			}
		} else {
			// InnoDB next-key locks on the scanned range block concurrent inserts.
			var ids []uint64
			if err := tx.Model(&model.AdminUser{}).
				Clauses(clause.Locking{Strength: "UPDATE"}).
				Limit(1).
				Pluck("id", &ids).Error; err != nil {
				return err
			}
			n = int64(len(ids))
		}
		if n > 0 {
			return ErrForbidden
		}
		return tx.Create(u).Error
	})
}

// GetByUsername fetches an admin by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.AdminUser, error) {
	var u model.AdminUser
	err := r.DB.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// GetByID fetches an admin by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.AdminUser, error) {
	var u model.AdminUser
	if err := r.DB.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// First returns the lowest-id admin; maintenance commands use it when no
// username is given.
func (r *UserRepo) First(ctx context.Context) (*model.AdminUser, error) {
	var u model.AdminUser
	if err := r.DB.WithContext(ctx).Order("id").First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// UpdatePassword replaces the stored hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	res := r.DB.WithContext(ctx).Model(&model.AdminUser{}).Where("id = ?", id).Update("password", hash)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll removes every admin so setup becomes reachable again.
func (r *UserRepo) DeleteAll(ctx context.Context) (int64, error) {
	res := r.DB.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.AdminUser{})
	return res.RowsAffected, res.Error
}
