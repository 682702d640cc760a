package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/edwanmarques/portfolio/internal/model"
)

type ContactRepo struct{ DB *gorm.DB }

func NewContactRepo(db *gorm.DB) *ContactRepo { return &ContactRepo{DB: db} }

// Create inserts a message. ID and CreatedAt are always assigned here,
// whatever the caller put in them.
func (r *ContactRepo) Create(ctx context.Context, c *model.ContactMessage) error {
	c.ID = 0
	c.CreatedAt = time.Now().UTC()
	return translate(r.DB.WithContext(ctx).Create(c).Error)
}

// List returns every message, newest first.
func (r *ContactRepo) List(ctx context.Context) ([]model.ContactMessage, error) {
	out := []model.ContactMessage{}
	err := r.DB.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&out).Error
	return out, err
}

func (r *ContactRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.ContactMessage{}).Count(&n).Error
	return n, err
}
