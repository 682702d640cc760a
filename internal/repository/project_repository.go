package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/edwanmarques/portfolio/internal/model"
)

type ProjectRepo struct{ DB *gorm.DB }

func NewProjectRepo(db *gorm.DB) *ProjectRepo { return &ProjectRepo{DB: db} }

// List returns all projects ordered by id.
func (r *ProjectRepo) List(ctx context.Context) ([]model.Project, error) {
	out := []model.Project{}
	err := r.DB.WithContext(ctx).Order("id").Find(&out).Error
	return out, err
}

func (r *ProjectRepo) GetByID(ctx context.Context, id uint64) (*model.Project, error) {
	var p model.Project
	if err := r.DB.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *ProjectRepo) GetBySlug(ctx context.Context, slug string) (*model.Project, error) {
	var p model.Project
	if err := r.DB.WithContext(ctx).Where("slug = ?", slug).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// Create inserts p with a server-assigned id and timestamp. The unique index
// on slug turns a duplicate into ErrConflict with nothing written.
func (r *ProjectRepo) Create(ctx context.Context, p *model.Project) error {
	p.ID = 0
	p.CreatedAt = time.Now().UTC()
	return translate(r.DB.WithContext(ctx).Create(p).Error)
}

// Update writes every mutable column of p in a single statement. id and
// created_at are never part of the SET list.
func (r *ProjectRepo) Update(ctx context.Context, p *model.Project) error {
	res := r.DB.WithContext(ctx).
		Model(&model.Project{}).
		Where("id = ?", p.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(p)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		// MySQL reports zero affected rows for a no-op update, so confirm
		// the row is really gone before calling it missing.
		var n int64
		if err := r.DB.WithContext(ctx).Model(&model.Project{}).Where("id = ?", p.ID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
	}
	return nil
}

// Delete removes the row; ErrNotFound when nothing matched.
func (r *ProjectRepo) Delete(ctx context.Context, id uint64) error {
	res := r.DB.WithContext(ctx).Delete(&model.Project{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProjectRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Project{}).Count(&n).Error
	return n, err
}
