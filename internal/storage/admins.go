package storage

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/admin"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/apperr"
)

// Admins is the PostgreSQL admin.Repository.
type Admins struct {
	db *gorm.DB
}

var _ admin.Repository = (*Admins)(nil)

func NewAdmins(db *gorm.DB) *Admins {
	return &Admins{db: db}
}

func (r *Admins) FindByUsername(ctx context.Context, username string) (*admin.Admin, error) {
	var a admin.Admin
	err := r.db.WithContext(ctx).Where("username = ?", strings.ToLower(username)).First(&a).Error
	if err != nil {
		return nil, translate(err, "Admin")
	}
	return &a, nil
}

func (r *Admins) FindByID(ctx context.Context, id uint64) (*admin.Admin, error) {
	var a admin.Admin
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, translate(err, "Admin")
	}
	return &a, nil
}

func (r *Admins) Create(ctx context.Context, a *admin.Admin) error {
	return translate(r.db.WithContext(ctx).Create(a).Error, "Admin")
}

func (r *Admins) TouchLastLogin(ctx context.Context, id uint64, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&admin.Admin{}).Where("id = ?", id).Update("last_login", at)
	if res.Error != nil {
		return translate(res.Error, "Admin")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Admin not found")
	}
	return nil
}
