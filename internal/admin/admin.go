// Package admin manages staff accounts and login sessions.
package admin

import (
	"context"
	"time"
)

// Roles.
const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// Admin is a staff account.
type Admin struct {
	ID           uint64     `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Email        string     `gorm:"size:254;not null;uniqueIndex" json:"email"`
	PasswordHash string     `gorm:"size:100;not null" json:"-"`
	Role         string     `gorm:"size:20;not null" json:"role"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastLogin    *time.Time `json:"lastLogin"`
}

// TableName pins the table name.
func (Admin) TableName() string {
	return "admins"
}

// ValidRole reports whether r is a known role.
func ValidRole(r string) bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Repository persists admin accounts.
// Lookups return an apperr NotFound error for missing rows.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (*Admin, error)
	FindByID(ctx context.Context, id uint64) (*Admin, error)
	Create(ctx context.Context, a *Admin) error
	TouchLastLogin(ctx context.Context, id uint64, at time.Time) error
}
