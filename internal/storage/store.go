package storage

import (
	"context"

	"gorm.io/gorm"
)

// Store bundles the repositories sharing one pool.
type Store struct {
	DB           *gorm.DB
	Applications *Applications
	Admins       *Admins
	EmailLogs    *EmailLogs
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		DB:           db,
		Applications: NewApplications(db),
		Admins:       NewAdmins(db),
		EmailLogs:    NewEmailLogs(db),
	}
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return Ping(ctx, s.DB)
}

func (s *Store) Close() error {
	return Close(s.DB)
}
