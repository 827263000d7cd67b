package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/admin"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/application"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/logging"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/notify"
)

// migrationLockID serializes schema migration across replicas.
const migrationLockID int64 = 20260301

// Models lists the tables owned by the service, parents first.
func Models() []interface{} {
	return []interface{}{
		&application.Application{},
		&admin.Admin{},
		&notify.EmailLog{},
	}
}

// Migrate creates or updates the schema while holding a session-level
// advisory lock.
func Migrate(ctx context.Context, db *gorm.DB, logger *logging.Logger) error {
	if logger == nil {
		logger = logging.Nop()
	}
	return withAdvisoryLock(ctx, db, migrationLockID, logger, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(Models()...); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		logger.Info(ctx, "schema migrated", zap.Int("tables", len(Models())))
		return nil
	})
}

// withAdvisoryLock runs fn on one pooled connection holding lock id.
func withAdvisoryLock(ctx context.Context, db *gorm.DB, id int64, logger *logging.Logger, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		tx := conn.Session(&gorm.Session{})
		if err := tx.Exec("SELECT pg_advisory_lock(?)", id).Error; err != nil {
			return fmt.Errorf("acquire migration lock: %w", err)
		}
		defer func() {
			unlock := tx.WithContext(context.WithoutCancel(ctx))
			if err := unlock.Exec("SELECT pg_advisory_unlock(?)", id).Error; err != nil {
				logger.Warn(ctx, "release migration lock", zap.Error(err))
			}
		}()
		return fn(tx)
	})
}
