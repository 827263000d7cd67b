// Package storage holds the PostgreSQL connection, schema migration and
// the gorm-backed repositories.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/config"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/logging"
)

// Options configures the connection pool.
type Options struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// ConnectTimeout bounds the initial ping-with-backoff.
	ConnectTimeout time.Duration

	// SlowQuery logs statements slower than this at warn.
	SlowQuery time.Duration
}

// OptionsFrom maps the database config section to Options.
func OptionsFrom(cfg config.DatabaseConfig) Options {
	return Options{
		DSN:             cfg.DSN.Value(),
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnectTimeout:  cfg.ConnectTimeout,
		SlowQuery:       cfg.SlowQuery,
	}
}

// Open connects to PostgreSQL and waits until the server answers a ping.
func Open(ctx context.Context, opts Options, logger *logging.Logger) (*gorm.DB, error) {
	if opts.DSN == "" {
		return nil, errors.New("database dsn is required")
	}
	db, err := open(postgres.New(postgres.Config{
		DSN:                  opts.DSN,
		PreferSimpleProtocol: true,
	}), logger, opts.SlowQuery)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := waitForPing(ctx, db, opts.ConnectTimeout, logger); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

func open(dialector gorm.Dialector, logger *logging.Logger, slow time.Duration) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 newGormLogger(logger, slow),
		SkipDefaultTransaction: true,
		TranslateError:         true,
		DisableAutomaticPing:   true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

func waitForPing(ctx context.Context, db *gorm.DB, timeout time.Duration, logger *logging.Logger) error {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	backoff := 250 * time.Millisecond
	for attempt := 1; ; attempt++ {
		err := Ping(ctx, db)
		if err == nil {
			return nil
		}
		if logger != nil {
			logger.Warn(ctx, "database not ready", zap.Int("attempt", attempt), zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("database unreachable after %d attempts: %w", attempt, err)
		case <-time.After(backoff):
		}
		if backoff < 4*time.Second {
			backoff *= 2
		}
	}
}

// Ping checks the connection.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
