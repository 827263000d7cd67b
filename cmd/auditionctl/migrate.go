package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/storage"
)

var migrateTimeout time.Duration

func init() {
	migrateCmd.Flags().DurationVar(&migrateTimeout, "timeout", 5*time.Minute, "Give up after this long")
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Create or update the applications, admins and email_logs tables.

Migration holds a PostgreSQL advisory lock, so running it while auditiond
starts with database.auto_migrate enabled is safe.

Examples:
  # Migrate using HUDT_DATABASE_DSN from the environment
  auditionctl migrate

  # Migrate using a config file
  auditionctl migrate --config /etc/hudt/auditiond.yaml`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, "auditionctl")
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, cancel := context.WithTimeout(cmd.Context(), migrateTimeout)
	defer cancel()

	db, err := storage.Open(ctx, storage.OptionsFrom(cfg.Database), logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.Close(db)
	}()

	if err := storage.Migrate(ctx, db, logger); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
	return nil
}
