package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/admin"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/apperr"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/auth"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/storage"
)

var (
	adminUsername      string
	adminEmail         string
	adminRole          string
	adminPasswordStdin bool
	hashCost           int
)

func init() {
	adminCreateCmd.Flags().StringVar(&adminUsername, "username", "", "Login name (required)")
	adminCreateCmd.Flags().StringVar(&adminEmail, "email", "", "Contact address (required)")
	adminCreateCmd.Flags().StringVar(&adminRole, "role", admin.RoleAdmin, "admin or super_admin")
	adminCreateCmd.Flags().BoolVar(&adminPasswordStdin, "password-stdin", false, "Read the password from stdin instead of HUDT_NEW_ADMIN_PASSWORD")
	_ = adminCreateCmd.MarkFlagRequired("username")
	_ = adminCreateCmd.MarkFlagRequired("email")

	hashPasswordCmd.Flags().IntVar(&hashCost, "cost", 12, "bcrypt cost")

	adminCmd.AddCommand(adminCreateCmd)
	adminCmd.AddCommand(hashPasswordCmd)
	rootCmd.AddCommand(adminCmd)
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage admin accounts",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an admin account",
	Long: `Create an admin account in the configured database.

The password is taken from HUDT_NEW_ADMIN_PASSWORD, or from the first line
of stdin with --password-stdin. A bcrypt hash is accepted as-is.

Examples:
  # Create an admin
  echo 's3cret-pass' | auditionctl admin create --username tolu --email tolu@example.com --password-stdin

  # Create a super admin from a pre-computed hash
  HUDT_NEW_ADMIN_PASSWORD='$2a$12$...' auditionctl admin create --username ada --email ada@example.com --role super_admin`,
	Args: cobra.NoArgs,
	RunE: runAdminCreate,
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print a bcrypt hash for HUDT_ADMIN_PASSWORD",
	Long: `Print a bcrypt hash of a password, read from the argument or the first
line of stdin. The hash can be used for HUDT_ADMIN_PASSWORD or admin create.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHashPassword,
}

func runAdminCreate(cmd *cobra.Command, args []string) error {
	password, err := readPassword(cmd, adminPasswordStdin)
	if err != nil {
		return err
	}

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

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	db, err := storage.Open(ctx, storage.OptionsFrom(cfg.Database), logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.Close(db)
	}()

	sessions := admin.NewSessionService(storage.NewAdmins(db), nil, logger, nil, cfg.Auth.BcryptCost)
	return createAdmin(ctx, cmd.OutOrStdout(), sessions, admin.CreateRequest{
		Username: adminUsername,
		Email:    adminEmail,
		Password: password,
		Role:     adminRole,
	})
}

func createAdmin(ctx context.Context, out io.Writer, sessions *admin.SessionService, req admin.CreateRequest) error {
	a, err := sessions.Create(ctx, req)
	if err != nil {
		if ae, ok := apperr.As(err); ok && len(ae.Fields) > 0 {
			msgs := make([]string, 0, len(ae.Fields))
			for _, f := range ae.Fields {
				msgs = append(msgs, fmt.Sprintf("%s: %s", f.Field, f.Message))
			}
			return fmt.Errorf("invalid admin: %s", strings.Join(msgs, "; "))
		}
		return err
	}
	fmt.Fprintf(out, "Created %s %q (id %d)\n", a.Role, a.Username, a.ID)
	return nil
}

func runHashPassword(cmd *cobra.Command, args []string) error {
	var password string
	if len(args) == 1 {
		password = args[0]
	} else {
		var err error
		if password, err = firstLine(cmd.InOrStdin()); err != nil {
			return err
		}
	}
	if password == "" {
		return errors.New("password is required")
	}
	hash, err := auth.HashPassword(password, hashCost)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}

func readPassword(cmd *cobra.Command, fromStdin bool) (string, error) {
	if fromStdin {
		return firstLine(cmd.InOrStdin())
	}
	password := os.Getenv("HUDT_NEW_ADMIN_PASSWORD")
	if password == "" {
		return "", errors.New("set HUDT_NEW_ADMIN_PASSWORD or pass --password-stdin")
	}
	return password, nil
}

func firstLine(r io.Reader) (string, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return "", errors.New("no password on stdin")
	}
	return strings.TrimRight(sc.Text(), "\r"), nil
}
