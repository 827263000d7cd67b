// Auditiond serves the HUDT audition API.
//
// Configuration is loaded from defaults, an optional YAML file (HUDT_CONFIG),
// an optional .env file (HUDT_ENV_FILE) and HUDT_-prefixed environment
// variables. See internal/config for details.
//
// Usage:
//
//	# Start server with defaults
//	auditiond
//
//	# Configure via environment
//	HUDT_SERVER_PORT=8080 HUDT_DATABASE_DSN=postgres://... auditiond
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/admin"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/application"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/auth"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/config"
	httpserver "github.com/MOFOSGANG/HUAUDITIONS-2026/internal/http"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/logging"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/notify"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/ratelimit"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/storage"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  auditiond           Start the audition API server\n")
			fmt.Fprintf(os.Stderr, "  auditiond version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if err := run(ctx, cfg); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("auditiond\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run wires the service from cfg and blocks until ctx is cancelled, then
// shuts the HTTP server down and drains background email.
func run(ctx context.Context, cfg *config.Config) error {
	logCfg, err := logging.FromSettings(cfg.Logging, "auditiond")
	if err != nil {
		return fmt.Errorf("invalid logging configuration: %w", err)
	}
	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info(ctx, "starting auditiond",
		zap.String("version", version),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("email_transport", cfg.Email.Transport),
		zap.String("ratelimit_backend", cfg.RateLimit.Backend))

	deps, err := newDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	srv, err := httpserver.NewServer(httpserver.Deps{
		Applications: deps.applications,
		Sessions:     deps.sessions,
		Tokens:       deps.tokens,
		Limiter:      deps.limiter,
		Rules:        ratelimit.RulesFrom(cfg.RateLimit),
		Logger:       logger,
		Metrics:      deps.metrics,
		Gatherer:     prometheus.DefaultGatherer,
		Database:     deps.store,
		Version:      version,
	}, httpserver.ConfigFrom(cfg.Server))
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "http server listening", zap.String("addr", srv.Addr()))
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info(ctx, "shutting down", zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := deps.dispatcher.Wait(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("drain email: %w", err))
	}
	if err := <-errCh; err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// dependencies holds the infrastructure and services built from config.
type dependencies struct {
	logger       *logging.Logger
	db           *gorm.DB
	store        *storage.Store
	metrics      *telemetry.Metrics
	tokens       *auth.TokenManager
	sessions     *admin.SessionService
	dispatcher   *notify.Dispatcher
	applications *application.Service
	limiter      ratelimit.Limiter

	closers []func() error
}

func newDependencies(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*dependencies, error) {
	d := &dependencies{logger: logger}
	ok := false
	defer func() {
		if !ok {
			d.Close()
		}
	}()

	db, err := storage.Open(ctx, storage.OptionsFrom(cfg.Database), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	d.db = db
	d.closers = append(d.closers, func() error { return storage.Close(db) })

	if cfg.Database.AutoMigrate {
		if err := storage.Migrate(ctx, db, logger); err != nil {
			return nil, fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	d.store = storage.NewStore(db)
	d.metrics = telemetry.New(prometheus.DefaultRegisterer)

	d.tokens, err = auth.NewTokenManager(cfg.Auth.JWTSecret.Value(), cfg.Auth.TokenTTL, cfg.Auth.Issuer)
	if err != nil {
		return nil, fmt.Errorf("invalid token settings: %w", err)
	}
	d.sessions = admin.NewSessionService(d.store.Admins, d.tokens, logger, d.metrics, cfg.Auth.BcryptCost)
	if cfg.Admin.Password.IsSet() {
		created, err := d.sessions.Seed(ctx, cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password.Value())
		if err != nil {
			return nil, fmt.Errorf("failed to seed admin account: %w", err)
		}
		if created {
			logger.Info(ctx, "default admin account created", zap.String("username", cfg.Admin.Username))
		}
	}

	mailer, closeMailer, err := newMailer(cfg, logger)
	if err != nil {
		return nil, err
	}
	d.closers = append(d.closers, closeMailer)

	templates, err := notify.NewTemplates(notify.Branding{
		Program:   cfg.Program.Name,
		PortalURL: cfg.Program.PortalURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load email templates: %w", err)
	}
	d.dispatcher = notify.NewDispatcher(cfg.Email.SendTimeout, logger)
	notifier := notify.NewService(notify.Deps{
		Templates:    templates,
		Mailer:       mailer,
		Store:        d.store.EmailLogs,
		Dispatcher:   d.dispatcher,
		Logger:       logger,
		Metrics:      d.metrics,
		AdminAddress: cfg.Email.AdminAddress,
	})

	d.applications = application.NewService(d.store.Applications, notifier, logger,
		application.WithMetrics(d.metrics),
		application.WithPrefix(cfg.Program.RefPrefix),
	)

	limiter, closeLimiter, err := ratelimit.New(ctx, cfg.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize rate limiter: %w", err)
	}
	d.limiter = limiter
	d.closers = append(d.closers, closeLimiter)

	ok = true
	return d, nil
}

// Close releases infrastructure in reverse order of acquisition.
func (d *dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			d.logger.Warn(context.Background(), "close failed", zap.Error(err))
		}
	}
	d.closers = nil
}
