// Package http serves the audition API.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/admin"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/application"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/auth"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/config"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/logging"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/ratelimit"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/telemetry"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services behind the API.
type Deps struct {
	Applications *application.Service
	Sessions     *admin.SessionService
	Tokens       *auth.TokenManager
	Limiter      ratelimit.Limiter
	Rules        ratelimit.Rules
	Logger       *logging.Logger
	Metrics      *telemetry.Metrics

	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer

	// Database is checked by /health. Nil reports ok.
	Database Pinger

	Version string
}

// Config holds HTTP server configuration.
type Config struct {
	Host           string
	Port           int
	RequestTimeout time.Duration
	BodyLimit      string
	CORSOrigins    []string
}

// ConfigFrom maps the server config section.
func ConfigFrom(cfg config.ServerConfig) *Config {
	return &Config{
		Host:           cfg.Host,
		Port:           cfg.Port,
		RequestTimeout: cfg.RequestTimeout,
		BodyLimit:      cfg.BodyLimit,
		CORSOrigins:    cfg.CORSOrigins,
	}
}

// Server provides the HTTP endpoints.
type Server struct {
	echo    *echo.Echo
	deps    Deps
	logger  *logging.Logger
	metrics *telemetry.Metrics
	config  *Config
}

// NewServer creates a new HTTP server.
func NewServer(deps Deps, cfg *Config) (*Server, error) {
	if deps.Applications == nil {
		return nil, errors.New("application service is required")
	}
	if deps.Sessions == nil || deps.Tokens == nil {
		return nil, errors.New("session service and token manager are required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 5000,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:    e,
		deps:    deps,
		logger:  deps.Logger.Named("http"),
		metrics: deps.Metrics,
		config:  cfg,
	}
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		RequestIDHandler: func(c echo.Context, id string) {
			ctx := logging.WithRequestID(c.Request().Context(), id)
			c.SetRequest(c.Request().WithContext(ctx))
		},
	}))
	e.Use(s.accessLog())
	e.Use(metricsMiddleware(deps.Metrics))
	e.Use(middleware.Secure())
	if len(cfg.CORSOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.CORSOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
		}))
	}
	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}
	if cfg.RequestTimeout > 0 {
		// Handlers see a deadline on the request context; errorResponse maps
		// context.DeadlineExceeded to 503.
		e.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
			Timeout:      cfg.RequestTimeout,
			ErrorHandler: func(err error, _ echo.Context) error { return err },
		}))
	}

	s.registerRoutes()
	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	if s.deps.Gatherer != nil {
		s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))
	}

	limit := func(rule ratelimit.Rule) echo.MiddlewareFunc {
		return ratelimit.Middleware(s.deps.Limiter, rule, s.logger, s.metrics)
	}

	api := s.echo.Group("/api")
	api.POST("/applications", s.handleSubmit, limit(s.deps.Rules.Intake))
	api.GET("/applications/status/:identifier", s.handleStatus, limit(s.deps.Rules.Status))

	api.POST("/admin/login", s.handleLogin, limit(s.deps.Rules.Login))

	adm := api.Group("/admin", requireAdmin(s.deps.Tokens))
	adm.POST("/logout", s.handleLogout)
	adm.GET("/me", s.handleMe)
	adm.GET("/dashboard/stats", s.handleStats)

	apps := adm.Group("/applications")
	apps.GET("", s.handleList)
	apps.GET("/export", s.handleExport)
	apps.POST("/bulk-update", s.handleBulkUpdate)
	apps.DELETE("/bulk-delete", s.handleBulkDelete)
	apps.GET("/:id", s.handleGet)
	apps.PUT("/:id", s.handleUpdate)
	apps.DELETE("/:id", s.handleDelete)
	apps.POST("/:id/send-email", s.handleSendEmail)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// Start serves until Shutdown. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	addr := s.Addr()
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}
