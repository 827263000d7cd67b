// Package config provides configuration loading for the audition backend.
//
// Values come from built-in defaults, an optional YAML file, an optional
// .env file and HUDT_-prefixed environment variables, in increasing order of
// precedence. See LoadWithFile for the mapping rules.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config holds the complete service configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Auth      AuthConfig      `koanf:"auth"`
	Admin     AdminConfig     `koanf:"admin"`
	Email     EmailConfig     `koanf:"email"`
	Queue     QueueConfig     `koanf:"queue"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Logging   LoggingConfig   `koanf:"logging"`
	Program   ProgramConfig   `koanf:"program"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
	BodyLimit       string        `koanf:"body_limit"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             Secret        `koanf:"dsn"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
	SlowQuery       time.Duration `koanf:"slow_query"`
}

// AuthConfig holds bearer token settings.
type AuthConfig struct {
	JWTSecret  Secret        `koanf:"jwt_secret"`
	TokenTTL   time.Duration `koanf:"token_ttl"`
	Issuer     string        `koanf:"issuer"`
	BcryptCost int           `koanf:"bcrypt_cost"`
}

// AdminConfig describes the default admin account seeded at startup.
// Seeding is skipped when Password is unset.
type AdminConfig struct {
	Username string `koanf:"username"`
	Email    string `koanf:"email"`
	Password Secret `koanf:"password"`
}

// EmailConfig holds outbound email settings.
type EmailConfig struct {
	// Transport is one of "smtp", "log", "nats" or "kafka".
	Transport    string        `koanf:"transport"`
	From         string        `koanf:"from"`
	FromName     string        `koanf:"from_name"`
	AdminAddress string        `koanf:"admin_address"`
	SMTPHost     string        `koanf:"smtp_host"`
	SMTPPort     int           `koanf:"smtp_port"`
	SMTPUsername string        `koanf:"smtp_username"`
	SMTPPassword Secret        `koanf:"smtp_password"`
	SendTimeout  time.Duration `koanf:"send_timeout"`
}

// QueueConfig holds broker settings used when email is queued for a mail worker.
type QueueConfig struct {
	NATSURL       string   `koanf:"nats_url"`
	NATSSubject   string   `koanf:"nats_subject"`
	NATSGroup     string   `koanf:"nats_group"`
	KafkaBrokers  []string `koanf:"kafka_brokers"`
	KafkaTopic    string   `koanf:"kafka_topic"`
	KafkaGroup    string   `koanf:"kafka_group"`
	KafkaUsername string   `koanf:"kafka_username"`
	KafkaPassword Secret   `koanf:"kafka_password"`
	KafkaTLS      bool     `koanf:"kafka_tls"`
}

// RateLimitConfig holds per-endpoint request limits.
type RateLimitConfig struct {
	// Backend is "memory" or "redis".
	Backend       string        `koanf:"backend"`
	RedisAddr     string        `koanf:"redis_addr"`
	RedisPassword Secret        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db"`
	IntakeLimit   int           `koanf:"intake_limit"`
	IntakeWindow  time.Duration `koanf:"intake_window"`
	StatusLimit   int           `koanf:"status_limit"`
	StatusWindow  time.Duration `koanf:"status_window"`
	LoginLimit    int           `koanf:"login_limit"`
	LoginWindow   time.Duration `koanf:"login_window"`
}

// LoggingConfig holds the subset of logging settings exposed to operators.
type LoggingConfig struct {
	Level    string `koanf:"level"`
	Format   string `koanf:"format"`
	Sampling bool   `koanf:"sampling"`
}

// ProgramConfig identifies the audition program in reference numbers and emails.
type ProgramConfig struct {
	Name      string `koanf:"name"`
	RefPrefix string `koanf:"ref_prefix"`
	PortalURL string `koanf:"portal_url"`
}

// Default returns a config populated with development defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			ShutdownTimeout: 10 * time.Second,
			RequestTimeout:  15 * time.Second,
			BodyLimit:       "1M",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			ConnectTimeout:  30 * time.Second,
			AutoMigrate:     true,
			SlowQuery:       500 * time.Millisecond,
		},
		Auth: AuthConfig{
			TokenTTL:   24 * time.Hour,
			Issuer:     "hudt-auditions",
			BcryptCost: 12,
		},
		Admin: AdminConfig{
			Username: "admin",
			Email:    "admin@hudt.local",
		},
		Email: EmailConfig{
			Transport:    "log",
			From:         "auditions@hudt.local",
			FromName:     "HUDT Auditions",
			AdminAddress: "admin@hudt.local",
			SMTPPort:     587,
			SendTimeout:  15 * time.Second,
		},
		Queue: QueueConfig{
			NATSURL:     "nats://localhost:4222",
			NATSSubject: "hudt.email.outbound",
			NATSGroup:   "mail-workers",
			KafkaTopic:  "hudt-email-outbound",
			KafkaGroup:  "hudt-mail-worker",
			KafkaTLS:    true,
		},
		RateLimit: RateLimitConfig{
			Backend:      "memory",
			IntakeLimit:  5,
			IntakeWindow: time.Hour,
			StatusLimit:  30,
			StatusWindow: 15 * time.Minute,
			LoginLimit:   5,
			LoginWindow:  15 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Sampling: true,
		},
		Program: ProgramConfig{
			Name:      "HUDT Auditions",
			RefPrefix: "HUDT",
		},
	}
}

var (
	validTransports = map[string]bool{"smtp": true, "log": true, "nats": true, "kafka": true}
	validBackends   = map[string]bool{"memory": true, "redis": true}
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}

	if !c.Database.DSN.IsSet() {
		errs = append(errs, errors.New("database.dsn is required"))
	}

	if len(c.Auth.JWTSecret.Value()) < 32 {
		errs = append(errs, errors.New("auth.jwt_secret must be at least 32 bytes"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("auth.bcrypt_cost must be between 4 and 31, got %d", c.Auth.BcryptCost))
	}

	if !validTransports[c.Email.Transport] {
		errs = append(errs, fmt.Errorf("email.transport must be smtp, log, nats or kafka, got %q", c.Email.Transport))
	}
	if c.Email.Transport == "smtp" && c.Email.SMTPHost == "" {
		errs = append(errs, errors.New("email.smtp_host is required for the smtp transport"))
	}
	if c.Email.Transport == "kafka" && len(c.Queue.KafkaBrokers) == 0 {
		errs = append(errs, errors.New("queue.kafka_brokers is required for the kafka transport"))
	}
	if c.Email.AdminAddress == "" {
		errs = append(errs, errors.New("email.admin_address is required"))
	}

	if !validBackends[c.RateLimit.Backend] {
		errs = append(errs, fmt.Errorf("ratelimit.backend must be memory or redis, got %q", c.RateLimit.Backend))
	}
	if c.RateLimit.Backend == "redis" && c.RateLimit.RedisAddr == "" {
		errs = append(errs, errors.New("ratelimit.redis_addr is required for the redis backend"))
	}

	prefix := strings.TrimSpace(c.Program.RefPrefix)
	if prefix == "" || strings.ContainsAny(prefix, "-%_ ") {
		errs = append(errs, fmt.Errorf("program.ref_prefix must be a non-empty token without '-', '%%', '_' or spaces, got %q", c.Program.RefPrefix))
	}

	return errors.Join(errs...)
}
