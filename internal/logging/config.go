package logging

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/config"
)

// Config holds logging configuration.
type Config struct {
	Level  zapcore.Level
	Format string // "json" or "console"

	// Service is attached to every entry as "service".
	Service string

	// Output receives encoded entries. Nil means stdout.
	Output zapcore.WriteSyncer

	// StacktraceLevel attaches stacks at this level and above.
	StacktraceLevel zapcore.Level

	Sampling  SamplingConfig
	Redaction RedactionConfig
}

// SamplingConfig limits repeated entries below error level. Within each
// Tick the first Initial entries with the same message are kept, then
// every Thereafter-th.
type SamplingConfig struct {
	Enabled    bool
	Tick       time.Duration
	Initial    int
	Thereafter int
}

// RedactionConfig lists field keys whose values are never written and
// patterns that blank any string value they match.
type RedactionConfig struct {
	Enabled  bool
	Keys     []string
	Patterns []string
}

// Defaults returns the production logging configuration.
func Defaults() *Config {
	return &Config{
		Level:           zapcore.InfoLevel,
		Format:          "json",
		Service:         "auditiond",
		StacktraceLevel: zapcore.ErrorLevel,
		Sampling: SamplingConfig{
			Enabled:    true,
			Tick:       time.Second,
			Initial:    100,
			Thereafter: 10,
		},
		Redaction: RedactionConfig{
			Enabled: true,
			Keys: []string{
				"password", "password_hash", "secret", "token", "jwt",
				"authorization", "credential", "dsn", "smtp_password",
			},
			Patterns: []string{
				`(?i)bearer\s+\S+`,
				`\beyJ[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]{8,}\.`,
				`\$2[aby]\$\d{2}\$[./A-Za-z0-9]{53}`,
			},
		},
	}
}

// FromSettings applies operator settings to Defaults for the named service.
func FromSettings(s config.LoggingConfig, service string) (*Config, error) {
	cfg := Defaults()
	if s.Level != "" {
		level, err := ParseLevel(s.Level)
		if err != nil {
			return nil, err
		}
		cfg.Level = level
	}
	if s.Format != "" {
		cfg.Format = strings.ToLower(s.Format)
	}
	cfg.Sampling.Enabled = s.Sampling
	if service != "" {
		cfg.Service = service
	}
	return cfg, cfg.Validate()
}

// ParseLevel accepts debug, info, warn, error (any case, surrounding spaces ignored).
func ParseLevel(s string) (zapcore.Level, error) {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(s)))); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

// Validate checks config for errors.
func (c *Config) Validate() error {
	switch c.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log format must be json or console, got %q", c.Format)
	}
	if c.Sampling.Enabled && (c.Sampling.Tick <= 0 || c.Sampling.Initial <= 0) {
		return fmt.Errorf("sampling needs a positive tick and initial count")
	}
	if c.Redaction.Enabled {
		if _, err := compileRedactor(c.Redaction); err != nil {
			return err
		}
	}
	return nil
}
