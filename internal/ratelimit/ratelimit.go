// Package ratelimit bounds request volume per endpoint and client.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/config"
)

// Rule names one limited endpoint: at most Limit requests per Window per key.
type Rule struct {
	Name    string
	Limit   int
	Window  time.Duration
	Message string
}

// Enabled reports whether the rule limits anything.
func (r Rule) Enabled() bool {
	return r.Limit > 0 && r.Window > 0
}

// Limiter decides whether one more request for key fits in rule.
type Limiter interface {
	Allow(ctx context.Context, rule Rule, key string) (bool, error)
}

// Rules are the endpoint limits of the service.
type Rules struct {
	Intake Rule
	Status Rule
	Login  Rule
}

// RulesFrom builds the endpoint rules from configuration.
func RulesFrom(cfg config.RateLimitConfig) Rules {
	return Rules{
		Intake: Rule{
			Name:    "intake",
			Limit:   cfg.IntakeLimit,
			Window:  cfg.IntakeWindow,
			Message: "Too many applications submitted from this IP, please try again later.",
		},
		Status: Rule{
			Name:    "status",
			Limit:   cfg.StatusLimit,
			Window:  cfg.StatusWindow,
			Message: "Too many status checks, please try again later.",
		},
		Login: Rule{
			Name:    "login",
			Limit:   cfg.LoginLimit,
			Window:  cfg.LoginWindow,
			Message: "Too many login attempts, please try again later.",
		},
	}
}

// New returns the limiter selected by cfg.Backend.
func New(ctx context.Context, cfg config.RateLimitConfig) (Limiter, func() error, error) {
	switch cfg.Backend {
	case "", "memory":
		m := NewMemory()
		return m, m.Close, nil
	case "redis":
		client, err := NewRedisClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return NewRedis(client, "hudt:ratelimit:"), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown rate limit backend %q", cfg.Backend)
	}
}
