package ratelimit

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/apperr"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/logging"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/telemetry"
)

// Middleware rejects requests over rule with a rate_limited error, keyed by
// the client IP. Limiter failures let the request through.
func Middleware(l Limiter, rule Rule, logger *logging.Logger, metrics *telemetry.Metrics) echo.MiddlewareFunc {
	if logger == nil {
		logger = logging.Nop()
	}
	msg := rule.Message
	if msg == "" {
		msg = "Too many requests, please try again later."
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if l == nil || !rule.Enabled() {
			return next
		}
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			ok, err := l.Allow(ctx, rule, c.RealIP())
			if err != nil {
				logger.Warn(ctx, "rate limiter unavailable", zap.String("rule", rule.Name), zap.Error(err))
				return next(c)
			}
			if !ok {
				metrics.Limited(rule.Name)
				logger.Info(ctx, "rate limited", zap.String("rule", rule.Name), zap.String("ip", c.RealIP()))
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(rule.Window.Seconds())))
				return apperr.RateLimited(msg)
			}
			return next(c)
		}
	}
}
