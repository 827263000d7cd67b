package http

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/apperr"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/auth"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/logging"
)

const claimsKey = "admin.claims"

// accessLog logs one line per request after the error handler has run.
func (s *Server) accessLog() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("route", c.Path()),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("ip", c.RealIP()),
			}
			if c.Response().Status >= 500 {
				s.logger.Warn(req.Context(), "http request", fields...)
			} else {
				s.logger.Info(req.Context(), "http request", fields...)
			}
			return nil
		}
	}
}

// requireAdmin verifies the bearer token and stores its claims.
func requireAdmin(tokens *auth.TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return apperr.Unauthorized("Access denied. No token provided.")
			}
			claims, err := tokens.Verify(token)
			if err != nil {
				return apperr.Unauthorized("Invalid or expired token")
			}
			c.Set(claimsKey, claims)
			ctx := logging.WithActor(c.Request().Context(), claims.Username)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// claimsFrom returns the claims stored by requireAdmin.
func claimsFrom(c echo.Context) *auth.Claims {
	claims, _ := c.Get(claimsKey).(*auth.Claims)
	return claims
}
