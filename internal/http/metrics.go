package http

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/telemetry"
)

// metricsMiddleware records request count and latency per route template.
// It sits inside accessLog, so by the time it reads the status the error
// handler has already written the response.
func metricsMiddleware(m *telemetry.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			m.ObserveHTTP(c.Request().Method, routeLabel(c.Path()), c.Response().Status, time.Since(start))
			return nil
		}
	}
}

// routeLabel keeps unmatched paths out of the label set.
func routeLabel(path string) string {
	if path == "" {
		return "unmatched"
	}
	return path
}
