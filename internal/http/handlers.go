package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/admin"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/application"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/apperr"
)

var binder = &echo.DefaultBinder{}

// bindJSON decodes the request body only; path and query values never
// leak into request structs.
func bindJSON(c echo.Context, v interface{}) error {
	if err := binder.BindBody(c, v); err != nil {
		return apperr.Invalid("body", "Request body must be valid JSON")
	}
	return nil
}

func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Invalid("id", "Invalid application id")
	}
	return id, nil
}

// queryInt returns 0 for missing or malformed values so the service applies
// its defaults.
func queryInt(c echo.Context, name string) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return 0
	}
	return n
}

func (s *Server) actor(c echo.Context) string {
	if claims := claimsFrom(c); claims != nil {
		return claims.Username
	}
	return "admin"
}

func (s *Server) handleHealth(c echo.Context) error {
	resp := HealthResponse{Status: "ok", Version: s.deps.Version}
	if s.deps.Database == nil {
		return c.JSON(http.StatusOK, resp)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	resp.Services = map[string]string{"database": "ok"}
	if err := s.deps.Database.Ping(ctx); err != nil {
		s.logger.Warn(ctx, "health check failed", zap.Error(err))
		resp.Status = "degraded"
		resp.Services["database"] = "unavailable"
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSubmit(c echo.Context) error {
	var req application.SubmitRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	res, err := s.deps.Applications.Submit(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

func (s *Server) handleStatus(c echo.Context) error {
	status, err := s.deps.Applications.Lookup(c.Request().Context(), c.Param("identifier"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, status)
}

func (s *Server) handleLogin(c echo.Context) error {
	var req admin.LoginRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	res, err := s.deps.Sessions.Login(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// handleLogout exists for client symmetry; tokens are stateless and expire on their own.
func (s *Server) handleLogout(c echo.Context) error {
	return c.JSON(http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

func (s *Server) handleMe(c echo.Context) error {
	claims := claimsFrom(c)
	if claims == nil {
		return apperr.Unauthorized("Access denied. No token provided.")
	}
	a, err := s.deps.Sessions.Me(c.Request().Context(), claims.AdminID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (s *Server) handleStats(c echo.Context) error {
	stats, err := s.deps.Applications.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) handleList(c echo.Context) error {
	page, err := s.deps.Applications.List(c.Request().Context(), application.ListQuery{
		Search:     c.QueryParam("search"),
		Status:     c.QueryParam("status"),
		Department: c.QueryParam("department"),
		Level:      c.QueryParam("level"),
		Page:       queryInt(c, "page"),
		Limit:      queryInt(c, "limit"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (s *Server) handleGet(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	app, err := s.deps.Applications.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, app)
}

func (s *Server) handleUpdate(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req application.UpdateRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	state, err := s.deps.Applications.Update(c.Request().Context(), id, req, s.actor(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state)
}

func (s *Server) handleDelete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := s.deps.Applications.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Application deleted successfully"})
}

func (s *Server) handleBulkUpdate(c echo.Context) error {
	var req application.BulkUpdateRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	res, err := s.deps.Applications.BulkUpdate(c.Request().Context(), req, s.actor(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleBulkDelete(c echo.Context) error {
	var req application.BulkDeleteRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	res, err := s.deps.Applications.BulkDelete(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleSendEmail(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req application.EmailRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if err := s.deps.Applications.SendEmail(c.Request().Context(), id, req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Email sent successfully"})
}

// handleExport streams CSV. Errors before the first byte become JSON errors;
// later ones can only be logged.
func (s *Server) handleExport(c echo.Context) error {
	q := application.ExportQuery{
		Status:     c.QueryParam("status"),
		Department: c.QueryParam("department"),
		Level:      c.QueryParam("level"),
	}
	h := c.Response().Header()
	h.Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	h.Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", application.ExportFilename(s.deps.Applications.Now())))

	rows, err := s.deps.Applications.Export(c.Request().Context(), q, c.Response())
	if err != nil {
		if !c.Response().Committed {
			h.Del(echo.HeaderContentDisposition)
			h.Del(echo.HeaderContentType)
			return err
		}
		s.logger.Error(c.Request().Context(), "export interrupted", zap.Int("rows", rows), zap.Error(err))
		return nil
	}
	if !c.Response().Committed {
		c.Response().WriteHeader(http.StatusOK)
	}
	return nil
}
