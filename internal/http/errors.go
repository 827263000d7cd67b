package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/apperr"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string              `json:"error"`
	Code    apperr.Code         `json:"code"`
	Details []apperr.FieldError `json:"details,omitempty"`
}

// handleError is the echo HTTPErrorHandler. Internal failures are logged
// with their cause and answered with a generic message.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status, body := s.errorResponse(c.Request().Context(), err)

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = c.JSON(status, body)
	}
	if werr != nil {
		s.logger.Warn(c.Request().Context(), "write error response", zap.Error(werr))
	}
}

func (s *Server) errorResponse(ctx context.Context, err error) (int, ErrorResponse) {
	if e, ok := apperr.As(err); ok {
		status := apperr.HTTPStatus(e.Code)
		switch e.Code {
		case apperr.CodeInternal:
			s.logger.Error(ctx, "request failed", zap.Error(err))
			return status, ErrorResponse{Error: "Internal server error", Code: e.Code}
		case apperr.CodeUpstream:
			s.logger.Error(ctx, "upstream failure", zap.Error(err))
		}
		return status, ErrorResponse{Error: e.Message, Code: e.Code, Details: e.Fields}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		}
		return he.Code, ErrorResponse{Error: msg, Code: codeForStatus(he.Code)}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		s.logger.Warn(ctx, "request timed out", zap.Error(err))
		return http.StatusServiceUnavailable, ErrorResponse{Error: "Request timed out", Code: apperr.CodeInternal}
	}

	s.logger.Error(ctx, "unhandled error", zap.Error(err))
	return http.StatusInternalServerError, ErrorResponse{Error: "Internal server error", Code: apperr.CodeInternal}
}

func codeForStatus(status int) apperr.Code {
	switch {
	case status == http.StatusNotFound:
		return apperr.CodeNotFound
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return apperr.CodeUnauthorized
	case status == http.StatusTooManyRequests:
		return apperr.CodeRateLimited
	case status >= 500:
		return apperr.CodeInternal
	default:
		return apperr.CodeValidation
	}
}
