package admin

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/apperr"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/auth"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/logging"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/sanitize"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/telemetry"
)

// errInvalidCredentials is returned for unknown users and wrong passwords alike.
const errInvalidCredentials = "Invalid credentials"

// LoginRequest is the admin login body.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult carries the issued token and the admin it identifies.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Admin     *Admin    `json:"admin"`
}

// SessionService authenticates admins and issues bearer tokens.
type SessionService struct {
	repo    Repository
	tokens  *auth.TokenManager
	logger  *logging.Logger
	metrics *telemetry.Metrics
	cost    int
	now     func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewSessionService creates a SessionService. cost is the bcrypt cost for
// passwords created through it.
func NewSessionService(repo Repository, tokens *auth.TokenManager, logger *logging.Logger, metrics *telemetry.Metrics, cost int) *SessionService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &SessionService{
		repo:    repo,
		tokens:  tokens,
		logger:  logger,
		metrics: metrics,
		cost:    cost,
		now:     time.Now,
	}
}

// dummy returns a hash compared against for unknown usernames so both
// failure paths pay the same bcrypt cost.
func (s *SessionService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := auth.HashPassword("not-a-real-password", s.cost)
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

// Login verifies credentials, records the login time and issues a token.
func (s *SessionService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	username := strings.ToLower(sanitize.Text(req.Username))
	if username == "" || req.Password == "" {
		var fields []apperr.FieldError
		if username == "" {
			fields = append(fields, apperr.FieldError{Field: "username", Message: "Username is required"})
		}
		if req.Password == "" {
			fields = append(fields, apperr.FieldError{Field: "password", Message: "Password is required"})
		}
		return nil, apperr.Validation(fields)
	}

	a, err := s.repo.FindByUsername(ctx, username)
	if err != nil && !apperr.Is(err, apperr.CodeNotFound) {
		return nil, err
	}
	if a == nil {
		auth.CheckPassword(s.dummy(), req.Password)
		s.metrics.Login("failure")
		s.logger.Warn(ctx, "admin login failed", zap.String("reason", "unknown user"))
		return nil, apperr.Unauthorized(errInvalidCredentials)
	}
	if !auth.CheckPassword(a.PasswordHash, req.Password) {
		s.metrics.Login("failure")
		s.logger.Warn(ctx, "admin login failed",
			zap.Uint64("admin_id", a.ID),
			zap.String("reason", "password mismatch"),
		)
		return nil, apperr.Unauthorized(errInvalidCredentials)
	}

	now := s.now().UTC()
	if err := s.repo.TouchLastLogin(ctx, a.ID, now); err != nil {
		return nil, err
	}
	a.LastLogin = &now

	token, expires, err := s.tokens.Issue(auth.Identity{AdminID: a.ID, Username: a.Username, Role: a.Role})
	if err != nil {
		return nil, apperr.Internal("Failed to issue token", err)
	}

	s.metrics.Login("success")
	s.logger.Info(ctx, "admin logged in", zap.Uint64("admin_id", a.ID), zap.String("username", a.Username))
	return &LoginResult{Token: token, ExpiresAt: expires, Admin: a}, nil
}

// Me returns the admin a verified token was issued to.
func (s *SessionService) Me(ctx context.Context, id uint64) (*Admin, error) {
	a, err := s.repo.FindByID(ctx, id)
	if apperr.Is(err, apperr.CodeNotFound) {
		return nil, apperr.Unauthorized("Admin account no longer exists")
	}
	return a, err
}

// CreateRequest describes a new admin account. Password may be plaintext
// or an existing bcrypt hash.
type CreateRequest struct {
	Username string
	Email    string
	Password string
	Role     string
}

// Create adds an admin account.
func (s *SessionService) Create(ctx context.Context, req CreateRequest) (*Admin, error) {
	username := strings.ToLower(sanitize.Text(req.Username))
	email := sanitize.Email(req.Email)
	role := req.Role
	if role == "" {
		role = RoleAdmin
	}

	var fields []apperr.FieldError
	if !sanitize.Within(username, 3, 50) {
		fields = append(fields, apperr.FieldError{Field: "username", Message: "Username must be 3-50 characters"})
	}
	if !sanitize.IsEmail(email) {
		fields = append(fields, apperr.FieldError{Field: "email", Message: "Email address is invalid"})
	}
	if !ValidRole(role) {
		fields = append(fields, apperr.FieldError{Field: "role", Message: "Role must be admin or super_admin"})
	}
	if !auth.IsHash(req.Password) && len(req.Password) < 8 {
		fields = append(fields, apperr.FieldError{Field: "password", Message: "Password must be at least 8 characters"})
	}
	if len(fields) > 0 {
		return nil, apperr.Validation(fields)
	}

	hash := req.Password
	if !auth.IsHash(hash) {
		var err error
		hash, err = auth.HashPassword(req.Password, s.cost)
		if err != nil {
			return nil, apperr.Invalid("password", err.Error())
		}
	}

	a := &Admin{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "admin created", zap.Uint64("admin_id", a.ID), zap.String("username", a.Username))
	return a, nil
}

// Seed creates the default admin when no account with that username exists.
// It is a no-op when password is empty. It reports whether an account was created.
func (s *SessionService) Seed(ctx context.Context, username, email, password string) (bool, error) {
	if password == "" {
		s.logger.Debug(ctx, "default admin password not set, skipping seed")
		return false, nil
	}
	_, err := s.repo.FindByUsername(ctx, strings.ToLower(sanitize.Text(username)))
	switch {
	case err == nil:
		return false, nil
	case !apperr.Is(err, apperr.CodeNotFound):
		return false, err
	}
	if _, err := s.Create(ctx, CreateRequest{
		Username: username,
		Email:    email,
		Password: password,
		Role:     RoleSuperAdmin,
	}); err != nil {
		return false, err
	}
	return true, nil
}
