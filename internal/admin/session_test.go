package admin

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/apperr"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/auth"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/logging"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/telemetry"
)

type memRepo struct {
	mu      sync.Mutex
	admins  map[uint64]*Admin
	touched map[uint64]time.Time
	findErr error
}

func newMemRepo() *memRepo {
	return &memRepo{admins: map[uint64]*Admin{}, touched: map[uint64]time.Time{}}
}

func (r *memRepo) FindByUsername(_ context.Context, username string) (*Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, a := range r.admins {
		if a.Username == username {
			c := *a
			return &c, nil
		}
	}
	return nil, apperr.NotFound("Admin not found")
}

func (r *memRepo) FindByID(_ context.Context, id uint64) (*Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.admins[id]; ok {
		c := *a
		return &c, nil
	}
	return nil, apperr.NotFound("Admin not found")
}

func (r *memRepo) Create(_ context.Context, a *Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.admins {
		if existing.Username == a.Username || existing.Email == a.Email {
			return apperr.Conflict("Admin already exists")
		}
	}
	a.ID = uint64(len(r.admins) + 1)
	c := *a
	r.admins[a.ID] = &c
	return nil
}

func (r *memRepo) TouchLastLogin(_ context.Context, id uint64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touched[id] = at
	return nil
}

const testSecret = "0123456789abcdef0123456789abcdef"

type fixture struct {
	svc     *SessionService
	repo    *memRepo
	tokens  *auth.TokenManager
	metrics *telemetry.Metrics
	log     *logging.TestLogger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens, err := auth.NewTokenManager(testSecret, time.Hour, "hudt-test")
	require.NoError(t, err)
	f := &fixture{
		repo:    newMemRepo(),
		tokens:  tokens,
		metrics: telemetry.New(prometheus.NewRegistry()),
		log:     logging.NewTestLogger(),
	}
	f.svc = NewSessionService(f.repo, tokens, f.log.Logger, f.metrics, bcrypt.MinCost)
	_, err = f.svc.Create(context.Background(), CreateRequest{
		Username: "Director",
		Email:    "director@hudt.local",
		Password: "stage-door-42",
	})
	require.NoError(t, err)
	return f
}

func TestLogin_Success(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Login(context.Background(), LoginRequest{Username: " director ", Password: "stage-door-42"})
	require.NoError(t, err)
	assert.Equal(t, "director", res.Admin.Username)
	require.NotNil(t, res.Admin.LastLogin)
	assert.Contains(t, f.repo.touched, res.Admin.ID)

	claims, err := f.tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.Admin.ID, claims.AdminID)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Logins.WithLabelValues("success")))
	f.log.AssertNoSecrets(t)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)

	_, wrongPassword := f.svc.Login(context.Background(), LoginRequest{Username: "director", Password: "nope"})
	_, unknownUser := f.svc.Login(context.Background(), LoginRequest{Username: "ghost", Password: "nope"})

	require.Error(t, wrongPassword)
	require.Error(t, unknownUser)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
	assert.Equal(t, apperr.CodeOf(wrongPassword), apperr.CodeOf(unknownUser))
	assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(unknownUser))
	assert.Empty(t, f.repo.touched)
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.Logins.WithLabelValues("failure")))
	assert.NotEmpty(t, f.svc.dummy(), "dummy hash computed for unknown users")
}

func TestLogin_MissingFields(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Login(context.Background(), LoginRequest{})
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeValidation, e.Code)
	assert.Len(t, e.Fields, 2)
}

func TestLogin_StorageError(t *testing.T) {
	f := newFixture(t)
	f.repo.findErr = apperr.Internal("Database error", nil)
	_, err := f.svc.Login(context.Background(), LoginRequest{Username: "director", Password: "stage-door-42"})
	assert.True(t, apperr.Is(err, apperr.CodeInternal))
}

func TestMe(t *testing.T) {
	f := newFixture(t)
	a, err := f.svc.Me(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "director", a.Username)

	_, err = f.svc.Me(context.Background(), 9)
	assert.True(t, apperr.Is(err, apperr.CodeUnauthorized))
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), CreateRequest{Username: "ab", Email: "bad", Password: "short", Role: "root"})
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Len(t, e.Fields, 4)

	_, err = f.svc.Create(context.Background(), CreateRequest{Username: "director", Email: "x@hudt.local", Password: "long-enough"})
	assert.True(t, apperr.Is(err, apperr.CodeConflict))
}

func TestCreate_AcceptsHash(t *testing.T) {
	f := newFixture(t)
	hash, err := auth.HashPassword("pre-hashed-secret", bcrypt.MinCost)
	require.NoError(t, err)

	a, err := f.svc.Create(context.Background(), CreateRequest{Username: "stage", Email: "stage@hudt.local", Password: hash})
	require.NoError(t, err)
	assert.Equal(t, hash, a.PasswordHash)

	_, err = f.svc.Login(context.Background(), LoginRequest{Username: "stage", Password: "pre-hashed-secret"})
	assert.NoError(t, err)
}

func TestSeed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Seed(ctx, "admin", "admin@hudt.local", "")
	require.NoError(t, err)
	assert.False(t, created)

	created, err = f.svc.Seed(ctx, "admin", "admin@hudt.local", "first-run-password")
	require.NoError(t, err)
	assert.True(t, created)

	a, err := f.repo.FindByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, RoleSuperAdmin, a.Role)

	created, err = f.svc.Seed(ctx, "admin", "admin@hudt.local", "other-password")
	require.NoError(t, err)
	assert.False(t, created)
}
