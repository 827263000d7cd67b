package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/apperr"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/config"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/telemetry"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

var intake = Rule{Name: "intake", Limit: 5, Window: time.Hour}

func TestMemory_BurstThenRefill(t *testing.T) {
	clk := &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	m := newMemory(clk.now)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ok, err := m.Allow(ctx, intake, "192.0.2.1")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i+1)
	}
	ok, _ := m.Allow(ctx, intake, "192.0.2.1")
	assert.False(t, ok)

	ok, _ = m.Allow(ctx, intake, "192.0.2.2")
	assert.True(t, ok, "other clients have their own bucket")

	clk.advance(12 * time.Minute)
	ok, _ = m.Allow(ctx, intake, "192.0.2.1")
	assert.True(t, ok)
	ok, _ = m.Allow(ctx, intake, "192.0.2.1")
	assert.False(t, ok)
}

func TestMemory_RulesAreIndependent(t *testing.T) {
	clk := &clock{t: time.Now()}
	m := newMemory(clk.now)
	login := Rule{Name: "login", Limit: 1, Window: time.Minute}

	ok, _ := m.Allow(context.Background(), login, "ip")
	assert.True(t, ok)
	ok, _ = m.Allow(context.Background(), login, "ip")
	assert.False(t, ok)
	ok, _ = m.Allow(context.Background(), intake, "ip")
	assert.True(t, ok)
}

func TestMemory_DisabledRule(t *testing.T) {
	m := newMemory(time.Now)
	for i := 0; i < 100; i++ {
		ok, err := m.Allow(context.Background(), Rule{Name: "off"}, "ip")
		require.NoError(t, err)
		require.True(t, ok)
	}
	assert.Zero(t, m.Len())
}

func TestMemory_Sweep(t *testing.T) {
	clk := &clock{t: time.Now()}
	m := newMemory(clk.now)
	_, _ = m.Allow(context.Background(), intake, "old")
	clk.advance(3 * time.Hour)
	_, _ = m.Allow(context.Background(), intake, "fresh")

	assert.Equal(t, 1, m.Sweep(2*time.Hour))
	assert.Equal(t, 1, m.Len())
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
}

// fakeScripter counts EvalSha calls per key the way the Lua script does.
type fakeScripter struct {
	redis.Scripter
	mu     sync.Mutex
	counts map[string]int64
	err    error
	keys   []string
}

func (f *fakeScripter) EvalSha(ctx context.Context, _ string, keys []string, _ ...interface{}) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd := redis.NewCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.counts[keys[0]]++
	f.keys = append(f.keys, keys[0])
	cmd.SetVal(f.counts[keys[0]])
	return cmd
}

func TestRedis_FixedWindow(t *testing.T) {
	fs := &fakeScripter{counts: map[string]int64{}}
	r := NewRedis(fs, "hudt:rl:")
	rule := Rule{Name: "login", Limit: 2, Window: 15 * time.Minute}

	for _, want := range []bool{true, true, false} {
		ok, err := r.Allow(context.Background(), rule, "198.51.100.7")
		require.NoError(t, err)
		assert.Equal(t, want, ok)
	}
	assert.Equal(t, "hudt:rl:login:198.51.100.7", fs.keys[0])
}

func TestRedis_Error(t *testing.T) {
	r := NewRedis(&fakeScripter{err: errors.New("connection refused")}, "p:")
	ok, err := r.Allow(context.Background(), intake, "ip")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestNew_UnknownBackend(t *testing.T) {
	_, _, err := New(context.Background(), config.RateLimitConfig{Backend: "carrier-pigeon"})
	assert.Error(t, err)

	l, closeFn, err := New(context.Background(), config.RateLimitConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, l)
	assert.NoError(t, closeFn())
}

func TestRulesFrom(t *testing.T) {
	rules := RulesFrom(config.Default().RateLimit)
	assert.Equal(t, "intake", rules.Intake.Name)
	assert.Equal(t, 5, rules.Intake.Limit)
	assert.Equal(t, time.Hour, rules.Intake.Window)
	assert.True(t, rules.Login.Enabled())
	assert.NotEmpty(t, rules.Status.Message)
}

type stubLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (s *stubLimiter) Allow(_ context.Context, _ Rule, key string) (bool, error) {
	s.keys = append(s.keys, key)
	return s.allow, s.err
}

func serve(t *testing.T, mw echo.MiddlewareFunc) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/applications", nil)
	req.RemoteAddr = "192.0.2.9:5555"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := mw(func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })(c)
	return rec, err
}

func TestMiddleware(t *testing.T) {
	t.Run("allows", func(t *testing.T) {
		stub := &stubLimiter{allow: true}
		rec, err := serve(t, Middleware(stub, intake, nil, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, []string{"192.0.2.9"}, stub.keys)
	})

	t.Run("rejects", func(t *testing.T) {
		metrics := telemetry.New(prometheus.NewRegistry())
		rec, err := serve(t, Middleware(&stubLimiter{allow: false}, RulesFrom(config.Default().RateLimit).Intake, nil, metrics))
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.CodeRateLimited))
		assert.Contains(t, err.Error(), "Too many applications")
		assert.Equal(t, "3600", rec.Header().Get("Retry-After"))
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RateLimited.WithLabelValues("intake")))
	})

	t.Run("fails open", func(t *testing.T) {
		rec, err := serve(t, Middleware(&stubLimiter{err: errors.New("down")}, intake, nil, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("disabled rule skips limiter", func(t *testing.T) {
		stub := &stubLimiter{}
		_, err := serve(t, Middleware(stub, Rule{Name: "off"}, nil, nil))
		require.NoError(t, err)
		assert.Empty(t, stub.keys)
	})
}
