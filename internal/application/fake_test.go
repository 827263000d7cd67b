package application

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/apperr"
)

// memRepo is an in-memory Repository for service tests.
type memRepo struct {
	mu     sync.Mutex
	nextID uint64
	apps   map[uint64]*Application

	latestErr error
	saveErr   error
	saves     int
}

func newMemRepo() *memRepo {
	return &memRepo{apps: make(map[uint64]*Application)}
}

func clone(a *Application) *Application {
	c := *a
	c.Talents = append([]string(nil), a.Talents...)
	c.Tags = append([]string(nil), a.Tags...)
	c.StatusHistory = append([]StatusChange(nil), a.StatusHistory...)
	return &c
}

func (r *memRepo) Create(_ context.Context, app *Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.apps {
		if a.Email == app.Email || a.Phone == app.Phone || a.RefNumber == app.RefNumber {
			return apperr.Conflict("duplicate")
		}
	}
	r.nextID++
	app.ID = r.nextID
	r.apps[app.ID] = clone(app)
	return nil
}

func (r *memRepo) ExistsByEmailOrPhone(_ context.Context, email, phone string) (bool, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var e, p bool
	for _, a := range r.apps {
		e = e || a.Email == email
		p = p || a.Phone == phone
	}
	return e, p, nil
}

func (r *memRepo) LatestRefNumber(_ context.Context, prefix string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.latestErr != nil {
		return "", r.latestErr
	}
	latest := ""
	for _, a := range r.apps {
		ref := a.RefNumber
		if !strings.HasPrefix(ref, prefix) {
			continue
		}
		if len(ref) > len(latest) || (len(ref) == len(latest) && ref > latest) {
			latest = ref
		}
	}
	return latest, nil
}

func (r *memRepo) findOne(match func(*Application) bool) (*Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.apps {
		if match(a) {
			return clone(a), nil
		}
	}
	return nil, apperr.NotFound("Application not found")
}

func (r *memRepo) FindByRef(_ context.Context, ref string) (*Application, error) {
	return r.findOne(func(a *Application) bool { return a.RefNumber == ref })
}

func (r *memRepo) FindByPhone(_ context.Context, phone string) (*Application, error) {
	return r.findOne(func(a *Application) bool { return a.Phone == phone })
}

func (r *memRepo) FindByID(_ context.Context, id uint64) (*Application, error) {
	return r.findOne(func(a *Application) bool { return a.ID == id })
}

func (r *memRepo) FindByIDs(_ context.Context, ids []uint64) ([]Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Application
	for _, id := range ids {
		if a, ok := r.apps[id]; ok {
			out = append(out, *clone(a))
		}
	}
	return out, nil
}

func (r *memRepo) matching(f Filter) []Application {
	r.mu.Lock()
	defer r.mu.Unlock()
	search := strings.ToLower(f.Search)
	var out []Application
	for _, a := range r.apps {
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.Department != "" && a.Department != f.Department {
			continue
		}
		if f.Level != "" && a.Level != f.Level {
			continue
		}
		if search != "" {
			hay := strings.ToLower(strings.Join([]string{a.FullName, a.Email, a.Phone, a.RefNumber}, "\x00"))
			if !strings.Contains(hay, search) {
				continue
			}
		}
		out = append(out, *clone(a))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.After(out[j].SubmittedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r *memRepo) List(_ context.Context, f Filter) ([]Application, int64, error) {
	all := r.matching(f)
	total := int64(len(all))
	if f.Offset >= len(all) {
		return nil, total, nil
	}
	end := f.Offset + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[f.Offset:end], total, nil
}

func (r *memRepo) ListAll(_ context.Context, f Filter) ([]Application, error) {
	return r.matching(f), nil
}

func (r *memRepo) Recent(_ context.Context, n int) ([]Application, error) {
	all := r.matching(Filter{})
	if len(all) > n {
		all = all[:n]
	}
	return all, nil
}

func (r *memRepo) SaveReview(_ context.Context, app *Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	if _, ok := r.apps[app.ID]; !ok {
		return apperr.NotFound("Application not found")
	}
	r.saves++
	r.apps[app.ID] = clone(app)
	return nil
}

func (r *memRepo) Delete(_ context.Context, id uint64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.apps[id]
	delete(r.apps, id)
	return ok, nil
}

func (r *memRepo) DeleteMany(_ context.Context, ids []uint64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := r.apps[id]; ok {
			delete(r.apps, id)
			n++
		}
	}
	return n, nil
}

func (r *memRepo) Tally(_ context.Context) (*Tally, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := &Tally{
		ByStatus:     map[string]int64{},
		ByDepartment: map[string]int64{},
		ByLevel:      map[string]int64{},
		ByTalent:     map[string]int64{},
	}
	for _, a := range r.apps {
		t.Total++
		t.ByStatus[string(a.Status)]++
		t.ByDepartment[a.Department]++
		t.ByLevel[string(a.Level)]++
		for _, talent := range a.Talents {
			t.ByTalent[talent]++
		}
	}
	return t, nil
}

func (r *memRepo) get(id uint64) *Application {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.apps[id]
	if !ok {
		return nil
	}
	return clone(a)
}

func (r *memRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.apps)
}

// recordingNotifier captures notifications.
type recordingNotifier struct {
	mu        sync.Mutex
	received  []string
	changed   []Status
	custom    []string
	customErr error
}

func (n *recordingNotifier) ApplicationReceived(_ context.Context, app *Application) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.received = append(n.received, app.RefNumber)
}

func (n *recordingNotifier) StatusChanged(_ context.Context, app *Application) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changed = append(n.changed, app.Status)
}

func (n *recordingNotifier) Custom(_ context.Context, app *Application, subject, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.customErr != nil {
		return n.customErr
	}
	n.custom = append(n.custom, app.Email+"|"+subject)
	return nil
}

var errStorage = errors.New("connection refused")

var testNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func fixedClock() func() time.Time {
	return func() time.Time { return testNow }
}

// tickingClock advances one minute per call.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	t := testNow
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Minute)
		return t
	}
}

func validRequest() SubmitRequest {
	return SubmitRequest{
		FullName:   "  Ada   Okafor ",
		Email:      "Ada.Okafor@Example.com",
		Phone:      "+234 801 234 5678",
		Department: "Theatre Arts",
		Level:      "300",
		Talents:    []string{"acting", "Singing", "Acting"},
		Motivation: "I have loved the stage since childhood.",
	}
}
