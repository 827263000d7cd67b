package http

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/admin"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/application"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/apperr"
)

type appRepo struct {
	mu     sync.Mutex
	nextID uint64
	apps   map[uint64]application.Application
}

func newAppRepo() *appRepo {
	return &appRepo{apps: map[uint64]application.Application{}}
}

func (r *appRepo) Create(_ context.Context, app *application.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	app.ID = r.nextID
	r.apps[app.ID] = *app
	return nil
}

func (r *appRepo) ExistsByEmailOrPhone(_ context.Context, email, phone string) (bool, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var e, p bool
	for _, a := range r.apps {
		e = e || a.Email == email
		p = p || a.Phone == phone
	}
	return e, p, nil
}

func (r *appRepo) LatestRefNumber(_ context.Context, prefix string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	latest := ""
	for _, a := range r.apps {
		if strings.HasPrefix(a.RefNumber, prefix) && a.RefNumber > latest {
			latest = a.RefNumber
		}
	}
	return latest, nil
}

func (r *appRepo) find(match func(application.Application) bool) (*application.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.apps {
		if match(a) {
			c := a
			return &c, nil
		}
	}
	return nil, apperr.NotFound("Application not found")
}

func (r *appRepo) FindByRef(_ context.Context, ref string) (*application.Application, error) {
	return r.find(func(a application.Application) bool { return a.RefNumber == ref })
}

func (r *appRepo) FindByPhone(_ context.Context, phone string) (*application.Application, error) {
	return r.find(func(a application.Application) bool { return a.Phone == phone })
}

func (r *appRepo) FindByID(_ context.Context, id uint64) (*application.Application, error) {
	return r.find(func(a application.Application) bool { return a.ID == id })
}

func (r *appRepo) FindByIDs(_ context.Context, ids []uint64) ([]application.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []application.Application
	for _, id := range ids {
		if a, ok := r.apps[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *appRepo) ListAll(_ context.Context, f application.Filter) ([]application.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []application.Application
	for _, a := range r.apps {
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.Department != "" && a.Department != f.Department {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(a.FullName+" "+a.RefNumber), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *appRepo) List(ctx context.Context, f application.Filter) ([]application.Application, int64, error) {
	all, _ := r.ListAll(ctx, f)
	total := int64(len(all))
	if f.Offset >= len(all) {
		return nil, total, nil
	}
	end := min(f.Offset+f.Limit, len(all))
	return all[f.Offset:end], total, nil
}

func (r *appRepo) Recent(ctx context.Context, n int) ([]application.Application, error) {
	all, _ := r.ListAll(ctx, application.Filter{})
	if len(all) > n {
		all = all[:n]
	}
	return all, nil
}

func (r *appRepo) SaveReview(_ context.Context, app *application.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.apps[app.ID]; !ok {
		return apperr.NotFound("Application not found")
	}
	r.apps[app.ID] = *app
	return nil
}

func (r *appRepo) Delete(_ context.Context, id uint64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.apps[id]
	delete(r.apps, id)
	return ok, nil
}

func (r *appRepo) DeleteMany(_ context.Context, ids []uint64) (int64, error) {
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

func (r *appRepo) Tally(_ context.Context) (*application.Tally, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := &application.Tally{
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

type adminRepo struct {
	mu     sync.Mutex
	nextID uint64
	admins map[uint64]admin.Admin
}

func newAdminRepo() *adminRepo {
	return &adminRepo{admins: map[uint64]admin.Admin{}}
}

func (r *adminRepo) FindByUsername(_ context.Context, username string) (*admin.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.admins {
		if a.Username == username {
			c := a
			return &c, nil
		}
	}
	return nil, apperr.NotFound("Admin not found")
}

func (r *adminRepo) FindByID(_ context.Context, id uint64) (*admin.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.admins[id]; ok {
		return &a, nil
	}
	return nil, apperr.NotFound("Admin not found")
}

func (r *adminRepo) Create(_ context.Context, a *admin.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	a.ID = r.nextID
	r.admins[a.ID] = *a
	return nil
}

func (r *adminRepo) TouchLastLogin(_ context.Context, id uint64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.admins[id]
	if !ok {
		return apperr.NotFound("Admin not found")
	}
	a.LastLogin = &at
	r.admins[id] = a
	return nil
}

type notifier struct {
	application.NopNotifier
	mu      sync.Mutex
	subject []string
	err     error
}

func (n *notifier) Custom(_ context.Context, _ *application.Application, subject, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.subject = append(n.subject, subject)
	return nil
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }
