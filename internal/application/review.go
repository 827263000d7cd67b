package application

import (
	"context"
	"io"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/apperr"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/logging"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/sanitize"
)

// Paging defaults for List.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	RecentCount     = 10
)

// Metric sources for status changes.
const (
	sourceSingle = "single"
	sourceBulk   = "bulk"
)

// ListQuery is the admin list/search request.
type ListQuery struct {
	Search     string
	Status     string
	Department string
	Level      string
	Page       int
	Limit      int
}

// Page is one page of applications with paging metadata.
type Page struct {
	Applications []Application `json:"applications"`
	Total        int64         `json:"total"`
	Page         int           `json:"page"`
	Limit        int           `json:"limit"`
	TotalPages   int           `json:"totalPages"`
}

func (q ListQuery) filter() (Filter, error) {
	f := Filter{
		Search:     sanitize.Text(q.Search),
		Status:     Status(sanitize.Text(q.Status)),
		Department: sanitize.Text(q.Department),
		Level:      Level(sanitize.Text(q.Level)),
	}
	var v validator
	if f.Status != "" && !f.Status.Valid() {
		v.add("status", "Status must be one of "+joinStatuses())
	}
	if f.Level != "" && !f.Level.Valid() {
		v.add("level", "Level must be one of "+joinLevels())
	}
	return f, v.err()
}

// List returns a filtered page of applications, newest first.
func (s *Service) List(ctx context.Context, q ListQuery) (*Page, error) {
	f, err := q.filter()
	if err != nil {
		return nil, err
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	switch {
	case limit < 1:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}
	f.Offset = (page - 1) * limit
	f.Limit = limit

	apps, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if apps == nil {
		apps = []Application{}
	}
	return &Page{
		Applications: apps,
		Total:        total,
		Page:         page,
		Limit:        limit,
		TotalPages:   int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

// Get returns the full record for id.
func (s *Service) Get(ctx context.Context, id uint64) (*Application, error) {
	return s.repo.FindByID(ctx, id)
}

// Update applies a partial admin update. A status change appends a history
// entry attributed to actor and, for the notifying statuses, emails the
// applicant on a best-effort basis.
func (s *Service) Update(ctx context.Context, id uint64, req UpdateRequest, actor string) (*ReviewState, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	changed := req.Status != nil && Status(*req.Status) != app.Status
	if changed {
		app.recordStatus(Status(*req.Status), actor, now)
	} else {
		app.UpdatedAt = now
	}
	if req.AdminNotes != nil {
		app.AdminNotes = *req.AdminNotes
	}
	if req.Rating != nil {
		if *req.Rating == 0 {
			app.Rating = nil
		} else {
			r := *req.Rating
			app.Rating = &r
		}
	}
	if req.Tags != nil {
		app.Tags = pq.StringArray(*req.Tags)
	}
	if req.AuditionDate != nil {
		d := req.AuditionDate.UTC()
		app.AuditionDate = &d
	}
	if req.AuditionVenue != nil {
		app.AuditionVenue = *req.AuditionVenue
	}

	if err := s.repo.SaveReview(ctx, app); err != nil {
		return nil, err
	}

	if changed {
		s.metrics.StatusChanged(string(app.Status), sourceSingle)
		s.logger.Info(ctx, "application status changed",
			zap.Uint64("application_id", app.ID),
			zap.String("status", string(app.Status)),
		)
		if app.Status.NotifiesApplicant() {
			s.notifier.StatusChanged(ctx, app)
		}
	}

	state := app.Review()
	return &state, nil
}

// Delete removes one application. Its email log entries cascade.
func (s *Service) Delete(ctx context.Context, id uint64) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("Application not found")
	}
	s.logger.Info(ctx, "application deleted", zap.Uint64("application_id", id))
	return nil
}

// BulkUpdateResult reports a bulk status change.
type BulkUpdateResult struct {
	Requested int   `json:"requested"`
	Updated   int64 `json:"updated"`
}

// BulkUpdate moves every listed application to one status. Each record gets
// its own history entry. Missing ids and records already in the target
// status are skipped. No emails are sent from this path.
func (s *Service) BulkUpdate(ctx context.Context, req BulkUpdateRequest, actor string) (*BulkUpdateResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	target := Status(sanitize.Text(req.Status))

	apps, err := s.repo.FindByIDs(ctx, uniqueIDs(req.IDs))
	if err != nil {
		return nil, err
	}

	res := &BulkUpdateResult{Requested: len(req.IDs)}
	now := s.now().UTC()
	for i := range apps {
		app := &apps[i]
		if app.Status == target {
			continue
		}
		app.recordStatus(target, actor, now)
		if err := s.repo.SaveReview(ctx, app); err != nil {
			return nil, err
		}
		res.Updated++
		s.metrics.StatusChanged(string(target), sourceBulk)
	}

	s.logger.Info(ctx, "bulk status update",
		zap.String("status", string(target)),
		zap.Int("requested", res.Requested),
		zap.Int64("updated", res.Updated),
	)
	return res, nil
}

// BulkDeleteResult reports a bulk delete.
type BulkDeleteResult struct {
	Requested int   `json:"requested"`
	Deleted   int64 `json:"deleted"`
}

// BulkDelete removes every listed application that exists.
func (s *Service) BulkDelete(ctx context.Context, req BulkDeleteRequest) (*BulkDeleteResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	n, err := s.repo.DeleteMany(ctx, uniqueIDs(req.IDs))
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "bulk delete", zap.Int("requested", len(req.IDs)), zap.Int64("deleted", n))
	return &BulkDeleteResult{Requested: len(req.IDs), Deleted: n}, nil
}

// SendEmail sends an ad-hoc message to the application's email address.
// Delivery is the point of the call, so a failed send is reported.
func (s *Service) SendEmail(ctx context.Context, id uint64, req EmailRequest) error {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return err
	}
	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.notifier.Custom(ctx, app, req.Subject, req.Message); err != nil {
		s.logger.Error(ctx, "ad-hoc email failed",
			zap.Uint64("application_id", app.ID),
			logging.MaskedEmail("recipient", app.Email),
			zap.Error(err),
		)
		return apperr.Upstream("Failed to send email", err)
	}
	return nil
}

// RecentApplication is one row of the dashboard's recent list.
type RecentApplication struct {
	ID          uint64    `json:"id"`
	RefNumber   string    `json:"refNumber"`
	FullName    string    `json:"fullName"`
	Department  string    `json:"department"`
	Talents     []string  `json:"talents"`
	Status      Status    `json:"status"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Stats is the admin dashboard summary.
type Stats struct {
	Total        int64               `json:"total"`
	ByStatus     map[string]int64    `json:"byStatus"`
	ByDepartment map[string]int64    `json:"byDepartment"`
	ByLevel      map[string]int64    `json:"byLevel"`
	ByTalent     map[string]int64    `json:"byTalent"`
	Recent       []RecentApplication `json:"recent"`
}

// Stats aggregates counts and the most recent submissions.
// Every status appears in ByStatus, with zero when unused.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	t, err := s.repo.Tally(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.repo.Recent(ctx, RecentCount)
	if err != nil {
		return nil, err
	}

	st := &Stats{
		Total:        t.Total,
		ByStatus:     make(map[string]int64, len(statuses)),
		ByDepartment: orEmpty(t.ByDepartment),
		ByLevel:      orEmpty(t.ByLevel),
		ByTalent:     orEmpty(t.ByTalent),
		Recent:       make([]RecentApplication, 0, len(recent)),
	}
	for _, status := range statuses {
		st.ByStatus[string(status)] = t.ByStatus[string(status)]
	}
	for _, a := range recent {
		st.Recent = append(st.Recent, RecentApplication{
			ID:          a.ID,
			RefNumber:   a.RefNumber,
			FullName:    a.FullName,
			Department:  a.Department,
			Talents:     nonNil(a.Talents),
			Status:      a.Status,
			SubmittedAt: a.SubmittedAt,
		})
	}
	return st, nil
}

func orEmpty(m map[string]int64) map[string]int64 {
	if m == nil {
		return map[string]int64{}
	}
	return m
}

// ExportQuery filters a CSV export.
type ExportQuery struct {
	Status     string
	Department string
	Level      string
}

// Export writes every matching application to w as CSV, newest first.
// It returns the number of rows written.
func (s *Service) Export(ctx context.Context, q ExportQuery, w io.Writer) (int, error) {
	f, err := ListQuery{Status: q.Status, Department: q.Department, Level: q.Level}.filter()
	if err != nil {
		return 0, err
	}
	apps, err := s.repo.ListAll(ctx, f)
	if err != nil {
		return 0, err
	}
	if err := WriteCSV(w, apps); err != nil {
		return 0, apperr.Internal("Failed to write export", err)
	}
	s.logger.Info(ctx, "applications exported", zap.Int("rows", len(apps)))
	return len(apps), nil
}

// ExportFilename names the download for an export taken at t.
func ExportFilename(t time.Time) string {
	return "applications-" + t.UTC().Format("2006-01-02") + ".csv"
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.now()
}
