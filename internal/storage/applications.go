package storage

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/application"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/apperr"
)

// reviewColumns are the columns an admin review may change.
var reviewColumns = []string{
	"status", "status_history", "admin_notes", "rating", "tags",
	"audition_date", "audition_venue", "updated_at",
}

// Applications is the PostgreSQL application.Repository.
type Applications struct {
	db *gorm.DB
}

var _ application.Repository = (*Applications)(nil)

func NewApplications(db *gorm.DB) *Applications {
	return &Applications{db: db}
}

func (r *Applications) model(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&application.Application{})
}

func (r *Applications) Create(ctx context.Context, app *application.Application) error {
	return translate(r.db.WithContext(ctx).Create(app).Error, "Application")
}

func (r *Applications) ExistsByEmailOrPhone(ctx context.Context, email, phone string) (bool, bool, error) {
	var rows []struct {
		Email string
		Phone string
	}
	err := r.model(ctx).
		Select("email", "phone").
		Where("email = ? OR phone = ?", email, phone).
		Find(&rows).Error
	if err != nil {
		return false, false, translate(err, "Application")
	}
	var emailTaken, phoneTaken bool
	for _, row := range rows {
		emailTaken = emailTaken || row.Email == email
		phoneTaken = phoneTaken || row.Phone == phone
	}
	return emailTaken, phoneTaken, nil
}

// LatestRefNumber orders by length first so HUDT-2026-1000 sorts after
// HUDT-2026-999.
func (r *Applications) LatestRefNumber(ctx context.Context, prefix string) (string, error) {
	var refs []string
	err := r.model(ctx).
		Where("ref_number LIKE ?", escapeLike(prefix)+"%").
		Order("length(ref_number) DESC, ref_number DESC").
		Limit(1).
		Pluck("ref_number", &refs).Error
	if err != nil {
		return "", translate(err, "Application")
	}
	if len(refs) == 0 {
		return "", nil
	}
	return refs[0], nil
}

func (r *Applications) FindByRef(ctx context.Context, ref string) (*application.Application, error) {
	return r.first(ctx, "ref_number = ?", ref)
}

func (r *Applications) FindByPhone(ctx context.Context, phone string) (*application.Application, error) {
	return r.first(ctx, "phone = ?", phone)
}

func (r *Applications) FindByID(ctx context.Context, id uint64) (*application.Application, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *Applications) first(ctx context.Context, query string, arg interface{}) (*application.Application, error) {
	var app application.Application
	if err := r.db.WithContext(ctx).Where(query, arg).First(&app).Error; err != nil {
		return nil, translate(err, "Application")
	}
	return &app, nil
}

func (r *Applications) FindByIDs(ctx context.Context, ids []uint64) ([]application.Application, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var apps []application.Application
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&apps).Error; err != nil {
		return nil, translate(err, "Application")
	}
	return apps, nil
}

func (r *Applications) List(ctx context.Context, f application.Filter) ([]application.Application, int64, error) {
	var total int64
	if err := r.model(ctx).Scopes(filtered(f)).Count(&total).Error; err != nil {
		return nil, 0, translate(err, "Application")
	}
	if total == 0 {
		return []application.Application{}, 0, nil
	}

	q := r.db.WithContext(ctx).Scopes(filtered(f)).Order("submitted_at DESC, id DESC")
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var apps []application.Application
	if err := q.Find(&apps).Error; err != nil {
		return nil, 0, translate(err, "Application")
	}
	return apps, total, nil
}

func (r *Applications) ListAll(ctx context.Context, f application.Filter) ([]application.Application, error) {
	var apps []application.Application
	err := r.db.WithContext(ctx).
		Scopes(filtered(f)).
		Order("submitted_at DESC, id DESC").
		Find(&apps).Error
	if err != nil {
		return nil, translate(err, "Application")
	}
	return apps, nil
}

func (r *Applications) Recent(ctx context.Context, n int) ([]application.Application, error) {
	var apps []application.Application
	err := r.db.WithContext(ctx).
		Order("submitted_at DESC, id DESC").
		Limit(n).
		Find(&apps).Error
	if err != nil {
		return nil, translate(err, "Application")
	}
	return apps, nil
}

func (r *Applications) SaveReview(ctx context.Context, app *application.Application) error {
	if app.ID == 0 {
		return apperr.NotFound("Application not found")
	}
	res := r.db.WithContext(ctx).Model(app).Select(reviewColumns).Updates(app)
	if res.Error != nil {
		return translate(res.Error, "Application")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Application not found")
	}
	return nil
}

// Delete relies on the email_logs foreign key to cascade.
func (r *Applications) Delete(ctx context.Context, id uint64) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&application.Application{}, id)
	if res.Error != nil {
		return false, translate(res.Error, "Application")
	}
	return res.RowsAffected > 0, nil
}

func (r *Applications) DeleteMany(ctx context.Context, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&application.Application{})
	if res.Error != nil {
		return 0, translate(res.Error, "Application")
	}
	return res.RowsAffected, nil
}

type bucket struct {
	Name  string
	Total int64
}

func (r *Applications) Tally(ctx context.Context) (*application.Tally, error) {
	t := &application.Tally{}
	if err := r.model(ctx).Count(&t.Total).Error; err != nil {
		return nil, translate(err, "Application")
	}

	var err error
	if t.ByStatus, err = r.group(ctx, "status"); err != nil {
		return nil, err
	}
	if t.ByDepartment, err = r.group(ctx, "department"); err != nil {
		return nil, err
	}
	if t.ByLevel, err = r.group(ctx, "level"); err != nil {
		return nil, err
	}

	var rows []bucket
	err = r.db.WithContext(ctx).Raw(
		"SELECT talent AS name, count(*) AS total FROM applications, unnest(talents) AS talent GROUP BY talent",
	).Scan(&rows).Error
	if err != nil {
		return nil, translate(err, "Application")
	}
	t.ByTalent = toCounts(rows)
	return t, nil
}

// group counts applications per value of column. column is never user input.
func (r *Applications) group(ctx context.Context, column string) (map[string]int64, error) {
	var rows []bucket
	err := r.model(ctx).
		Select(column + " AS name, count(*) AS total").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err, "Application")
	}
	return toCounts(rows), nil
}

func toCounts(rows []bucket) map[string]int64 {
	out := make(map[string]int64, len(rows))
	for _, b := range rows {
		out[b.Name] = b.Total
	}
	return out
}

// filtered applies the list filters.
func filtered(f application.Filter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Status != "" {
			db = db.Where("status = ?", string(f.Status))
		}
		if f.Department != "" {
			db = db.Where("department = ?", f.Department)
		}
		if f.Level != "" {
			db = db.Where("level = ?", string(f.Level))
		}
		if s := strings.TrimSpace(f.Search); s != "" {
			p := "%" + escapeLike(s) + "%"
			db = db.Where("full_name ILIKE ? OR email ILIKE ? OR phone ILIKE ? OR ref_number ILIKE ?", p, p, p, p)
		}
		return db
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
