package application

import (
	"context"
)

// Filter selects applications for listing and export.
// Empty fields match everything. Search is a case-insensitive substring
// match over name, email, phone and reference number.
type Filter struct {
	Search     string
	Status     Status
	Department string
	Level      Level
	Offset     int
	Limit      int
}

// Tally holds the aggregate counts shown on the admin dashboard.
type Tally struct {
	Total        int64
	ByStatus     map[string]int64
	ByDepartment map[string]int64
	ByLevel      map[string]int64
	ByTalent     map[string]int64
}

// Repository persists applications.
//
// Implementations return apperr errors: NotFound for missing rows and
// Conflict for unique violations on email, phone or reference number.
type Repository interface {
	Create(ctx context.Context, app *Application) error

	// ExistsByEmailOrPhone reports which of email and phone are already registered.
	ExistsByEmailOrPhone(ctx context.Context, email, phone string) (emailTaken, phoneTaken bool, err error)

	// LatestRefNumber returns the highest reference number starting with
	// prefix, or "" when none exists.
	LatestRefNumber(ctx context.Context, prefix string) (string, error)

	FindByRef(ctx context.Context, ref string) (*Application, error)
	FindByPhone(ctx context.Context, phone string) (*Application, error)
	FindByID(ctx context.Context, id uint64) (*Application, error)
	FindByIDs(ctx context.Context, ids []uint64) ([]Application, error)

	// List returns one page ordered by submission time, newest first, and
	// the total number of matches ignoring Offset and Limit.
	List(ctx context.Context, f Filter) ([]Application, int64, error)

	// ListAll returns every match, newest first. Offset and Limit are ignored.
	ListAll(ctx context.Context, f Filter) ([]Application, error)

	// Recent returns the n most recently submitted applications.
	Recent(ctx context.Context, n int) ([]Application, error)

	// SaveReview persists status, history, notes, rating, tags, audition
	// slot and updated timestamp.
	SaveReview(ctx context.Context, app *Application) error

	// Delete removes one application and reports whether it existed.
	Delete(ctx context.Context, id uint64) (bool, error)

	// DeleteMany removes the given applications and returns how many existed.
	DeleteMany(ctx context.Context, ids []uint64) (int64, error)

	Tally(ctx context.Context) (*Tally, error)
}

// Notifier sends the emails attached to workflow events.
//
// ApplicationReceived and StatusChanged are best-effort: they never report
// failure to the caller. Custom is the primary action of an ad-hoc send and
// returns the delivery error.
type Notifier interface {
	ApplicationReceived(ctx context.Context, app *Application)
	StatusChanged(ctx context.Context, app *Application)
	Custom(ctx context.Context, app *Application, subject, body string) error
}

// NopNotifier discards every notification.
type NopNotifier struct{}

func (NopNotifier) ApplicationReceived(context.Context, *Application) {}

func (NopNotifier) StatusChanged(context.Context, *Application) {}

func (NopNotifier) Custom(context.Context, *Application, string, string) error { return nil }
