package storage

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/notify"
)

// EmailLogs is the PostgreSQL notify.LogStore.
type EmailLogs struct {
	db *gorm.DB
}

var _ notify.LogStore = (*EmailLogs)(nil)

func NewEmailLogs(db *gorm.DB) *EmailLogs {
	return &EmailLogs{db: db}
}

func (r *EmailLogs) RecordEmail(ctx context.Context, entry *notify.EmailLog) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(entry).Error, "Email log")
}

// CompleteEmail updates the queued row for entry.MessageID in place. A worker
// consuming messages published without a queued row inserts entry instead.
func (r *EmailLogs) CompleteEmail(ctx context.Context, entry *notify.EmailLog) error {
	if entry.MessageID == "" {
		return r.RecordEmail(ctx, entry)
	}
	res := r.db.WithContext(ctx).Model(&notify.EmailLog{}).
		Where("message_id = ? AND outcome = ?", entry.MessageID, notify.OutcomeQueued).
		Updates(map[string]interface{}{"outcome": entry.Outcome, "error": entry.Error})
	if res.Error != nil {
		return translate(res.Error, "Email log")
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return r.RecordEmail(ctx, entry)
}

// ForApplication returns the delivery log of one application, newest first.
func (r *EmailLogs) ForApplication(ctx context.Context, applicationID uint64) ([]notify.EmailLog, error) {
	var logs []notify.EmailLog
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("created_at DESC, id DESC").
		Find(&logs).Error
	if err != nil {
		return nil, translate(err, "Email log")
	}
	return logs, nil
}
