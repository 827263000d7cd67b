// Package notify renders and delivers the workflow's outbound email.
//
// Delivery goes through a Mailer: direct SMTP, the log (development), or a
// broker (NATS or Kafka) drained by a mail worker. Every attempt is recorded
// in the email log.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/application"
)

// Kind classifies an email.
type Kind string

const (
	KindConfirmation      Kind = "confirmation"
	KindAdminNotification Kind = "admin_notification"
	KindStatusUpdate      Kind = "status_update"
	KindCustom            Kind = "custom"
)

// Outcome is the result of a delivery attempt.
type Outcome string

const (
	OutcomeSent   Outcome = "sent"
	OutcomeQueued Outcome = "queued"
	OutcomeFailed Outcome = "failed"
)

// ErrInvalidMessage is returned for messages that cannot be delivered as addressed.
var ErrInvalidMessage = errors.New("invalid message")

// Message is a rendered email. It is also the queued wire format.
type Message struct {
	ID            string    `json:"id"`
	To            string    `json:"to"`
	Subject       string    `json:"subject"`
	HTML          string    `json:"html"`
	Kind          Kind      `json:"kind"`
	ApplicationID uint64    `json:"applicationId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Mailer delivers a message. Broker-backed mailers report OutcomeQueued.
type Mailer interface {
	Deliver(ctx context.Context, msg Message) (Outcome, error)
}

// MailerFunc adapts a function to Mailer.
type MailerFunc func(ctx context.Context, msg Message) (Outcome, error)

func (f MailerFunc) Deliver(ctx context.Context, msg Message) (Outcome, error) {
	return f(ctx, msg)
}

// EmailLog records one delivery attempt. Rows are removed with their application.
type EmailLog struct {
	ID            uint64                   `gorm:"primaryKey" json:"id"`
	MessageID     string                   `gorm:"size:64;index" json:"messageId,omitempty"`
	ApplicationID *uint64                  `gorm:"index" json:"applicationId"`
	Application   *application.Application `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Recipient     string                   `gorm:"size:254;not null" json:"recipient"`
	Subject       string                   `gorm:"size:255;not null" json:"subject"`
	Body          string                   `gorm:"type:text" json:"body"`
	Kind          Kind                     `gorm:"size:32;not null" json:"kind"`
	Outcome       Outcome                  `gorm:"size:16;not null" json:"outcome"`
	Error         string                   `gorm:"type:text" json:"error,omitempty"`
	CreatedAt     time.Time                `json:"createdAt"`
}

// TableName pins the table name.
func (EmailLog) TableName() string {
	return "email_logs"
}

// LogStore persists email log entries.
type LogStore interface {
	RecordEmail(ctx context.Context, entry *EmailLog) error
	// CompleteEmail moves the queued entry with entry.MessageID to its final
	// outcome, or records entry when no queued entry exists.
	CompleteEmail(ctx context.Context, entry *EmailLog) error
}

func newLogEntry(msg Message, outcome Outcome, sendErr error, at time.Time) *EmailLog {
	entry := &EmailLog{
		MessageID: msg.ID,
		Recipient: msg.To,
		Subject:   msg.Subject,
		Body:      msg.HTML,
		Kind:      msg.Kind,
		Outcome:   outcome,
		CreatedAt: at,
	}
	if msg.ApplicationID != 0 {
		id := msg.ApplicationID
		entry.ApplicationID = &id
	}
	if sendErr != nil {
		entry.Error = sendErr.Error()
	}
	return entry
}
