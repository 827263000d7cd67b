package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/application"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/logging"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/telemetry"
)

// Service renders workflow emails, delivers them through a Mailer and
// records each attempt. It implements application.Notifier.
type Service struct {
	templates    *Templates
	mailer       Mailer
	store        LogStore
	dispatcher   *Dispatcher
	logger       *logging.Logger
	metrics      *telemetry.Metrics
	adminAddress string
	now          func() time.Time
}

var _ application.Notifier = (*Service)(nil)

// Deps are the collaborators of a Service. Store, Logger and Metrics are optional.
type Deps struct {
	Templates    *Templates
	Mailer       Mailer
	Store        LogStore
	Dispatcher   *Dispatcher
	Logger       *logging.Logger
	Metrics      *telemetry.Metrics
	AdminAddress string
}

// NewService creates a notification Service.
func NewService(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	dispatcher := d.Dispatcher
	if dispatcher == nil {
		dispatcher = NewDispatcher(0, logger)
	}
	return &Service{
		templates:    d.Templates,
		mailer:       d.Mailer,
		store:        d.Store,
		dispatcher:   dispatcher,
		logger:       logger.Named("notify"),
		metrics:      d.Metrics,
		adminAddress: d.AdminAddress,
		now:          time.Now,
	}
}

// ApplicationReceived sends the applicant's confirmation and the program
// office's alert in the background.
func (s *Service) ApplicationReceived(ctx context.Context, app *application.Application) {
	snapshot := *app
	if msg, ok := s.renderOrLog(ctx, KindConfirmation, app, func() (Message, error) {
		return s.templates.Confirmation(&snapshot)
	}); ok {
		s.background(ctx, snapshot.ID, msg)
	}
	if s.adminAddress == "" {
		return
	}
	if msg, ok := s.renderOrLog(ctx, KindAdminNotification, app, func() (Message, error) {
		return s.templates.AdminNotification(s.adminAddress, &snapshot)
	}); ok {
		s.background(ctx, snapshot.ID, msg)
	}
}

// StatusChanged sends the status-update email in the background.
func (s *Service) StatusChanged(ctx context.Context, app *application.Application) {
	snapshot := *app
	if msg, ok := s.renderOrLog(ctx, KindStatusUpdate, app, func() (Message, error) {
		return s.templates.StatusUpdate(&snapshot)
	}); ok {
		s.background(ctx, snapshot.ID, msg)
	}
}

// Custom sends an ad-hoc admin message and returns the delivery error.
func (s *Service) Custom(ctx context.Context, app *application.Application, subject, body string) error {
	msg, err := s.templates.Custom(app, subject, body)
	if err != nil {
		return err
	}
	_, err = s.Send(ctx, msg)
	return err
}

// Send delivers msg now, records the attempt and returns the delivery error.
func (s *Service) Send(ctx context.Context, msg Message) (Outcome, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now().UTC()
	}

	outcome, err := s.mailer.Deliver(ctx, msg)
	if err != nil {
		outcome = OutcomeFailed
	}
	s.record(ctx, msg, outcome, err)
	return outcome, err
}

func (s *Service) background(ctx context.Context, appID uint64, msg Message) {
	s.dispatcher.Go(ctx, string(msg.Kind), func(ctx context.Context) {
		if _, err := s.Send(ctx, msg); err != nil {
			s.logger.Warn(ctx, "notification failed",
				zap.String("kind", string(msg.Kind)),
				zap.Uint64("application_id", appID),
				zap.Error(err),
			)
		}
	})
}

func (s *Service) renderOrLog(ctx context.Context, kind Kind, app *application.Application, render func() (Message, error)) (Message, bool) {
	msg, err := render()
	if err != nil {
		s.metrics.Notification(string(kind), string(OutcomeFailed))
		s.logger.Error(ctx, "render notification",
			zap.String("kind", string(kind)),
			zap.Uint64("application_id", app.ID),
			zap.Error(err),
		)
		return Message{}, false
	}
	return msg, true
}

func (s *Service) record(ctx context.Context, msg Message, outcome Outcome, sendErr error) {
	s.metrics.Notification(string(msg.Kind), string(outcome))
	s.logger.Debug(ctx, "notification attempted",
		zap.String("id", msg.ID),
		zap.String("kind", string(msg.Kind)),
		zap.String("outcome", string(outcome)),
		logging.MaskedEmail("to", msg.To),
	)
	if s.store == nil {
		return
	}
	if err := s.store.RecordEmail(ctx, newLogEntry(msg, outcome, sendErr, s.now().UTC())); err != nil {
		s.logger.Warn(ctx, "record email log", zap.String("id", msg.ID), zap.Error(err))
	}
}
