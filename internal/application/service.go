package application

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/apperr"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/logging"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/sanitize"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/telemetry"
)

// SubmittedMessage is returned to applicants after a successful submission.
const SubmittedMessage = "Application submitted successfully. Keep your reference number to check your status."

// Service implements intake, status lookup and the admin review workflow.
type Service struct {
	repo     Repository
	notifier Notifier
	alloc    *Allocator
	logger   *logging.Logger
	metrics  *telemetry.Metrics
	now      func() time.Time
	prefix   string
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithMetrics records workflow metrics.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithPrefix sets the reference number prefix.
func WithPrefix(prefix string) Option {
	return func(s *Service) {
		s.prefix = prefix
	}
}

// NewService creates a Service. A nil notifier discards notifications.
func NewService(repo Repository, notifier Notifier, logger *logging.Logger, opts ...Option) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if logger == nil {
		logger = logging.Nop()
	}
	s := &Service{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		prefix:   DefaultRefPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.alloc = NewAllocator(repo, s.prefix, logger)
	s.alloc.now = s.now
	return s
}

// SubmitResult is the intake response.
type SubmitResult struct {
	RefNumber string `json:"refNumber"`
	Message   string `json:"message"`
}

// Submit validates and stores a new application, then notifies the
// applicant and the program office. Notification failures do not fail the
// submission.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	emailTaken, phoneTaken, err := s.repo.ExistsByEmailOrPhone(ctx, req.Email, req.Phone)
	if err != nil {
		return nil, err
	}
	if emailTaken || phoneTaken {
		return nil, duplicateError(emailTaken, phoneTaken)
	}

	now := s.now().UTC()
	app := &Application{
		RefNumber:    s.alloc.Next(ctx),
		FullName:     req.FullName,
		Email:        req.Email,
		Phone:        req.Phone,
		Department:   req.Department,
		Level:        Level(req.Level),
		Talents:      req.Talents,
		Instruments:  req.Instruments,
		Experience:   req.Experience,
		Motivation:   req.Motivation,
		Availability: req.Availability,
		SubmittedAt:  now,
	}
	app.recordStatus(StatusSubmitted, ChangedByApplicant, now)

	if err := s.repo.Create(ctx, app); err != nil {
		return nil, err
	}
	s.metrics.ApplicationSubmitted()
	s.logger.Info(ctx, "application submitted",
		zap.Uint64("application_id", app.ID),
		zap.String("ref_number", app.RefNumber),
	)

	s.notifier.ApplicationReceived(ctx, app)

	return &SubmitResult{RefNumber: app.RefNumber, Message: SubmittedMessage}, nil
}

func duplicateError(emailTaken, phoneTaken bool) error {
	e := apperr.Conflict("An application with this email or phone number already exists")
	if emailTaken {
		e.Fields = append(e.Fields, apperr.FieldError{Field: "email", Message: "Email is already registered"})
	}
	if phoneTaken {
		e.Fields = append(e.Fields, apperr.FieldError{Field: "phone", Message: "Phone number is already registered"})
	}
	return e
}

// Lookup finds an application by reference number, then by phone number,
// and returns its public projection.
func (s *Service) Lookup(ctx context.Context, identifier string) (*PublicStatus, error) {
	identifier = sanitize.Text(identifier)
	if identifier == "" {
		return nil, apperr.Invalid("identifier", "Reference number or phone number is required")
	}

	app, err := s.repo.FindByRef(ctx, strings.ToUpper(identifier))
	if err != nil && !apperr.Is(err, apperr.CodeNotFound) {
		return nil, err
	}
	if app == nil {
		if phone := sanitize.Phone(identifier); sanitize.IsPhone(phone) {
			app, err = s.repo.FindByPhone(ctx, phone)
			if err != nil && !apperr.Is(err, apperr.CodeNotFound) {
				return nil, err
			}
		}
	}
	if app == nil {
		return nil, apperr.NotFound("No application found for that reference number or phone number")
	}

	status := app.Public()
	return &status, nil
}
