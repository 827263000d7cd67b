package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/application"
)

type captureMailer struct {
	mu      sync.Mutex
	msgs    []Message
	err     error
	outcome Outcome
	got     chan Message
}

func newCaptureMailer() *captureMailer {
	return &captureMailer{outcome: OutcomeSent, got: make(chan Message, 16)}
}

func (m *captureMailer) Deliver(_ context.Context, msg Message) (Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return OutcomeFailed, m.err
	}
	m.msgs = append(m.msgs, msg)
	select {
	case m.got <- msg:
	default:
	}
	return m.outcome, nil
}

func (m *captureMailer) sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.msgs...)
}

type memStore struct {
	mu      sync.Mutex
	entries []EmailLog
}

func (s *memStore) RecordEmail(_ context.Context, e *EmailLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *e)
	return nil
}

func (s *memStore) CompleteEmail(_ context.Context, e *EmailLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].MessageID == e.MessageID && s.entries[i].Outcome == OutcomeQueued {
			s.entries[i].Outcome = e.Outcome
			s.entries[i].Error = e.Error
			return nil
		}
	}
	s.entries = append(s.entries, *e)
	return nil
}

func (s *memStore) all() []EmailLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]EmailLog(nil), s.entries...)
}

func testApplication() *application.Application {
	slot := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	return &application.Application{
		ID:            7,
		RefNumber:     "HUDT-2026-007",
		FullName:      "Ada Okafor",
		Email:         "ada@example.com",
		Phone:         "+2348012345678",
		Department:    "Theatre Arts",
		Level:         "300",
		Talents:       []string{"Acting", "Singing"},
		Motivation:    "I love the stage.\nI want to grow.",
		Status:        application.StatusAuditionScheduled,
		AuditionDate:  &slot,
		AuditionVenue: "Main Hall",
		SubmittedAt:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func testTemplates(t *testing.T) *Templates {
	t.Helper()
	tpl, err := NewTemplates(Branding{Program: "HUDT Auditions", PortalURL: "https://auditions.example.com"})
	require.NoError(t, err)
	return tpl
}
