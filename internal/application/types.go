// Package application implements audition intake, public status lookup and
// the admin review workflow over stored applications.
package application

import (
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Status is an application's position in the review workflow.
type Status string

const (
	StatusSubmitted         Status = "Submitted"
	StatusUnderReview       Status = "Under Review"
	StatusAuditionScheduled Status = "Audition Scheduled"
	StatusAccepted          Status = "Accepted"
	StatusWaitlisted        Status = "Waitlisted"
	StatusNotSelected       Status = "Not Selected"
)

var statuses = []Status{
	StatusSubmitted,
	StatusUnderReview,
	StatusAuditionScheduled,
	StatusAccepted,
	StatusWaitlisted,
	StatusNotSelected,
}

// Statuses returns every status in workflow order.
func Statuses() []Status {
	return append([]Status(nil), statuses...)
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, v := range statuses {
		if s == v {
			return true
		}
	}
	return false
}

// NotifiesApplicant reports whether moving into s emails the applicant.
func (s Status) NotifiesApplicant() bool {
	switch s {
	case StatusAuditionScheduled, StatusAccepted, StatusWaitlisted, StatusNotSelected:
		return true
	}
	return false
}

// Level is the applicant's academic level.
type Level string

var levels = []Level{"100", "200", "300", "400", "500", "Postgraduate"}

// Levels returns every accepted level.
func Levels() []Level {
	return append([]Level(nil), levels...)
}

func (l Level) Valid() bool {
	for _, v := range levels {
		if l == v {
			return true
		}
	}
	return false
}

// TalentInstrumentalist requires the instruments field.
const TalentInstrumentalist = "Instrumentalist"

var talents = []string{
	"Acting",
	"Singing",
	"Dancing",
	TalentInstrumentalist,
	"Spoken Word",
	"Comedy",
	"Directing",
	"Scriptwriting",
	"Costume & Makeup",
	"Stage Management",
	"Other",
}

// Talents returns every accepted talent category.
func Talents() []string {
	return append([]string(nil), talents...)
}

// canonicalTalent returns the canonical spelling of t, matched case-insensitively.
func canonicalTalent(t string) (string, bool) {
	for _, v := range talents {
		if strings.EqualFold(v, t) {
			return v, true
		}
	}
	return "", false
}

// StatusChange is one entry of an application's append-only status history.
type StatusChange struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	ChangedBy string    `json:"changedBy"`
}

// ChangedByApplicant marks the history entry written at intake.
const ChangedByApplicant = "applicant"

// Application is a stored audition application.
type Application struct {
	ID            uint64                            `gorm:"primaryKey" json:"id"`
	RefNumber     string                            `gorm:"size:32;not null;uniqueIndex" json:"refNumber"`
	FullName      string                            `gorm:"size:100;not null" json:"fullName"`
	Email         string                            `gorm:"size:254;not null;uniqueIndex" json:"email"`
	Phone         string                            `gorm:"size:20;not null;uniqueIndex" json:"phone"`
	Department    string                            `gorm:"size:100;not null;index" json:"department"`
	Level         Level                             `gorm:"size:20;not null;index" json:"level"`
	Talents       pq.StringArray                    `gorm:"type:text[];not null" json:"talents"`
	Instruments   string                            `gorm:"size:200" json:"instruments"`
	Experience    string                            `gorm:"type:text" json:"experience"`
	Motivation    string                            `gorm:"type:text;not null" json:"motivation"`
	Availability  string                            `gorm:"size:500" json:"availability"`
	Status        Status                            `gorm:"size:32;not null;index" json:"status"`
	StatusHistory datatypes.JSONSlice[StatusChange] `gorm:"type:jsonb;not null" json:"statusHistory"`
	AdminNotes    string                            `gorm:"type:text" json:"adminNotes"`
	Rating        *int                              `json:"rating"`
	Tags          pq.StringArray                    `gorm:"type:text[]" json:"tags"`
	AuditionDate  *time.Time                        `json:"auditionDate"`
	AuditionVenue string                            `gorm:"size:200" json:"auditionVenue"`
	SubmittedAt   time.Time                         `gorm:"not null;index" json:"submittedAt"`
	UpdatedAt     time.Time                         `gorm:"autoUpdateTime:false" json:"updatedAt"`
}

// TableName pins the table name.
func (Application) TableName() string {
	return "applications"
}

// recordStatus sets the status and appends the matching history entry.
func (a *Application) recordStatus(s Status, by string, at time.Time) {
	a.Status = s
	a.StatusHistory = append(a.StatusHistory, StatusChange{Status: s, Timestamp: at, ChangedBy: by})
	a.UpdatedAt = at
}

// PublicStatus is the projection returned by the public status lookup.
// It omits contact details and admin annotations.
type PublicStatus struct {
	RefNumber     string     `json:"refNumber"`
	FullName      string     `json:"fullName"`
	Department    string     `json:"department"`
	Level         Level      `json:"level"`
	Talents       []string   `json:"talents"`
	Status        Status     `json:"status"`
	AuditionDate  *time.Time `json:"auditionDate,omitempty"`
	AuditionVenue string     `json:"auditionVenue,omitempty"`
	SubmittedAt   time.Time  `json:"submittedAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Public returns the public projection of a.
func (a *Application) Public() PublicStatus {
	return PublicStatus{
		RefNumber:     a.RefNumber,
		FullName:      a.FullName,
		Department:    a.Department,
		Level:         a.Level,
		Talents:       nonNil(a.Talents),
		Status:        a.Status,
		AuditionDate:  a.AuditionDate,
		AuditionVenue: a.AuditionVenue,
		SubmittedAt:   a.SubmittedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// ReviewState is the subset returned after an admin update.
type ReviewState struct {
	ID            uint64         `json:"id"`
	RefNumber     string         `json:"refNumber"`
	Status        Status         `json:"status"`
	AdminNotes    string         `json:"adminNotes"`
	Rating        *int           `json:"rating"`
	Tags          []string       `json:"tags"`
	AuditionDate  *time.Time     `json:"auditionDate"`
	AuditionVenue string         `json:"auditionVenue"`
	StatusHistory []StatusChange `json:"statusHistory"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// Review returns the review projection of a.
func (a *Application) Review() ReviewState {
	history := append([]StatusChange(nil), a.StatusHistory...)
	if history == nil {
		history = []StatusChange{}
	}
	return ReviewState{
		ID:            a.ID,
		RefNumber:     a.RefNumber,
		Status:        a.Status,
		AdminNotes:    a.AdminNotes,
		Rating:        a.Rating,
		Tags:          nonNil(a.Tags),
		AuditionDate:  a.AuditionDate,
		AuditionVenue: a.AuditionVenue,
		StatusHistory: history,
		UpdatedAt:     a.UpdatedAt,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return append([]string(nil), s...)
}
