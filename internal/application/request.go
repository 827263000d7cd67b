package application

import (
	"fmt"
	"strings"
	"time"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/apperr"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/sanitize"
)

// Field limits enforced at intake and review.
const (
	MaxNameLength         = 100
	MaxDepartmentLength   = 100
	MaxInstrumentsLength  = 200
	MaxExperienceLength   = 2000
	MaxMotivationLength   = 2000
	MinMotivationLength   = 10
	MaxAvailabilityLength = 500
	MaxNotesLength        = 5000
	MaxTags               = 20
	MaxTagLength          = 50
	MaxVenueLength        = 200
	MaxSubjectLength      = 200
	MaxMessageLength      = 10000
	MaxBulkIDs            = 500
)

// SubmitRequest is the applicant form posted to intake.
type SubmitRequest struct {
	FullName     string   `json:"fullName"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	Department   string   `json:"department"`
	Level        string   `json:"level"`
	Talents      []string `json:"talents"`
	Instruments  string   `json:"instruments"`
	Experience   string   `json:"experience"`
	Motivation   string   `json:"motivation"`
	Availability string   `json:"availability"`
}

// Normalize sanitizes every field in place.
func (r *SubmitRequest) Normalize() {
	r.FullName = sanitize.Text(r.FullName)
	r.Email = sanitize.Email(r.Email)
	r.Phone = sanitize.Phone(r.Phone)
	r.Department = sanitize.Text(r.Department)
	r.Level = sanitize.Text(r.Level)
	r.Talents = sanitize.List(r.Talents)
	for i, t := range r.Talents {
		if c, ok := canonicalTalent(t); ok {
			r.Talents[i] = c
		}
	}
	r.Instruments = sanitize.Text(r.Instruments)
	r.Experience = sanitize.MultiLine(r.Experience)
	r.Motivation = sanitize.MultiLine(r.Motivation)
	r.Availability = sanitize.Text(r.Availability)
}

// Validate checks a normalized request and returns a validation error listing
// every rejected field, or nil.
func (r *SubmitRequest) Validate() error {
	var v validator

	switch {
	case r.FullName == "":
		v.add("fullName", "Full name is required")
	case !sanitize.Within(r.FullName, 2, MaxNameLength):
		v.add("fullName", fmt.Sprintf("Full name must be 2-%d characters", MaxNameLength))
	case !sanitize.IsPersonName(r.FullName):
		v.add("fullName", "Full name may only contain letters, spaces, apostrophes, periods and hyphens")
	}

	switch {
	case r.Email == "":
		v.add("email", "Email is required")
	case !sanitize.IsEmail(r.Email):
		v.add("email", "Email address is invalid")
	}

	switch {
	case r.Phone == "":
		v.add("phone", "Phone number is required")
	case !sanitize.IsPhone(r.Phone):
		v.add("phone", "Phone number must be 10-15 digits with an optional leading +")
	}

	switch {
	case r.Department == "":
		v.add("department", "Department is required")
	case !sanitize.Within(r.Department, 2, MaxDepartmentLength):
		v.add("department", fmt.Sprintf("Department must be 2-%d characters", MaxDepartmentLength))
	}

	switch {
	case r.Level == "":
		v.add("level", "Level is required")
	case !Level(r.Level).Valid():
		v.add("level", "Level must be one of "+joinLevels())
	}

	if len(r.Talents) == 0 {
		v.add("talents", "Select at least one talent")
	}
	instrumentalist := false
	for _, t := range r.Talents {
		c, ok := canonicalTalent(t)
		if !ok {
			v.add("talents", fmt.Sprintf("Unknown talent %q", t))
			continue
		}
		if c == TalentInstrumentalist {
			instrumentalist = true
		}
	}

	switch {
	case instrumentalist && r.Instruments == "":
		v.add("instruments", "Instruments are required for instrumentalists")
	case sanitize.Length(r.Instruments) > MaxInstrumentsLength:
		v.add("instruments", fmt.Sprintf("Instruments must be at most %d characters", MaxInstrumentsLength))
	}

	if sanitize.Length(r.Experience) > MaxExperienceLength {
		v.add("experience", fmt.Sprintf("Experience must be at most %d characters", MaxExperienceLength))
	}

	switch {
	case r.Motivation == "":
		v.add("motivation", "Motivation is required")
	case !sanitize.Within(r.Motivation, MinMotivationLength, MaxMotivationLength):
		v.add("motivation", fmt.Sprintf("Motivation must be %d-%d characters", MinMotivationLength, MaxMotivationLength))
	}

	if sanitize.Length(r.Availability) > MaxAvailabilityLength {
		v.add("availability", fmt.Sprintf("Availability must be at most %d characters", MaxAvailabilityLength))
	}

	return v.err()
}

// UpdateRequest is a partial admin update. Nil fields are left unchanged.
type UpdateRequest struct {
	Status        *string    `json:"status"`
	AdminNotes    *string    `json:"adminNotes"`
	Rating        *int       `json:"rating"`
	Tags          *[]string  `json:"tags"`
	AuditionDate  *time.Time `json:"auditionDate"`
	AuditionVenue *string    `json:"auditionVenue"`
}

// Normalize sanitizes the set fields in place.
func (r *UpdateRequest) Normalize() {
	if r.Status != nil {
		s := sanitize.Text(*r.Status)
		r.Status = &s
	}
	if r.AdminNotes != nil {
		n := sanitize.MultiLine(*r.AdminNotes)
		r.AdminNotes = &n
	}
	if r.Tags != nil {
		tags := sanitize.List(*r.Tags)
		r.Tags = &tags
	}
	if r.AuditionVenue != nil {
		venue := sanitize.Text(*r.AuditionVenue)
		r.AuditionVenue = &venue
	}
}

// Validate checks a normalized update. A rating of zero clears it.
func (r *UpdateRequest) Validate() error {
	var v validator
	if r.Status == nil && r.AdminNotes == nil && r.Rating == nil && r.Tags == nil &&
		r.AuditionDate == nil && r.AuditionVenue == nil {
		v.add("body", "No fields to update")
		return v.err()
	}
	if r.Status != nil && !Status(*r.Status).Valid() {
		v.add("status", "Status must be one of "+joinStatuses())
	}
	if r.AdminNotes != nil && sanitize.Length(*r.AdminNotes) > MaxNotesLength {
		v.add("adminNotes", fmt.Sprintf("Notes must be at most %d characters", MaxNotesLength))
	}
	if r.Rating != nil && (*r.Rating < 0 || *r.Rating > 5) {
		v.add("rating", "Rating must be between 1 and 5, or 0 to clear")
	}
	if r.Tags != nil {
		if len(*r.Tags) > MaxTags {
			v.add("tags", fmt.Sprintf("At most %d tags are allowed", MaxTags))
		}
		for _, tag := range *r.Tags {
			if sanitize.Length(tag) > MaxTagLength {
				v.add("tags", fmt.Sprintf("Tag %q exceeds %d characters", tag, MaxTagLength))
			}
		}
	}
	if r.AuditionVenue != nil && sanitize.Length(*r.AuditionVenue) > MaxVenueLength {
		v.add("auditionVenue", fmt.Sprintf("Venue must be at most %d characters", MaxVenueLength))
	}
	return v.err()
}

// BulkUpdateRequest sets one status on many applications.
type BulkUpdateRequest struct {
	IDs    []uint64 `json:"ids"`
	Status string   `json:"status"`
}

func (r *BulkUpdateRequest) Validate() error {
	var v validator
	v.ids(r.IDs)
	if !Status(sanitize.Text(r.Status)).Valid() {
		v.add("status", "Status must be one of "+joinStatuses())
	}
	return v.err()
}

// BulkDeleteRequest removes many applications.
type BulkDeleteRequest struct {
	IDs []uint64 `json:"ids"`
}

func (r *BulkDeleteRequest) Validate() error {
	var v validator
	v.ids(r.IDs)
	return v.err()
}

// EmailRequest is an ad-hoc message to one applicant.
type EmailRequest struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (r *EmailRequest) Normalize() {
	r.Subject = sanitize.Text(r.Subject)
	r.Message = sanitize.MultiLine(r.Message)
}

func (r *EmailRequest) Validate() error {
	var v validator
	switch {
	case r.Subject == "":
		v.add("subject", "Subject is required")
	case sanitize.Length(r.Subject) > MaxSubjectLength:
		v.add("subject", fmt.Sprintf("Subject must be at most %d characters", MaxSubjectLength))
	}
	switch {
	case r.Message == "":
		v.add("message", "Message is required")
	case sanitize.Length(r.Message) > MaxMessageLength:
		v.add("message", fmt.Sprintf("Message must be at most %d characters", MaxMessageLength))
	}
	return v.err()
}

type validator struct {
	fields []apperr.FieldError
}

func (v *validator) add(field, msg string) {
	v.fields = append(v.fields, apperr.FieldError{Field: field, Message: msg})
}

func (v *validator) ids(ids []uint64) {
	switch {
	case len(ids) == 0:
		v.add("ids", "At least one id is required")
	case len(ids) > MaxBulkIDs:
		v.add("ids", fmt.Sprintf("At most %d ids per request", MaxBulkIDs))
	}
	for _, id := range ids {
		if id == 0 {
			v.add("ids", "Ids must be positive")
			break
		}
	}
}

func (v *validator) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return apperr.Validation(v.fields)
}

func joinLevels() string {
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = string(l)
	}
	return strings.Join(parts, ", ")
}

func joinStatuses() string {
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// uniqueIDs drops duplicate ids, preserving order.
func uniqueIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
