package application

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/apperr"
)

func ptr[T any](v T) *T { return &v }

// submitN stores n valid applicants with distinct contacts.
func (h *harness) submitN(t *testing.T, n int, edit func(i int, r *SubmitRequest)) {
	t.Helper()
	for i := 1; i <= n; i++ {
		h.submit(t, func(r *SubmitRequest) {
			r.Email = fmt.Sprintf("applicant%d@example.com", i)
			r.Phone = fmt.Sprintf("+23480100000%02d", i)
			if edit != nil {
				edit(i, r)
			}
		})
	}
}

func TestList_PagingAndFilters(t *testing.T) {
	h := newHarness(t, WithClock(tickingClock()))
	h.submitN(t, 25, func(i int, r *SubmitRequest) {
		if i%5 == 0 {
			r.Department = "Music"
		}
	})

	page, err := h.svc.List(context.Background(), ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(25), page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPageSize, page.Limit)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Applications, 20)
	assert.Equal(t, "HUDT-2026-025", page.Applications[0].RefNumber, "newest first")

	page, err = h.svc.List(context.Background(), ListQuery{Page: 2, Limit: 20})
	require.NoError(t, err)
	assert.Len(t, page.Applications, 5)

	page, err = h.svc.List(context.Background(), ListQuery{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, page.Limit)

	page, err = h.svc.List(context.Background(), ListQuery{Department: "Music"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)

	page, err = h.svc.List(context.Background(), ListQuery{Search: "APPLICANT7@"})
	require.NoError(t, err)
	require.Len(t, page.Applications, 1)
	assert.Equal(t, "applicant7@example.com", page.Applications[0].Email)

	page, err = h.svc.List(context.Background(), ListQuery{Page: 9})
	require.NoError(t, err)
	assert.NotNil(t, page.Applications)
	assert.Empty(t, page.Applications)

	_, err = h.svc.List(context.Background(), ListQuery{Status: "Pending"})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestUpdate_StatusHistoryAndEmail(t *testing.T) {
	h := newHarness(t)
	app := h.submit(t, nil)
	ctx := context.Background()

	state, err := h.svc.Update(ctx, app.ID, UpdateRequest{Status: ptr("Under Review")}, "admin")
	require.NoError(t, err)
	assert.Equal(t, StatusUnderReview, state.Status)
	assert.Empty(t, h.notifier.changed, "under review does not email")

	// Same status again: no history entry.
	_, err = h.svc.Update(ctx, app.ID, UpdateRequest{Status: ptr("Under Review"), AdminNotes: ptr("  good  ")}, "admin")
	require.NoError(t, err)

	slot := time.Date(2026, 3, 14, 10, 0, 0, 0, time.FixedZone("WAT", 3600))
	state, err = h.svc.Update(ctx, app.ID, UpdateRequest{
		Status:        ptr("Audition Scheduled"),
		Rating:        ptr(4),
		Tags:          &[]string{"lead", " Lead ", "chorus"},
		AuditionDate:  &slot,
		AuditionVenue: ptr("Main Hall"),
	}, "director")
	require.NoError(t, err)

	assert.Equal(t, []Status{StatusAuditionScheduled}, h.notifier.changed)
	assert.Equal(t, "good", state.AdminNotes)
	assert.Equal(t, 4, *state.Rating)
	assert.Equal(t, []string{"lead", "chorus"}, state.Tags)
	assert.Equal(t, slot.UTC(), *state.AuditionDate)
	assert.Equal(t, "Main Hall", state.AuditionVenue)

	stored := h.repo.get(app.ID)
	require.Len(t, stored.StatusHistory, 3)
	assert.Equal(t, stored.Status, stored.StatusHistory[len(stored.StatusHistory)-1].Status)
	assert.Equal(t, "director", stored.StatusHistory[2].ChangedBy)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.StatusChanges.WithLabelValues("Audition Scheduled", "single")))

	state, err = h.svc.Update(ctx, app.ID, UpdateRequest{Rating: ptr(0)}, "admin")
	require.NoError(t, err)
	assert.Nil(t, state.Rating)
}

func TestUpdate_Errors(t *testing.T) {
	h := newHarness(t)
	app := h.submit(t, nil)

	_, err := h.svc.Update(context.Background(), 99, UpdateRequest{Status: ptr("Accepted")}, "admin")
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	_, err = h.svc.Update(context.Background(), app.ID, UpdateRequest{Status: ptr("Hired")}, "admin")
	assert.True(t, apperr.Is(err, apperr.CodeValidation))

	h.repo.saveErr = errStorage
	_, err = h.svc.Update(context.Background(), app.ID, UpdateRequest{Status: ptr("Accepted")}, "admin")
	assert.ErrorIs(t, err, errStorage)
	assert.Empty(t, h.notifier.changed)
}

func TestBulkUpdate_AppendsOnePerRecord(t *testing.T) {
	h := newHarness(t)
	h.submitN(t, 4, nil)
	ctx := context.Background()

	res, err := h.svc.BulkUpdate(ctx, BulkUpdateRequest{IDs: []uint64{1, 2, 3, 3, 42}, Status: "Accepted"}, "admin")
	require.NoError(t, err)
	assert.Equal(t, 5, res.Requested)
	assert.Equal(t, int64(3), res.Updated)

	for id := uint64(1); id <= 3; id++ {
		app := h.repo.get(id)
		require.Len(t, app.StatusHistory, 2)
		assert.Equal(t, StatusAccepted, app.Status)
		assert.Equal(t, StatusAccepted, app.StatusHistory[1].Status)
	}
	untouched := h.repo.get(4)
	assert.Len(t, untouched.StatusHistory, 1)
	assert.Equal(t, StatusSubmitted, untouched.Status)
	assert.Empty(t, h.notifier.changed, "bulk path sends no email")

	res, err = h.svc.BulkUpdate(ctx, BulkUpdateRequest{IDs: []uint64{1, 4}, Status: "Accepted"}, "admin")
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Updated, "already accepted is skipped")
	assert.Len(t, h.repo.get(1).StatusHistory, 2)
}

func TestDelete(t *testing.T) {
	h := newHarness(t)
	h.submitN(t, 3, nil)
	ctx := context.Background()

	require.NoError(t, h.svc.Delete(ctx, 2))
	assert.True(t, apperr.Is(h.svc.Delete(ctx, 2), apperr.CodeNotFound))

	res, err := h.svc.BulkDelete(ctx, BulkDeleteRequest{IDs: []uint64{1, 2, 3, 7}})
	require.NoError(t, err)
	assert.Equal(t, &BulkDeleteResult{Requested: 4, Deleted: 2}, res)
	assert.Zero(t, h.repo.count())
}

func TestSendEmail(t *testing.T) {
	h := newHarness(t)
	app := h.submit(t, nil)
	ctx := context.Background()

	require.NoError(t, h.svc.SendEmail(ctx, app.ID, EmailRequest{Subject: " Callback ", Message: "See you Friday."}))
	assert.Equal(t, []string{"ada.okafor@example.com|Callback"}, h.notifier.custom)

	err := h.svc.SendEmail(ctx, app.ID, EmailRequest{Subject: "", Message: "x"})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))

	err = h.svc.SendEmail(ctx, 404, EmailRequest{Subject: "Hi", Message: "x"})
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	h.notifier.customErr = errStorage
	err = h.svc.SendEmail(ctx, app.ID, EmailRequest{Subject: "Hi", Message: "x"})
	assert.True(t, apperr.Is(err, apperr.CodeUpstream))
	assert.ErrorIs(t, err, errStorage)
}

func TestStats(t *testing.T) {
	h := newHarness(t, WithClock(tickingClock()))
	h.submitN(t, 12, func(i int, r *SubmitRequest) {
		if i%2 == 0 {
			r.Level = "Postgraduate"
			r.Talents = []string{"Dancing", "Acting"}
		}
	})
	_, err := h.svc.BulkUpdate(context.Background(), BulkUpdateRequest{IDs: []uint64{1, 2}, Status: "Waitlisted"}, "admin")
	require.NoError(t, err)

	st, err := h.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), st.Total)
	assert.Equal(t, int64(10), st.ByStatus["Submitted"])
	assert.Equal(t, int64(2), st.ByStatus["Waitlisted"])
	assert.Contains(t, st.ByStatus, "Not Selected")
	assert.Zero(t, st.ByStatus["Not Selected"])
	assert.Equal(t, int64(6), st.ByLevel["Postgraduate"])
	assert.Equal(t, int64(12), st.ByTalent["Acting"])
	assert.Equal(t, int64(6), st.ByTalent["Dancing"])
	assert.Equal(t, int64(12), st.ByDepartment["Theatre Arts"])
	require.Len(t, st.Recent, RecentCount)
	assert.Equal(t, "HUDT-2026-012", st.Recent[0].RefNumber)
}

func TestExport(t *testing.T) {
	h := newHarness(t, WithClock(tickingClock()))
	h.submitN(t, 3, func(i int, r *SubmitRequest) {
		if i == 2 {
			r.Motivation = `I was told "you belong on stage", and I believed it.`
			r.Department = "Music"
		}
	})

	var buf bytes.Buffer
	n, err := h.svc.Export(context.Background(), ExportQuery{}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Contains(t, buf.String(), `"I was told ""you belong on stage"", and I believed it."`)

	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "HUDT-2026-003", rows[1][0])

	buf.Reset()
	n, err = h.svc.Export(context.Background(), ExportQuery{Department: "Music"}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = h.svc.Export(context.Background(), ExportQuery{Level: "900"}, &buf)
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "applications-2026-03-01.csv", ExportFilename(testNow))
}
