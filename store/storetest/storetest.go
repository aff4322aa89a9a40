// Package storetest holds the behavior every rma.Store implementation must
// share. Implementations call Run from their own tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innopark/rma-engine/generic"
	"github.com/innopark/rma-engine/rma"
)

// Run executes the shared suite. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) rma.Store) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("SubmissionUniquePerMonth", func(t *testing.T) { testSubmissionUnique(t, newStore(t)) })
	t.Run("SubmissionRoundTrip", func(t *testing.T) { testSubmissionRoundTrip(t, newStore(t)) })
	t.Run("SubmissionStatus", func(t *testing.T) { testSubmissionStatus(t, newStore(t)) })
	t.Run("SubmissionDeleteCascades", func(t *testing.T) { testSubmissionDelete(t, newStore(t)) })
	t.Run("SubmissionReplaceEntries", func(t *testing.T) { testSubmissionUpdate(t, newStore(t)) })
	t.Run("AttendanceUpsert", func(t *testing.T) { testAttendanceUpsert(t, newStore(t)) })
	t.Run("AttendanceGetDelete", func(t *testing.T) { testAttendanceDelete(t, newStore(t)) })
	t.Run("AttendancePeriod", func(t *testing.T) { testAttendancePeriod(t, newStore(t)) })
	t.Run("HolidayUpsertKeepsID", func(t *testing.T) { testHolidayUpsert(t, newStore(t)) })
	t.Run("HolidayUpdateDelete", func(t *testing.T) { testHolidayUpdateDelete(t, newStore(t)) })
}

func d(y int, m time.Month, day int) generic.TimePoint { return generic.NewTimePoint(y, m, day) }

func testUsers(t *testing.T, s rma.Store) {
	ctx := context.Background()
	require.NoError(t, s.SaveUser(ctx, rma.User{ID: "u2", Name: "Zoé", Email: "z@x.ch", Role: rma.RoleParticipant, PrimaryCenter: rma.CenterGeneva, Active: true}))
	require.NoError(t, s.SaveUser(ctx, rma.User{ID: "u1", Name: "Anna", Email: "a@x.ch", Role: rma.RoleParticipant, PrimaryCenter: rma.CenterGeneva, Active: true}))
	require.NoError(t, s.SaveUser(ctx, rma.User{ID: "u3", Name: "Bob", Email: "b@x.ch", Role: rma.RoleParticipant, PrimaryCenter: rma.CenterGeneva, Active: false}))
	require.NoError(t, s.SaveUser(ctx, rma.User{ID: "s1", Name: "Staff", Email: "s@x.ch", Role: rma.RoleStaff, PrimaryCenter: rma.CenterLausanne, Active: true}))

	err := s.SaveUser(ctx, rma.User{ID: "u4", Name: "Dup", Email: "a@x.ch", Role: rma.RoleParticipant, PrimaryCenter: rma.CenterGeneva})
	assert.ErrorIs(t, err, generic.ErrDuplicate)

	u, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Anna", u.Name)

	_, err = s.GetUser(ctx, "nope")
	assert.ErrorIs(t, err, generic.ErrNotFound)

	users, err := s.ListUsers(ctx, rma.UserFilter{Role: rma.RoleParticipant, Center: rma.CenterGeneva, ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Anna", users[0].Name)
	assert.Equal(t, "Zoé", users[1].Name)

	// Saving an existing ID updates it in place.
	u.Active = false
	u.Name = "Anna B."
	require.NoError(t, s.SaveUser(ctx, u))
	users, err = s.ListUsers(ctx, rma.UserFilter{Center: rma.CenterGeneva, ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "u2", users[0].ID)

	u, err = s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Anna B.", u.Name)
	assert.False(t, u.Active)
}

func testSubmissionUnique(t *testing.T, s rma.Store) {
	ctx := context.Background()
	sub := rma.Submission{UserID: "u1", Year: 2026, Month: time.March, Center: rma.CenterFribourg}

	_, err := s.CreateSubmission(ctx, sub)
	require.NoError(t, err)

	_, err = s.CreateSubmission(ctx, sub)
	assert.ErrorIs(t, err, generic.ErrDuplicate)

	sub.Month = time.April
	_, err = s.CreateSubmission(ctx, sub)
	assert.NoError(t, err)
}

func testSubmissionRoundTrip(t *testing.T, s rma.Store) {
	ctx := context.Background()
	require.NoError(t, s.SaveUser(ctx, rma.User{ID: "u1", Name: "Anna", Email: "a@x.ch", Role: rma.RoleParticipant, PrimaryCenter: rma.CenterFribourg, Active: true}))

	created, err := s.CreateSubmission(ctx, rma.Submission{
		UserID: "u1", Year: 2026, Month: time.March, Center: rma.CenterFribourg,
		Entries: []rma.PlannedEntry{
			{Day: 4, HalfDay: rma.PM, Code: rma.CodeIllness},
			{Day: 4, HalfDay: rma.AM, Code: rma.CodePresent},
			{Day: 2, HalfDay: rma.AM, Code: rma.CodeMandate},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, rma.StatusDraft, created.Status)

	got, err := s.GetSubmission(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Anna", got.UserName)
	assert.Equal(t, time.March, got.Month)
	assert.Equal(t, []rma.PlannedEntry{
		{Day: 2, HalfDay: rma.AM, Code: rma.CodeMandate},
		{Day: 4, HalfDay: rma.AM, Code: rma.CodePresent},
		{Day: 4, HalfDay: rma.PM, Code: rma.CodeIllness},
	}, got.Entries)

	list, err := s.ListSubmissions(ctx, rma.SubmissionFilter{Year: 2026, Month: time.March, Center: rma.CenterFribourg})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	list, err = s.ListSubmissions(ctx, rma.SubmissionFilter{Center: rma.CenterGeneva})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testSubmissionStatus(t *testing.T, s rma.Store) {
	ctx := context.Background()
	created, err := s.CreateSubmission(ctx, rma.Submission{
		UserID: "u1", Year: 2026, Month: time.June, Center: rma.CenterLausanne,
		Entries: []rma.PlannedEntry{{Day: 1, HalfDay: rma.AM, Code: rma.CodePresent}},
	})
	require.NoError(t, err)
	at := time.Date(2026, time.July, 1, 9, 0, 0, 0, time.UTC)

	sub, err := s.UpdateSubmissionStatus(ctx, rma.StatusUpdate{ID: created.ID, Status: rma.StatusSubmitted, At: at})
	require.NoError(t, err)
	assert.Equal(t, rma.StatusSubmitted, sub.Status)
	require.NotNil(t, sub.SubmittedAt)
	assert.True(t, at.Equal(*sub.SubmittedAt))
	assert.Nil(t, sub.ReviewedAt)
	assert.Len(t, sub.Entries, 1)

	sub, err = s.UpdateSubmissionStatus(ctx, rma.StatusUpdate{
		ID: created.ID, Status: rma.StatusRevisionRequested, ReviewedBy: "s1", AdminNotes: "day 1 missing PM", At: at.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, rma.StatusRevisionRequested, sub.Status)
	assert.Equal(t, "s1", sub.ReviewedBy)
	assert.Equal(t, "day 1 missing PM", sub.AdminNotes)
	require.NotNil(t, sub.ReviewedAt)

	_, err = s.UpdateSubmissionStatus(ctx, rma.StatusUpdate{ID: "nope", Status: rma.StatusSubmitted, At: at})
	assert.ErrorIs(t, err, generic.ErrNotFound)
}

func testSubmissionDelete(t *testing.T, s rma.Store) {
	ctx := context.Background()
	created, err := s.CreateSubmission(ctx, rma.Submission{
		UserID: "u1", Year: 2026, Month: time.May, Center: rma.CenterGeneva,
		Entries: []rma.PlannedEntry{{Day: 1, HalfDay: rma.AM, Code: rma.CodePresent}},
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteSubmission(ctx, created.ID))

	entries, err := s.PlannedEntries(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = s.GetSubmission(ctx, created.ID)
	assert.ErrorIs(t, err, generic.ErrNotFound)
	assert.ErrorIs(t, s.DeleteSubmission(ctx, created.ID), generic.ErrNotFound)

	// The month is free again.
	_, err = s.CreateSubmission(ctx, rma.Submission{UserID: "u1", Year: 2026, Month: time.May, Center: rma.CenterGeneva})
	assert.NoError(t, err)
}

func testSubmissionUpdate(t *testing.T, s rma.Store) {
	ctx := context.Background()
	created, err := s.CreateSubmission(ctx, rma.Submission{
		UserID: "u1", Year: 2026, Month: time.March, Center: rma.CenterFribourg,
		Entries: []rma.PlannedEntry{
			{Day: 2, HalfDay: rma.AM, Code: rma.CodePresent},
			{Day: 2, HalfDay: rma.PM, Code: rma.CodePresent},
		},
	})
	require.NoError(t, err)
	at := time.Date(2026, time.April, 1, 9, 0, 0, 0, time.UTC)
	_, err = s.UpdateSubmissionStatus(ctx, rma.StatusUpdate{
		ID: created.ID, Status: rma.StatusRevisionRequested, ReviewedBy: "s1", AdminNotes: "fix day 3", At: at,
	})
	require.NoError(t, err)

	updated, err := s.UpdateSubmission(ctx, rma.Submission{
		ID: created.ID, Center: rma.CenterLausanne,
		Entries: []rma.PlannedEntry{
			{Day: 3, HalfDay: rma.PM, Code: rma.CodeIllness},
			{Day: 3, HalfDay: rma.AM, Code: rma.CodeMandate},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, rma.CenterLausanne, updated.Center)
	assert.Equal(t, rma.StatusRevisionRequested, updated.Status)
	assert.Equal(t, "fix day 3", updated.AdminNotes)
	assert.Equal(t, []rma.PlannedEntry{
		{Day: 3, HalfDay: rma.AM, Code: rma.CodeMandate},
		{Day: 3, HalfDay: rma.PM, Code: rma.CodeIllness},
	}, updated.Entries)

	// A duplicate slot fails the whole replacement.
	_, err = s.UpdateSubmission(ctx, rma.Submission{
		ID: created.ID, Center: rma.CenterFribourg,
		Entries: []rma.PlannedEntry{
			{Day: 5, HalfDay: rma.AM, Code: rma.CodePresent},
			{Day: 5, HalfDay: rma.AM, Code: rma.CodeOffSite},
		},
	})
	assert.ErrorIs(t, err, generic.ErrDuplicate)

	got, err := s.GetSubmission(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, rma.CenterLausanne, got.Center)
	assert.Len(t, got.Entries, 2)
	assert.Equal(t, 3, got.Entries[0].Day)

	_, err = s.UpdateSubmission(ctx, rma.Submission{ID: "nope", Center: rma.CenterFribourg})
	assert.ErrorIs(t, err, generic.ErrNotFound)
}

func testAttendanceDelete(t *testing.T, s rma.Store) {
	ctx := context.Background()
	saved, err := s.UpsertAttendance(ctx, []rma.AttendanceRecord{
		{UserID: "u1", Date: d(2026, time.March, 3), HalfDay: rma.AM, Center: rma.CenterGeneva, ActualCode: rma.CodePresent},
		{UserID: "u1", Date: d(2026, time.March, 3), HalfDay: rma.PM, Center: rma.CenterGeneva, ActualCode: rma.CodeOffSite},
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)

	got, err := s.GetAttendance(ctx, saved[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, rma.PM, got.HalfDay)
	assert.Equal(t, rma.CodeOffSite, got.ActualCode)

	require.NoError(t, s.DeleteAttendance(ctx, saved[1].ID))
	assert.ErrorIs(t, s.DeleteAttendance(ctx, saved[1].ID), generic.ErrNotFound)
	_, err = s.GetAttendance(ctx, saved[1].ID)
	assert.ErrorIs(t, err, generic.ErrNotFound)

	rest, err := s.Attendance(ctx, "u1", generic.MonthPeriod(2026, time.March))
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, rma.AM, rest[0].HalfDay)
}

func testAttendanceUpsert(t *testing.T, s rma.Store) {
	ctx := context.Background()
	rec := rma.AttendanceRecord{
		UserID: "u1", Date: d(2026, time.March, 3), HalfDay: rma.AM,
		Center: rma.CenterLausanne, ActualCode: rma.CodePresent,
	}

	first, err := s.UpsertAttendance(ctx, []rma.AttendanceRecord{rec})
	require.NoError(t, err)
	require.Len(t, first, 1)

	rec.ActualCode = rma.CodeIllness
	rec.Notes = "called in sick"
	second, err := s.UpsertAttendance(ctx, []rma.AttendanceRecord{rec})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)

	got, err := s.Attendance(ctx, "u1", generic.MonthPeriod(2026, time.March))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rma.CodeIllness, got[0].ActualCode)
	assert.Equal(t, "called in sick", got[0].Notes)
	assert.Equal(t, "2026-03-03", got[0].Date.String())
}

func testAttendancePeriod(t *testing.T, s rma.Store) {
	ctx := context.Background()
	_, err := s.UpsertAttendance(ctx, []rma.AttendanceRecord{
		{UserID: "u1", Date: d(2026, time.March, 31), HalfDay: rma.PM, Center: rma.CenterGeneva, ActualCode: rma.CodePresent},
		{UserID: "u1", Date: d(2026, time.March, 31), HalfDay: rma.AM, Center: rma.CenterGeneva, ActualCode: rma.CodePresent},
		{UserID: "u1", Date: d(2026, time.April, 1), HalfDay: rma.AM, Center: rma.CenterGeneva, ActualCode: rma.CodePresent},
		{UserID: "u1", Date: d(2026, time.March, 1), HalfDay: rma.AM, Center: rma.CenterGeneva, ActualCode: rma.CodeOffSite},
		{UserID: "u2", Date: d(2026, time.March, 2), HalfDay: rma.AM, Center: rma.CenterGeneva, ActualCode: rma.CodePresent},
	})
	require.NoError(t, err)

	got, err := s.Attendance(ctx, "u1", generic.MonthPeriod(2026, time.March))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "2026-03-01", got[0].Date.String())
	assert.Equal(t, rma.AM, got[1].HalfDay)
	assert.Equal(t, rma.PM, got[2].HalfDay)
}

func testHolidayUpsert(t *testing.T, s rma.Store) {
	ctx := context.Background()
	hs := []rma.Holiday{
		{Date: d(2026, time.December, 31), Name: "Restauration", Canton: rma.CantonGeneva},
		{Date: d(2026, time.January, 1), Name: "Nouvel An", Canton: rma.CantonGeneva},
		{Date: d(2026, time.January, 1), Name: "Nouvel An", Canton: rma.CantonVaud},
	}
	n, err := s.UpsertHolidays(ctx, hs)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	before, err := s.ListHolidays(ctx, rma.HolidayFilter{Canton: rma.CantonGeneva, Year: 2026})
	require.NoError(t, err)
	require.Len(t, before, 2)
	assert.Equal(t, "2026-01-01", before[0].Date.String())

	hs[0].Name = "Restauration de la République"
	_, err = s.UpsertHolidays(ctx, hs)
	require.NoError(t, err)

	after, err := s.ListHolidays(ctx, rma.HolidayFilter{Canton: rma.CantonGeneva, Year: 2026})
	require.NoError(t, err)
	require.Len(t, after, 2)
	assert.Equal(t, before[1].ID, after[1].ID)
	assert.Equal(t, "Restauration de la République", after[1].Name)

	jan, err := s.ListHolidays(ctx, rma.HolidayFilter{Year: 2026, Month: time.January})
	require.NoError(t, err)
	assert.Len(t, jan, 2)
}

func testHolidayUpdateDelete(t *testing.T, s rma.Store) {
	ctx := context.Background()
	_, err := s.UpsertHolidays(ctx, []rma.Holiday{
		{Date: d(2026, time.June, 5), Name: "Fête", Canton: rma.CantonGeneva},
		{Date: d(2026, time.June, 8), Name: "Other", Canton: rma.CantonGeneva},
	})
	require.NoError(t, err)
	list, err := s.ListHolidays(ctx, rma.HolidayFilter{Canton: rma.CantonGeneva})
	require.NoError(t, err)
	require.Len(t, list, 2)

	moved := list[0]
	moved.Date = d(2026, time.June, 6)
	moved.Name = "Fête de Genève"
	_, err = s.UpdateHoliday(ctx, moved)
	require.NoError(t, err)

	clash := list[0]
	clash.Date = d(2026, time.June, 8)
	_, err = s.UpdateHoliday(ctx, clash)
	assert.ErrorIs(t, err, generic.ErrDuplicate)

	_, err = s.UpdateHoliday(ctx, rma.Holiday{ID: "nope", Date: d(2026, time.June, 1), Canton: rma.CantonGeneva})
	assert.ErrorIs(t, err, generic.ErrNotFound)

	require.NoError(t, s.DeleteHoliday(ctx, list[1].ID))
	assert.ErrorIs(t, s.DeleteHoliday(ctx, list[1].ID), generic.ErrNotFound)

	rest, err := s.ListHolidays(ctx, rma.HolidayFilter{Canton: rma.CantonGeneva})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "2026-06-06", rest[0].Date.String())
	assert.Equal(t, "Fête de Genève", rest[0].Name)
}
