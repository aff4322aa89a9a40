package report_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innopark/rma-engine/generic"
	"github.com/innopark/rma-engine/holidays"
	"github.com/innopark/rma-engine/reconciliation"
	"github.com/innopark/rma-engine/report"
	"github.com/innopark/rma-engine/rma"
	"github.com/innopark/rma-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func d(day int) generic.TimePoint { return generic.NewTimePoint(2026, time.March, day) }

func seed(t *testing.T) *memory.Memory {
	t.Helper()
	ctx := context.Background()
	s := memory.New()

	for _, u := range []rma.User{
		{ID: "u-zoe", Name: "Zoé", Email: "zoe@x.ch", Role: rma.RoleParticipant, PrimaryCenter: rma.CenterGeneva, Active: true},
		{ID: "u-anna", Name: "Anna", Email: "anna@x.ch", Role: rma.RoleParticipant, PrimaryCenter: rma.CenterLausanne, Active: true},
		{ID: "u-marc", Name: "Marc", Email: "marc@x.ch", Role: rma.RoleParticipant, PrimaryCenter: rma.CenterGeneva, Active: true},
		{ID: "u-old", Name: "Old", Email: "old@x.ch", Role: rma.RoleParticipant, PrimaryCenter: rma.CenterFribourg, Active: false},
		{ID: "s-1", Name: "Staff", Email: "staff@x.ch", Role: rma.RoleStaff, PrimaryCenter: rma.CenterGeneva, Active: true},
	} {
		require.NoError(t, s.SaveUser(ctx, u))
	}

	_, err := s.CreateSubmission(ctx, rma.Submission{
		UserID: "u-zoe", Year: 2026, Month: time.March, Center: rma.CenterGeneva, Status: rma.StatusSubmitted,
		Entries: []rma.PlannedEntry{
			{Day: 2, HalfDay: rma.AM, Code: rma.CodePresent},
			{Day: 2, HalfDay: rma.PM, Code: rma.CodePresent},
		},
	})
	require.NoError(t, err)
	_, err = s.CreateSubmission(ctx, rma.Submission{
		UserID: "u-anna", Year: 2026, Month: time.March, Center: rma.CenterLausanne, Status: rma.StatusApproved,
		Entries: []rma.PlannedEntry{
			{Day: 3, HalfDay: rma.AM, Code: rma.CodeIllness},
		},
	})
	require.NoError(t, err)
	_, err = s.CreateSubmission(ctx, rma.Submission{
		UserID: "u-marc", Year: 2026, Month: time.April, Center: rma.CenterGeneva,
		Entries: []rma.PlannedEntry{
			{Day: 1, HalfDay: rma.AM, Code: rma.CodePresent},
		},
	})
	require.NoError(t, err)

	_, err = s.UpsertAttendance(ctx, []rma.AttendanceRecord{
		{UserID: "u-zoe", Date: d(2), HalfDay: rma.AM, Center: rma.CenterGeneva, ActualCode: rma.CodePresent},
		{UserID: "u-anna", Date: d(3), HalfDay: rma.AM, Center: rma.CenterLausanne, ActualCode: rma.CodePresent},
		{UserID: "u-anna", Date: d(4), HalfDay: rma.PM, Center: rma.CenterLausanne, ActualCode: rma.CodeOffSite},
	})
	require.NoError(t, err)
	return s
}

// =============================================================================
// RECONCILER
// =============================================================================

func TestReconciler_Month_SortedByUserName(t *testing.T) {
	// GIVEN: Zoé and Anna declared March
	// WHEN: Reconciling March without filters
	// THEN: Anna first, each with her own stats

	r := report.NewReconciler(seed(t), nil, 2)

	results, err := r.Month(context.Background(), report.MonthQuery{Year: 2026, Month: time.March})
	require.NoError(t, err)
	require.Len(t, results, 2)

	anna, zoe := results[0], results[1]
	assert.Equal(t, "Anna", anna.UserName)
	assert.Equal(t, "Zoé", zoe.UserName)

	// Anna: planned illness, came in; unplanned off-site on the 4th.
	assert.Equal(t, reconciliation.Stats{Total: 2, PresentWhenPlannedAbsent: 1, ActualOnly: 1}, anna.Stats)
	// Zoé: morning matched, afternoon missing.
	assert.Equal(t, reconciliation.Stats{Total: 2, Matches: 1, AbsentWhenPlannedPresent: 1}, zoe.Stats)
	assert.Equal(t, rma.CenterGeneva, zoe.Center)
}

func TestReconciler_Month_CenterFilter(t *testing.T) {
	r := report.NewReconciler(seed(t), nil, 0)

	results, err := r.Month(context.Background(), report.MonthQuery{Year: 2026, Month: time.March, Center: rma.CenterLausanne})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "u-anna", results[0].UserID)
}

func TestReconciler_Month_NoSubmissions_Empty(t *testing.T) {
	r := report.NewReconciler(seed(t), nil, 0)

	results, err := r.Month(context.Background(), report.MonthQuery{Year: 2026, Month: time.July})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestReconciler_Month_InvalidQuery(t *testing.T) {
	r := report.NewReconciler(seed(t), nil, 0)

	_, err := r.Month(context.Background(), report.MonthQuery{Year: 2026, Month: 13})
	assert.ErrorIs(t, err, generic.ErrInvalidInput)

	_, err = r.Month(context.Background(), report.MonthQuery{Year: 2026, Month: time.March, Center: "BERN"})
	assert.ErrorIs(t, err, generic.ErrInvalidInput)
}

type failingSource struct{ *memory.Memory }

var errBoom = errors.New("boom")

func (failingSource) Attendance(context.Context, string, generic.Period) ([]rma.AttendanceRecord, error) {
	return nil, errBoom
}

func TestReconciler_Month_PropagatesLoadError(t *testing.T) {
	r := report.NewReconciler(failingSource{seed(t)}, nil, 1)

	_, err := r.Month(context.Background(), report.MonthQuery{Year: 2026, Month: time.March})
	assert.ErrorIs(t, err, errBoom)
}

func TestActuals_DayOfMonth(t *testing.T) {
	out := report.Actuals([]rma.AttendanceRecord{
		{Date: d(17), HalfDay: rma.PM, ActualCode: rma.CodeMandate},
	})

	assert.Equal(t, []reconciliation.Actual{{Day: 17, HalfDay: rma.PM, Code: rma.CodeMandate}}, out)
}

// =============================================================================
// REPORTER
// =============================================================================

func TestReporter_Year(t *testing.T) {
	rep, err := report.NewReporter(seed(t), nil, 0).Year(context.Background(), 2026)
	require.NoError(t, err)

	assert.Equal(t, 3, rep.ActiveParticipants)
	assert.Equal(t, 3, rep.TotalSubmissions)
	require.Len(t, rep.Months, 12)

	march := rep.Months[time.March-1]
	assert.Equal(t, 2, march.Submissions)
	assert.Equal(t, 1, march.ByStatus[rma.StatusSubmitted])
	assert.Equal(t, 1, march.ByStatus[rma.StatusApproved])
	assert.True(t, decimal.NewFromInt(67).Equal(march.SubmissionRate), march.SubmissionRate.String())

	assert.True(t, rep.Months[time.January-1].SubmissionRate.IsZero())

	require.Len(t, rep.Centers, 3)
	for _, c := range rep.Centers {
		switch c.Center {
		case rma.CenterGeneva:
			assert.Equal(t, 2, c.Submissions)
			assert.Equal(t, 2, c.Participants)
		case rma.CenterLausanne:
			assert.Equal(t, 1, c.Submissions)
			assert.Equal(t, 1, c.Participants)
		case rma.CenterFribourg:
			assert.Equal(t, 0, c.Submissions)
			assert.Equal(t, 0, c.Participants)
		}
	}

	assert.Equal(t, map[rma.ActivityCode]int{rma.CodePresent: 3, rma.CodeIllness: 1}, rep.CodeDistribution)
}

func TestReporter_Attendance(t *testing.T) {
	// March 2026 has 22 weekdays and no Vaud holiday: 44 working half-days.
	r := report.NewReporter(seed(t), nil, 0)

	sum, err := r.Attendance(context.Background(), "u-anna", rma.CantonVaud, 2026, time.March)
	require.NoError(t, err)

	assert.Equal(t, 44, sum.WorkingHalfDays)
	assert.Equal(t, 2, sum.RecordedSlots)
	assert.Equal(t, 2, sum.PresentHalfDays)
	assert.Equal(t, 0, sum.AbsentHalfDays)
	assert.True(t, decimal.NewFromInt(5).Equal(sum.PresenceRate), sum.PresenceRate.String())
}

func TestReporter_Attendance_HolidaysReduceWorkingDays(t *testing.T) {
	r := report.NewReporter(memory.New(), nil, 0)

	// June 2026: 22 weekdays, Corpus Christi on Thursday the 4th in Fribourg.
	fr, err := r.Attendance(context.Background(), "nobody", rma.CantonFribourg, 2026, time.June)
	require.NoError(t, err)
	vd, err := r.Attendance(context.Background(), "nobody", rma.CantonVaud, 2026, time.June)
	require.NoError(t, err)

	assert.Equal(t, 42, fr.WorkingHalfDays)
	assert.Equal(t, 44, vd.WorkingHalfDays)
	assert.True(t, fr.PresenceRate.IsZero())
}

func TestReporter_Attendance_FollowsStoredHolidays(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	r := report.NewReporter(s, nil, 0)

	// GIVEN Fribourg's 2026 holidays are stored, then Corpus Christi is
	// removed and a local closure on Friday June 12 is added
	_, err := holidays.Seed(ctx, s, 2026, []rma.Canton{rma.CantonFribourg})
	require.NoError(t, err)
	stored, err := s.ListHolidays(ctx, rma.HolidayFilter{Canton: rma.CantonFribourg, Year: 2026, Month: time.June})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.NoError(t, s.DeleteHoliday(ctx, stored[0].ID))
	_, err = s.UpsertHolidays(ctx, []rma.Holiday{
		{Date: generic.NewTimePoint(2026, time.June, 12), Name: "Fermeture", Canton: rma.CantonFribourg},
		{Date: generic.NewTimePoint(2026, time.June, 15), Name: "Fermeture", Canton: rma.CantonFribourg},
	})
	require.NoError(t, err)

	// WHEN the June summary is built
	sum, err := r.Attendance(ctx, "nobody", rma.CantonFribourg, 2026, time.June)
	require.NoError(t, err)

	// THEN June 4 counts as a working day and June 12 and 15 do not
	assert.Equal(t, 40, sum.WorkingHalfDays)
}

func TestPercent(t *testing.T) {
	assert.True(t, report.Percent(0, 0).IsZero())
	assert.True(t, decimal.NewFromInt(33).Equal(report.Percent(1, 3)))
	assert.True(t, decimal.NewFromInt(50).Equal(report.Percent(1, 2)))
	assert.True(t, decimal.NewFromInt(100).Equal(report.Percent(4, 4)))
}
