package rma_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innopark/rma-engine/generic"
	"github.com/innopark/rma-engine/rma"
)

func TestActivityCode_Classes(t *testing.T) {
	for _, c := range []rma.ActivityCode{rma.CodePresent, rma.CodeOffSite, rma.CodeMandate} {
		assert.True(t, c.IsPresence(), c)
		assert.False(t, c.IsAbsence(), c)
	}
	for _, c := range []rma.ActivityCode{
		rma.CodeIllness, rma.CodeAccident, rma.CodeTrainingExt,
		rma.CodePersonalLeave, rma.CodeJustified, rma.CodeJobSearch,
	} {
		assert.True(t, c.IsAbsence(), c)
		assert.False(t, c.IsPresence(), c)
	}
	for _, c := range []rma.ActivityCode{rma.CodeTraining, rma.CodeHoliday, rma.CodeUnclassified, "Z", ""} {
		assert.Equal(t, rma.ClassNeutral, c.Class(), c)
	}
}

func TestActivityCode_Valid(t *testing.T) {
	assert.Len(t, rma.AllCodes, 12)
	for _, c := range rma.AllCodes {
		assert.True(t, c.Valid())
	}
	assert.False(t, rma.ActivityCode("ONSITE").Valid())
}

func TestCenter_Canton(t *testing.T) {
	assert.Equal(t, rma.CantonFribourg, rma.CenterFribourg.Canton())
	assert.Equal(t, rma.CantonVaud, rma.CenterLausanne.Canton())
	assert.Equal(t, rma.CantonGeneva, rma.CenterGeneva.Canton())
	assert.False(t, rma.Center("BERN").Valid())
}

func TestIsWeekend(t *testing.T) {
	assert.True(t, rma.IsWeekend(2026, time.March, 1))  // Sunday
	assert.False(t, rma.IsWeekend(2026, time.March, 2)) // Monday
	assert.True(t, rma.IsWeekend(2026, time.March, 7))  // Saturday
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 29, rma.DaysInMonth(2024, time.February))
	assert.Equal(t, 28, rma.DaysInMonth(2026, time.February))
	assert.Equal(t, 31, rma.DaysInMonth(2026, time.December))
}

// =============================================================================
// PREFILL
// =============================================================================

func TestPrefillHolidays_FillsBothHalves(t *testing.T) {
	// GIVEN: Empty declaration, holiday on day 14
	// THEN: H on 14 AM and 14 PM

	out := rma.PrefillHolidays(nil, []int{14})

	assert.Equal(t, []rma.PlannedEntry{
		{Day: 14, HalfDay: rma.AM, Code: rma.CodeHoliday},
		{Day: 14, HalfDay: rma.PM, Code: rma.CodeHoliday},
	}, out)
}

func TestPrefillHolidays_KeepsExistingSlot(t *testing.T) {
	// GIVEN: Participant already declared day 14 AM as on site
	// THEN: Only the PM half gets H

	entries := []rma.PlannedEntry{
		{Day: 20, HalfDay: rma.AM, Code: rma.CodePresent},
		{Day: 14, HalfDay: rma.AM, Code: rma.CodePresent},
	}

	out := rma.PrefillHolidays(entries, []int{14})

	assert.Equal(t, []rma.PlannedEntry{
		{Day: 14, HalfDay: rma.AM, Code: rma.CodePresent},
		{Day: 14, HalfDay: rma.PM, Code: rma.CodeHoliday},
		{Day: 20, HalfDay: rma.AM, Code: rma.CodePresent},
	}, out)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidateEntries(t *testing.T) {
	tests := []struct {
		name    string
		entries []rma.PlannedEntry
		field   string
	}{
		{"day zero", []rma.PlannedEntry{{Day: 0, HalfDay: rma.AM, Code: rma.CodePresent}}, "entries.day"},
		{"day past end", []rma.PlannedEntry{{Day: 29, HalfDay: rma.AM, Code: rma.CodePresent}}, "entries.day"},
		{"bad half", []rma.PlannedEntry{{Day: 3, HalfDay: "NOON", Code: rma.CodePresent}}, "entries.halfDay"},
		{"bad code", []rma.PlannedEntry{{Day: 3, HalfDay: rma.AM, Code: "Q"}}, "entries.code"},
		{"duplicate", []rma.PlannedEntry{
			{Day: 3, HalfDay: rma.AM, Code: rma.CodePresent},
			{Day: 3, HalfDay: rma.AM, Code: rma.CodeIllness},
		}, "entries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rma.ValidateEntries(2026, time.February, tt.entries)
			require.Error(t, err)
			assert.ErrorIs(t, err, generic.ErrInvalidInput)

			var fe *generic.FieldError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.field, fe.Field)
		})
	}
}

func TestValidateEntries_OK(t *testing.T) {
	err := rma.ValidateEntries(2026, time.February, []rma.PlannedEntry{
		{Day: 28, HalfDay: rma.PM, Code: rma.CodeMandate},
		{Day: 28, HalfDay: rma.AM, Code: rma.CodeHoliday},
	})
	assert.NoError(t, err)
}

// =============================================================================
// WORKFLOW
// =============================================================================

func TestCheckSubmit(t *testing.T) {
	entries := []rma.PlannedEntry{{Day: 1, HalfDay: rma.AM, Code: rma.CodePresent}}

	assert.NoError(t, rma.CheckSubmit(rma.Submission{Status: rma.StatusDraft, Entries: entries}))
	assert.NoError(t, rma.CheckSubmit(rma.Submission{Status: rma.StatusRevisionRequested, Entries: entries}))
	assert.NoError(t, rma.CheckSubmit(rma.Submission{Status: rma.StatusApproved, Entries: entries}))

	err := rma.CheckSubmit(rma.Submission{Status: rma.StatusSubmitted, Entries: entries})
	assert.ErrorIs(t, err, generic.ErrInvalidState)

	err = rma.CheckSubmit(rma.Submission{Status: rma.StatusDraft})
	assert.ErrorIs(t, err, generic.ErrInvalidInput)
}

func TestCheckReview(t *testing.T) {
	submitted := rma.Submission{Status: rma.StatusSubmitted}

	assert.NoError(t, rma.CheckReview(submitted, rma.StatusApproved))
	assert.NoError(t, rma.CheckReview(submitted, rma.StatusRevisionRequested))
	assert.ErrorIs(t, rma.CheckReview(submitted, rma.StatusDraft), generic.ErrInvalidInput)
	assert.ErrorIs(t, rma.CheckReview(rma.Submission{Status: rma.StatusDraft}, rma.StatusApproved), generic.ErrInvalidState)
}

func TestCheckEdit(t *testing.T) {
	for _, st := range []rma.SubmissionStatus{rma.StatusDraft, rma.StatusRevisionRequested, rma.StatusApproved} {
		assert.NoError(t, rma.CheckEdit(rma.Submission{Status: st}, rma.RoleParticipant), st)
	}

	// Waiting for review: locked for the participant, open to staff.
	submitted := rma.Submission{Status: rma.StatusSubmitted}
	assert.ErrorIs(t, rma.CheckEdit(submitted, rma.RoleParticipant), generic.ErrInvalidState)
	assert.NoError(t, rma.CheckEdit(submitted, rma.RoleStaff))
	assert.NoError(t, rma.CheckEdit(submitted, rma.RoleAdmin))
}
