package rma

import (
	"sort"
	"time"

	"github.com/innopark/rma-engine/generic"
)

// DaysInMonth returns the number of days in the month of the declaration grid.
func DaysInMonth(year int, month time.Month) int {
	return generic.DaysInMonth(year, month)
}

// IsWeekend reports whether the given day of month is a Saturday or Sunday.
func IsWeekend(year int, month time.Month, day int) bool {
	return generic.NewTimePoint(year, month, day).IsWeekend()
}

// PrefillHolidays returns entries with an H entry added for both halves of
// every holiday day. Slots that already carry an entry keep it. The result is
// sorted by slot.
func PrefillHolidays(entries []PlannedEntry, holidayDays []int) []PlannedEntry {
	taken := make(map[Slot]bool, len(entries))
	out := make([]PlannedEntry, 0, len(entries)+2*len(holidayDays))
	for _, e := range entries {
		taken[e.Slot()] = true
		out = append(out, e)
	}

	for _, day := range holidayDays {
		for _, hd := range HalfDays {
			s := Slot{Day: day, HalfDay: hd}
			if taken[s] {
				continue
			}
			taken[s] = true
			out = append(out, PlannedEntry{Day: day, HalfDay: hd, Code: CodeHoliday})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Slot().Less(out[j].Slot()) })
	return out
}

// ValidateEntries checks that every entry fits the month grid and that no
// slot appears twice.
func ValidateEntries(year int, month time.Month, entries []PlannedEntry) error {
	last := DaysInMonth(year, month)
	seen := make(map[Slot]bool, len(entries))
	for _, e := range entries {
		if e.Day < 1 || e.Day > last {
			return &generic.FieldError{Field: "entries.day", Message: "day outside month"}
		}
		if !e.HalfDay.Valid() {
			return &generic.FieldError{Field: "entries.halfDay", Message: "must be AM or PM"}
		}
		if !e.Code.Valid() {
			return &generic.FieldError{Field: "entries.code", Message: "unknown activity code " + string(e.Code)}
		}
		if seen[e.Slot()] {
			return &generic.FieldError{Field: "entries", Message: "duplicate slot"}
		}
		seen[e.Slot()] = true
	}
	return nil
}
