/*
Package reconciliation compares a participant's declared month against the
attendance that was actually recorded.

PURPOSE:
  Staff validate declarations by looking at every half-day where the plan
  and the recorded attendance disagree. Reconcile classifies each slot into
  one Status; ComputeStats counts them.

CLASSIFICATION (first match wins):
  planned  actual   condition                          status
  -------  -------  ---------------------------------  ----------------------------
  P        A        P == A                             MATCH
  P        A        both presence                      CODE_MISMATCH
  P        A        P absence, A presence              PRESENT_WHEN_PLANNED_ABSENT
  P        A        P presence, A absence              ABSENT_WHEN_PLANNED_PRESENT
  P        A        anything else                      CODE_MISMATCH
  P        -        P presence                         ABSENT_WHEN_PLANNED_PRESENT
  P        -        anything else                      MATCH
  -        A                                           ACTUAL_ONLY

  Holiday slots are ordinary neutral codes here. Callers merge holidays into
  the planned list before reconciling.

GUARANTEES:
  - One entry per slot present in either input, none for other slots
  - Entries sorted by day, AM before PM
  - Duplicate slots within one input: the last one wins
  - Pure and total; safe for concurrent use

SEE ALSO:
  - rma/types.go: Activity code classes
  - report/reconcile.go: Loads the inputs and calls Reconcile per user
*/
package reconciliation

import (
	"sort"
	"time"

	"github.com/innopark/rma-engine/rma"
)

// =============================================================================
// STATUS
// =============================================================================

// Status is the classification of one reconciled slot.
type Status string

const (
	StatusMatch                    Status = "MATCH"
	StatusAbsentWhenPlannedPresent Status = "ABSENT_WHEN_PLANNED_PRESENT"
	StatusPresentWhenPlannedAbsent Status = "PRESENT_WHEN_PLANNED_ABSENT"
	StatusActualOnly               Status = "ACTUAL_ONLY"
	StatusCodeMismatch             Status = "CODE_MISMATCH"
)

// AllStatuses lists every status.
var AllStatuses = []Status{
	StatusMatch,
	StatusAbsentWhenPlannedPresent,
	StatusPresentWhenPlannedAbsent,
	StatusActualOnly,
	StatusCodeMismatch,
}

// IsDiscrepancy is true for every status except MATCH.
func (s Status) IsDiscrepancy() bool { return s != StatusMatch }

// =============================================================================
// INPUT / OUTPUT
// =============================================================================

// Actual is one recorded attendance slot, already reduced to day of month.
type Actual struct {
	Day     int
	HalfDay rma.HalfDay
	Code    rma.ActivityCode
}

func (a Actual) Slot() rma.Slot { return rma.Slot{Day: a.Day, HalfDay: a.HalfDay} }

// Entry is the reconciled view of one slot. A nil code means no data on that side.
type Entry struct {
	Day         int               `json:"day"`
	HalfDay     rma.HalfDay       `json:"halfDay"`
	PlannedCode *rma.ActivityCode `json:"plannedCode"`
	ActualCode  *rma.ActivityCode `json:"actualCode"`
	Status      Status            `json:"status"`
}

// Stats counts entries per status.
// Total always equals the sum of the five counters.
type Stats struct {
	Total                    int `json:"total"`
	Matches                  int `json:"matches"`
	AbsentWhenPlannedPresent int `json:"absentWhenPlannedPresent"`
	PresentWhenPlannedAbsent int `json:"presentWhenPlannedAbsent"`
	ActualOnly               int `json:"actualOnly"`
	CodeMismatch             int `json:"codeMismatch"`
}

// Discrepancies is Total minus Matches.
func (s Stats) Discrepancies() int { return s.Total - s.Matches }

// Result is the reconciliation of one user's month.
type Result struct {
	UserID   string     `json:"userId"`
	UserName string     `json:"userName"`
	Year     int        `json:"year"`
	Month    time.Month `json:"month"`
	Center   rma.Center `json:"center"`
	Entries  []Entry    `json:"entries"`
	Stats    Stats      `json:"stats"`
}

// =============================================================================
// ENGINE
// =============================================================================

// Reconcile classifies every slot found in planned or actual.
func Reconcile(planned []rma.PlannedEntry, actual []Actual) []Entry {
	plannedBySlot := make(map[rma.Slot]rma.ActivityCode, len(planned))
	for _, p := range planned {
		plannedBySlot[p.Slot()] = p.Code
	}
	actualBySlot := make(map[rma.Slot]rma.ActivityCode, len(actual))
	for _, a := range actual {
		actualBySlot[a.Slot()] = a.Code
	}

	slots := make([]rma.Slot, 0, len(plannedBySlot)+len(actualBySlot))
	for s := range plannedBySlot {
		slots = append(slots, s)
	}
	for s := range actualBySlot {
		if _, dup := plannedBySlot[s]; !dup {
			slots = append(slots, s)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Less(slots[j]) })

	entries := make([]Entry, 0, len(slots))
	for _, s := range slots {
		var p, a *rma.ActivityCode
		if code, ok := plannedBySlot[s]; ok {
			p = &code
		}
		if code, ok := actualBySlot[s]; ok {
			a = &code
		}
		status, ok := Classify(p, a)
		if !ok {
			continue
		}
		entries = append(entries, Entry{
			Day:         s.Day,
			HalfDay:     s.HalfDay,
			PlannedCode: p,
			ActualCode:  a,
			Status:      status,
		})
	}
	return entries
}

// Classify returns the status for one slot. ok is false when both sides are nil.
func Classify(planned, actual *rma.ActivityCode) (status Status, ok bool) {
	switch {
	case planned != nil && actual != nil:
		p, a := *planned, *actual
		switch {
		case p == a:
			return StatusMatch, true
		case p.IsPresence() && a.IsPresence():
			return StatusCodeMismatch, true
		case p.IsAbsence() && a.IsPresence():
			return StatusPresentWhenPlannedAbsent, true
		case p.IsPresence() && a.IsAbsence():
			return StatusAbsentWhenPlannedPresent, true
		default:
			return StatusCodeMismatch, true
		}
	case planned != nil:
		if planned.IsPresence() {
			return StatusAbsentWhenPlannedPresent, true
		}
		return StatusMatch, true
	case actual != nil:
		return StatusActualOnly, true
	default:
		return "", false
	}
}

// ComputeStats counts entries by status in one pass.
func ComputeStats(entries []Entry) Stats {
	stats := Stats{Total: len(entries)}
	for _, e := range entries {
		switch e.Status {
		case StatusMatch:
			stats.Matches++
		case StatusAbsentWhenPlannedPresent:
			stats.AbsentWhenPlannedPresent++
		case StatusPresentWhenPlannedAbsent:
			stats.PresentWhenPlannedAbsent++
		case StatusActualOnly:
			stats.ActualOnly++
		case StatusCodeMismatch:
			stats.CodeMismatch++
		}
	}
	return stats
}

// Discrepancies returns the entries whose status is not MATCH. The result
// is never nil.
func Discrepancies(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Status.IsDiscrepancy() {
			out = append(out, e)
		}
	}
	return out
}
