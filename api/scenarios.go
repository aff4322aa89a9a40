/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	data for demos and manual testing. Each scenario creates the seed
	users and canton holidays, then optionally declarations and attendance
	that exercise specific reconciliation outcomes.

AVAILABLE SCENARIOS:

	baseline:           Admin, one staff member per center, one participant, holidays
	month-discrepancies: Last month declared and recorded, with every status represented
	review-queue:       Declarations waiting in each workflow state

HOW SCENARIOS WORK:
 1. Reset the store (clear all data)
 2. Create the seed users
 3. Seed holidays for the current and next year
 4. Optionally add declarations and attendance

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "month-discrepancies"}

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler and helpers
  - holidays/seed.go: Holiday seeding
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/innopark/rma-engine/generic"
	"github.com/innopark/rma-engine/holidays"
	"github.com/innopark/rma-engine/rma"
)

// Seed user IDs. Demo clients send these in X-User-ID.
const (
	SeedAdminID       = "user-admin"
	SeedParticipantID = "user-jean-dupont"
)

// SeedStaffID returns the ID of the seeded staff member of center.
func SeedStaffID(center rma.Center) string {
	return "user-staff-" + strings.ToLower(string(center))
}

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects the scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

var scenarios = []ScenarioDTO{
	{
		ID:          "baseline",
		Name:        "Baseline",
		Description: "Admin, one staff member per center, one participant, canton holidays",
	},
	{
		ID:          "month-discrepancies",
		Name:        "Month With Discrepancies",
		Description: "Last month declared and recorded for three centers, every reconciliation status represented",
	},
	{
		ID:          "review-queue",
		Name:        "Review Queue",
		Description: "Declarations in draft, submitted, revision requested and approved states",
	},
}

// resetter is implemented by stores that can be wiped.
type resetter interface {
	Reset(ctx context.Context) error
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario resets the store and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := requireAdmin(actorFrom(ctx)); err != nil {
		h.respondError(w, err)
		return
	}

	var req LoadScenarioRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	if err := h.LoadScenarioByID(ctx, req.ScenarioID); err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// LoadScenarioByID resets the store and loads the named scenario.
func (h *Handler) LoadScenarioByID(ctx context.Context, id string) error {
	var load func(context.Context) error
	switch id {
	case "baseline":
		load = h.loadBaselineScenario
	case "month-discrepancies":
		load = h.loadDiscrepancyScenario
	case "review-queue":
		load = h.loadReviewQueueScenario
	default:
		return &generic.FieldError{Field: "scenario_id", Message: "unknown scenario " + id}
	}

	rs, ok := h.Store.(resetter)
	if !ok {
		return fmt.Errorf("store %T cannot be reset", h.Store)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := rs.Reset(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}
	h.currentScenario = ""

	if err := load(ctx); err != nil {
		return fmt.Errorf("load scenario %s: %w", id, err)
	}
	h.currentScenario = id
	h.Logger.Info("scenario loaded", zap.String("scenario", id))
	return nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadBaselineScenario(ctx context.Context) error {
	users := []rma.User{{
		ID:            SeedAdminID,
		Name:          "Admin Innopark",
		Email:         "admin@innopark.ch",
		Role:          rma.RoleAdmin,
		PrimaryCenter: rma.CenterFribourg,
		Active:        true,
	}}
	for _, c := range rma.Centers {
		users = append(users, rma.User{
			ID:            SeedStaffID(c),
			Name:          "Staff " + string(c),
			Email:         "staff-" + strings.ToLower(string(c)) + "@innopark.ch",
			Role:          rma.RoleStaff,
			PrimaryCenter: c,
			Active:        true,
		})
	}
	users = append(users, rma.User{
		ID:            SeedParticipantID,
		Name:          "Jean Dupont",
		Email:         "participant@innopark.ch",
		Role:          rma.RoleParticipant,
		PrimaryCenter: rma.CenterFribourg,
		Active:        true,
	})

	for _, u := range users {
		if err := h.Store.SaveUser(ctx, u); err != nil {
			return err
		}
	}

	year := h.now().Year()
	for _, y := range []int{year, year + 1} {
		if _, err := holidays.Seed(ctx, h.Store, y, rma.Cantons); err != nil {
			return err
		}
	}
	return nil
}

// loadDiscrepancyScenario declares and records last month for one
// participant per center:
//   - Jean Dupont (FRIBOURG): ill on the first working day, came in on a planned leave day
//   - Léa Martin (LAUSANNE): off-site instead of on site once, worked a Saturday
//   - Nicolas Favre (GENEVA): everything as planned
func (h *Handler) loadDiscrepancyScenario(ctx context.Context) error {
	if err := h.loadBaselineScenario(ctx); err != nil {
		return err
	}
	if err := h.saveParticipants(ctx); err != nil {
		return err
	}

	year, month := h.lastMonth()
	people := []struct {
		userID string
		center rma.Center
	}{
		{SeedParticipantID, rma.CenterFribourg},
		{"user-lea-martin", rma.CenterLausanne},
		{"user-nicolas-favre", rma.CenterGeneva},
	}

	for _, p := range people {
		workdays, err := h.workdays(ctx, p.center.Canton(), year, month)
		if err != nil {
			return err
		}
		if len(workdays) < 3 {
			return fmt.Errorf("%d-%02d has too few working days", year, month)
		}

		planned := fullMonth(workdays, rma.CodePresent)
		actual := fullMonth(workdays, rma.CodePresent)

		switch p.userID {
		case SeedParticipantID:
			setDay(actual, workdays[0], rma.CodeIllness)
			setDay(planned, workdays[2], rma.CodePersonalLeave)
		case "user-lea-martin":
			setDay(actual, workdays[1], rma.CodeOffSite)
			if sat := firstSaturday(year, month); sat > 0 {
				actual[rma.Slot{Day: sat, HalfDay: rma.AM}] = rma.CodePresent
			}
		}

		if err := h.declare(ctx, p.userID, p.center, year, month, planned, rma.StatusSubmitted); err != nil {
			return err
		}
		if err := h.record(ctx, p.userID, p.center, year, month, actual); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadReviewQueueScenario(ctx context.Context) error {
	if err := h.loadBaselineScenario(ctx); err != nil {
		return err
	}
	if err := h.saveParticipants(ctx); err != nil {
		return err
	}

	year, month := h.lastMonth()
	queue := []struct {
		userID string
		center rma.Center
		status rma.SubmissionStatus
	}{
		{SeedParticipantID, rma.CenterFribourg, rma.StatusSubmitted},
		{"user-lea-martin", rma.CenterLausanne, rma.StatusRevisionRequested},
		{"user-nicolas-favre", rma.CenterGeneva, rma.StatusApproved},
		{"user-sophie-rochat", rma.CenterFribourg, rma.StatusDraft},
	}
	for _, q := range queue {
		workdays, err := h.workdays(ctx, q.center.Canton(), year, month)
		if err != nil {
			return err
		}
		if err := h.declare(ctx, q.userID, q.center, year, month, fullMonth(workdays, rma.CodePresent), q.status); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// SCENARIO HELPERS
// =============================================================================

func (h *Handler) saveParticipants(ctx context.Context) error {
	extra := []rma.User{
		{ID: "user-lea-martin", Name: "Léa Martin", Email: "lea.martin@innopark.ch", PrimaryCenter: rma.CenterLausanne},
		{ID: "user-nicolas-favre", Name: "Nicolas Favre", Email: "nicolas.favre@innopark.ch", PrimaryCenter: rma.CenterGeneva},
		{ID: "user-sophie-rochat", Name: "Sophie Rochat", Email: "sophie.rochat@innopark.ch", PrimaryCenter: rma.CenterFribourg},
	}
	for _, u := range extra {
		u.Role = rma.RoleParticipant
		u.Active = true
		if err := h.Store.SaveUser(ctx, u); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) lastMonth() (int, time.Month) {
	now := h.now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	return first.Year(), first.Month()
}

// workdays lists the days of month that are neither weekends nor holidays.
func (h *Handler) workdays(ctx context.Context, canton rma.Canton, year int, month time.Month) ([]int, error) {
	holidayDays, err := h.holidayDays(ctx, canton, year, month)
	if err != nil {
		return nil, err
	}
	off := make(map[int]bool, len(holidayDays))
	for _, d := range holidayDays {
		off[d] = true
	}
	var days []int
	for d := 1; d <= rma.DaysInMonth(year, month); d++ {
		if !off[d] && !rma.IsWeekend(year, month, d) {
			days = append(days, d)
		}
	}
	return days, nil
}

func (h *Handler) declare(ctx context.Context, userID string, center rma.Center, year int, month time.Month, slots map[rma.Slot]rma.ActivityCode, status rma.SubmissionStatus) error {
	entries := make([]rma.PlannedEntry, 0, len(slots))
	for s, code := range slots {
		entries = append(entries, rma.PlannedEntry{Day: s.Day, HalfDay: s.HalfDay, Code: code})
	}
	holidayDays, err := h.holidayDays(ctx, center.Canton(), year, month)
	if err != nil {
		return err
	}

	sub, err := h.Store.CreateSubmission(ctx, rma.Submission{
		UserID:  userID,
		Year:    year,
		Month:   month,
		Center:  center,
		Status:  rma.StatusDraft,
		Entries: rma.PrefillHolidays(entries, holidayDays),
	})
	if err != nil {
		return err
	}
	if status == rma.StatusDraft {
		return nil
	}

	at := h.now()
	if _, err := h.Store.UpdateSubmissionStatus(ctx, rma.StatusUpdate{ID: sub.ID, Status: rma.StatusSubmitted, At: at}); err != nil {
		return err
	}
	if status.IsReviewOutcome() {
		_, err = h.Store.UpdateSubmissionStatus(ctx, rma.StatusUpdate{
			ID:         sub.ID,
			Status:     status,
			ReviewedBy: SeedStaffID(center),
			AdminNotes: "Reviewed in demo scenario",
			At:         at,
		})
	}
	return err
}

func (h *Handler) record(ctx context.Context, userID string, center rma.Center, year int, month time.Month, slots map[rma.Slot]rma.ActivityCode) error {
	records := make([]rma.AttendanceRecord, 0, len(slots))
	for s, code := range slots {
		records = append(records, rma.AttendanceRecord{
			UserID:     userID,
			Date:       generic.NewTimePoint(year, month, s.Day),
			HalfDay:    s.HalfDay,
			Center:     center,
			ActualCode: code,
		})
	}
	_, err := h.Store.UpsertAttendance(ctx, records)
	return err
}

func fullMonth(days []int, code rma.ActivityCode) map[rma.Slot]rma.ActivityCode {
	slots := make(map[rma.Slot]rma.ActivityCode, 2*len(days))
	for _, d := range days {
		setDay(slots, d, code)
	}
	return slots
}

func setDay(slots map[rma.Slot]rma.ActivityCode, day int, code rma.ActivityCode) {
	for _, hd := range rma.HalfDays {
		slots[rma.Slot{Day: day, HalfDay: hd}] = code
	}
}

func firstSaturday(year int, month time.Month) int {
	for d := 1; d <= 7; d++ {
		if generic.NewTimePoint(year, month, d).Weekday() == time.Saturday {
			return d
		}
	}
	return 0
}
