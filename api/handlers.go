/*
handlers.go - HTTP API handlers for the RMA service

PURPOSE:
  Exposes declarations, attendance, holidays and reconciliation via REST.
  Handles HTTP request/response, JSON serialization, role checks, and
  delegates to the domain packages.

ENDPOINTS:
  Users:
    GET    /api/users                  List users (staff)
    POST   /api/users                  Create user (admin)
    GET    /api/users/{id}             Get user
    PUT    /api/users/{id}             Update profile (staff, own center)
    DELETE /api/users/{id}             Deactivate (admin)

  Holidays:
    GET    /api/holidays               Stored holidays (?year&month&canton)
    POST   /api/holidays               Add one holiday (admin)
    GET    /api/holidays/compute       Calculator output, nothing stored
    POST   /api/holidays/seed          Compute and upsert a year (admin)
    PUT    /api/holidays/{id}          Edit a holiday (admin)
    DELETE /api/holidays/{id}          Remove a holiday (admin)

  Attendance:
    GET    /api/attendance             One user's records (?year&month | ?from&to, userId)
    POST   /api/attendance             Record one half-day
    POST   /api/attendance/batch       Record both halves of a day
    DELETE /api/attendance/{id}        Remove one record

  Declarations:
    GET    /api/rma                    List declarations
    POST   /api/rma                    Create with holiday pre-fill
    GET    /api/rma/{id}               Get with entries
    PUT    /api/rma/{id}               Replace entries, status unchanged
    DELETE /api/rma/{id}               Delete
    POST   /api/rma/{id}/submit        DRAFT/REVISION_REQUESTED/APPROVED -> SUBMITTED
    POST   /api/rma/{id}/review        SUBMITTED -> APPROVED/REVISION_REQUESTED (staff)

  Reconciliation and reports (staff):
    GET    /api/reconciliation         Planned vs actual (?year&month&center&userId&discrepanciesOnly)
    GET    /api/reports/{year}         Yearly submission report
    GET    /api/reports/attendance     Presence summary (?userId&year&month&canton)

ACCESS RULES:
  - PARTICIPANT: own records only
  - CENTER_STAFF: records of their center; center filters are forced
  - ADMIN: everything

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, invalid workflow transition
  - 403: Role or center does not allow the action
  - 404: Resource not found
  - 409: Conflict (duplicate declaration or holiday)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - middleware.go: Caller identity
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/innopark/rma-engine/generic"
	"github.com/innopark/rma-engine/holidays"
	"github.com/innopark/rma-engine/reconciliation"
	"github.com/innopark/rma-engine/report"
	"github.com/innopark/rma-engine/rma"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      rma.Store
	Reconciler *report.Reconciler
	Reporter   *report.Reporter
	Logger     *zap.Logger

	validate *validator.Validate
	now      func() time.Time

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler with the given store. Concurrency bounds
// the per-user loads of reconciliation and reports.
func NewHandler(store rma.Store, logger *zap.Logger, concurrency int) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	return &Handler{
		Store:      store,
		Reconciler: report.NewReconciler(store, logger.Named("reconcile"), concurrency),
		Reporter:   report.NewReporter(store, logger.Named("report"), concurrency),
		Logger:     logger,
		validate:   v,
		now:        time.Now,
	}
}

// =============================================================================
// USER HANDLERS
// =============================================================================

// ListUsers returns users, optionally filtered by role, center and activity.
// GET /api/users?role&center&active
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	a := actorFrom(r.Context())
	if err := requireStaff(a); err != nil {
		h.respondError(w, err)
		return
	}

	q := r.URL.Query()
	f := rma.UserFilter{
		Role:       rma.Role(q.Get("role")),
		Center:     scopeCenter(a, rma.Center(q.Get("center"))),
		ActiveOnly: q.Get("active") == "true",
	}
	users, err := h.Store.ListUsers(r.Context(), f)
	if err != nil {
		h.respondError(w, err)
		return
	}

	dtos := make([]UserDTO, 0, len(users))
	for _, u := range users {
		dtos = append(dtos, toUserDTO(u))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateUser creates a participant or staff member.
// POST /api/users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := requireAdmin(actorFrom(ctx)); err != nil {
		h.respondError(w, err)
		return
	}

	var req CreateUserRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	u := rma.User{
		ID:            req.ID,
		Name:          req.Name,
		Email:         req.Email,
		Role:          rma.Role(req.Role),
		PrimaryCenter: rma.Center(req.PrimaryCenter),
		Active:        req.Active == nil || *req.Active,
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if err := h.Store.SaveUser(ctx, u); err != nil {
		h.respondError(w, err)
		return
	}
	saved, err := h.Store.GetUser(ctx, u.ID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserDTO(saved))
}

// GetUser returns one user.
// GET /api/users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	u, err := h.resolveUser(ctx, actorFrom(ctx), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(u))
}

// UpdateUser replaces a user's profile. Center staff edit only the non-admin
// users of their center and cannot move them elsewhere or promote them.
// PUT /api/users/{id}
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	a := actorFrom(ctx)
	if err := requireStaff(a); err != nil {
		h.respondError(w, err)
		return
	}

	var req UpdateUserRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	u, err := h.resolveUser(ctx, a, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}

	role, center := rma.Role(req.Role), rma.Center(req.PrimaryCenter)
	if a.Role == rma.RoleStaff && (u.Role == rma.RoleAdmin || role == rma.RoleAdmin || center != a.Center) {
		h.respondError(w, fmt.Errorf("user %s: %w", u.ID, generic.ErrForbidden))
		return
	}

	u.Name = req.Name
	u.Email = req.Email
	u.Role = role
	u.PrimaryCenter = center
	if req.Active != nil {
		u.Active = *req.Active
	}
	if err := h.Store.SaveUser(ctx, u); err != nil {
		h.respondError(w, err)
		return
	}
	saved, err := h.Store.GetUser(ctx, u.ID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(saved))
}

// DeactivateUser marks a user inactive. Their declarations and attendance
// stay; they drop out of submission rates.
// DELETE /api/users/{id}
func (h *Handler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := requireAdmin(actorFrom(ctx)); err != nil {
		h.respondError(w, err)
		return
	}

	u, err := h.Store.GetUser(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	u.Active = false
	if err := h.Store.SaveUser(ctx, u); err != nil {
		h.respondError(w, err)
		return
	}
	h.Logger.Info("user deactivated", zap.String("user_id", u.ID))
	writeJSON(w, http.StatusOK, map[string]any{"status": "deactivated"})
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns stored holidays.
// GET /api/holidays?year&month&canton
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, err := queryInt(q.Get("year"), "year", 0)
	if err != nil {
		h.respondError(w, err)
		return
	}
	month, err := queryInt(q.Get("month"), "month", 0)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if month < 0 || month > 12 {
		h.respondError(w, &generic.FieldError{Field: "month", Message: "must be 1-12"})
		return
	}
	canton := rma.Canton(q.Get("canton"))
	if canton != "" && !canton.Valid() {
		h.respondError(w, &generic.FieldError{Field: "canton", Message: "must be FR, VD or GE"})
		return
	}

	hs, err := h.Store.ListHolidays(r.Context(), rma.HolidayFilter{Canton: canton, Year: year, Month: time.Month(month)})
	if err != nil {
		h.respondError(w, err)
		return
	}
	dtos := make([]HolidayDTO, 0, len(hs))
	for _, hol := range hs {
		dtos = append(dtos, toHolidayDTO(hol))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday stores one holiday. An existing (date, canton) row is renamed.
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := requireAdmin(actorFrom(ctx)); err != nil {
		h.respondError(w, err)
		return
	}

	var req HolidayRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		h.respondError(w, err)
		return
	}

	hol := rma.Holiday{Date: date, Name: req.Name, Canton: rma.Canton(req.Canton)}
	if _, err := h.Store.UpsertHolidays(ctx, []rma.Holiday{hol}); err != nil {
		h.respondError(w, err)
		return
	}

	stored, err := h.Store.ListHolidays(ctx, rma.HolidayFilter{Canton: hol.Canton, Year: date.Year(), Month: date.Month()})
	if err != nil {
		h.respondError(w, err)
		return
	}
	for _, s := range stored {
		if s.Date.Equal(date) {
			writeJSON(w, http.StatusCreated, toHolidayDTO(s))
			return
		}
	}
	h.respondError(w, fmt.Errorf("holiday %s %s vanished after upsert", hol.Canton, date))
}

// ComputeHolidays returns the calculator's holidays for a canton and year.
// GET /api/holidays/compute?year&canton
func (h *Handler) ComputeHolidays(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, err := queryInt(q.Get("year"), "year", h.now().Year())
	if err != nil {
		h.respondError(w, err)
		return
	}
	if year < 1583 || year > 9999 {
		h.respondError(w, &generic.FieldError{Field: "year", Message: "out of range"})
		return
	}
	canton := rma.Canton(q.Get("canton"))
	if !canton.Valid() {
		h.respondError(w, &generic.FieldError{Field: "canton", Message: "must be FR, VD or GE"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"year":     year,
		"canton":   canton,
		"holidays": holidays.Compute(year, canton),
	})
}

// SeedHolidays computes a year's holidays and upserts them.
// POST /api/holidays/seed
func (h *Handler) SeedHolidays(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := requireAdmin(actorFrom(ctx)); err != nil {
		h.respondError(w, err)
		return
	}

	var req SeedHolidaysRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	cantons := make([]rma.Canton, len(req.Cantons))
	for i, c := range req.Cantons {
		cantons[i] = rma.Canton(c)
	}

	seeded, err := holidays.Seed(ctx, h.Store, req.Year, cantons)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.Logger.Info("holidays seeded", zap.Int("year", req.Year), zap.Any("seeded", seeded))
	writeJSON(w, http.StatusOK, SeedHolidaysResponse{Year: req.Year, Seeded: seeded})
}

// UpdateHoliday replaces a holiday's date, name and canton.
// PUT /api/holidays/{id}
func (h *Handler) UpdateHoliday(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := requireAdmin(actorFrom(ctx)); err != nil {
		h.respondError(w, err)
		return
	}

	var req HolidayRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		h.respondError(w, err)
		return
	}

	updated, err := h.Store.UpdateHoliday(ctx, rma.Holiday{
		ID:     chi.URLParam(r, "id"),
		Date:   date,
		Name:   req.Name,
		Canton: rma.Canton(req.Canton),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toHolidayDTO(updated))
}

// DeleteHoliday deletes a holiday.
// DELETE /api/holidays/{id}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := requireAdmin(actorFrom(ctx)); err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Store.DeleteHoliday(ctx, chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// =============================================================================
// ATTENDANCE HANDLERS
// =============================================================================

// ListAttendance returns one user's attendance for a month, a whole year
// (year without month) or an explicit from/to range.
// GET /api/attendance?year&month&from&to&userId
func (h *Handler) ListAttendance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	period, err := h.attendancePeriod(q)
	if err != nil {
		h.respondError(w, err)
		return
	}
	u, err := h.resolveUser(ctx, actorFrom(ctx), q.Get("userId"))
	if err != nil {
		h.respondError(w, err)
		return
	}

	records, err := h.Store.Attendance(ctx, u.ID, period)
	if err != nil {
		h.respondError(w, err)
		return
	}
	dtos := make([]AttendanceDTO, 0, len(records))
	for _, rec := range records {
		dtos = append(dtos, toAttendanceDTO(rec))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RecordAttendance upserts one half-day.
// POST /api/attendance
func (h *Handler) RecordAttendance(w http.ResponseWriter, r *http.Request) {
	var req AttendanceRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	saved, err := h.recordAttendance(r.Context(), []AttendanceRequest{req})
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAttendanceDTO(saved[0]))
}

// RecordAttendanceBatch upserts one or two half-days in one transaction.
// POST /api/attendance/batch
func (h *Handler) RecordAttendanceBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchAttendanceRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	saved, err := h.recordAttendance(r.Context(), req.Entries)
	if err != nil {
		h.respondError(w, err)
		return
	}
	dtos := make([]AttendanceDTO, 0, len(saved))
	for _, rec := range saved {
		dtos = append(dtos, toAttendanceDTO(rec))
	}
	writeJSON(w, http.StatusCreated, dtos)
}

// DeleteAttendance removes one record. Participants delete only their own;
// center staff only those of their center's users.
// DELETE /api/attendance/{id}
func (h *Handler) DeleteAttendance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rec, err := h.Store.GetAttendance(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	if _, err := h.resolveUser(ctx, actorFrom(ctx), rec.UserID); err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Store.DeleteAttendance(ctx, rec.ID); err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

func (h *Handler) recordAttendance(ctx context.Context, reqs []AttendanceRequest) ([]rma.AttendanceRecord, error) {
	a := actorFrom(ctx)
	users := make(map[string]rma.User)
	records := make([]rma.AttendanceRecord, 0, len(reqs))

	for _, req := range reqs {
		u, ok := users[req.UserID]
		if !ok {
			var err error
			if u, err = h.resolveUser(ctx, a, req.UserID); err != nil {
				return nil, err
			}
			users[req.UserID] = u
		}

		date, err := parseDate(req.Date)
		if err != nil {
			return nil, err
		}
		code := rma.ActivityCode(req.ActualCode)
		if !code.Valid() {
			return nil, &generic.FieldError{Field: "actualCode", Message: "unknown activity code " + req.ActualCode}
		}
		center := rma.Center(req.Center)
		if center == "" {
			center = u.PrimaryCenter
		}

		records = append(records, rma.AttendanceRecord{
			UserID:     u.ID,
			Date:       date,
			HalfDay:    rma.HalfDay(req.HalfDay),
			Center:     center,
			ActualCode: code,
			Notes:      req.Notes,
		})
	}

	return h.Store.UpsertAttendance(ctx, records)
}

// =============================================================================
// DECLARATION HANDLERS
// =============================================================================

// ListSubmissions returns declarations visible to the caller, without entries.
// GET /api/rma?year&month&center&status&userId
func (h *Handler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	a := actorFrom(r.Context())
	q := r.URL.Query()

	year, err := queryInt(q.Get("year"), "year", 0)
	if err != nil {
		h.respondError(w, err)
		return
	}
	month, err := queryInt(q.Get("month"), "month", 0)
	if err != nil {
		h.respondError(w, err)
		return
	}

	f := rma.SubmissionFilter{
		UserID: q.Get("userId"),
		Year:   year,
		Month:  time.Month(month),
		Center: scopeCenter(a, rma.Center(q.Get("center"))),
		Status: rma.SubmissionStatus(q.Get("status")),
	}
	if f.Status != "" && !f.Status.Valid() {
		h.respondError(w, &generic.FieldError{Field: "status", Message: "unknown status " + string(f.Status)})
		return
	}
	if a.Role == rma.RoleParticipant {
		f.UserID = a.UserID
	}

	subs, err := h.Store.ListSubmissions(r.Context(), f)
	if err != nil {
		h.respondError(w, err)
		return
	}
	dtos := make([]SubmissionDTO, 0, len(subs))
	for _, s := range subs {
		dtos = append(dtos, toSubmissionDTO(s))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateSubmission creates a DRAFT declaration. Canton holidays are added as
// H entries on both halves of the day unless the request already fills them.
// POST /api/rma
func (h *Handler) CreateSubmission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	a := actorFrom(ctx)

	var req CreateSubmissionRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	u, err := h.resolveUser(ctx, a, req.UserID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	month := time.Month(req.Month)
	entries := toPlannedEntries(req.Entries)
	if err := rma.ValidateEntries(req.Year, month, entries); err != nil {
		h.respondError(w, err)
		return
	}

	center := rma.Center(req.Center)
	if center == "" {
		center = u.PrimaryCenter
	}
	if err := checkCenter(a, center); err != nil {
		h.respondError(w, err)
		return
	}
	days, err := h.holidayDays(ctx, center.Canton(), req.Year, month)
	if err != nil {
		h.respondError(w, err)
		return
	}

	sub, err := h.Store.CreateSubmission(ctx, rma.Submission{
		UserID:  u.ID,
		Year:    req.Year,
		Month:   month,
		Center:  center,
		Status:  rma.StatusDraft,
		Entries: rma.PrefillHolidays(entries, days),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSubmissionDTO(sub))
}

// GetSubmission returns a declaration with its entries.
// GET /api/rma/{id}
func (h *Handler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := h.loadSubmission(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubmissionDTO(sub))
}

// UpdateSubmission replaces a declaration's entries and optionally its
// center. Holidays are pre-filled again for the center's canton; the status
// does not change.
// PUT /api/rma/{id}
func (h *Handler) UpdateSubmission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	a := actorFrom(ctx)

	var req UpdateSubmissionRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	sub, err := h.loadSubmission(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := rma.CheckEdit(sub, a.Role); err != nil {
		h.respondError(w, err)
		return
	}

	entries := toPlannedEntries(req.Entries)
	if err := rma.ValidateEntries(sub.Year, sub.Month, entries); err != nil {
		h.respondError(w, err)
		return
	}
	center := rma.Center(req.Center)
	if center == "" {
		center = sub.Center
	}
	if err := checkCenter(a, center); err != nil {
		h.respondError(w, err)
		return
	}
	days, err := h.holidayDays(ctx, center.Canton(), sub.Year, sub.Month)
	if err != nil {
		h.respondError(w, err)
		return
	}

	updated, err := h.Store.UpdateSubmission(ctx, rma.Submission{
		ID:      sub.ID,
		Center:  center,
		Entries: rma.PrefillHolidays(entries, days),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.Logger.Info("declaration updated",
		zap.String("submission_id", sub.ID),
		zap.String("status", string(updated.Status)),
		zap.Int("entries", len(updated.Entries)))
	writeJSON(w, http.StatusOK, toSubmissionDTO(updated))
}

// DeleteSubmission removes a declaration and its entries. Participants may
// only delete their drafts.
// DELETE /api/rma/{id}
func (h *Handler) DeleteSubmission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sub, err := h.loadSubmission(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	if actorFrom(ctx).Role == rma.RoleParticipant && sub.Status != rma.StatusDraft {
		h.respondError(w, fmt.Errorf("delete %s declaration: %w", sub.Status, generic.ErrInvalidState))
		return
	}
	if err := h.Store.DeleteSubmission(ctx, sub.ID); err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// SubmitSubmission hands a declaration in for review.
// POST /api/rma/{id}/submit
func (h *Handler) SubmitSubmission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sub, err := h.loadSubmission(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := rma.CheckSubmit(sub); err != nil {
		h.respondError(w, err)
		return
	}

	updated, err := h.Store.UpdateSubmissionStatus(ctx, rma.StatusUpdate{
		ID:     sub.ID,
		Status: rma.StatusSubmitted,
		At:     h.now(),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubmissionDTO(updated))
}

// ReviewSubmission approves a submitted declaration or sends it back.
// POST /api/rma/{id}/review
func (h *Handler) ReviewSubmission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	a := actorFrom(ctx)
	if err := requireStaff(a); err != nil {
		h.respondError(w, err)
		return
	}

	var req ReviewRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	sub, err := h.loadSubmission(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	outcome := rma.SubmissionStatus(req.Action)
	if err := rma.CheckReview(sub, outcome); err != nil {
		h.respondError(w, err)
		return
	}

	updated, err := h.Store.UpdateSubmissionStatus(ctx, rma.StatusUpdate{
		ID:         sub.ID,
		Status:     outcome,
		ReviewedBy: a.UserID,
		AdminNotes: req.AdminNotes,
		At:         h.now(),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.Logger.Info("declaration reviewed",
		zap.String("submission_id", sub.ID),
		zap.String("outcome", string(outcome)),
		zap.String("reviewer", a.UserID))
	writeJSON(w, http.StatusOK, toSubmissionDTO(updated))
}

// =============================================================================
// RECONCILIATION AND REPORTS
// =============================================================================

// GetReconciliation compares planned and actual codes for every declaration
// of the month. With discrepanciesOnly=true matching entries are dropped
// from each result; the stats still count them.
// GET /api/reconciliation?year&month&center&userId&discrepanciesOnly
func (h *Handler) GetReconciliation(w http.ResponseWriter, r *http.Request) {
	a := actorFrom(r.Context())
	if err := requireStaff(a); err != nil {
		h.respondError(w, err)
		return
	}

	q := r.URL.Query()
	year, month, err := h.yearMonth(q.Get("year"), q.Get("month"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	query := report.MonthQuery{
		Year:   year,
		Month:  month,
		Center: scopeCenter(a, rma.Center(q.Get("center"))),
		UserID: q.Get("userId"),
	}

	results, err := h.Reconciler.Month(r.Context(), query)
	if err != nil {
		h.respondError(w, err)
		return
	}

	resp := ReconciliationResponse{
		Year:    year,
		Month:   int(month),
		Center:  query.Center,
		Results: results,
	}
	for _, res := range results {
		resp.Totals = addStats(resp.Totals, res.Stats)
	}
	if q.Get("discrepanciesOnly") == "true" {
		resp.DiscrepanciesOnly = true
		for i := range resp.Results {
			resp.Results[i].Entries = reconciliation.Discrepancies(resp.Results[i].Entries)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetYearReport returns the yearly submission overview.
// GET /api/reports/{year}
func (h *Handler) GetYearReport(w http.ResponseWriter, r *http.Request) {
	if err := requireStaff(actorFrom(r.Context())); err != nil {
		h.respondError(w, err)
		return
	}
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1583 || year > 9999 {
		h.respondError(w, &generic.FieldError{Field: "year", Message: "must be a year"})
		return
	}

	rep, err := h.Reporter.Year(r.Context(), year)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// GetAttendanceReport summarizes one user's presence for a month.
// GET /api/reports/attendance?userId&year&month&canton
func (h *Handler) GetAttendanceReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	year, month, err := h.yearMonth(q.Get("year"), q.Get("month"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	u, err := h.resolveUser(ctx, actorFrom(ctx), q.Get("userId"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	canton := rma.Canton(q.Get("canton"))
	if canton == "" {
		canton = u.PrimaryCenter.Canton()
	}
	if !canton.Valid() {
		h.respondError(w, &generic.FieldError{Field: "canton", Message: "must be FR, VD or GE"})
		return
	}

	sum, err := h.Reporter.Attendance(ctx, u.ID, canton, year, month)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// =============================================================================
// ACCESS
// =============================================================================

func requireStaff(a Actor) error {
	if !a.Role.IsStaff() {
		return fmt.Errorf("role %s: %w", a.Role, generic.ErrForbidden)
	}
	return nil
}

func requireAdmin(a Actor) error {
	if a.Role != rma.RoleAdmin {
		return fmt.Errorf("role %s: %w", a.Role, generic.ErrForbidden)
	}
	return nil
}

// scopeCenter forces center staff onto their own center.
func scopeCenter(a Actor, requested rma.Center) rma.Center {
	if a.Role == rma.RoleStaff {
		return a.Center
	}
	return requested
}

// checkCenter rejects a center outside a staff member's own.
func checkCenter(a Actor, c rma.Center) error {
	if a.Role == rma.RoleStaff && c != a.Center {
		return fmt.Errorf("center %s: %w", c, generic.ErrForbidden)
	}
	return nil
}

// resolveUser loads the user the caller acts on. An empty id means the caller.
func (h *Handler) resolveUser(ctx context.Context, a Actor, id string) (rma.User, error) {
	if id == "" {
		id = a.UserID
	}
	if a.Role == rma.RoleParticipant && id != a.UserID {
		return rma.User{}, fmt.Errorf("user %s: %w", id, generic.ErrForbidden)
	}
	u, err := h.Store.GetUser(ctx, id)
	if err != nil {
		return rma.User{}, err
	}
	if a.Role == rma.RoleStaff && u.PrimaryCenter != a.Center {
		return rma.User{}, fmt.Errorf("user %s at %s: %w", id, u.PrimaryCenter, generic.ErrForbidden)
	}
	return u, nil
}

// loadSubmission fetches a declaration the caller may see.
func (h *Handler) loadSubmission(ctx context.Context, id string) (rma.Submission, error) {
	sub, err := h.Store.GetSubmission(ctx, id)
	if err != nil {
		return rma.Submission{}, err
	}
	a := actorFrom(ctx)
	switch {
	case a.Role == rma.RoleAdmin:
	case a.Role == rma.RoleStaff && sub.Center == a.Center:
	case a.Role == rma.RoleParticipant && sub.UserID == a.UserID:
	default:
		return rma.Submission{}, fmt.Errorf("submission %s: %w", id, generic.ErrForbidden)
	}
	return sub, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// holidayDays returns the holiday days of a month for pre-fill.
func (h *Handler) holidayDays(ctx context.Context, canton rma.Canton, year int, month time.Month) ([]int, error) {
	hs, err := holidays.Effective(ctx, h.Store, canton, year)
	if err != nil {
		return nil, err
	}
	return holidays.MonthDays(hs, month), nil
}

// attendancePeriod reads from/to, or a year with an optional month. Nothing
// given means the current month.
func (h *Handler) attendancePeriod(q url.Values) (generic.Period, error) {
	if q.Get("from") != "" || q.Get("to") != "" {
		start, err := generic.ParseDate(q.Get("from"))
		if err != nil {
			return generic.Period{}, &generic.FieldError{Field: "from", Message: "use YYYY-MM-DD"}
		}
		end, err := generic.ParseDate(q.Get("to"))
		if err != nil {
			return generic.Period{}, &generic.FieldError{Field: "to", Message: "use YYYY-MM-DD"}
		}
		p := generic.Period{Start: start, End: end}
		if err := p.Validate(); err != nil {
			return generic.Period{}, fmt.Errorf("attendance %s: %w", p, err)
		}
		return p, nil
	}
	if q.Get("year") != "" && q.Get("month") == "" {
		year, err := queryInt(q.Get("year"), "year", 0)
		if err != nil {
			return generic.Period{}, err
		}
		return generic.YearPeriod(year), nil
	}
	year, month, err := h.yearMonth(q.Get("year"), q.Get("month"))
	if err != nil {
		return generic.Period{}, err
	}
	return generic.MonthPeriod(year, month), nil
}

func (h *Handler) yearMonth(yearParam, monthParam string) (int, time.Month, error) {
	now := h.now()
	year, err := queryInt(yearParam, "year", now.Year())
	if err != nil {
		return 0, 0, err
	}
	month, err := queryInt(monthParam, "month", int(now.Month()))
	if err != nil {
		return 0, 0, err
	}
	if month < 1 || month > 12 {
		return 0, 0, &generic.FieldError{Field: "month", Message: "must be 1-12"}
	}
	return year, time.Month(month), nil
}

func queryInt(raw, field string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &generic.FieldError{Field: field, Message: "must be a number"}
	}
	return n, nil
}

func addStats(a, b reconciliation.Stats) reconciliation.Stats {
	return reconciliation.Stats{
		Total:                    a.Total + b.Total,
		Matches:                  a.Matches + b.Matches,
		AbsentWhenPlannedPresent: a.AbsentWhenPlannedPresent + b.AbsentWhenPlannedPresent,
		PresentWhenPlannedAbsent: a.PresentWhenPlannedAbsent + b.PresentWhenPlannedAbsent,
		ActualOnly:               a.ActualOnly + b.ActualOnly,
		CodeMismatch:             a.CodeMismatch + b.CodeMismatch,
	}
}

// decode reads a JSON body and runs the struct's validate tags.
func (h *Handler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &generic.FieldError{Field: "body", Message: "invalid JSON"}
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			msg := "failed " + fe.Tag()
			if fe.Param() != "" {
				msg += "=" + fe.Param()
			}
			return &generic.FieldError{Field: fe.Field(), Message: msg}
		}
		return fmt.Errorf("%w: %v", generic.ErrInvalidInput, err)
	}
	return nil
}

// respondError maps domain errors onto HTTP statuses.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, generic.ErrForbidden):
		writeError(w, http.StatusForbidden, "Forbidden", err)
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, generic.ErrDuplicate):
		writeError(w, http.StatusConflict, "Already exists", err)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	default:
		h.Logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal error", nil)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
