/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  Request types carry go-playground/validator tags. Handlers run the
  validator before touching the store; domain checks that need context
  (month length, workflow state) happen afterwards.

SEE ALSO:
  - handlers.go: Uses these types
  - rma/types.go: Domain records
*/
package api

import (
	"time"

	"github.com/innopark/rma-engine/generic"
	"github.com/innopark/rma-engine/reconciliation"
	"github.com/innopark/rma-engine/rma"
)

// =============================================================================
// USERS
// =============================================================================

type UserDTO struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Role          rma.Role   `json:"role"`
	PrimaryCenter rma.Center `json:"primaryCenter"`
	Active        bool       `json:"active"`
	CreatedAt     time.Time  `json:"createdAt"`
}

type CreateUserRequest struct {
	ID            string `json:"id"`
	Name          string `json:"name" validate:"required,max=200"`
	Email         string `json:"email" validate:"required,email"`
	Role          string `json:"role" validate:"required,oneof=PARTICIPANT CENTER_STAFF ADMIN"`
	PrimaryCenter string `json:"primaryCenter" validate:"required,oneof=FRIBOURG LAUSANNE GENEVA"`
	Active        *bool  `json:"active"`
}

// UpdateUserRequest replaces a user's profile. A missing active flag keeps
// the current value.
type UpdateUserRequest struct {
	Name          string `json:"name" validate:"required,max=200"`
	Email         string `json:"email" validate:"required,email"`
	Role          string `json:"role" validate:"required,oneof=PARTICIPANT CENTER_STAFF ADMIN"`
	PrimaryCenter string `json:"primaryCenter" validate:"required,oneof=FRIBOURG LAUSANNE GENEVA"`
	Active        *bool  `json:"active"`
}

func toUserDTO(u rma.User) UserDTO {
	return UserDTO{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Role:          u.Role,
		PrimaryCenter: u.PrimaryCenter,
		Active:        u.Active,
		CreatedAt:     u.CreatedAt,
	}
}

// =============================================================================
// HOLIDAYS
// =============================================================================

type HolidayDTO struct {
	ID     string     `json:"id"`
	Date   string     `json:"date"`
	Name   string     `json:"name"`
	Canton rma.Canton `json:"canton"`
}

type HolidayRequest struct {
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
	Name   string `json:"name" validate:"required,max=200"`
	Canton string `json:"canton" validate:"required,oneof=FR VD GE"`
}

type SeedHolidaysRequest struct {
	Year    int      `json:"year" validate:"required,min=1583,max=9999"`
	Cantons []string `json:"cantons" validate:"omitempty,dive,oneof=FR VD GE"`
}

type SeedHolidaysResponse struct {
	Year   int                `json:"year"`
	Seeded map[rma.Canton]int `json:"seeded"`
}

func toHolidayDTO(h rma.Holiday) HolidayDTO {
	return HolidayDTO{ID: h.ID, Date: h.Date.String(), Name: h.Name, Canton: h.Canton}
}

// =============================================================================
// ATTENDANCE
// =============================================================================

type AttendanceDTO struct {
	ID         string           `json:"id"`
	UserID     string           `json:"userId"`
	Date       string           `json:"date"`
	HalfDay    rma.HalfDay      `json:"halfDay"`
	Center     rma.Center       `json:"center"`
	ActualCode rma.ActivityCode `json:"actualCode"`
	Notes      string           `json:"notes,omitempty"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

type AttendanceRequest struct {
	UserID     string `json:"userId"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	HalfDay    string `json:"halfDay" validate:"required,oneof=AM PM"`
	Center     string `json:"center" validate:"omitempty,oneof=FRIBOURG LAUSANNE GENEVA"`
	ActualCode string `json:"actualCode" validate:"required,len=1"`
	Notes      string `json:"notes" validate:"max=1000"`
}

// BatchAttendanceRequest records both halves of a day at once.
type BatchAttendanceRequest struct {
	Entries []AttendanceRequest `json:"entries" validate:"required,min=1,max=2,dive"`
}

func toAttendanceDTO(r rma.AttendanceRecord) AttendanceDTO {
	return AttendanceDTO{
		ID:         r.ID,
		UserID:     r.UserID,
		Date:       r.Date.String(),
		HalfDay:    r.HalfDay,
		Center:     r.Center,
		ActualCode: r.ActualCode,
		Notes:      r.Notes,
		UpdatedAt:  r.UpdatedAt,
	}
}

// =============================================================================
// DECLARATIONS
// =============================================================================

type EntryDTO struct {
	Day     int              `json:"day"`
	HalfDay rma.HalfDay      `json:"halfDay"`
	Code    rma.ActivityCode `json:"code"`
}

type SubmissionDTO struct {
	ID          string               `json:"id"`
	UserID      string               `json:"userId"`
	UserName    string               `json:"userName,omitempty"`
	Year        int                  `json:"year"`
	Month       int                  `json:"month"`
	Center      rma.Center           `json:"center"`
	Status      rma.SubmissionStatus `json:"status"`
	Entries     []EntryDTO           `json:"entries,omitempty"`
	AdminNotes  string               `json:"adminNotes,omitempty"`
	ReviewedBy  string               `json:"reviewedBy,omitempty"`
	SubmittedAt *time.Time           `json:"submittedAt,omitempty"`
	ReviewedAt  *time.Time           `json:"reviewedAt,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
}

type EntryRequest struct {
	Day     int    `json:"day" validate:"min=1,max=31"`
	HalfDay string `json:"halfDay" validate:"required,oneof=AM PM"`
	Code    string `json:"code" validate:"required,len=1"`
}

type CreateSubmissionRequest struct {
	UserID  string         `json:"userId"`
	Year    int            `json:"year" validate:"required,min=2000,max=2100"`
	Month   int            `json:"month" validate:"required,min=1,max=12"`
	Center  string         `json:"center" validate:"omitempty,oneof=FRIBOURG LAUSANNE GENEVA"`
	Entries []EntryRequest `json:"entries" validate:"dive"`
}

// UpdateSubmissionRequest replaces a declaration's entries. An empty center
// keeps the current one.
type UpdateSubmissionRequest struct {
	Center  string         `json:"center" validate:"omitempty,oneof=FRIBOURG LAUSANNE GENEVA"`
	Entries []EntryRequest `json:"entries" validate:"dive"`
}

type ReviewRequest struct {
	Action     string `json:"action" validate:"required,oneof=APPROVED REVISION_REQUESTED"`
	AdminNotes string `json:"adminNotes" validate:"max=2000"`
}

func toPlannedEntries(reqs []EntryRequest) []rma.PlannedEntry {
	entries := make([]rma.PlannedEntry, 0, len(reqs))
	for _, e := range reqs {
		entries = append(entries, rma.PlannedEntry{Day: e.Day, HalfDay: rma.HalfDay(e.HalfDay), Code: rma.ActivityCode(e.Code)})
	}
	return entries
}

func toSubmissionDTO(s rma.Submission) SubmissionDTO {
	dto := SubmissionDTO{
		ID:          s.ID,
		UserID:      s.UserID,
		UserName:    s.UserName,
		Year:        s.Year,
		Month:       int(s.Month),
		Center:      s.Center,
		Status:      s.Status,
		AdminNotes:  s.AdminNotes,
		ReviewedBy:  s.ReviewedBy,
		SubmittedAt: s.SubmittedAt,
		ReviewedAt:  s.ReviewedAt,
		CreatedAt:   s.CreatedAt,
	}
	for _, e := range s.Entries {
		dto.Entries = append(dto.Entries, EntryDTO{Day: e.Day, HalfDay: e.HalfDay, Code: e.Code})
	}
	return dto
}

// =============================================================================
// RECONCILIATION
// =============================================================================

// ReconciliationResponse wraps per-user results with month totals.
type ReconciliationResponse struct {
	Year    int                     `json:"year"`
	Month   int                     `json:"month"`
	Center  rma.Center              `json:"center,omitempty"`
	Results []reconciliation.Result `json:"results"`
	Totals  reconciliation.Stats    `json:"totals"`

	// DiscrepanciesOnly is set when matching entries were left out of
	// Results. Stats and Totals always count every entry.
	DiscrepanciesOnly bool `json:"discrepanciesOnly,omitempty"`
}

// ErrorResponse is returned for all errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func parseDate(s string) (generic.TimePoint, error) {
	tp, err := generic.ParseDate(s)
	if err != nil {
		return generic.TimePoint{}, &generic.FieldError{Field: "date", Message: "use YYYY-MM-DD"}
	}
	return tp, nil
}
