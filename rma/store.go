/*
store.go - Persistence interfaces for declarations, attendance and holidays

PURPOSE:
  Defines the interface between the domain logic and the database.
  The reconciliation engine and the holiday calculator never touch these;
  the report layer and the HTTP handlers do.

KEY INTERFACES:
  SubmissionStore: Declarations and their planned entries
  AttendanceStore: Actual half-day attendance per user
  HolidayStore:    Canton holidays, upserted by (date, canton)
  UserStore:       Participants and staff
  Store:           All of the above

UNIQUENESS:
  - One submission per (user, year, month)
  - One planned entry per (submission, day, half-day)
  - One attendance record per (user, date, half-day); writes are upserts
  - One holiday per (date, canton); writes are upserts

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - store/memory/memory.go: In-memory for testing

SEE ALSO:
  - report/reconcile.go: Main consumer
  - api/handlers.go: CRUD consumer
*/
package rma

import (
	"context"
	"time"

	"github.com/innopark/rma-engine/generic"
)

// SubmissionFilter narrows ListSubmissions. Zero values mean "any".
type SubmissionFilter struct {
	UserID string
	Year   int
	Month  time.Month
	Center Center
	Status SubmissionStatus
}

// UserFilter narrows ListUsers. Zero values mean "any".
type UserFilter struct {
	Role       Role
	Center     Center
	ActiveOnly bool
}

// HolidayFilter narrows ListHolidays. Zero values mean "any".
type HolidayFilter struct {
	Canton Canton
	Year   int
	Month  time.Month
}

// StatusUpdate is one workflow transition of a submission.
type StatusUpdate struct {
	ID         string
	Status     SubmissionStatus
	ReviewedBy string
	AdminNotes string
	At         time.Time
}

type SubmissionStore interface {
	// CreateSubmission persists a submission with its entries.
	// Returns generic.ErrDuplicate if the user already declared that month.
	CreateSubmission(ctx context.Context, s Submission) (Submission, error)

	// GetSubmission returns the submission with entries, or a NotFoundError.
	GetSubmission(ctx context.Context, id string) (Submission, error)

	// ListSubmissions returns submissions without entries.
	ListSubmissions(ctx context.Context, f SubmissionFilter) ([]Submission, error)

	// PlannedEntries returns the entries of one submission.
	PlannedEntries(ctx context.Context, submissionID string) ([]PlannedEntry, error)

	// UpdateSubmissionStatus records a workflow transition. Submitting sets
	// SubmittedAt; approving or requesting a revision sets ReviewedBy,
	// AdminNotes and ReviewedAt. Transition rules are checked by the caller.
	UpdateSubmissionStatus(ctx context.Context, u StatusUpdate) (Submission, error)

	// UpdateSubmission replaces the center and the full entry set of an
	// existing submission in one transaction. Status and review fields are
	// left alone.
	UpdateSubmission(ctx context.Context, s Submission) (Submission, error)

	// DeleteSubmission removes a submission and its entries.
	DeleteSubmission(ctx context.Context, id string) error
}

type AttendanceStore interface {
	// UpsertAttendance writes records atomically, keyed by (user, date, half-day).
	UpsertAttendance(ctx context.Context, records []AttendanceRecord) ([]AttendanceRecord, error)

	// Attendance returns a user's records within p, ordered by date then half-day.
	Attendance(ctx context.Context, userID string, p generic.Period) ([]AttendanceRecord, error)

	// GetAttendance returns one record, or a NotFoundError.
	GetAttendance(ctx context.Context, id string) (AttendanceRecord, error)

	DeleteAttendance(ctx context.Context, id string) error
}

type HolidayStore interface {
	// UpsertHolidays writes holidays keyed by (date, canton); an existing row
	// keeps its ID and takes the new name.
	UpsertHolidays(ctx context.Context, hs []Holiday) (int, error)

	ListHolidays(ctx context.Context, f HolidayFilter) ([]Holiday, error)
	UpdateHoliday(ctx context.Context, h Holiday) (Holiday, error)
	DeleteHoliday(ctx context.Context, id string) error
}

type UserStore interface {
	SaveUser(ctx context.Context, u User) error
	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context, f UserFilter) ([]User, error)
}

// Store is the full persistence collaborator.
type Store interface {
	SubmissionStore
	AttendanceStore
	HolidayStore
	UserStore
}
