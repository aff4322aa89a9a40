// Package rma holds the vocabulary of the monthly activity declaration (RMA):
// activity codes, half-day slots, cantons, centers and the records that
// participants and staff create.
package rma

import (
	"time"

	"github.com/innopark/rma-engine/generic"
)

// =============================================================================
// ACTIVITY CODES
// =============================================================================

// ActivityCode is the tag written into one half-day slot of a declaration or
// an attendance record. It serializes as its literal letter.
type ActivityCode string

const (
	CodePresent       ActivityCode = "X" // on site
	CodeOffSite       ActivityCode = "O" // off-site assignment
	CodeMandate       ActivityCode = "M" // remote mandate
	CodeIllness       ActivityCode = "A"
	CodeAccident      ActivityCode = "B"
	CodeTrainingExt   ActivityCode = "C" // external training
	CodePersonalLeave ActivityCode = "D"
	CodeJustified     ActivityCode = "E" // other justified absence
	CodeTraining      ActivityCode = "F" // internal training day
	CodeJobSearch     ActivityCode = "G"
	CodeHoliday       ActivityCode = "H"
	CodeUnclassified  ActivityCode = "I"
)

// AllCodes lists every known code in display order.
var AllCodes = []ActivityCode{
	CodePresent, CodeOffSite, CodeIllness, CodeAccident, CodeTrainingExt, CodePersonalLeave,
	CodeJustified, CodeTraining, CodeJobSearch, CodeHoliday, CodeUnclassified, CodeMandate,
}

// CodeClass is the semantic group a code belongs to for reconciliation.
type CodeClass int

const (
	ClassNeutral CodeClass = iota
	ClassPresence
	ClassAbsence
)

func (c CodeClass) String() string {
	switch c {
	case ClassPresence:
		return "presence"
	case ClassAbsence:
		return "absence"
	default:
		return "neutral"
	}
}

// codeClasses is the fixed presence/absence partition. Codes missing from the
// map (holiday, training, unclassified, unknown strings) are neutral.
var codeClasses = map[ActivityCode]CodeClass{
	CodePresent:       ClassPresence,
	CodeOffSite:       ClassPresence,
	CodeMandate:       ClassPresence,
	CodeIllness:       ClassAbsence,
	CodeAccident:      ClassAbsence,
	CodeTrainingExt:   ClassAbsence,
	CodePersonalLeave: ClassAbsence,
	CodeJustified:     ClassAbsence,
	CodeJobSearch:     ClassAbsence,
}

// Class returns the code's class. Unknown codes are neutral.
func (c ActivityCode) Class() CodeClass { return codeClasses[c] }

func (c ActivityCode) IsPresence() bool { return c.Class() == ClassPresence }
func (c ActivityCode) IsAbsence() bool  { return c.Class() == ClassAbsence }

// Valid reports whether c is one of the known codes.
func (c ActivityCode) Valid() bool {
	for _, known := range AllCodes {
		if c == known {
			return true
		}
	}
	return false
}

// =============================================================================
// HALF-DAY SLOTS
// =============================================================================

type HalfDay string

const (
	AM HalfDay = "AM"
	PM HalfDay = "PM"
)

// HalfDays lists both halves in chronological order.
var HalfDays = []HalfDay{AM, PM}

// Before reports whether h sorts before other within the same day.
func (h HalfDay) Before(other HalfDay) bool { return h == AM && other == PM }

func (h HalfDay) Valid() bool { return h == AM || h == PM }

// Slot identifies one half-day within a month.
type Slot struct {
	Day     int
	HalfDay HalfDay
}

// Less orders slots by day, then AM before PM.
func (s Slot) Less(other Slot) bool {
	if s.Day != other.Day {
		return s.Day < other.Day
	}
	return s.HalfDay.Before(other.HalfDay)
}

// =============================================================================
// CANTONS, CENTERS, ROLES
// =============================================================================

type Canton string

const (
	CantonFribourg Canton = "FR"
	CantonVaud     Canton = "VD"
	CantonGeneva   Canton = "GE"
)

// Cantons lists the supported cantons.
var Cantons = []Canton{CantonFribourg, CantonVaud, CantonGeneva}

func (c Canton) Valid() bool {
	return c == CantonFribourg || c == CantonVaud || c == CantonGeneva
}

type Center string

const (
	CenterFribourg Center = "FRIBOURG"
	CenterLausanne Center = "LAUSANNE"
	CenterGeneva   Center = "GENEVA"
)

var Centers = []Center{CenterFribourg, CenterLausanne, CenterGeneva}

var centerCantons = map[Center]Canton{
	CenterFribourg: CantonFribourg,
	CenterLausanne: CantonVaud,
	CenterGeneva:   CantonGeneva,
}

// Canton returns the canton whose holiday calendar applies to the center.
func (c Center) Canton() Canton { return centerCantons[c] }

func (c Center) Valid() bool {
	_, ok := centerCantons[c]
	return ok
}

type Role string

const (
	RoleParticipant Role = "PARTICIPANT"
	RoleStaff       Role = "CENTER_STAFF"
	RoleAdmin       Role = "ADMIN"
)

// IsStaff is true for roles allowed to review other users' data.
func (r Role) IsStaff() bool { return r == RoleStaff || r == RoleAdmin }

// =============================================================================
// RECORDS
// =============================================================================

// User is a participant or staff member.
type User struct {
	ID            string
	Name          string
	Email         string
	Role          Role
	PrimaryCenter Center
	Active        bool
	CreatedAt     time.Time
}

// PlannedEntry is one slot of a declaration.
type PlannedEntry struct {
	Day     int
	HalfDay HalfDay
	Code    ActivityCode
}

func (e PlannedEntry) Slot() Slot { return Slot{Day: e.Day, HalfDay: e.HalfDay} }

// AttendanceRecord is what was actually recorded for one user, date and half-day.
type AttendanceRecord struct {
	ID         string
	UserID     string
	Date       generic.TimePoint
	HalfDay    HalfDay
	Center     Center
	ActualCode ActivityCode
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SubmissionStatus is the review state of a declaration.
type SubmissionStatus string

const (
	StatusDraft             SubmissionStatus = "DRAFT"
	StatusSubmitted         SubmissionStatus = "SUBMITTED"
	StatusApproved          SubmissionStatus = "APPROVED"
	StatusRevisionRequested SubmissionStatus = "REVISION_REQUESTED"
)

// Submission is one user's declaration for one month.
type Submission struct {
	ID        string
	UserID    string
	UserName  string // filled by list queries
	Year      int
	Month     time.Month
	Center    Center
	Status    SubmissionStatus
	Entries   []PlannedEntry

	AdminNotes  string
	ReviewedBy  string
	SubmittedAt *time.Time
	ReviewedAt  *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Holiday is one public holiday of one canton.
type Holiday struct {
	ID     string
	Date   generic.TimePoint
	Name   string
	Canton Canton
}
