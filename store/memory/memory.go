// Package memory provides an in-memory rma.Store for tests and demos.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/innopark/rma-engine/generic"
	"github.com/innopark/rma-engine/rma"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	users       map[string]rma.User
	submissions map[string]rma.Submission
	byMonth     map[monthKey]string
	attendance  map[attendanceKey]rma.AttendanceRecord
	holidays    map[string]rma.Holiday
	holidayIDs  map[holidayKey]string
}

type monthKey struct {
	UserID string
	Year   int
	Month  time.Month
}

type attendanceKey struct {
	UserID  string
	Date    string
	HalfDay rma.HalfDay
}

type holidayKey struct {
	Date   string
	Canton rma.Canton
}

var _ rma.Store = (*Memory)(nil)

func New() *Memory {
	return &Memory{
		users:       make(map[string]rma.User),
		submissions: make(map[string]rma.Submission),
		byMonth:     make(map[monthKey]string),
		attendance:  make(map[attendanceKey]rma.AttendanceRecord),
		holidays:    make(map[string]rma.Holiday),
		holidayIDs:  make(map[holidayKey]string),
	}
}

// =============================================================================
// USERS
// =============================================================================

func (m *Memory) SaveUser(_ context.Context, u rma.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	for id, other := range m.users {
		if id != u.ID && other.Email == u.Email {
			return fmt.Errorf("user %s: %w", u.Email, generic.ErrDuplicate)
		}
	}
	if existing, ok := m.users[u.ID]; ok {
		u.CreatedAt = existing.CreatedAt
	} else {
		u.CreatedAt = time.Now().UTC()
	}
	m.users[u.ID] = u
	return nil
}

func (m *Memory) GetUser(_ context.Context, id string) (rma.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return rma.User{}, &generic.NotFoundError{Kind: "user", ID: id}
	}
	return u, nil
}

func (m *Memory) ListUsers(_ context.Context, f rma.UserFilter) ([]rma.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []rma.User
	for _, u := range m.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Center != "" && u.PrimaryCenter != f.Center {
			continue
		}
		if f.ActiveOnly && !u.Active {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// =============================================================================
// SUBMISSIONS
// =============================================================================

func (m *Memory) CreateSubmission(_ context.Context, s rma.Submission) (rma.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := monthKey{UserID: s.UserID, Year: s.Year, Month: s.Month}
	if _, dup := m.byMonth[k]; dup {
		return rma.Submission{}, fmt.Errorf("submission %s %d-%02d: %w", s.UserID, s.Year, s.Month, generic.ErrDuplicate)
	}
	if err := checkSlots(s.Entries); err != nil {
		return rma.Submission{}, err
	}

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Status == "" {
		s.Status = rma.StatusDraft
	}
	now := time.Now().UTC().Truncate(time.Second)
	s.CreatedAt, s.UpdatedAt = now, now
	s.Entries = sortedEntries(s.Entries)

	m.submissions[s.ID] = s
	m.byMonth[k] = s.ID
	return s, nil
}

func (m *Memory) GetSubmission(_ context.Context, id string) (rma.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.submissions[id]
	if !ok {
		return rma.Submission{}, &generic.NotFoundError{Kind: "submission", ID: id}
	}
	s.UserName = m.users[s.UserID].Name
	s.Entries = sortedEntries(s.Entries)
	return s, nil
}

func (m *Memory) ListSubmissions(_ context.Context, f rma.SubmissionFilter) ([]rma.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []rma.Submission
	for _, s := range m.submissions {
		if f.UserID != "" && s.UserID != f.UserID {
			continue
		}
		if f.Year != 0 && s.Year != f.Year {
			continue
		}
		if f.Month != 0 && s.Month != f.Month {
			continue
		}
		if f.Center != "" && s.Center != f.Center {
			continue
		}
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		s.UserName = m.users[s.UserID].Name
		s.Entries = nil
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Year != b.Year {
			return a.Year > b.Year
		}
		if a.Month != b.Month {
			return a.Month > b.Month
		}
		if a.UserName != b.UserName {
			return a.UserName < b.UserName
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (m *Memory) PlannedEntries(_ context.Context, submissionID string) ([]rma.PlannedEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedEntries(m.submissions[submissionID].Entries), nil
}

func (m *Memory) UpdateSubmissionStatus(ctx context.Context, u rma.StatusUpdate) (rma.Submission, error) {
	m.mu.Lock()
	s, ok := m.submissions[u.ID]
	if !ok {
		m.mu.Unlock()
		return rma.Submission{}, &generic.NotFoundError{Kind: "submission", ID: u.ID}
	}
	at := u.At.UTC().Truncate(time.Second)
	s.Status = u.Status
	if u.Status == rma.StatusSubmitted {
		s.SubmittedAt = &at
	} else {
		s.ReviewedBy = u.ReviewedBy
		s.AdminNotes = u.AdminNotes
		s.ReviewedAt = &at
	}
	s.UpdatedAt = at
	m.submissions[u.ID] = s
	m.mu.Unlock()

	return m.GetSubmission(ctx, u.ID)
}

func (m *Memory) UpdateSubmission(ctx context.Context, s rma.Submission) (rma.Submission, error) {
	m.mu.Lock()
	existing, ok := m.submissions[s.ID]
	if !ok {
		m.mu.Unlock()
		return rma.Submission{}, &generic.NotFoundError{Kind: "submission", ID: s.ID}
	}
	if err := checkSlots(s.Entries); err != nil {
		m.mu.Unlock()
		return rma.Submission{}, err
	}
	existing.Center = s.Center
	existing.Entries = sortedEntries(s.Entries)
	existing.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	m.submissions[s.ID] = existing
	m.mu.Unlock()

	return m.GetSubmission(ctx, s.ID)
}

func (m *Memory) DeleteSubmission(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.submissions[id]
	if !ok {
		return &generic.NotFoundError{Kind: "submission", ID: id}
	}
	delete(m.submissions, id)
	delete(m.byMonth, monthKey{UserID: s.UserID, Year: s.Year, Month: s.Month})
	return nil
}

func checkSlots(entries []rma.PlannedEntry) error {
	seen := make(map[rma.Slot]bool, len(entries))
	for _, e := range entries {
		if seen[e.Slot()] {
			return fmt.Errorf("entry %d %s: %w", e.Day, e.HalfDay, generic.ErrDuplicate)
		}
		seen[e.Slot()] = true
	}
	return nil
}

func sortedEntries(entries []rma.PlannedEntry) []rma.PlannedEntry {
	out := append([]rma.PlannedEntry(nil), entries...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Slot().Less(out[j].Slot()) })
	return out
}

// =============================================================================
// ATTENDANCE
// =============================================================================

func (m *Memory) UpsertAttendance(_ context.Context, records []rma.AttendanceRecord) ([]rma.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC().Truncate(time.Second)
	out := make([]rma.AttendanceRecord, 0, len(records))
	for _, r := range records {
		k := attendanceKey{UserID: r.UserID, Date: r.Date.String(), HalfDay: r.HalfDay}
		if existing, ok := m.attendance[k]; ok {
			r.ID = existing.ID
			r.CreatedAt = existing.CreatedAt
		} else {
			r.ID = uuid.NewString()
			r.CreatedAt = now
		}
		r.UpdatedAt = now
		m.attendance[k] = r
		out = append(out, r)
	}
	return out, nil
}

func (m *Memory) Attendance(_ context.Context, userID string, p generic.Period) ([]rma.AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []rma.AttendanceRecord
	for k, r := range m.attendance {
		if k.UserID == userID && p.Contains(r.Date) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].HalfDay.Before(out[j].HalfDay)
	})
	return out, nil
}

func (m *Memory) GetAttendance(_ context.Context, id string) (rma.AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.attendance {
		if r.ID == id {
			return r, nil
		}
	}
	return rma.AttendanceRecord{}, &generic.NotFoundError{Kind: "attendance", ID: id}
}

func (m *Memory) DeleteAttendance(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, r := range m.attendance {
		if r.ID == id {
			delete(m.attendance, k)
			return nil
		}
	}
	return &generic.NotFoundError{Kind: "attendance", ID: id}
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (m *Memory) UpsertHolidays(_ context.Context, hs []rma.Holiday) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, h := range hs {
		k := holidayKey{Date: h.Date.String(), Canton: h.Canton}
		if id, ok := m.holidayIDs[k]; ok {
			existing := m.holidays[id]
			existing.Name = h.Name
			m.holidays[id] = existing
			continue
		}
		if h.ID == "" {
			h.ID = uuid.NewString()
		}
		m.holidays[h.ID] = h
		m.holidayIDs[k] = h.ID
	}
	return len(hs), nil
}

func (m *Memory) ListHolidays(_ context.Context, f rma.HolidayFilter) ([]rma.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []rma.Holiday
	for _, h := range m.holidays {
		if f.Canton != "" && h.Canton != f.Canton {
			continue
		}
		if f.Year != 0 && h.Date.Year() != f.Year {
			continue
		}
		if f.Year != 0 && f.Month != 0 && h.Date.Month() != f.Month {
			continue
		}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Canton < out[j].Canton
	})
	return out, nil
}

func (m *Memory) UpdateHoliday(_ context.Context, h rma.Holiday) (rma.Holiday, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.holidays[h.ID]
	if !ok {
		return rma.Holiday{}, &generic.NotFoundError{Kind: "holiday", ID: h.ID}
	}
	newKey := holidayKey{Date: h.Date.String(), Canton: h.Canton}
	if id, taken := m.holidayIDs[newKey]; taken && id != h.ID {
		return rma.Holiday{}, fmt.Errorf("holiday %s %s: %w", h.Canton, h.Date, generic.ErrDuplicate)
	}

	delete(m.holidayIDs, holidayKey{Date: old.Date.String(), Canton: old.Canton})
	m.holidays[h.ID] = h
	m.holidayIDs[newKey] = h.ID
	return h, nil
}

func (m *Memory) DeleteHoliday(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.holidays[id]
	if !ok {
		return &generic.NotFoundError{Kind: "holiday", ID: id}
	}
	delete(m.holidays, id)
	delete(m.holidayIDs, holidayKey{Date: h.Date.String(), Canton: h.Canton})
	return nil
}

// Reset clears all data.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.users = make(map[string]rma.User)
	m.submissions = make(map[string]rma.Submission)
	m.byMonth = make(map[monthKey]string)
	m.attendance = make(map[attendanceKey]rma.AttendanceRecord)
	m.holidays = make(map[string]rma.Holiday)
	m.holidayIDs = make(map[holidayKey]string)
	return nil
}
