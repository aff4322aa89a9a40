/*
Package sqlite provides a SQLite-backed implementation of rma.Store.

PURPOSE:
  Persists users, monthly declarations with their planned entries, actual
  attendance records and canton holidays. It is the persistence collaborator
  the report layer reads from before calling the reconciliation engine.

KEY TABLES:
  users:              Participants and staff
  submissions:        One declaration per (user, year, month)
  planned_entries:    Half-day codes of a declaration (cascade delete)
  attendance_records: One row per (user, date, half_day)
  holidays:           One row per (date, canton)

UPSERTS:
  Attendance and holidays are written with INSERT ... ON CONFLICT DO UPDATE,
  so re-recording a half-day or re-seeding a year never duplicates rows.
  A re-seeded holiday keeps its ID; only the name is refreshed.

CONCURRENCY:
  Uses sync.RWMutex around every statement. SQLite is opened in WAL mode so
  readers don't block each other.

USAGE:
  store, err := sqlite.New("./data/rma.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - rma/store.go: Interface definitions
  - store/memory/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/innopark/rma-engine/generic"
	"github.com/innopark/rma-engine/rma"
)

// Store implements rma.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ rma.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// An in-memory database lives and dies with its connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL,
		primary_center TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS submissions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		center TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'DRAFT',
		admin_notes TEXT NOT NULL DEFAULT '',
		reviewed_by TEXT NOT NULL DEFAULT '',
		submitted_at TEXT,
		reviewed_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(user_id, year, month)
	);

	CREATE INDEX IF NOT EXISTS idx_submissions_period
		ON submissions(year, month, center);

	CREATE TABLE IF NOT EXISTS planned_entries (
		id TEXT PRIMARY KEY,
		submission_id TEXT NOT NULL REFERENCES submissions(id) ON DELETE CASCADE,
		day INTEGER NOT NULL,
		half_day TEXT NOT NULL,
		code TEXT NOT NULL,
		UNIQUE(submission_id, day, half_day)
	);

	CREATE TABLE IF NOT EXISTS attendance_records (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		date TEXT NOT NULL,
		half_day TEXT NOT NULL,
		center TEXT NOT NULL,
		actual_code TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(user_id, date, half_day)
	);

	CREATE INDEX IF NOT EXISTS idx_attendance_user_date
		ON attendance_records(user_id, date);

	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		canton TEXT NOT NULL,
		year INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(date, canton)
	);

	CREATE INDEX IF NOT EXISTS idx_holidays_canton_year
		ON holidays(canton, year);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// USERS
// =============================================================================

// SaveUser inserts or updates a user.
func (s *Store) SaveUser(ctx context.Context, u rma.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	query := `
		INSERT INTO users (id, name, email, role, primary_center, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			role = excluded.role,
			primary_center = excluded.primary_center,
			active = excluded.active
	`
	_, err := s.db.ExecContext(ctx, query,
		u.ID, u.Name, u.Email, u.Role, u.PrimaryCenter, u.Active,
		time.Now().UTC().Format(time.RFC3339),
	)
	if isUniqueConstraintError(err) {
		return fmt.Errorf("user %s: %w", u.Email, generic.ErrDuplicate)
	}
	return err
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (rma.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users, err := s.queryUsers(ctx, "SELECT id, name, email, role, primary_center, active, created_at FROM users WHERE id = ?", id)
	if err != nil {
		return rma.User{}, err
	}
	if len(users) == 0 {
		return rma.User{}, &generic.NotFoundError{Kind: "user", ID: id}
	}
	return users[0], nil
}

// ListUsers returns users matching f, ordered by name.
func (s *Store) ListUsers(ctx context.Context, f rma.UserFilter) ([]rma.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var where []string
	var args []any
	if f.Role != "" {
		where = append(where, "role = ?")
		args = append(args, f.Role)
	}
	if f.Center != "" {
		where = append(where, "primary_center = ?")
		args = append(args, f.Center)
	}
	if f.ActiveOnly {
		where = append(where, "active = TRUE")
	}

	query := "SELECT id, name, email, role, primary_center, active, created_at FROM users" +
		whereClause(where) + " ORDER BY name, id"
	return s.queryUsers(ctx, query, args...)
}

func (s *Store) queryUsers(ctx context.Context, query string, args ...any) ([]rma.User, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []rma.User
	for rows.Next() {
		var u rma.User
		var createdAt string
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PrimaryCenter, &u.Active, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		users = append(users, u)
	}
	return users, rows.Err()
}

// =============================================================================
// SUBMISSIONS
// =============================================================================

// CreateSubmission persists a submission and its entries in one transaction.
func (s *Store) CreateSubmission(ctx context.Context, sub rma.Submission) (rma.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.Status == "" {
		sub.Status = rma.StatusDraft
	}
	now := time.Now().UTC().Truncate(time.Second)
	sub.CreatedAt, sub.UpdatedAt = now, now

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rma.Submission{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO submissions (id, user_id, year, month, center, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.UserID, sub.Year, int(sub.Month), sub.Center, sub.Status,
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return rma.Submission{}, fmt.Errorf("submission %s %d-%02d: %w", sub.UserID, sub.Year, sub.Month, generic.ErrDuplicate)
		}
		return rma.Submission{}, fmt.Errorf("failed to insert submission: %w", err)
	}

	if err := insertEntries(ctx, sqlTx, sub.ID, sub.Entries); err != nil {
		return rma.Submission{}, err
	}

	if err := sqlTx.Commit(); err != nil {
		return rma.Submission{}, err
	}
	return sub, nil
}

func insertEntries(ctx context.Context, sqlTx *sql.Tx, submissionID string, entries []rma.PlannedEntry) error {
	for _, e := range entries {
		_, err := sqlTx.ExecContext(ctx, `
			INSERT INTO planned_entries (id, submission_id, day, half_day, code)
			VALUES (?, ?, ?, ?, ?)`,
			uuid.NewString(), submissionID, e.Day, e.HalfDay, e.Code,
		)
		if err != nil {
			if isUniqueConstraintError(err) {
				return fmt.Errorf("entry %d %s: %w", e.Day, e.HalfDay, generic.ErrDuplicate)
			}
			return fmt.Errorf("failed to insert entry: %w", err)
		}
	}
	return nil
}

// GetSubmission retrieves a submission with its entries.
func (s *Store) GetSubmission(ctx context.Context, id string) (rma.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subs, err := s.querySubmissions(ctx, submissionSelect+" WHERE s.id = ?", id)
	if err != nil {
		return rma.Submission{}, err
	}
	if len(subs) == 0 {
		return rma.Submission{}, &generic.NotFoundError{Kind: "submission", ID: id}
	}

	sub := subs[0]
	sub.Entries, err = s.queryEntries(ctx, id)
	return sub, err
}

// ListSubmissions returns submissions matching f without their entries.
func (s *Store) ListSubmissions(ctx context.Context, f rma.SubmissionFilter) ([]rma.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var where []string
	var args []any
	if f.UserID != "" {
		where = append(where, "s.user_id = ?")
		args = append(args, f.UserID)
	}
	if f.Year != 0 {
		where = append(where, "s.year = ?")
		args = append(args, f.Year)
	}
	if f.Month != 0 {
		where = append(where, "s.month = ?")
		args = append(args, int(f.Month))
	}
	if f.Center != "" {
		where = append(where, "s.center = ?")
		args = append(args, f.Center)
	}
	if f.Status != "" {
		where = append(where, "s.status = ?")
		args = append(args, f.Status)
	}

	query := submissionSelect + whereClause(where) + " ORDER BY s.year DESC, s.month DESC, user_name, s.id"
	return s.querySubmissions(ctx, query, args...)
}

// PlannedEntries returns the entries of one submission ordered by slot.
func (s *Store) PlannedEntries(ctx context.Context, submissionID string) ([]rma.PlannedEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryEntries(ctx, submissionID)
}

// UpdateSubmissionStatus records a workflow transition.
func (s *Store) UpdateSubmissionStatus(ctx context.Context, u rma.StatusUpdate) (rma.Submission, error) {
	s.mu.Lock()
	at := u.At.UTC().Format(time.RFC3339)

	var res sql.Result
	var err error
	if u.Status == rma.StatusSubmitted {
		res, err = s.db.ExecContext(ctx,
			"UPDATE submissions SET status = ?, submitted_at = ?, updated_at = ? WHERE id = ?",
			u.Status, at, at, u.ID)
	} else {
		res, err = s.db.ExecContext(ctx,
			"UPDATE submissions SET status = ?, reviewed_by = ?, admin_notes = ?, reviewed_at = ?, updated_at = ? WHERE id = ?",
			u.Status, u.ReviewedBy, u.AdminNotes, at, at, u.ID)
	}
	s.mu.Unlock()
	if err != nil {
		return rma.Submission{}, fmt.Errorf("failed to update submission: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return rma.Submission{}, &generic.NotFoundError{Kind: "submission", ID: u.ID}
	}
	return s.GetSubmission(ctx, u.ID)
}

// UpdateSubmission swaps the center and the entry set in one transaction.
// A failed insert leaves the previous entries in place.
func (s *Store) UpdateSubmission(ctx context.Context, sub rma.Submission) (rma.Submission, error) {
	if err := s.replaceEntries(ctx, sub); err != nil {
		return rma.Submission{}, err
	}
	return s.GetSubmission(ctx, sub.ID)
}

func (s *Store) replaceEntries(ctx context.Context, sub rma.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	res, err := sqlTx.ExecContext(ctx,
		"UPDATE submissions SET center = ?, updated_at = ? WHERE id = ?",
		sub.Center, now, sub.ID)
	if err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &generic.NotFoundError{Kind: "submission", ID: sub.ID}
	}

	if _, err := sqlTx.ExecContext(ctx, "DELETE FROM planned_entries WHERE submission_id = ?", sub.ID); err != nil {
		return fmt.Errorf("failed to clear entries: %w", err)
	}
	if err := insertEntries(ctx, sqlTx, sub.ID, sub.Entries); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// DeleteSubmission removes a submission; entries go with it.
func (s *Store) DeleteSubmission(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM submissions WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &generic.NotFoundError{Kind: "submission", ID: id}
	}
	return nil
}

const submissionSelect = `
	SELECT s.id, s.user_id, COALESCE(u.name, '') AS user_name, s.year, s.month, s.center,
	       s.status, s.admin_notes, s.reviewed_by, s.submitted_at, s.reviewed_at,
	       s.created_at, s.updated_at
	FROM submissions s
	LEFT JOIN users u ON u.id = s.user_id`

func (s *Store) querySubmissions(ctx context.Context, query string, args ...any) ([]rma.Submission, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	var subs []rma.Submission
	for rows.Next() {
		var sub rma.Submission
		var month int
		var createdAt, updatedAt string
		var submittedAt, reviewedAt sql.NullString
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.UserName, &sub.Year, &month, &sub.Center,
			&sub.Status, &sub.AdminNotes, &sub.ReviewedBy, &submittedAt, &reviewedAt,
			&createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		sub.Month = time.Month(month)
		sub.SubmittedAt = parseNullTime(submittedAt)
		sub.ReviewedAt = parseNullTime(reviewedAt)
		sub.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		sub.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *Store) queryEntries(ctx context.Context, submissionID string) ([]rma.PlannedEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT day, half_day, code FROM planned_entries
		WHERE submission_id = ?
		ORDER BY day ASC, half_day ASC`, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []rma.PlannedEntry
	for rows.Next() {
		var e rma.PlannedEntry
		if err := rows.Scan(&e.Day, &e.HalfDay, &e.Code); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// ATTENDANCE
// =============================================================================

// UpsertAttendance writes all records in one transaction.
func (s *Store) UpsertAttendance(ctx context.Context, records []rma.AttendanceRecord) ([]rma.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	now := time.Now().UTC().Truncate(time.Second)
	out := make([]rma.AttendanceRecord, 0, len(records))
	for _, r := range records {
		_, err := sqlTx.ExecContext(ctx, `
			INSERT INTO attendance_records
				(id, user_id, date, half_day, center, actual_code, notes, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(user_id, date, half_day) DO UPDATE SET
				center = excluded.center,
				actual_code = excluded.actual_code,
				notes = excluded.notes,
				updated_at = excluded.updated_at`,
			uuid.NewString(), r.UserID, r.Date.String(), r.HalfDay, r.Center, r.ActualCode, r.Notes,
			now.Format(time.RFC3339), now.Format(time.RFC3339),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert attendance: %w", err)
		}

		var createdAt string
		err = sqlTx.QueryRowContext(ctx, `
			SELECT id, created_at FROM attendance_records
			WHERE user_id = ? AND date = ? AND half_day = ?`,
			r.UserID, r.Date.String(), r.HalfDay,
		).Scan(&r.ID, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to read back attendance: %w", err)
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		r.UpdatedAt = now
		out = append(out, r)
	}

	if err := sqlTx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

// Attendance returns a user's records within p.
func (s *Store) Attendance(ctx context.Context, userID string, p generic.Period) ([]rma.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, attendanceSelect+`
		WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC, half_day ASC`,
		userID, p.Start.String(), p.End.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	defer rows.Close()

	var records []rma.AttendanceRecord
	for rows.Next() {
		r, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetAttendance retrieves one attendance record by ID.
func (s *Store) GetAttendance(ctx context.Context, id string) (rma.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, attendanceSelect+" WHERE id = ?", id)
	r, err := scanAttendance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return rma.AttendanceRecord{}, &generic.NotFoundError{Kind: "attendance", ID: id}
	}
	return r, err
}

// DeleteAttendance deletes one attendance record by ID.
func (s *Store) DeleteAttendance(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM attendance_records WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &generic.NotFoundError{Kind: "attendance", ID: id}
	}
	return nil
}

const attendanceSelect = `
	SELECT id, user_id, date, half_day, center, actual_code, notes, created_at, updated_at
	FROM attendance_records`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttendance(row rowScanner) (rma.AttendanceRecord, error) {
	var r rma.AttendanceRecord
	var date, createdAt, updatedAt string
	if err := row.Scan(&r.ID, &r.UserID, &date, &r.HalfDay, &r.Center, &r.ActualCode,
		&r.Notes, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rma.AttendanceRecord{}, err
		}
		return rma.AttendanceRecord{}, fmt.Errorf("failed to scan attendance: %w", err)
	}
	r.Date, _ = generic.ParseDate(date)
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	r.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return r, nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// UpsertHolidays writes holidays keyed by (date, canton) and returns how many
// rows were written.
func (s *Store) UpsertHolidays(ctx context.Context, hs []rma.Holiday) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, h := range hs {
		id := h.ID
		if id == "" {
			id = uuid.NewString()
		}
		_, err := sqlTx.ExecContext(ctx, `
			INSERT INTO holidays (id, date, name, canton, year, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(date, canton) DO UPDATE SET
				name = excluded.name`,
			id, h.Date.String(), h.Name, h.Canton, h.Date.Year(), now,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert holiday %s: %w", h.Date, err)
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return 0, err
	}
	return len(hs), nil
}

// ListHolidays returns holidays matching f ordered by date.
func (s *Store) ListHolidays(ctx context.Context, f rma.HolidayFilter) ([]rma.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var where []string
	var args []any
	if f.Canton != "" {
		where = append(where, "canton = ?")
		args = append(args, f.Canton)
	}
	if f.Year != 0 {
		where = append(where, "year = ?")
		args = append(args, f.Year)
		if f.Month != 0 {
			p := generic.MonthPeriod(f.Year, f.Month)
			where = append(where, "date >= ? AND date <= ?")
			args = append(args, p.Start.String(), p.End.String())
		}
	}

	query := "SELECT id, date, name, canton FROM holidays" + whereClause(where) + " ORDER BY date ASC, canton ASC"
	return s.queryHolidays(ctx, query, args...)
}

// UpdateHoliday changes a holiday's date, name or canton.
func (s *Store) UpdateHoliday(ctx context.Context, h rma.Holiday) (rma.Holiday, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE holidays SET date = ?, name = ?, canton = ?, year = ? WHERE id = ?",
		h.Date.String(), h.Name, h.Canton, h.Date.Year(), h.ID,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return rma.Holiday{}, fmt.Errorf("holiday %s %s: %w", h.Canton, h.Date, generic.ErrDuplicate)
		}
		return rma.Holiday{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return rma.Holiday{}, &generic.NotFoundError{Kind: "holiday", ID: h.ID}
	}
	return h, nil
}

// DeleteHoliday deletes a holiday by ID.
func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &generic.NotFoundError{Kind: "holiday", ID: id}
	}
	return nil
}

func (s *Store) queryHolidays(ctx context.Context, query string, args ...any) ([]rma.Holiday, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	var hs []rma.Holiday
	for rows.Next() {
		var h rma.Holiday
		var date string
		if err := rows.Scan(&h.ID, &date, &h.Name, &h.Canton); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		h.Date, _ = generic.ParseDate(date)
		hs = append(hs, h)
	}
	return hs, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"planned_entries", "submissions", "attendance_records", "holidays", "users"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil
	}
	return &t
}

func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
