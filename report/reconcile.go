/*
reconcile.go - Loads declarations and attendance, then reconciles them

PURPOSE:
  The reconciliation engine is pure; it never reads storage. Reconciler is
  the caller that fetches one month of submissions, loads each user's
  planned entries and recorded attendance, reduces attendance dates to day
  of month and hands both lists to reconciliation.Reconcile.

CONCURRENCY:
  Each submission is loaded and reconciled in its own goroutine, bounded by
  Concurrency. The first load error cancels the rest and is returned.

ORDERING:
  Results are sorted by user name, then user ID, so the report is stable
  regardless of goroutine scheduling.

SEE ALSO:
  - reconciliation/engine.go: The classification itself
  - rma/store.go: Source is a subset of rma.Store
*/
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/innopark/rma-engine/generic"
	"github.com/innopark/rma-engine/reconciliation"
	"github.com/innopark/rma-engine/rma"
)

// DefaultConcurrency bounds parallel loads when none is configured.
const DefaultConcurrency = 8

// Source is the read side of the persistence collaborator.
type Source interface {
	ListSubmissions(ctx context.Context, f rma.SubmissionFilter) ([]rma.Submission, error)
	PlannedEntries(ctx context.Context, submissionID string) ([]rma.PlannedEntry, error)
	Attendance(ctx context.Context, userID string, p generic.Period) ([]rma.AttendanceRecord, error)
	ListUsers(ctx context.Context, f rma.UserFilter) ([]rma.User, error)
	ListHolidays(ctx context.Context, f rma.HolidayFilter) ([]rma.Holiday, error)
}

// MonthQuery selects the submissions to reconcile. Center and UserID are optional.
type MonthQuery struct {
	Year   int
	Month  time.Month
	Center rma.Center
	UserID string
}

func (q MonthQuery) Validate() error {
	if q.Year < 1583 || q.Year > 9999 {
		return &generic.FieldError{Field: "year", Message: "out of range"}
	}
	if q.Month < time.January || q.Month > time.December {
		return &generic.FieldError{Field: "month", Message: "must be 1-12"}
	}
	if q.Center != "" && !q.Center.Valid() {
		return &generic.FieldError{Field: "center", Message: "unknown center " + string(q.Center)}
	}
	return nil
}

// Reconciler reconciles every declaration of a month.
type Reconciler struct {
	Source      Source
	Logger      *zap.Logger
	Concurrency int
}

func NewReconciler(src Source, logger *zap.Logger, concurrency int) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Reconciler{Source: src, Logger: logger, Concurrency: concurrency}
}

// Month returns one Result per submission matching q.
func (r *Reconciler) Month(ctx context.Context, q MonthQuery) ([]reconciliation.Result, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	subs, err := r.Source.ListSubmissions(ctx, rma.SubmissionFilter{
		UserID: q.UserID,
		Year:   q.Year,
		Month:  q.Month,
		Center: q.Center,
	})
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}

	period := generic.MonthPeriod(q.Year, q.Month)
	results := make([]reconciliation.Result, len(subs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Concurrency)
	for i, sub := range subs {
		i, sub := i, sub
		g.Go(func() error {
			res, err := r.reconcileOne(gctx, sub, period)
			if err != nil {
				return fmt.Errorf("submission %s: %w", sub.ID, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.Logger.Error("reconciliation failed",
			zap.Int("year", q.Year),
			zap.Int("month", int(q.Month)),
			zap.Error(err))
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].UserName != results[j].UserName {
			return results[i].UserName < results[j].UserName
		}
		return results[i].UserID < results[j].UserID
	})

	r.Logger.Debug("month reconciled",
		zap.Int("year", q.Year),
		zap.Int("month", int(q.Month)),
		zap.String("center", string(q.Center)),
		zap.Int("submissions", len(results)))
	return results, nil
}

func (r *Reconciler) reconcileOne(ctx context.Context, sub rma.Submission, period generic.Period) (reconciliation.Result, error) {
	var planned []rma.PlannedEntry
	var records []rma.AttendanceRecord

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		planned, err = r.Source.PlannedEntries(gctx, sub.ID)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = r.Source.Attendance(gctx, sub.UserID, period)
		return err
	})
	if err := g.Wait(); err != nil {
		return reconciliation.Result{}, err
	}

	entries := reconciliation.Reconcile(planned, Actuals(records))
	return reconciliation.Result{
		UserID:   sub.UserID,
		UserName: sub.UserName,
		Year:     sub.Year,
		Month:    sub.Month,
		Center:   sub.Center,
		Entries:  entries,
		Stats:    reconciliation.ComputeStats(entries),
	}, nil
}

// Actuals reduces attendance records to day-of-month slots. Records are
// expected to belong to a single month.
func Actuals(records []rma.AttendanceRecord) []reconciliation.Actual {
	out := make([]reconciliation.Actual, len(records))
	for i, rec := range records {
		out[i] = reconciliation.Actual{
			Day:     rec.Date.Day(),
			HalfDay: rec.HalfDay,
			Code:    rec.ActualCode,
		}
	}
	return out
}
