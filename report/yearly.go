package report

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/innopark/rma-engine/generic"
	"github.com/innopark/rma-engine/holidays"
	"github.com/innopark/rma-engine/rma"
)

// =============================================================================
// YEARLY REPORT
// =============================================================================

// MonthSummary counts the declarations of one month.
type MonthSummary struct {
	Month          time.Month                   `json:"month"`
	Submissions    int                          `json:"submissions"`
	ByStatus       map[rma.SubmissionStatus]int `json:"byStatus"`
	SubmissionRate decimal.Decimal              `json:"submissionRate"` // percent of active participants
}

// CenterSummary counts the declarations filed at one center over the year.
type CenterSummary struct {
	Center       rma.Center `json:"center"`
	Submissions  int        `json:"submissions"`
	Participants int        `json:"participants"`
}

// YearReport is the administrative overview of a year.
type YearReport struct {
	Year               int                      `json:"year"`
	ActiveParticipants int                      `json:"activeParticipants"`
	TotalSubmissions   int                      `json:"totalSubmissions"`
	Months             []MonthSummary           `json:"months"`
	Centers            []CenterSummary          `json:"centers"`
	CodeDistribution   map[rma.ActivityCode]int `json:"codeDistribution"`
}

// Reporter builds aggregate reports over the stored declarations.
type Reporter struct {
	Source      Source
	Logger      *zap.Logger
	Concurrency int
}

func NewReporter(src Source, logger *zap.Logger, concurrency int) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Reporter{Source: src, Logger: logger, Concurrency: concurrency}
}

// Year aggregates every submission of year.
func (r *Reporter) Year(ctx context.Context, year int) (YearReport, error) {
	subs, err := r.Source.ListSubmissions(ctx, rma.SubmissionFilter{Year: year})
	if err != nil {
		return YearReport{}, fmt.Errorf("list submissions: %w", err)
	}
	participants, err := r.Source.ListUsers(ctx, rma.UserFilter{Role: rma.RoleParticipant, ActiveOnly: true})
	if err != nil {
		return YearReport{}, fmt.Errorf("list participants: %w", err)
	}

	rep := YearReport{
		Year:               year,
		ActiveParticipants: len(participants),
		TotalSubmissions:   len(subs),
		Months:             make([]MonthSummary, 12),
		CodeDistribution:   make(map[rma.ActivityCode]int),
	}
	for i := range rep.Months {
		rep.Months[i] = MonthSummary{Month: time.Month(i + 1), ByStatus: make(map[rma.SubmissionStatus]int)}
	}

	centers := make(map[rma.Center]*CenterSummary, len(rma.Centers))
	for _, c := range rma.Centers {
		centers[c] = &CenterSummary{Center: c}
	}
	for _, p := range participants {
		if cs, ok := centers[p.PrimaryCenter]; ok {
			cs.Participants++
		}
	}

	for _, s := range subs {
		if s.Month < time.January || s.Month > time.December {
			continue
		}
		m := &rep.Months[s.Month-1]
		m.Submissions++
		m.ByStatus[s.Status]++
		if cs, ok := centers[s.Center]; ok {
			cs.Submissions++
		}
	}
	for i := range rep.Months {
		rep.Months[i].SubmissionRate = Percent(rep.Months[i].Submissions, rep.ActiveParticipants)
	}
	for _, c := range rma.Centers {
		rep.Centers = append(rep.Centers, *centers[c])
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Concurrency)
	for _, s := range subs {
		s := s
		g.Go(func() error {
			entries, err := r.Source.PlannedEntries(gctx, s.ID)
			if err != nil {
				return fmt.Errorf("submission %s: %w", s.ID, err)
			}
			mu.Lock()
			defer mu.Unlock()
			for _, e := range entries {
				rep.CodeDistribution[e.Code]++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return YearReport{}, err
	}

	r.Logger.Debug("yearly report built",
		zap.Int("year", year),
		zap.Int("submissions", rep.TotalSubmissions),
		zap.Int("participants", rep.ActiveParticipants))
	return rep, nil
}

// =============================================================================
// ATTENDANCE SUMMARY
// =============================================================================

// AttendanceSummary compares a user's recorded presence with the working
// half-days of a month.
type AttendanceSummary struct {
	UserID          string          `json:"userId"`
	Year            int             `json:"year"`
	Month           time.Month      `json:"month"`
	Canton          rma.Canton      `json:"canton"`
	WorkingHalfDays int             `json:"workingHalfDays"`
	RecordedSlots   int             `json:"recordedSlots"`
	PresentHalfDays int             `json:"presentHalfDays"`
	AbsentHalfDays  int             `json:"absentHalfDays"`
	PresenceRate    decimal.Decimal `json:"presenceRate"` // percent of working half-days
}

// Attendance summarizes one user's month. Working half-days exclude weekends
// and the canton's holidays, taken from the same stored rows declaration
// pre-fill uses.
func (r *Reporter) Attendance(ctx context.Context, userID string, canton rma.Canton, year int, month time.Month) (AttendanceSummary, error) {
	period := generic.MonthPeriod(year, month)
	records, err := r.Source.Attendance(ctx, userID, period)
	if err != nil {
		return AttendanceSummary{}, fmt.Errorf("load attendance: %w", err)
	}
	hs, err := holidays.Effective(ctx, r.Source, canton, year)
	if err != nil {
		return AttendanceSummary{}, err
	}

	sum := AttendanceSummary{UserID: userID, Year: year, Month: month, Canton: canton, RecordedSlots: len(records)}
	sum.WorkingHalfDays = holidays.NewStoredCalendar(hs).WorkdaysIn(canton, period) * len(rma.HalfDays)
	for _, rec := range records {
		switch {
		case rec.ActualCode.IsPresence():
			sum.PresentHalfDays++
		case rec.ActualCode.IsAbsence():
			sum.AbsentHalfDays++
		}
	}
	sum.PresenceRate = Percent(sum.PresentHalfDays, sum.WorkingHalfDays)
	return sum, nil
}

// Percent returns n/total as a whole percentage. Zero total yields zero.
func Percent(n, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(n)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(0)
}
