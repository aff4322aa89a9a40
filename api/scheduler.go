/*
scheduler.go - Automated holiday seeding

PURPOSE:
  Keeps the holidays table populated so declaration pre-fill and the admin
  holiday screen have rows for the current and upcoming years without a
  manual seed.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Each pass computes the current year through current+YearsAhead for
    every configured canton and upserts them by (date, canton)
  - Upserts are idempotent, so repeated passes change nothing; admin
    renames are overwritten only on rows the calculator also produces

CONFIGURATION:
  - CheckInterval: How often to run (default: 24 hours)
  - YearsAhead:    Years after the current one to seed (default: 1)
  - Cantons:       Cantons to seed (default: FR, VD, GE)
  - Enabled:       Whether the scheduler is active (default: true)

USAGE:
  scheduler := NewHolidayScheduler(store, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: SeedHolidays endpoint (manual seeding)
  - holidays/seed.go: Seed
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/innopark/rma-engine/holidays"
	"github.com/innopark/rma-engine/rma"
)

// HolidayScheduler seeds canton holidays on a fixed interval.
type HolidayScheduler struct {
	Store         rma.HolidayStore
	Logger        *zap.Logger
	CheckInterval time.Duration
	YearsAhead    int
	Cantons       []rma.Canton
	Enabled       bool

	now    func() time.Time
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewHolidayScheduler creates a new scheduler with default settings.
func NewHolidayScheduler(store rma.HolidayStore, logger *zap.Logger) *HolidayScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HolidayScheduler{
		Store:         store,
		Logger:        logger.Named("scheduler"),
		CheckInterval: 24 * time.Hour,
		YearsAhead:    1,
		Cantons:       rma.Cantons,
		Enabled:       true,
		now:           time.Now,
		stop:          make(chan struct{}),
	}
}

// Start begins the scheduler.
func (hs *HolidayScheduler) Start() {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	if !hs.Enabled {
		hs.Logger.Info("disabled, not starting")
		return
	}
	if hs.ticker != nil {
		return
	}

	hs.ticker = time.NewTicker(hs.CheckInterval)
	hs.stop = make(chan struct{})
	hs.wg.Add(1)

	go hs.run()

	hs.Logger.Info("started",
		zap.Duration("check_interval", hs.CheckInterval),
		zap.Time("next_run", hs.NextRunTime()))
}

// Stop stops the scheduler and waits for a running pass to finish.
func (hs *HolidayScheduler) Stop() {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	if hs.ticker != nil {
		hs.ticker.Stop()
		close(hs.stop)
		hs.wg.Wait()
		hs.ticker = nil
		hs.Logger.Info("stopped")
	}
}

func (hs *HolidayScheduler) run() {
	defer hs.wg.Done()

	// Run immediately on start
	hs.RunNow(context.Background())

	for {
		select {
		case <-hs.ticker.C:
			hs.RunNow(context.Background())
		case <-hs.stop:
			return
		}
	}
}

// RunNow seeds every configured year and canton once and returns the number
// of rows written. Failures are logged and skipped.
func (hs *HolidayScheduler) RunNow(ctx context.Context) int {
	first := hs.now().Year()
	written := 0

	for year := first; year <= first+hs.YearsAhead; year++ {
		seeded, err := holidays.Seed(ctx, hs.Store, year, hs.Cantons)
		if err != nil {
			hs.Logger.Error("seed failed", zap.Int("year", year), zap.Error(err))
			continue
		}
		for _, n := range seeded {
			written += n
		}
	}

	hs.Logger.Debug("holidays seeded",
		zap.Int("from", first),
		zap.Int("to", first+hs.YearsAhead),
		zap.Int("rows", written),
		zap.Time("next_run", hs.NextRunTime()))
	return written
}

// NextRunTime returns when the next scheduled pass will occur.
func (hs *HolidayScheduler) NextRunTime() time.Time {
	return hs.now().Add(hs.CheckInterval)
}
