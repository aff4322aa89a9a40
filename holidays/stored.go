package holidays

import (
	"context"
	"fmt"
	"time"

	"github.com/innopark/rma-engine/rma"
)

// Lister reads stored holidays.
type Lister interface {
	ListHolidays(ctx context.Context, f rma.HolidayFilter) ([]rma.Holiday, error)
}

// Effective returns canton's holidays in year as the store has them. A year
// with no stored rows falls back to the calculator, so declaration pre-fill
// and presence rates agree with whatever an admin edited.
func Effective(ctx context.Context, src Lister, canton rma.Canton, year int) ([]rma.Holiday, error) {
	stored, err := src.ListHolidays(ctx, rma.HolidayFilter{Canton: canton, Year: year})
	if err != nil {
		return nil, fmt.Errorf("load holidays %s %d: %w", canton, year, err)
	}
	if len(stored) == 0 {
		return Records(canton, Compute(year, canton)), nil
	}
	return stored, nil
}

// MonthDays returns the day-of-month numbers of the holidays in hs that fall
// in month.
func MonthDays(hs []rma.Holiday, month time.Month) []int {
	var days []int
	for _, h := range hs {
		if h.Date.Month() == month {
			days = append(days, h.Date.Day())
		}
	}
	return days
}
