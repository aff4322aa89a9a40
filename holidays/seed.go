package holidays

import (
	"context"
	"fmt"

	"github.com/innopark/rma-engine/rma"
)

// Seed computes year's holidays for each canton and upserts them. Running it
// twice leaves the table unchanged. Returns the number of rows written per
// canton.
func Seed(ctx context.Context, store rma.HolidayStore, year int, cantons []rma.Canton) (map[rma.Canton]int, error) {
	if len(cantons) == 0 {
		cantons = rma.Cantons
	}
	seeded := make(map[rma.Canton]int, len(cantons))
	for _, c := range cantons {
		if !c.Valid() {
			return nil, fmt.Errorf("seed %d: unknown canton %q", year, c)
		}
		n, err := store.UpsertHolidays(ctx, Records(c, Compute(year, c)))
		if err != nil {
			return nil, fmt.Errorf("seed %s %d: %w", c, year, err)
		}
		seeded[c] = n
	}
	return seeded, nil
}
