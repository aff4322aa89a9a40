package holidays_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innopark/rma-engine/holidays"
	"github.com/innopark/rma-engine/rma"
	"github.com/innopark/rma-engine/store/memory"
)

func TestSeed_AllCantonsIdempotent(t *testing.T) {
	// GIVEN: An empty store
	store := memory.New()
	ctx := context.Background()

	// WHEN: 2026 is seeded twice with no canton list
	seeded, err := holidays.Seed(ctx, store, 2026, nil)
	require.NoError(t, err)
	_, err = holidays.Seed(ctx, store, 2026, nil)
	require.NoError(t, err)

	// THEN: Every canton has exactly its computed holidays
	assert.Equal(t, map[rma.Canton]int{rma.CantonFribourg: 12, rma.CantonVaud: 9, rma.CantonGeneva: 11}, seeded)
	all, err := store.ListHolidays(ctx, rma.HolidayFilter{Year: 2026})
	require.NoError(t, err)
	assert.Len(t, all, 32)
}

func TestSeed_KeepsIDsAndRestoresNames(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	_, err := holidays.Seed(ctx, store, 2026, []rma.Canton{rma.CantonVaud})
	require.NoError(t, err)

	hs, err := store.ListHolidays(ctx, rma.HolidayFilter{Canton: rma.CantonVaud, Year: 2026, Month: 9})
	require.NoError(t, err)
	require.Len(t, hs, 1)
	renamed := hs[0]
	renamed.Name = "Jeûne"
	_, err = store.UpdateHoliday(ctx, renamed)
	require.NoError(t, err)

	_, err = holidays.Seed(ctx, store, 2026, []rma.Canton{rma.CantonVaud})
	require.NoError(t, err)

	hs, err = store.ListHolidays(ctx, rma.HolidayFilter{Canton: rma.CantonVaud, Year: 2026, Month: 9})
	require.NoError(t, err)
	require.Len(t, hs, 1)
	assert.Equal(t, renamed.ID, hs[0].ID)
	assert.Equal(t, "Lundi du Jeûne fédéral", hs[0].Name)
}

func TestSeed_UnknownCanton(t *testing.T) {
	_, err := holidays.Seed(context.Background(), memory.New(), 2026, []rma.Canton{"ZH"})
	assert.ErrorContains(t, err, "ZH")
}
