package generic

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimePoint_JSON(t *testing.T) {
	tp := NewTimePoint(2026, time.September, 10)

	data, err := json.Marshal(tp)
	require.NoError(t, err)
	assert.Equal(t, `"2026-09-10"`, string(data))

	var back TimePoint
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Equal(tp))

	require.NoError(t, json.Unmarshal([]byte(`null`), &back))
	assert.True(t, back.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"10.09.2026"`), &back))
}

func TestFromTime_DropsClock(t *testing.T) {
	tp := FromTime(time.Date(2026, time.March, 31, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, "2026-03-31", tp.String())
	assert.True(t, tp.Equal(NewTimePoint(2026, time.March, 31)))
}

func TestMonthPeriod(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		days  int
	}{
		{2026, time.February, 28},
		{2024, time.February, 29},
		{2026, time.April, 30},
		{2026, time.December, 31},
	}
	for _, tt := range tests {
		p := MonthPeriod(tt.year, tt.month)
		assert.Len(t, p.Days(), tt.days, p.String())
		assert.Equal(t, tt.days, DaysInMonth(tt.year, tt.month))
		assert.True(t, p.Contains(EndOfMonth(tt.year, tt.month)))
		assert.False(t, p.Contains(EndOfMonth(tt.year, tt.month).AddDays(1)))
	}
}

func TestPeriod_Validate(t *testing.T) {
	p := Period{Start: NewTimePoint(2026, 5, 2), End: NewTimePoint(2026, 5, 1)}
	assert.True(t, errors.Is(p.Validate(), ErrInvalidPeriod))
	assert.NoError(t, YearPeriod(2026).Validate())
}

type restorationDay struct{}

func (restorationDay) IsHoliday(region string, date TimePoint) bool {
	return region == "GE" && date.Month() == time.December && date.Day() == 31
}

func TestIsWorkdayIn(t *testing.T) {
	dec31 := NewTimePoint(2026, time.December, 31) // Thursday
	assert.False(t, dec31.IsWorkdayIn(restorationDay{}, "GE"))
	assert.True(t, dec31.IsWorkdayIn(restorationDay{}, "VD"))
	assert.True(t, dec31.IsWorkdayIn(nil, "GE"))
	assert.False(t, NewTimePoint(2026, time.January, 3).IsWorkdayIn(nil, "GE")) // Saturday
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, IsNotFound(&NotFoundError{Kind: "holiday", ID: "h1"}))
	assert.True(t, IsClientError(&FieldError{Field: "month", Message: "must be 1-12"}))
	assert.True(t, IsClientError(ErrInvalidState))
	assert.False(t, IsClientError(ErrForbidden))
	assert.False(t, IsClientError(errors.New("disk full")))
}
