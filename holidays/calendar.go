package holidays

import (
	"time"

	cal "github.com/rickar/cal/v2"

	"github.com/innopark/rma-engine/generic"
	"github.com/innopark/rma-engine/rma"
)

// Calendar returns a business calendar (Mon-Fri workweek) whose holidays are
// canton's public holidays, for any year.
func Calendar(canton rma.Canton) *cal.BusinessCalendar {
	c := cal.NewBusinessCalendar()
	for _, r := range rulesFor(canton) {
		r := r
		c.AddHoliday(&cal.Holiday{
			Name: r.name,
			Type: cal.ObservancePublic,
			Func: func(_ *cal.Holiday, year int) time.Time { return r.date(year).Time },
		})
	}
	return c
}

// CantonCalendar adapts per-canton business calendars to generic.HolidayCalendar.
type CantonCalendar struct {
	calendars map[rma.Canton]*cal.BusinessCalendar
}

// NewCantonCalendar builds calendars for every supported canton.
func NewCantonCalendar() *CantonCalendar {
	cc := &CantonCalendar{calendars: make(map[rma.Canton]*cal.BusinessCalendar, len(rma.Cantons))}
	for _, c := range rma.Cantons {
		cc.calendars[c] = Calendar(c)
	}
	return cc
}

// NewStoredCalendar builds calendars holding exactly the given rows. Each row
// is a holiday in its own year only.
func NewStoredCalendar(hs []rma.Holiday) *CantonCalendar {
	cc := &CantonCalendar{calendars: make(map[rma.Canton]*cal.BusinessCalendar)}
	for _, h := range hs {
		c, ok := cc.calendars[h.Canton]
		if !ok {
			c = cal.NewBusinessCalendar()
			cc.calendars[h.Canton] = c
		}
		c.AddHoliday(&cal.Holiday{
			Name:      h.Name,
			Type:      cal.ObservancePublic,
			Month:     h.Date.Month(),
			Day:       h.Date.Day(),
			StartYear: h.Date.Year(),
			EndYear:   h.Date.Year(),
			Func:      cal.CalcDayOfMonth,
		})
	}
	return cc
}

var _ generic.HolidayCalendar = (*CantonCalendar)(nil)

// IsHoliday implements generic.HolidayCalendar. Region is a canton code.
func (cc *CantonCalendar) IsHoliday(region string, date generic.TimePoint) bool {
	c, ok := cc.calendars[rma.Canton(region)]
	if !ok {
		return false
	}
	actual, _, _ := c.IsHoliday(date.Time)
	return actual
}

// WorkdaysIn counts the days of p that are neither weekends nor holidays in canton.
func (cc *CantonCalendar) WorkdaysIn(canton rma.Canton, p generic.Period) int {
	n := 0
	for _, d := range p.Days() {
		if d.IsWorkdayIn(cc, string(canton)) {
			n++
		}
	}
	return n
}
