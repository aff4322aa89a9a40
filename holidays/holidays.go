/*
Package holidays computes Swiss public holidays per canton.

PURPOSE:
  Declarations are pre-filled with holiday slots and the calendar grid shows
  holiday days read-only. Both need the list of public holidays of the
  participant's canton for a given year. This package derives that list from
  the year alone; nothing is looked up.

ALGORITHM:
  Easter Sunday is computed with the Gregorian Computus (Meeus/Jones/Butcher).
  Every moveable feast is a fixed offset from it:
    Good Friday     Easter - 2
    Easter Monday   Easter + 1
    Ascension       Easter + 39
    Whit Monday     Easter + 50
    Corpus Christi  Easter + 60 (FR only)
  September feasts count Sundays from September 1:
    VD  Monday after the third Sunday
    GE  Thursday after the first Sunday

CANTONS:
  All:  Jan 1, Jan 2, Good Friday, Easter Monday, Ascension, Whit Monday,
        Aug 1, Dec 25
  FR:   Corpus Christi, Aug 15, Nov 1, Dec 8
  VD:   Lundi du Jeûne fédéral
  GE:   Fête de Genève (fixed Jun 5), Jeûne genevois, Dec 31

GUARANTEES:
  Compute is pure and total for years >= 1583: same input, same output,
  sorted by date, never empty.

SEE ALSO:
  - calendar.go: Business-day calendar built from the same rules
  - rma/grid.go: PrefillHolidays consumes ForMonth
*/
package holidays

import (
	"sort"
	"time"

	"github.com/innopark/rma-engine/generic"
	"github.com/innopark/rma-engine/rma"
)

// Holiday is one computed public holiday.
type Holiday struct {
	Date generic.TimePoint `json:"date"`
	Name string            `json:"name"`
}

// rule computes one holiday's date for a year.
type rule struct {
	name string
	date func(year int) generic.TimePoint
}

func fixed(name string, month time.Month, day int) rule {
	return rule{name: name, date: func(year int) generic.TimePoint {
		return generic.NewTimePoint(year, month, day)
	}}
}

func easterOffset(name string, days int) rule {
	return rule{name: name, date: func(year int) generic.TimePoint {
		return generic.FromTime(Easter(year)).AddDays(days)
	}}
}

func septemberSunday(name string, days int) rule {
	return rule{name: name, date: func(year int) generic.TimePoint {
		return generic.NewTimePoint(year, time.September, firstSundayOfSeptember(year)+days)
	}}
}

var commonRules = []rule{
	fixed("Nouvel An", time.January, 1),
	fixed("Saint-Berchtold", time.January, 2),
	easterOffset("Vendredi Saint", -2),
	easterOffset("Lundi de Pâques", 1),
	easterOffset("Ascension", 39),
	easterOffset("Lundi de Pentecôte", 50),
	fixed("Fête nationale", time.August, 1),
	fixed("Noël", time.December, 25),
}

var cantonRules = map[rma.Canton][]rule{
	rma.CantonFribourg: {
		easterOffset("Fête-Dieu", 60),
		fixed("Assomption", time.August, 15),
		fixed("Toussaint", time.November, 1),
		fixed("Immaculée Conception", time.December, 8),
	},
	rma.CantonVaud: {
		// third Sunday is firstSunday+14, the holiday is the Monday after
		septemberSunday("Lundi du Jeûne fédéral", 15),
	},
	rma.CantonGeneva: {
		// Kept as a fixed date; no rule is known for it.
		fixed("Fête de Genève", time.June, 5),
		septemberSunday("Jeûne genevois", 4),
		fixed("Restauration de la République", time.December, 31),
	},
}

func rulesFor(canton rma.Canton) []rule {
	specific := cantonRules[canton]
	out := make([]rule, 0, len(commonRules)+len(specific))
	out = append(out, commonRules...)
	return append(out, specific...)
}

// Compute returns the public holidays of canton in year, sorted by date.
// An unsupported canton yields the common holidays only.
func Compute(year int, canton rma.Canton) []Holiday {
	rules := rulesFor(canton)
	out := make([]Holiday, 0, len(rules))
	for _, r := range rules {
		out = append(out, Holiday{Date: r.date(year), Name: r.name})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// ForMonth returns the day-of-month numbers of canton's holidays in month.
func ForMonth(year int, month time.Month, canton rma.Canton) []int {
	var days []int
	for _, h := range Compute(year, canton) {
		if h.Date.Month() == month {
			days = append(days, h.Date.Day())
		}
	}
	return days
}

// Records converts computed holidays into persistable rows for canton.
func Records(canton rma.Canton, hs []Holiday) []rma.Holiday {
	out := make([]rma.Holiday, len(hs))
	for i, h := range hs {
		out[i] = rma.Holiday{Date: h.Date, Name: h.Name, Canton: canton}
	}
	return out
}

// =============================================================================
// DATE ARITHMETIC
// =============================================================================

// Easter returns Easter Sunday of the Gregorian year (valid from 1583).
func Easter(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451

	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// firstSundayOfSeptember returns the day of month of September's first Sunday.
func firstSundayOfSeptember(year int) int {
	wd := int(generic.NewTimePoint(year, time.September, 1).Weekday())
	if wd == 0 {
		return 1
	}
	return 1 + (7 - wd)
}
