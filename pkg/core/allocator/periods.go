package allocator

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// DateLayout is the date format used across inputs and outputs
const DateLayout = "2006-01-02"

var (
	// ErrInvalidBlock is returned when the block end precedes its start
	ErrInvalidBlock = errors.New("block end is before block start")

	// ErrNoPeriods is returned when the block contains no Monday-anchored week
	ErrNoPeriods = errors.New("block contains no periods")
)

// Holiday is a named date used to flag the period containing it
type Holiday struct {
	Name string
	Date time.Time
}

// civilDate truncates t to midnight UTC of its calendar day
func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// dayNumber counts days since the Unix epoch; consecutive dates differ by one
func dayNumber(t time.Time) int {
	return int(civilDate(t).Unix() / 86400)
}

// ParseDate parses a YYYY-MM-DD date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q: %w", s, err)
	}
	return t, nil
}

// BuildPeriods splits [start, end] into weekday and weekend periods.
//
// Weeks are anchored on the first Monday on or after start. Each week yields a
// weekday period (Mon-Fri) and a weekend period (Sat-Sun), both clipped to end.
// Week numbers start at 1. Holidays flag the period containing their date.
func BuildPeriods(start, end time.Time, holidays []Holiday) ([]*Period, error) {
	start = civilDate(start)
	end = civilDate(end)
	if end.Before(start) {
		return nil, ErrInvalidBlock
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: []rrule.Weekday{rrule.MO},
		Dtstart:   start,
		Until:     end,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build week rule: %w", err)
	}

	holidayByDay := make(map[int]string, len(holidays))
	for _, h := range holidays {
		holidayByDay[dayNumber(h.Date)] = h.Name
	}

	var periods []*Period
	for weekIdx, monday := range rule.All() {
		monday = civilDate(monday)
		weekNumber := weekIdx + 1

		for _, span := range []struct {
			kind   PeriodKind
			offset int
			length int
		}{
			{Weekday, 0, 5},
			{Weekend, 5, 2},
		} {
			var dates []time.Time
			for i := 0; i < span.length; i++ {
				d := monday.AddDate(0, 0, span.offset+i)
				if d.After(end) {
					break
				}
				dates = append(dates, d)
			}
			if len(dates) == 0 {
				continue
			}

			period := &Period{
				Index:      len(periods),
				Kind:       span.kind,
				WeekNumber: weekNumber,
				Dates:      dates,
				days:       make([]int, len(dates)),
			}
			for i, d := range dates {
				period.days[i] = dayNumber(d)
				if name, ok := holidayByDay[period.days[i]]; ok {
					period.Holiday = name
				}
			}
			periods = append(periods, period)
		}
	}

	if len(periods) == 0 {
		return nil, ErrNoPeriods
	}

	return periods, nil
}
