package calendar

import (
	"fmt"
	"time"
)

// Quarter identifies a fiscal quarter.
type Quarter struct {
	Year   int
	Number int
	// FirstDay is the first calendar day (Jan 1, Apr 1, Jul 1, Oct 1).
	FirstDay Date
	// Start is the first Monday on or after FirstDay.
	Start Date
}

// Name renders "Q1 2025".
func (q Quarter) Name() string { return fmt.Sprintf("Q%d %d", q.Number, q.Year) }

// QuarterOf returns quarter number q of year.
func QuarterOf(year, q int) (Quarter, error) {
	if q < 1 || q > 4 {
		return Quarter{}, fmt.Errorf("calendar: quarter must be 1-4, got %d", q)
	}
	first := NewDate(year, time.Month(3*(q-1)+1), 1)
	return Quarter{Year: year, Number: q, FirstDay: first, Start: FirstMonday(first)}, nil
}

// NextQuarter returns the first quarter of today's year whose first day is on
// or after today, rolling to Q1 of next year once Q4 has begun.
func NextQuarter(today Date) Quarter {
	for q := 1; q <= 4; q++ {
		quarter, _ := QuarterOf(today.Year(), q)
		if !quarter.FirstDay.Before(today) {
			return quarter
		}
	}
	quarter, _ := QuarterOf(today.Year()+1, 1)
	return quarter
}

// WeekStart returns the Monday on or before d.
func WeekStart(d Date) Date { return d.Monday() }

// FirstMonday returns the Monday on or after d.
func FirstMonday(d Date) Date {
	monday := d.Monday()
	if monday.Equal(d) {
		return d
	}
	return monday.AddWeeks(1)
}

// SprintBounds returns the first Monday and the last Sunday of the
// anchor-relative sprint containing weekStart.
func SprintBounds(weekStart, anchor Date, sprintLength int) (Date, Date, error) {
	if sprintLength < 1 {
		return Date{}, Date{}, fmt.Errorf("calendar: %w (got %d)", ErrInvalidSprintLength, sprintLength)
	}
	offset := floorDiv(weekStart.DaysSince(anchor), 7)
	sprint := floorDiv(offset, sprintLength)
	start := anchor.AddWeeks(sprint * sprintLength)
	end := start.AddWeeks(sprintLength).AddDays(-1)
	return start, end, nil
}
