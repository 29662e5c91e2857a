package calendar

import (
	"errors"
	"fmt"
	"iter"
)

var (
	// ErrInvalidWeekCount is returned when a quarter has no weeks.
	ErrInvalidWeekCount = errors.New("week count must be at least 1")
	// ErrInvalidSprintLength is returned for a sprint length below one week.
	ErrInvalidSprintLength = errors.New("sprint length must be at least 1 week")
)

// WeekInfo describes one column of the allocation grid.
type WeekInfo struct {
	// Start is always a Monday.
	Start Date
	// Number is the 1-based position of the week within the quarter.
	Number int
	// SprintIndex counts sprints from the global anchor. Weeks before the
	// anchor have negative indexes.
	SprintIndex int
	// SprintNumber is SprintIndex + 1.
	SprintNumber int
	// SprintStart marks the first week of its sprint.
	SprintStart bool
}

// Label renders "Week 3".
func (w WeekInfo) Label() string { return fmt.Sprintf("Week %d", w.Number) }

// SprintLabel renders "Sprint 27".
func (w WeekInfo) SprintLabel() string { return fmt.Sprintf("Sprint %d", w.SprintNumber) }

// Calendar is the week sequence of one quarter. Weeks are computed on demand
// from the four configuration values, so iterating twice yields the same
// sequence and nothing is shared between callers.
type Calendar struct {
	start        Date
	weekCount    int
	anchor       Date
	sprintLength int
}

// Generate validates the configuration and returns the quarter's calendar.
// The quarter start is moved back to the Monday of its week.
func Generate(quarterStart Date, weekCount int, anchor Date, sprintLength int) (*Calendar, error) {
	if weekCount < 1 {
		return nil, fmt.Errorf("calendar: %w (got %d)", ErrInvalidWeekCount, weekCount)
	}
	if sprintLength < 1 {
		return nil, fmt.Errorf("calendar: %w (got %d)", ErrInvalidSprintLength, sprintLength)
	}
	if quarterStart.IsZero() {
		return nil, fmt.Errorf("calendar: quarter start date is required")
	}
	if anchor.IsZero() {
		return nil, fmt.Errorf("calendar: sprint anchor date is required")
	}
	return &Calendar{
		start:        quarterStart.Monday(),
		weekCount:    weekCount,
		anchor:       anchor,
		sprintLength: sprintLength,
	}, nil
}

// GenerateWeeks is Generate followed by Weeks.
func GenerateWeeks(quarterStart Date, weekCount int, anchor Date, sprintLength int) ([]WeekInfo, error) {
	cal, err := Generate(quarterStart, weekCount, anchor, sprintLength)
	if err != nil {
		return nil, err
	}
	return cal.Weeks(), nil
}

// Len returns the number of weeks in the quarter.
func (c *Calendar) Len() int { return c.weekCount }

// Start returns the Monday of the first week.
func (c *Calendar) Start() Date { return c.start }

// End returns the Monday of the last week.
func (c *Calendar) End() Date { return c.start.AddWeeks(c.weekCount - 1) }

// Anchor returns the sprint anchor the calendar was generated with.
func (c *Calendar) Anchor() Date { return c.anchor }

// SprintLength returns the sprint length in weeks.
func (c *Calendar) SprintLength() int { return c.sprintLength }

// Week returns the i-th (0-based) week. It panics when i is out of range.
func (c *Calendar) Week(i int) WeekInfo {
	if i < 0 || i >= c.weekCount {
		panic(fmt.Sprintf("calendar: week index %d out of range [0,%d)", i, c.weekCount))
	}
	start := c.start.AddWeeks(i)
	offset := floorDiv(start.DaysSince(c.anchor), 7)
	sprint := floorDiv(offset, c.sprintLength)
	return WeekInfo{
		Start:        start,
		Number:       i + 1,
		SprintIndex:  sprint,
		SprintNumber: sprint + 1,
		SprintStart:  floorMod(offset, c.sprintLength) == 0,
	}
}

// All yields (index, week) pairs in order. The sequence can be ranged over
// any number of times.
func (c *Calendar) All() iter.Seq2[int, WeekInfo] {
	return func(yield func(int, WeekInfo) bool) {
		for i := 0; i < c.weekCount; i++ {
			if !yield(i, c.Week(i)) {
				return
			}
		}
	}
}

// Weeks materialises the full sequence.
func (c *Calendar) Weeks() []WeekInfo {
	weeks := make([]WeekInfo, 0, c.weekCount)
	for _, w := range c.All() {
		weeks = append(weeks, w)
	}
	return weeks
}

// IndexOf returns the 0-based index of the week whose Monday is start.
func (c *Calendar) IndexOf(start Date) (int, bool) {
	days := start.DaysSince(c.start)
	if days < 0 || days%7 != 0 {
		return 0, false
	}
	idx := days / 7
	if idx >= c.weekCount {
		return 0, false
	}
	return idx, true
}

// Contains reports whether start is the Monday of one of the quarter's weeks.
func (c *Calendar) Contains(start Date) bool {
	_, ok := c.IndexOf(start)
	return ok
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// floorMod is the remainder paired with floorDiv; it has the sign of b.
func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}
