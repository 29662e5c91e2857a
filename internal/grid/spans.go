package grid

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/kingrea/planner/internal/calendar"
	"github.com/kingrea/planner/internal/plan"
)

// Position tags a week's place inside a span.
type Position int

const (
	PositionStandalone Position = iota
	PositionFirst
	PositionMiddle
	PositionLast
)

func (p Position) String() string {
	switch p {
	case PositionStandalone:
		return "standalone"
	case PositionFirst:
		return "first"
	case PositionMiddle:
		return "middle"
	case PositionLast:
		return "last"
	default:
		return fmt.Sprintf("position(%d)", int(p))
	}
}

// Span is a maximal run of consecutive weeks a member gives fully to one
// project.
type Span struct {
	MemberID  uuid.UUID
	ProjectID uuid.UUID
	// Start and End are the Mondays of the first and last week.
	Start calendar.Date
	End   calendar.Date
	Weeks int
}

// PositionOf returns where week falls in the span.
func (s Span) PositionOf(week calendar.Date) (Position, bool) {
	if week.Before(s.Start) || week.After(s.End) {
		return 0, false
	}
	if days := week.DaysSince(s.Start); days%7 != 0 {
		return 0, false
	}
	switch {
	case s.Weeks == 1:
		return PositionStandalone, true
	case week.Equal(s.Start):
		return PositionFirst, true
	case week.Equal(s.End):
		return PositionLast, true
	default:
		return PositionMiddle, true
	}
}

// SpanCell is the span information for a single week.
type SpanCell struct {
	Span     Span
	Position Position
}

// TotalWeeks is the span length on its last week and zero elsewhere.
func (c SpanCell) TotalWeeks() int {
	if c.Position == PositionLast {
		return c.Span.Weeks
	}
	return 0
}

// eligible reports whether an allocation can take part in a span: exactly
// one assignment at 100% that is not oncall.
func eligible(alloc plan.Allocation, oncallID uuid.UUID) bool {
	return alloc.IsSingleFull() && alloc.Assignments[0].ProjectID != oncallID
}

// DetectSpans groups a member's full single-project weeks into spans. Input
// order does not matter. Weeks outside cal are ignored; a nil cal accepts
// every week. When a week appears more than once only the first after
// sorting by project id is used.
func DetectSpans(memberID uuid.UUID, allocs []plan.Allocation, cal *calendar.Calendar, oncallID uuid.UUID) []Span {
	type entry struct {
		week    calendar.Date
		project uuid.UUID
	}
	entries := make([]entry, 0, len(allocs))
	for _, alloc := range allocs {
		if alloc.TeamMemberID != memberID || !eligible(alloc, oncallID) {
			continue
		}
		if cal != nil && !cal.Contains(alloc.WeekStart) {
			continue
		}
		entries = append(entries, entry{week: alloc.WeekStart, project: alloc.Assignments[0].ProjectID})
	}
	sort.Slice(entries, func(a, b int) bool {
		if c := entries[a].week.Compare(entries[b].week); c != 0 {
			return c < 0
		}
		return bytes.Compare(entries[a].project[:], entries[b].project[:]) < 0
	})

	var spans []Span
	var lastWeek calendar.Date
	for i, e := range entries {
		if i > 0 && e.week.Equal(lastWeek) {
			continue
		}
		lastWeek = e.week
		if n := len(spans); n > 0 {
			cur := &spans[n-1]
			if cur.ProjectID == e.project && e.week.DaysSince(cur.End) == 7 {
				cur.End = e.week
				cur.Weeks++
				continue
			}
		}
		spans = append(spans, Span{MemberID: memberID, ProjectID: e.project, Start: e.week, End: e.week, Weeks: 1})
	}
	return spans
}

// SpanIndex maps a week's Monday to its span information.
type SpanIndex map[calendar.Date]SpanCell

// IndexSpans expands spans week by week.
func IndexSpans(spans []Span) SpanIndex {
	idx := make(SpanIndex)
	for _, s := range spans {
		for i := 0; i < s.Weeks; i++ {
			week := s.Start.AddWeeks(i)
			pos, _ := s.PositionOf(week)
			idx[week] = SpanCell{Span: s, Position: pos}
		}
	}
	return idx
}

// At returns the span information for week, or nil.
func (idx SpanIndex) At(week calendar.Date) *SpanCell {
	cell, ok := idx[week]
	if !ok {
		return nil
	}
	return &cell
}
