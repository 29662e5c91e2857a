package grid

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/kingrea/planner/internal/calendar"
	"github.com/kingrea/planner/internal/plan"
)

// Kind names a cell variant.
type Kind int

const (
	KindEmpty Kind = iota
	KindOncall
	KindSingleProject
	KindMultiWeekSpan
	KindSplit
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindOncall:
		return "oncall"
	case KindSingleProject:
		return "single"
	case KindMultiWeekSpan:
		return "span"
	case KindSplit:
		return "split"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Cell is the resolved state of one (member, week) pair. The variants are
// EmptyCell, OncallCell, SingleProjectCell, MultiWeekSpanCell and SplitCell;
// no other type can implement it.
type Cell interface {
	Kind() Kind
	isCell()
}

// ProjectRef is a project as it appears in a cell.
type ProjectRef struct {
	ID         uuid.UUID
	Name       string
	Color      plan.ProjectColor
	Percentage float64
	// BeforeProjectStart is set when the week precedes the project's start date.
	BeforeProjectStart bool
	Oncall             bool
}

type EmptyCell struct{}

type OncallCell struct {
	Percentage float64
}

type SingleProjectCell struct {
	Project ProjectRef
}

type MultiWeekSpanCell struct {
	Project  ProjectRef
	Position Position
	// TotalWeeks is only set on the last week of the span.
	TotalWeeks int
}

// SplitCell holds two slices summing to 100%, or, when Generic is set, one
// slice per assignment of an allocation that is neither a single project
// nor a two-way full split.
type SplitCell struct {
	Slices  []ProjectRef
	Generic bool
}

func (EmptyCell) Kind() Kind         { return KindEmpty }
func (OncallCell) Kind() Kind        { return KindOncall }
func (SingleProjectCell) Kind() Kind { return KindSingleProject }
func (MultiWeekSpanCell) Kind() Kind { return KindMultiWeekSpan }
func (SplitCell) Kind() Kind         { return KindSplit }

func (EmptyCell) isCell()         {}
func (OncallCell) isCell()        {}
func (SingleProjectCell) isCell() {}
func (MultiWeekSpanCell) isCell() {}
func (SplitCell) isCell()         {}

// BeforeProjectStart reports whether any project in the cell has not started
// by the cell's week.
func BeforeProjectStart(c Cell) bool {
	switch c := c.(type) {
	case SingleProjectCell:
		return c.Project.BeforeProjectStart
	case MultiWeekSpanCell:
		return c.Project.BeforeProjectStart
	case SplitCell:
		for _, s := range c.Slices {
			if s.BeforeProjectStart {
				return true
			}
		}
	}
	return false
}

// ProjectLookup resolves technical projects and their display colour.
// *plan.Index implements it.
type ProjectLookup interface {
	TechnicalProject(id uuid.UUID) (plan.TechnicalProject, bool)
	ProjectColor(p plan.TechnicalProject, fallback plan.ProjectColor) plan.ProjectColor
}

// ResolveCell turns a member's week into exactly one Cell. alloc and span may
// be nil. Percentages above 100% and references to unknown projects are
// returned as errors instead of a degraded cell.
func ResolveCell(memberID uuid.UUID, week calendar.WeekInfo, alloc *plan.Allocation, span *SpanCell, lookup ProjectLookup, oncallID uuid.UUID) (Cell, error) {
	if alloc == nil || alloc.IsEmpty() {
		return EmptyCell{}, nil
	}
	if err := alloc.CheckPercentages(); err != nil {
		return nil, err
	}

	r := resolver{memberID: memberID, week: week.Start, lookup: lookup, oncallID: oncallID}
	assignments := alloc.Assignments

	if len(assignments) == 1 && assignments[0].ProjectID == oncallID {
		return OncallCell{Percentage: assignments[0].Percentage}, nil
	}

	if len(assignments) == 2 && alloc.IsFull() {
		first, err := r.ref(assignments[0], plan.ColorBlue)
		if err != nil {
			return nil, err
		}
		second, err := r.ref(assignments[1], plan.ColorGreen)
		if err != nil {
			return nil, err
		}
		return SplitCell{Slices: []ProjectRef{first, second}}, nil
	}

	if len(assignments) == 1 {
		ref, err := r.ref(assignments[0], plan.ColorBlue)
		if err != nil {
			return nil, err
		}
		if span != nil && span.Span.Weeks >= 2 && span.Span.ProjectID == ref.ID {
			return MultiWeekSpanCell{Project: ref, Position: span.Position, TotalWeeks: span.TotalWeeks()}, nil
		}
		return SingleProjectCell{Project: ref}, nil
	}

	palette := plan.Palette()
	slices := make([]ProjectRef, 0, len(assignments))
	for i, as := range assignments {
		ref, err := r.ref(as, palette[i%len(palette)])
		if err != nil {
			return nil, err
		}
		slices = append(slices, ref)
	}
	return SplitCell{Slices: slices, Generic: true}, nil
}

type resolver struct {
	memberID uuid.UUID
	week     calendar.Date
	lookup   ProjectLookup
	oncallID uuid.UUID
}

func (r resolver) ref(as plan.Assignment, fallback plan.ProjectColor) (ProjectRef, error) {
	if as.ProjectID == r.oncallID {
		return ProjectRef{ID: as.ProjectID, Name: "Oncall", Color: fallback, Percentage: as.Percentage, Oncall: true}, nil
	}
	project, ok := r.lookup.TechnicalProject(as.ProjectID)
	if !ok {
		return ProjectRef{}, &IntegrityError{MemberID: r.memberID, Week: r.week, ProjectID: as.ProjectID}
	}
	return ProjectRef{
		ID:                 project.ID,
		Name:               project.Name,
		Color:              r.lookup.ProjectColor(project, fallback),
		Percentage:         as.Percentage,
		BeforeProjectStart: r.week.Before(project.StartDate),
	}, nil
}
