package grid

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kingrea/planner/internal/calendar"
)

var (
	// ErrUnknownProject marks an assignment whose project is not in the plan.
	ErrUnknownProject = errors.New("unknown technical project")
	// ErrOffCalendar marks an allocation whose week is not a Monday of the
	// quarter, so no column can show it.
	ErrOffCalendar = errors.New("allocation is not on a quarter week")
)

// IntegrityError reports an assignment that references a missing project.
type IntegrityError struct {
	MemberID  uuid.UUID
	Week      calendar.Date
	ProjectID uuid.UUID
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("grid: member %s week %s: %s %s", e.MemberID, e.Week, ErrUnknownProject, e.ProjectID)
}

// Unwrap lets errors.Is match ErrUnknownProject.
func (e *IntegrityError) Unwrap() error { return ErrUnknownProject }

// CellError records a cell that could not be resolved in a best-effort build.
// Week.Number is zero for allocations that fall outside the calendar.
type CellError struct {
	MemberID uuid.UUID
	Week     calendar.WeekInfo
	Err      error
}

func (e *CellError) Error() string {
	label := e.Week.Label()
	if e.Week.Number == 0 {
		label = "off-calendar week"
	}
	return fmt.Sprintf("grid: resolve %s (%s) for member %s: %v", label, e.Week.Start, e.MemberID, e.Err)
}

func (e *CellError) Unwrap() error { return e.Err }
