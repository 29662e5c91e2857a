package plan

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/kingrea/planner/internal/calendar"
)

// IssueKind classifies a validation finding.
type IssueKind string

const (
	IssuePercentageOverflow IssueKind = "percentage-overflow"
	IssuePercentageRange    IssueKind = "percentage-range"
	IssueIncompleteWeek     IssueKind = "incomplete-week"
	IssueDuplicateWeek      IssueKind = "duplicate-week"
	IssueUnknownMember      IssueKind = "unknown-member"
	IssueUnknownProject     IssueKind = "unknown-project"
	IssueOverAllocated      IssueKind = "over-allocated"
	IssueBeforeProjectStart IssueKind = "before-project-start"
	IssueOffCalendar        IssueKind = "off-calendar"
)

// Severity tells the caller whether an issue should block an edit.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding from Validate.
type Issue struct {
	Kind      IssueKind
	Severity  Severity
	MemberID  uuid.UUID
	ProjectID uuid.UUID
	Week      calendar.Date
	Message   string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s [%s] %s", i.Severity, i.Kind, i.Message)
}

// Validate inspects a snapshot and reports every invariant violation it
// finds. It never modifies the snapshot.
func Validate(s Snapshot) []Issue {
	idx := NewIndex(s)
	var issues []Issue

	// An invalid calendar is reported by Snapshot.Calendar itself.
	cal, calErr := s.Calendar()

	for _, key := range idx.Duplicates() {
		issues = append(issues, Issue{
			Kind:     IssueDuplicateWeek,
			Severity: SeverityError,
			MemberID: key.TeamMemberID,
			Week:     key.WeekStart,
			Message:  fmt.Sprintf("member %s has more than one allocation for week %s", key.TeamMemberID, key.WeekStart),
		})
	}

	for _, alloc := range s.Plan.Allocations {
		member, memberKnown := idx.Member(alloc.TeamMemberID)
		if !memberKnown {
			issues = append(issues, Issue{
				Kind:     IssueUnknownMember,
				Severity: SeverityError,
				MemberID: alloc.TeamMemberID,
				Week:     alloc.WeekStart,
				Message:  fmt.Sprintf("allocation for week %s references unknown member %s", alloc.WeekStart, alloc.TeamMemberID),
			})
		}
		if calErr == nil && !cal.Contains(alloc.WeekStart) {
			issues = append(issues, Issue{
				Kind:     IssueOffCalendar,
				Severity: SeverityError,
				MemberID: alloc.TeamMemberID,
				Week:     alloc.WeekStart,
				Message:  fmt.Sprintf("allocation for week %s is not a quarter week (%s to %s)", alloc.WeekStart, cal.Start(), cal.End()),
			})
		}
		if err := alloc.CheckPercentages(); err != nil {
			kind := IssuePercentageOverflow
			if errors.Is(err, ErrPercentageRange) {
				kind = IssuePercentageRange
			}
			issues = append(issues, Issue{Kind: kind, Severity: SeverityError, MemberID: alloc.TeamMemberID, Week: alloc.WeekStart, Message: err.Error()})
		} else if !alloc.IsEmpty() && !alloc.IsFull() {
			issues = append(issues, Issue{
				Kind:     IssueIncompleteWeek,
				Severity: SeverityWarning,
				MemberID: alloc.TeamMemberID,
				Week:     alloc.WeekStart,
				Message:  fmt.Sprintf("week %s totals %.0f%%, not 100%%", alloc.WeekStart, alloc.TotalPercentage()),
			})
		}
		for _, as := range alloc.Assignments {
			if as.ProjectID == idx.Oncall() {
				continue
			}
			project, ok := idx.TechnicalProject(as.ProjectID)
			if !ok {
				issues = append(issues, Issue{
					Kind:      IssueUnknownProject,
					Severity:  SeverityError,
					MemberID:  alloc.TeamMemberID,
					ProjectID: as.ProjectID,
					Week:      alloc.WeekStart,
					Message:   fmt.Sprintf("week %s references unknown project %s", alloc.WeekStart, as.ProjectID),
				})
				continue
			}
			if memberKnown && alloc.WeekStart.Before(project.StartDate) {
				issues = append(issues, Issue{
					Kind:      IssueBeforeProjectStart,
					Severity:  SeverityWarning,
					MemberID:  alloc.TeamMemberID,
					ProjectID: as.ProjectID,
					Week:      alloc.WeekStart,
					Message:   fmt.Sprintf("%s is allocated to %s in week %s, before its start on %s", member.Name, project.Name, alloc.WeekStart, project.StartDate),
				})
			}
		}
	}

	for _, member := range s.Preferences.TeamMembers {
		var allocated float64
		for _, alloc := range idx.MemberAllocations(member.ID) {
			allocated += alloc.TotalPercentage() / 100
		}
		if allocated > member.Capacity {
			issues = append(issues, Issue{
				Kind:     IssueOverAllocated,
				Severity: SeverityWarning,
				MemberID: member.ID,
				Message:  fmt.Sprintf("%s is allocated %.1f weeks against a capacity of %.1f", member.Name, allocated, member.Capacity),
			})
		}
	}

	sort.SliceStable(issues, func(a, b int) bool {
		if issues[a].Severity != issues[b].Severity {
			return issues[a].Severity == SeverityError
		}
		return issues[a].Week.Before(issues[b].Week)
	})
	return issues
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}
