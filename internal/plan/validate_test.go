package plan

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issueKinds(issues []Issue) map[IssueKind]int {
	kinds := map[IssueKind]int{}
	for _, issue := range issues {
		kinds[issue.Kind]++
	}
	return kinds
}

func TestValidateCleanPlan(t *testing.T) {
	f := newFixture()
	// Research starts in week 3 and is first assigned in week 4.
	issues := Validate(f.snapshot())
	assert.Empty(t, issues)
	assert.False(t, HasErrors(issues))
}

func TestValidateReportsEveryViolation(t *testing.T) {
	f := newFixture()
	ghostMember := uuid.New()
	ghostProject := uuid.New()
	f.allocations = append(f.allocations,
		Allocation{TeamMemberID: f.bob.ID, WeekStart: weekN(1), Assignments: []Assignment{
			{ProjectID: f.payments.ID, Percentage: 80},
			{ProjectID: f.research.ID, Percentage: 40},
		}},
		Allocation{TeamMemberID: f.bob.ID, WeekStart: weekN(2), Assignments: []Assignment{{ProjectID: f.research.ID, Percentage: 50}}},
		Allocation{TeamMemberID: f.bob.ID, WeekStart: weekN(3), Assignments: []Assignment{{ProjectID: ghostProject, Percentage: 100}}},
		Allocation{TeamMemberID: ghostMember, WeekStart: weekN(5), Assignments: []Assignment{{ProjectID: f.payments.ID, Percentage: 100}}},
		Allocation{TeamMemberID: f.bob.ID, WeekStart: weekN(3), Assignments: []Assignment{{ProjectID: f.payments.ID, Percentage: 100}}},
	)

	issues := Validate(f.snapshot())
	kinds := issueKinds(issues)
	assert.Equal(t, 1, kinds[IssuePercentageOverflow])
	assert.Equal(t, 1, kinds[IssueIncompleteWeek])
	assert.Equal(t, 1, kinds[IssueUnknownProject])
	assert.Equal(t, 1, kinds[IssueUnknownMember])
	assert.Equal(t, 1, kinds[IssueDuplicateWeek])
	// Bob: weeks 1 (1.2) + 2 (0.5) + first week-3 entry (1.0) against capacity 2.
	assert.Equal(t, 1, kinds[IssueOverAllocated])
	// Bob on research in week 1 and 2 precedes its week-3 start.
	assert.Equal(t, 2, kinds[IssueBeforeProjectStart])
	assert.True(t, HasErrors(issues))
	assert.Equal(t, SeverityError, issues[0].Severity, "errors sort first")
}

func TestValidateSkipsOncallProjectChecks(t *testing.T) {
	f := newFixture()
	f.allocations = append(f.allocations, Allocation{
		TeamMemberID: f.bob.ID,
		WeekStart:    weekN(1),
		Assignments:  []Assignment{{ProjectID: OncallProjectID, Percentage: 100}},
	})
	issues := Validate(f.snapshot())
	require.Empty(t, issues)
}

func TestValidateReportsOffCalendarWeeks(t *testing.T) {
	f := newFixture()
	ghostProject := uuid.New()
	f.allocations = append(f.allocations,
		// Tuesday of week 1.
		Allocation{TeamMemberID: f.bob.ID, WeekStart: week1.AddDays(1), Assignments: []Assignment{{ProjectID: f.payments.ID, Percentage: 100}}},
		// The Monday after the quarter ends.
		Allocation{TeamMemberID: f.bob.ID, WeekStart: weekN(14), Assignments: []Assignment{{ProjectID: ghostProject, Percentage: 100}}},
	)

	issues := Validate(f.snapshot())
	kinds := issueKinds(issues)
	assert.Equal(t, 2, kinds[IssueOffCalendar])
	assert.Equal(t, 1, kinds[IssueUnknownProject])
	assert.True(t, HasErrors(issues))

	var weeks []string
	for _, issue := range issues {
		if issue.Kind == IssueOffCalendar {
			assert.Equal(t, SeverityError, issue.Severity)
			weeks = append(weeks, issue.Week.String())
		}
	}
	assert.ElementsMatch(t, []string{"2025-01-07", "2025-04-07"}, weeks)
}
