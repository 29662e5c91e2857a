package plan

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/planner/internal/calendar"
)

var week1 = calendar.MustParseDate("2025-01-06")

func weekN(n int) calendar.Date { return week1.AddWeeks(n - 1) }

func TestAllocationPercentages(t *testing.T) {
	member := uuid.New()
	empty := Allocation{TeamMemberID: member, WeekStart: week1}
	assert.True(t, empty.IsEmpty())
	assert.False(t, empty.IsFull())
	assert.Zero(t, empty.TotalPercentage())
	require.NoError(t, empty.CheckPercentages())

	full := Allocation{TeamMemberID: member, WeekStart: week1, Assignments: []Assignment{{ProjectID: uuid.New(), Percentage: 100}}}
	assert.True(t, full.IsFull())
	assert.True(t, full.IsSingleFull())

	split := Allocation{TeamMemberID: member, WeekStart: week1, Assignments: []Assignment{
		{ProjectID: uuid.New(), Percentage: 60},
		{ProjectID: uuid.New(), Percentage: 40},
	}}
	assert.True(t, split.IsFull())
	assert.False(t, split.IsSingleFull())
	assert.Equal(t, 100.0, split.TotalPercentage())

	partial := Allocation{TeamMemberID: member, WeekStart: week1, Assignments: []Assignment{{ProjectID: uuid.New(), Percentage: 60}}}
	assert.False(t, partial.IsFull())
	assert.False(t, partial.IsSingleFull())
	require.NoError(t, partial.CheckPercentages())
}

func TestCheckPercentagesReportsWithoutClamping(t *testing.T) {
	over := Allocation{TeamMemberID: uuid.New(), WeekStart: week1, Assignments: []Assignment{
		{ProjectID: uuid.New(), Percentage: 70},
		{ProjectID: uuid.New(), Percentage: 50},
	}}
	require.ErrorIs(t, over.CheckPercentages(), ErrPercentageOverflow)
	assert.Equal(t, 120.0, over.TotalPercentage(), "totals are reported, not clamped")

	negative := Allocation{TeamMemberID: uuid.New(), WeekStart: week1, Assignments: []Assignment{{ProjectID: uuid.New(), Percentage: -5}}}
	require.ErrorIs(t, negative.CheckPercentages(), ErrPercentageRange)

	noisy := Allocation{TeamMemberID: uuid.New(), WeekStart: week1, Assignments: []Assignment{
		{ProjectID: uuid.New(), Percentage: 33.33},
		{ProjectID: uuid.New(), Percentage: 66.67},
	}}
	require.NoError(t, noisy.CheckPercentages())
	assert.True(t, noisy.IsFull())
}

func TestParseRole(t *testing.T) {
	for input, want := range map[string]Role{"eng": RoleEngineering, " Science ": RoleScience, "SDE": RoleEngineering} {
		got, err := ParseRole(input)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseRole("pm")
	require.ErrorIs(t, err, ErrUnknownRole)
	assert.Equal(t, "SDE", RoleEngineering.ShortName())
	assert.Equal(t, "AS", RoleScience.ShortName())
}

func TestProjectColorDecoding(t *testing.T) {
	var doc struct {
		Color ProjectColor `yaml:"color"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("color: Teal\n"), &doc))
	assert.Equal(t, ColorTeal, doc.Color)
	assert.Equal(t, "#2DD4BF", doc.Color.Hex())

	err := yaml.Unmarshal([]byte("color: beige\n"), &doc)
	require.ErrorIs(t, err, ErrUnknownColor)
	assert.Len(t, Palette(), 9)
	assert.Equal(t, ColorBlue.Hex(), ProjectColor("").Hex())
}

func TestEmptyColorAndRoleDecodeToZero(t *testing.T) {
	var doc struct {
		Color ProjectColor `yaml:"color"`
		Role  Role         `yaml:"role"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("color: \"\"\nrole: \"\"\n"), &doc))
	assert.Equal(t, ProjectColor(""), doc.Color)
	assert.Equal(t, Role(""), doc.Role)
}

func TestPreferencesValidate(t *testing.T) {
	prefs := NewPreferences(DefaultTeamName)
	require.NoError(t, prefs.Validate())
	assert.Equal(t, 2, prefs.SprintLength)
	assert.Equal(t, 12.0, prefs.DefaultCapacity)
	assert.Equal(t, OncallProjectID, prefs.Oncall())

	blank := prefs
	blank.TeamName = "  "
	require.ErrorIs(t, blank.Validate(), ErrEmptyTeamName)

	for _, length := range []int{0, 5} {
		bad := prefs
		bad.SprintLength = length
		require.ErrorIs(t, bad.Validate(), ErrInvalidSprintLength)
	}

	for _, capacity := range []float64{0, -1} {
		bad := prefs
		bad.DefaultCapacity = capacity
		require.ErrorIs(t, bad.Validate(), ErrInvalidDefaultCapacity)
	}

	custom := prefs
	custom.OncallProjectID = uuid.Nil
	assert.Equal(t, OncallProjectID, custom.Oncall())
}

func TestIndexLookups(t *testing.T) {
	f := newFixture()
	idx := NewIndex(f.snapshot())

	m, ok := idx.Member(f.alice.ID)
	require.True(t, ok)
	assert.Equal(t, "Alice", m.Name)

	_, ok = idx.TechnicalProject(uuid.New())
	assert.False(t, ok)

	alloc, ok := idx.Allocation(f.alice.ID, weekN(2))
	require.True(t, ok)
	assert.Equal(t, f.payments.ID, alloc.Assignments[0].ProjectID)

	allocs := idx.MemberAllocations(f.alice.ID)
	require.Len(t, allocs, 4)
	for i := 1; i < len(allocs); i++ {
		assert.True(t, allocs[i-1].WeekStart.Before(allocs[i].WeekStart))
	}

	assert.Equal(t, ColorOrange, idx.ProjectColor(f.payments, ColorBlue))
	assert.Equal(t, ColorGreen, idx.ProjectColor(f.research, ColorGreen))
	assert.Contains(t, idx.String(), "members=2")
}

func TestIndexReportsDuplicateKeys(t *testing.T) {
	f := newFixture()
	f.allocations = append(f.allocations, Allocation{
		TeamMemberID: f.alice.ID,
		WeekStart:    weekN(1),
		Assignments:  []Assignment{{ProjectID: f.research.ID, Percentage: 100}},
	})
	idx := NewIndex(f.snapshot())
	dups := idx.Duplicates()
	require.Len(t, dups, 1)
	assert.Equal(t, Key{TeamMemberID: f.alice.ID, WeekStart: weekN(1)}, dups[0])

	alloc, ok := idx.Allocation(f.alice.ID, weekN(1))
	require.True(t, ok)
	assert.Equal(t, f.payments.ID, alloc.Assignments[0].ProjectID, "first allocation wins")

	unique := idx.Allocations()
	assert.Len(t, unique, len(f.allocations)-1)
	for _, a := range unique {
		assert.False(t, a.Key() == dups[0] && a.HasProject(f.research.ID), "shadowed duplicate must be dropped")
	}
}

func TestSnapshotCalendar(t *testing.T) {
	f := newFixture()
	cal, err := f.snapshot().Calendar()
	require.NoError(t, err)
	assert.Equal(t, 13, cal.Len())

	bad := f.snapshot()
	bad.Preferences.SprintLength = 0
	_, err = bad.Calendar()
	require.ErrorIs(t, err, calendar.ErrInvalidSprintLength)
}

type fixture struct {
	alice, bob  TeamMember
	roadmap     RoadmapProject
	payments    TechnicalProject
	research    TechnicalProject
	allocations []Allocation
}

func newFixture() *fixture {
	f := &fixture{
		alice: TeamMember{ID: uuid.New(), Name: "Alice", Role: RoleEngineering, Capacity: 12},
		bob:   TeamMember{ID: uuid.New(), Name: "Bob", Role: RoleScience, Capacity: 2},
	}
	f.roadmap = RoadmapProject{ID: uuid.New(), Name: "Payments", EngEstimate: 8, Color: ColorOrange, StartDate: week1, LaunchDate: weekN(13)}
	f.payments = NewTechnicalProject("Payment API", &f.roadmap.ID, 8, 0, week1)
	f.research = NewTechnicalProject("Algorithm Research", nil, 0, 6, weekN(3))
	for n := 1; n <= 3; n++ {
		f.allocations = append(f.allocations, Allocation{
			TeamMemberID: f.alice.ID,
			WeekStart:    weekN(n),
			Assignments:  []Assignment{{ProjectID: f.payments.ID, Percentage: 100}},
		})
	}
	f.allocations = append(f.allocations, Allocation{
		TeamMemberID: f.alice.ID,
		WeekStart:    weekN(4),
		Assignments: []Assignment{
			{ProjectID: f.payments.ID, Percentage: 60},
			{ProjectID: f.research.ID, Percentage: 40},
		},
	})
	return f
}

func (f *fixture) snapshot() Snapshot {
	prefs := NewPreferences("Backend")
	prefs.SprintAnchor = week1
	prefs.TeamMembers = []TeamMember{f.alice, f.bob}
	p := New("Q1 2025", week1, DefaultWeeksInQuarter)
	p.RoadmapProjects = []RoadmapProject{f.roadmap}
	p.TechnicalProjects = []TechnicalProject{f.payments, f.research}
	p.Allocations = append([]Allocation(nil), f.allocations...)
	return Snapshot{Preferences: prefs, Plan: p}
}
