package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/planner/internal/calendar"
	"github.com/kingrea/planner/internal/config"
	"github.com/kingrea/planner/internal/plan"
	"github.com/kingrea/planner/internal/planfile"
)

var fixedNow = time.Date(2025, 11, 15, 10, 0, 0, 0, time.UTC)

func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	c := newCLI(func() time.Time { return fixedNow })
	root := c.rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--dir", dir}, args...))
	err := root.Execute()
	require.NoError(t, c.close())
	assert.Nil(t, c.log, "log must be released even when the command fails")
	return out.String(), err
}

func TestInitCreatesNextQuarterPlan(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, dir, "init")
	require.NoError(t, err)

	want := filepath.Join(dir, config.PlannerDir, "plans", "plan-my-team-q1-2026.yaml")
	assert.Contains(t, out, want)
	assert.Contains(t, out, "Q1 2026, 13 weeks from 2026-01-05")

	cfg, err := config.NewConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, want, cfg.PlanPath())

	export, err := planfile.Load(want)
	require.NoError(t, err)
	assert.Equal(t, calendar.MustParseDate("2026-01-05"), export.QuarterStart)
	assert.Equal(t, fixedNow, export.Metadata.ModifiedAt)

	out, err = run(t, dir, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "plan already exists")
}

func TestInitExplicitQuarter(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "init", "--year", "2025", "--quarter", "3", "--weeks", "12")
	require.NoError(t, err)

	export, err := planfile.Load(filepath.Join(dir, config.PlannerDir, "plans", "plan-my-team-q3-2025.yaml"))
	require.NoError(t, err)
	assert.Equal(t, calendar.MustParseDate("2025-07-07"), export.QuarterStart)
	assert.Equal(t, 12, export.WeekCount)

	_, err = run(t, t.TempDir(), "init", "--year", "2025", "--quarter", "5")
	require.Error(t, err)
}

func TestWeeksFromPlanAndFlags(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "init")
	require.NoError(t, err)

	out, err := run(t, dir, "weeks")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 13)
	assert.Contains(t, lines[0], "Mon Jan 05 2026")

	out, err = run(t, t.TempDir(), "weeks", "--start", "2025-01-06", "--weeks", "3")
	require.NoError(t, err)
	lines = strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "Sprint 28")
}

func TestCommandsWithoutPlanFail(t *testing.T) {
	for _, name := range []string{"grid", "capacity", "validate", "weeks"} {
		t.Run(name, func(t *testing.T) {
			_, err := run(t, t.TempDir(), name)
			require.ErrorIs(t, err, errNoPlan)
		})
	}
}

func writePlan(t *testing.T, dir string, mutate func(*plan.Snapshot)) string {
	t.Helper()
	start := calendar.MustParseDate("2025-01-06")
	alice := plan.NewTeamMember("Alice Kim", plan.RoleEngineering, 2)
	api := plan.NewTechnicalProject("Payment API", nil, 2, 0, start)

	prefs := plan.NewPreferences("Backend Team")
	prefs.TeamMembers = []plan.TeamMember{alice}
	p := plan.New("Q1 2025", start, 4)
	p.TechnicalProjects = []plan.TechnicalProject{api}
	for i := range 2 {
		p.Allocations = append(p.Allocations, plan.Allocation{
			TeamMemberID: alice.ID,
			WeekStart:    start.AddWeeks(i),
			Assignments:  []plan.Assignment{{ProjectID: api.ID, Percentage: 100}},
		})
	}
	s := plan.Snapshot{Preferences: prefs, Plan: p}
	if mutate != nil {
		mutate(&s)
	}
	path := filepath.Join(dir, "plan.yaml")
	require.NoError(t, planfile.Save(path, planfile.FromSnapshot(s)))
	return path
}

func TestGridCapacityAndValidate(t *testing.T) {
	dir := t.TempDir()
	path := writePlan(t, dir, nil)

	out, err := run(t, dir, "--plan", path, "grid")
	require.NoError(t, err)
	assert.Contains(t, out, "Q1 2025")
	assert.Contains(t, out, "Alice Kim (SDE)")
	assert.Contains(t, out, "── 2w")

	out, err = run(t, dir, "--plan", "plan.yaml", "capacity")
	require.NoError(t, err)
	assert.Contains(t, out, "Team Backend Team")
	assert.Contains(t, out, "2.0/2.0")

	out, err = run(t, dir, "--plan", path, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "plan is valid")
}

func TestGridStrictFailsOnUnknownProject(t *testing.T) {
	dir := t.TempDir()
	path := writePlan(t, dir, func(s *plan.Snapshot) {
		s.Plan.Allocations = append(s.Plan.Allocations, plan.Allocation{
			TeamMemberID: s.Preferences.TeamMembers[0].ID,
			WeekStart:    s.Plan.QuarterStart.AddWeeks(3),
			Assignments:  []plan.Assignment{{ProjectID: uuid.New(), Percentage: 100}},
		})
	})

	out, err := run(t, dir, "--plan", path, "grid")
	require.NoError(t, err)
	assert.Contains(t, out, "grid: resolve Week 4")

	_, err = run(t, dir, "--plan", path, "grid", "--strict")
	require.Error(t, err)
}

func TestValidateReportsOverAllocation(t *testing.T) {
	dir := t.TempDir()
	path := writePlan(t, dir, func(s *plan.Snapshot) {
		s.Plan.Allocations[0].Assignments = append(s.Plan.Allocations[0].Assignments,
			plan.Assignment{ProjectID: s.Plan.TechnicalProjects[0].ID, Percentage: 20})
	})

	out, err := run(t, dir, "--plan", path, "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plan has errors")
	assert.Contains(t, out, "error")

	data, err := os.ReadFile(filepath.Join(dir, config.PlannerDir, "logs", "planner.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "validation issue", "failed commands still flush the log")
}

func TestValidateReportsOffCalendarWeek(t *testing.T) {
	dir := t.TempDir()
	path := writePlan(t, dir, func(s *plan.Snapshot) {
		s.Plan.Allocations[1].WeekStart = s.Plan.QuarterStart.AddDays(2)
	})

	out, err := run(t, dir, "--plan", path, "validate")
	require.Error(t, err)
	assert.Contains(t, out, "not a quarter week")

	out, err = run(t, dir, "--plan", path, "grid")
	require.NoError(t, err)
	assert.Contains(t, out, "off-calendar week")
}

func TestLogFileWritten(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "init")
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, config.PlannerDir, "logs", "planner.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "plan saved")
}
