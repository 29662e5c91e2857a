package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/planner/internal/calendar"
	"github.com/kingrea/planner/internal/capacity"
	"github.com/kingrea/planner/internal/plan"
)

var boxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("#444444")).
	Padding(0, 1)

// RenderWeeks lists a calendar's weeks with their sprint numbers.
func RenderWeeks(cal *calendar.Calendar) string {
	var lines []string
	for _, w := range cal.All() {
		marker := " "
		if w.SprintStart {
			marker = "▸"
		}
		lines = append(lines, fmt.Sprintf("%s %-8s %s  %s",
			sprintStyle.Render(marker),
			w.Label(),
			w.Start.Format("Mon Jan 02 2006"),
			detailStyle.Render(w.SprintLabel())))
	}
	return strings.Join(lines, "\n")
}

// RenderCapacity summarises a snapshot: team totals, one badge per member,
// technical project and roadmap project, and sprint-aligned date
// suggestions for every allocated project. Duplicate allocations are
// dropped the same way the grid drops them.
func RenderCapacity(s plan.Snapshot) (string, error) {
	s.Plan.Allocations = plan.NewIndex(s).Allocations()
	allocs := s.Plan.Allocations
	members := s.Preferences.TeamMembers

	var team []string
	total := capacity.TeamCapacity(members)
	used := capacity.TeamAllocated(members, allocs)
	team = append(team,
		headerStyle.Render("Team "+s.Preferences.TeamName),
		fmt.Sprintf("eng %.1f/%.1f  sci %.1f/%.1f  total %.1f/%.1f",
			used.Eng, total.Eng, used.Sci, total.Sci, used.Total(), total.Total()))

	var people []string
	people = append(people, weekStyle.Render("Members"))
	for _, m := range members {
		r := capacity.MemberReport(m, allocs)
		people = append(people, badgeLine(m.Name, r))
	}

	var projects []string
	projects = append(projects, weekStyle.Render("Technical projects"))
	for _, p := range s.Plan.TechnicalProjects {
		r := capacity.ProjectReport(p, allocs)
		line := badgeLine(p.Name, r)
		suggestion, ok, err := capacity.SuggestProjectDates(p.ID, allocs, s.Preferences.SprintAnchor, s.Preferences.SprintLength)
		if err != nil {
			return "", fmt.Errorf("tui: suggest dates for %s: %w", p.Name, err)
		}
		if ok {
			line += detailStyle.Render(fmt.Sprintf("  %s → %s", suggestion.Start, suggestion.ExpectedCompletion))
		}
		projects = append(projects, line)
	}

	var roadmap []string
	roadmap = append(roadmap, weekStyle.Render("Roadmap projects"))
	for _, p := range s.Plan.RoadmapProjects {
		r := capacity.ReportRoadmap(p, s)
		roadmap = append(roadmap, fmt.Sprintf("%s eng %s  sci %s",
			badgeLine(p.Name, r.Total),
			BadgeStyle(r.Eng).Render(r.Eng.Badge()),
			BadgeStyle(r.Sci).Render(r.Sci.Badge())))
	}

	sections := []string{strings.Join(team, "\n"), strings.Join(people, "\n"), strings.Join(projects, "\n")}
	if len(s.Plan.RoadmapProjects) > 0 {
		sections = append(sections, strings.Join(roadmap, "\n"))
	}
	return boxStyle.Render(strings.Join(sections, "\n\n")), nil
}

func badgeLine(name string, r capacity.Report) string {
	return fmt.Sprintf("%s %s %s",
		pad(name, memberWidth),
		BadgeStyle(r).Render(pad(r.Badge(), badgeWidth)),
		detailStyle.Render(pad(r.Health.String(), 9)))
}

// RenderIssues lists validation findings, errors first.
func RenderIssues(issues []plan.Issue) string {
	if len(issues) == 0 {
		return badgeHealthy.Render("plan is valid")
	}
	var lines []string
	for _, severity := range []plan.Severity{plan.SeverityError, plan.SeverityWarning} {
		style := badgeWarning
		if severity == plan.SeverityError {
			style = badgeCritical
		}
		for _, issue := range issues {
			if issue.Severity != severity {
				continue
			}
			lines = append(lines, fmt.Sprintf("%s %s", style.Render(string(issue.Severity)), issue.Message))
		}
	}
	return strings.Join(lines, "\n")
}
