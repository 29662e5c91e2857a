// Package tui renders allocation grids for the terminal and hosts the
// read-only grid viewer.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/planner/internal/capacity"
	"github.com/kingrea/planner/internal/grid"
	"github.com/kingrea/planner/internal/plan"
)

const (
	cellWidth   = 12
	memberWidth = 22
	badgeWidth  = 11
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	weekStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	sprintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801"))
	memberStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	emptyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
	oncallStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#6B7280")).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	detailStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	projectText   = lipgloss.Color("#1A1A1A")
	badgeHealthy  = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	badgeWarning  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	badgeCritical = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	badgeNeutral  = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
)

// RenderGrid draws g as a table: a week header, a sprint header, then one
// line per team member with their capacity badge.
func RenderGrid(g *grid.Grid) string {
	if g == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(g.QuarterName))
	b.WriteString("\n\n")

	lead := pad("", memberWidth) + pad("", badgeWidth)
	weeks := make([]string, 0, len(g.Weeks))
	sprints := make([]string, 0, len(g.Weeks))
	for _, w := range g.Weeks {
		weeks = append(weeks, weekStyle.Render(pad(w.Start.Format("Jan 02"), cellWidth)))
		label := ""
		if w.SprintStart {
			label = w.SprintLabel()
		}
		sprints = append(sprints, sprintStyle.Render(pad(label, cellWidth)))
	}
	b.WriteString(lead + strings.Join(weeks, ""))
	b.WriteString("\n")
	b.WriteString(lead + strings.Join(sprints, ""))
	b.WriteString("\n")

	for _, row := range g.Rows {
		b.WriteString(renderRow(row))
		b.WriteString("\n")
	}
	if errs := g.Errors(); len(errs) > 0 {
		b.WriteString("\n")
		for _, err := range errs {
			b.WriteString(errorStyle.Render("! "))
			b.WriteString(detailStyle.Render(err.Error()))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderRow(row grid.Row) string {
	name := fmt.Sprintf("%s (%s)", row.Member.Name, row.Member.Role.ShortName())
	parts := []string{
		memberStyle.Render(pad(name, memberWidth)),
		BadgeStyle(row.Capacity).Render(pad(row.Capacity.Badge(), badgeWidth)),
	}
	for _, c := range row.Cells {
		parts = append(parts, RenderCell(c))
	}
	return strings.Join(parts, "")
}

// RenderCell draws one cell at the fixed column width. A nil cell is one
// that failed to resolve.
func RenderCell(c grid.Cell) string {
	text, style := cellContent(c)
	if grid.BeforeProjectStart(c) {
		style = style.Faint(true).Italic(true)
	}
	return style.Render(pad(text, cellWidth))
}

func cellContent(c grid.Cell) (string, lipgloss.Style) {
	switch c := c.(type) {
	case nil:
		return "!", errorStyle
	case grid.EmptyCell:
		return "·", emptyStyle
	case grid.OncallCell:
		return "oncall", oncallStyle
	case grid.SingleProjectCell:
		return c.Project.Name, projectStyle(c.Project.Color)
	case grid.MultiWeekSpanCell:
		return spanText(c), projectStyle(c.Project.Color)
	case grid.SplitCell:
		return splitText(c), splitStyle(c)
	default:
		return "?", errorStyle
	}
}

func spanText(c grid.MultiWeekSpanCell) string {
	switch c.Position {
	case grid.PositionFirst:
		return c.Project.Name
	case grid.PositionLast:
		return fmt.Sprintf("── %dw", c.TotalWeeks)
	default:
		return "───"
	}
}

func splitText(c grid.SplitCell) string {
	if c.Generic {
		var total float64
		for _, s := range c.Slices {
			total += s.Percentage
		}
		return fmt.Sprintf("%d× %.0f%%", len(c.Slices), total)
	}
	parts := make([]string, 0, len(c.Slices))
	for _, s := range c.Slices {
		parts = append(parts, fmt.Sprintf("%s %.0f", abbreviate(s.Name), s.Percentage))
	}
	return strings.Join(parts, "/")
}

func splitStyle(c grid.SplitCell) lipgloss.Style {
	if len(c.Slices) == 0 {
		return emptyStyle
	}
	style := projectStyle(c.Slices[0].Color)
	if c.Generic {
		return style.Underline(true)
	}
	return style
}

func projectStyle(color plan.ProjectColor) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(projectText).
		Background(lipgloss.Color(color.Hex()))
}

// BadgeStyle colours a capacity badge by health. Reports with nothing
// allocated and nothing expected stay grey.
func BadgeStyle(r capacity.Report) lipgloss.Style {
	if r.Neutral() {
		return badgeNeutral
	}
	switch r.Health {
	case capacity.Healthy:
		return badgeHealthy
	case capacity.Warning:
		return badgeWarning
	default:
		return badgeCritical
	}
}

func abbreviate(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	runes := []rune(fields[0])
	return strings.ToUpper(string(runes[:min(3, len(runes))]))
}

// pad fits value into exactly width columns, truncating with an ellipsis.
func pad(value string, width int) string {
	value = truncate(value, width-1)
	if n := lipgloss.Width(value); n < width {
		return value + strings.Repeat(" ", width-n)
	}
	return value
}

func truncate(value string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(value) <= width {
		return value
	}
	runes := []rune(value)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
