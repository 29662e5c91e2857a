// Package plan holds the in-memory records the allocation grid reads: the
// long-lived team preferences and the per-quarter plan. Nothing in this
// package performs I/O; loading and saving live in planfile.
package plan

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/kingrea/planner/internal/calendar"
)

// PercentageEpsilon absorbs float noise when comparing percentage totals.
const PercentageEpsilon = 0.01

var (
	// ErrPercentageOverflow marks an allocation whose assignments sum past 100%.
	ErrPercentageOverflow = errors.New("assignment percentages exceed 100")
	// ErrPercentageRange marks a single assignment outside [0, 100].
	ErrPercentageRange = errors.New("assignment percentage out of range")
	// ErrUnknownRole is returned when decoding an unrecognised role.
	ErrUnknownRole = errors.New("unknown role")
	// ErrUnknownColor is returned when decoding a colour outside the palette.
	ErrUnknownColor = errors.New("unknown project color")
)

// Role is the discipline of a team member.
type Role string

const (
	RoleEngineering Role = "eng"
	RoleScience     Role = "sci"
)

// ShortName is the badge label for the role.
func (r Role) ShortName() string {
	switch r {
	case RoleEngineering:
		return "SDE"
	case RoleScience:
		return "AS"
	default:
		return "?"
	}
}

// ParseRole accepts the stored form and a few spelled-out aliases.
func ParseRole(value string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "eng", "engineering", "sde":
		return RoleEngineering, nil
	case "sci", "science", "as":
		return RoleScience, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, value)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty value decodes
// to the zero Role so that saved files load back.
func (r *Role) UnmarshalText(data []byte) error {
	if strings.TrimSpace(string(data)) == "" {
		*r = ""
		return nil
	}
	parsed, err := ParseRole(string(data))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ProjectColor is one of the fixed palette colours used to tell projects
// apart in the grid.
type ProjectColor string

const (
	ColorBlue   ProjectColor = "blue"
	ColorGreen  ProjectColor = "green"
	ColorYellow ProjectColor = "yellow"
	ColorOrange ProjectColor = "orange"
	ColorRed    ProjectColor = "red"
	ColorPurple ProjectColor = "purple"
	ColorPink   ProjectColor = "pink"
	ColorTeal   ProjectColor = "teal"
	ColorIndigo ProjectColor = "indigo"
)

var paletteHex = map[ProjectColor]string{
	ColorBlue:   "#5AC8FA",
	ColorGreen:  "#4ADE80",
	ColorYellow: "#FBBF24",
	ColorOrange: "#FB923C",
	ColorRed:    "#F472B6",
	ColorPurple: "#A78BFA",
	ColorPink:   "#E879F9",
	ColorTeal:   "#2DD4BF",
	ColorIndigo: "#818CF8",
}

// Palette lists every colour in display order.
func Palette() []ProjectColor {
	return []ProjectColor{ColorBlue, ColorGreen, ColorYellow, ColorOrange, ColorRed, ColorPurple, ColorPink, ColorTeal, ColorIndigo}
}

// Hex returns the colour's hex code, falling back to blue.
func (c ProjectColor) Hex() string {
	if hex, ok := paletteHex[c]; ok {
		return hex
	}
	return paletteHex[ColorBlue]
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty value decodes
// to the zero colour, which renders with the fallback.
func (c *ProjectColor) UnmarshalText(data []byte) error {
	value := ProjectColor(strings.ToLower(strings.TrimSpace(string(data))))
	if value == "" {
		*c = ""
		return nil
	}
	if _, ok := paletteHex[value]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownColor, string(data))
	}
	*c = value
	return nil
}

// TeamMember is one row of the grid.
type TeamMember struct {
	ID   uuid.UUID `yaml:"id"`
	Name string    `yaml:"name"`
	Role Role      `yaml:"role"`
	// Capacity is the number of weeks of effort available this quarter.
	Capacity float64 `yaml:"capacity"`
}

// NewTeamMember creates a member with a fresh id.
func NewTeamMember(name string, role Role, capacity float64) TeamMember {
	return TeamMember{ID: uuid.New(), Name: name, Role: role, Capacity: capacity}
}

// RoadmapProject is a high-level initiative that technical projects roll up to.
type RoadmapProject struct {
	ID          uuid.UUID     `yaml:"id"`
	Name        string        `yaml:"name"`
	EngEstimate float64       `yaml:"eng_estimate"`
	SciEstimate float64       `yaml:"sci_estimate"`
	StartDate   calendar.Date `yaml:"start_date"`
	LaunchDate  calendar.Date `yaml:"launch_date"`
	Color       ProjectColor  `yaml:"color"`
	Notes       string        `yaml:"notes,omitempty"`
}

// TotalEstimate is engineering plus science weeks.
func (p RoadmapProject) TotalEstimate() float64 { return p.EngEstimate + p.SciEstimate }

// TechnicalProject is the unit time is allocated against.
type TechnicalProject struct {
	ID                 uuid.UUID      `yaml:"id"`
	Name               string         `yaml:"name"`
	RoadmapProjectID   *uuid.UUID     `yaml:"roadmap_project_id,omitempty"`
	EngEstimate        float64        `yaml:"eng_estimate"`
	SciEstimate        float64        `yaml:"sci_estimate"`
	StartDate          calendar.Date  `yaml:"start_date"`
	ExpectedCompletion *calendar.Date `yaml:"expected_completion,omitempty"`
	Notes              string         `yaml:"notes,omitempty"`
}

// NewTechnicalProject creates a project with a fresh id.
func NewTechnicalProject(name string, roadmapID *uuid.UUID, engEstimate, sciEstimate float64, start calendar.Date) TechnicalProject {
	return TechnicalProject{
		ID:               uuid.New(),
		Name:             name,
		RoadmapProjectID: roadmapID,
		EngEstimate:      engEstimate,
		SciEstimate:      sciEstimate,
		StartDate:        start,
	}
}

// TotalEstimate is engineering plus science weeks.
func (p TechnicalProject) TotalEstimate() float64 { return p.EngEstimate + p.SciEstimate }

// Assignment gives a share of one week to one technical project.
type Assignment struct {
	ProjectID  uuid.UUID `yaml:"technical_project_id"`
	Percentage float64   `yaml:"percentage"`
}

// Allocation is a member's week. At most one exists per (member, week).
type Allocation struct {
	TeamMemberID uuid.UUID     `yaml:"team_member_id"`
	WeekStart    calendar.Date `yaml:"week_start_date"`
	Assignments  []Assignment  `yaml:"assignments"`
}

// Key identifies an allocation.
type Key struct {
	TeamMemberID uuid.UUID
	WeekStart    calendar.Date
}

// Key returns the allocation's identity.
func (a Allocation) Key() Key {
	return Key{TeamMemberID: a.TeamMemberID, WeekStart: a.WeekStart}
}

// TotalPercentage sums the assignments.
func (a Allocation) TotalPercentage() float64 {
	var total float64
	for _, as := range a.Assignments {
		total += as.Percentage
	}
	return total
}

// IsEmpty reports whether the week has no assignments.
func (a Allocation) IsEmpty() bool { return len(a.Assignments) == 0 }

// IsFull reports whether the week adds up to 100%.
func (a Allocation) IsFull() bool {
	return math.Abs(a.TotalPercentage()-100) < PercentageEpsilon
}

// CheckPercentages reports range and overflow violations. Values are never
// clamped; callers decide whether to reject the edit or show a warning.
func (a Allocation) CheckPercentages() error {
	for _, as := range a.Assignments {
		if as.Percentage < 0 || as.Percentage > 100 {
			return fmt.Errorf("%w: project %s has %.2f%%", ErrPercentageRange, as.ProjectID, as.Percentage)
		}
	}
	if total := a.TotalPercentage(); total > 100+PercentageEpsilon {
		return fmt.Errorf("%w: member %s week %s totals %.2f%%", ErrPercentageOverflow, a.TeamMemberID, a.WeekStart, total)
	}
	return nil
}

// IsSingleFull reports whether the week is one assignment at 100%.
func (a Allocation) IsSingleFull() bool {
	return len(a.Assignments) == 1 && math.Abs(a.Assignments[0].Percentage-100) < PercentageEpsilon
}

// HasProject reports whether any assignment references id.
func (a Allocation) HasProject(id uuid.UUID) bool {
	for _, as := range a.Assignments {
		if as.ProjectID == id {
			return true
		}
	}
	return false
}
