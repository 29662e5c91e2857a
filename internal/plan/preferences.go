package plan

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kingrea/planner/internal/calendar"
)

const (
	DefaultTeamName        = "My Team"
	DefaultSprintLength    = 2
	DefaultCapacity        = 12.0
	MaxSprintLength        = 4
	DefaultWeeksInQuarter  = 13
	DefaultOncallProjectID = "00000000-0000-0000-0000-0000000000ca"
)

// DefaultSprintAnchor is the Monday all sprints count from unless configured.
var DefaultSprintAnchor = calendar.NewDate(2024, time.January, 1)

// OncallProjectID is the reserved project id that marks an on-call week.
var OncallProjectID = uuid.MustParse(DefaultOncallProjectID)

var (
	ErrEmptyTeamName          = errors.New("team name is required")
	ErrInvalidSprintLength    = errors.New("sprint length must be between 1 and 4 weeks")
	ErrInvalidDefaultCapacity = errors.New("default capacity must be positive")
)

// Preferences are the team-wide settings shared by every quarter.
type Preferences struct {
	TeamName        string
	TeamMembers     []TeamMember
	SprintAnchor    calendar.Date
	SprintLength    int
	DefaultCapacity float64
	// OncallProjectID is the project id reserved for on-call weeks.
	OncallProjectID uuid.UUID
}

// NewPreferences returns preferences populated with defaults.
func NewPreferences(teamName string) Preferences {
	return Preferences{
		TeamName:        teamName,
		SprintAnchor:    DefaultSprintAnchor,
		SprintLength:    DefaultSprintLength,
		DefaultCapacity: DefaultCapacity,
		OncallProjectID: OncallProjectID,
	}
}

// Validate checks the settings the grid depends on.
func (p Preferences) Validate() error {
	if strings.TrimSpace(p.TeamName) == "" {
		return ErrEmptyTeamName
	}
	if p.SprintLength < 1 || p.SprintLength > MaxSprintLength {
		return fmt.Errorf("%w (got %d)", ErrInvalidSprintLength, p.SprintLength)
	}
	if p.DefaultCapacity <= 0 {
		return fmt.Errorf("%w (got %.2f)", ErrInvalidDefaultCapacity, p.DefaultCapacity)
	}
	return nil
}

// Oncall returns the configured oncall id, or the reserved default.
func (p Preferences) Oncall() uuid.UUID {
	if p.OncallProjectID == uuid.Nil {
		return OncallProjectID
	}
	return p.OncallProjectID
}

// Member looks a team member up by id.
func (p Preferences) Member(id uuid.UUID) (TeamMember, bool) {
	for _, m := range p.TeamMembers {
		if m.ID == id {
			return m, true
		}
	}
	return TeamMember{}, false
}
