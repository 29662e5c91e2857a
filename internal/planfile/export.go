// Package planfile reads and writes the portable plan export: one file that
// carries a quarter's plan together with a snapshot of the team roster.
package planfile

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kingrea/planner/internal/calendar"
	"github.com/kingrea/planner/internal/plan"
)

var (
	ErrInvalidVersion     = errors.New("planfile: version is required")
	ErrEmptyTeamName      = errors.New("planfile: team name is required")
	ErrNoTeamMembers      = errors.New("planfile: team has no members")
	ErrEmptyQuarterName   = errors.New("planfile: quarter name is required")
	ErrMissingQuarterDate = errors.New("planfile: quarter start date is required")
	ErrInvalidWeekCount   = errors.New("planfile: week count must be at least 1")
	ErrUnknownMember      = errors.New("planfile: allocation references unknown team member")
	ErrUnknownProject     = errors.New("planfile: assignment references unknown technical project")
	ErrUnknownRoadmap     = errors.New("planfile: technical project references unknown roadmap project")
)

// Export is a self-contained plan: the planning data plus the team it was
// made for.
type Export struct {
	Version  string
	Metadata plan.Metadata

	TeamName    string
	TeamMembers []plan.TeamMember

	QuarterName       string
	QuarterStart      calendar.Date
	WeekCount         int
	RoadmapProjects   []plan.RoadmapProject
	TechnicalProjects []plan.TechnicalProject
	Allocations       []plan.Allocation
}

// FromSnapshot packages a snapshot for export.
func FromSnapshot(s plan.Snapshot) Export {
	version := s.Plan.Metadata.Version
	if version == "" {
		version = plan.FormatVersion
	}
	return Export{
		Version:           version,
		Metadata:          s.Plan.Metadata,
		TeamName:          s.Preferences.TeamName,
		TeamMembers:       append([]plan.TeamMember(nil), s.Preferences.TeamMembers...),
		QuarterName:       s.Plan.QuarterName,
		QuarterStart:      s.Plan.QuarterStart,
		WeekCount:         s.Plan.WeekCount,
		RoadmapProjects:   append([]plan.RoadmapProject(nil), s.Plan.RoadmapProjects...),
		TechnicalProjects: append([]plan.TechnicalProject(nil), s.Plan.TechnicalProjects...),
		Allocations:       append([]plan.Allocation(nil), s.Plan.Allocations...),
	}
}

// Snapshot combines the export with local preferences. The export's team
// name and roster replace the local ones; sprint settings stay local.
func (e Export) Snapshot(local plan.Preferences) plan.Snapshot {
	prefs := local
	if strings.TrimSpace(e.TeamName) != "" {
		prefs.TeamName = e.TeamName
	}
	prefs.TeamMembers = append([]plan.TeamMember(nil), e.TeamMembers...)
	meta := e.Metadata
	if meta.Version == "" {
		meta.Version = e.Version
	}
	return plan.Snapshot{
		Preferences: prefs,
		Plan: plan.Plan{
			QuarterName:       e.QuarterName,
			QuarterStart:      e.QuarterStart,
			WeekCount:         e.WeekCount,
			RoadmapProjects:   append([]plan.RoadmapProject(nil), e.RoadmapProjects...),
			TechnicalProjects: append([]plan.TechnicalProject(nil), e.TechnicalProjects...),
			Allocations:       append([]plan.Allocation(nil), e.Allocations...),
			Metadata:          meta,
		},
	}
}

// Validate checks the header fields and referential integrity. Assignments
// to oncallID are allowed without a matching project.
func (e Export) Validate(oncallID uuid.UUID) error {
	if strings.TrimSpace(e.Version) == "" {
		return ErrInvalidVersion
	}
	if strings.TrimSpace(e.TeamName) == "" {
		return ErrEmptyTeamName
	}
	if len(e.TeamMembers) == 0 {
		return ErrNoTeamMembers
	}
	if strings.TrimSpace(e.QuarterName) == "" {
		return ErrEmptyQuarterName
	}
	if e.QuarterStart.IsZero() {
		return ErrMissingQuarterDate
	}
	if e.WeekCount < 1 {
		return fmt.Errorf("%w (got %d)", ErrInvalidWeekCount, e.WeekCount)
	}

	members := make(map[uuid.UUID]struct{}, len(e.TeamMembers))
	for _, m := range e.TeamMembers {
		members[m.ID] = struct{}{}
	}
	technical := make(map[uuid.UUID]struct{}, len(e.TechnicalProjects))
	for _, p := range e.TechnicalProjects {
		technical[p.ID] = struct{}{}
	}
	roadmap := make(map[uuid.UUID]struct{}, len(e.RoadmapProjects))
	for _, p := range e.RoadmapProjects {
		roadmap[p.ID] = struct{}{}
	}

	for _, alloc := range e.Allocations {
		if _, ok := members[alloc.TeamMemberID]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownMember, alloc.TeamMemberID)
		}
		for _, as := range alloc.Assignments {
			if as.ProjectID == oncallID {
				continue
			}
			if _, ok := technical[as.ProjectID]; !ok {
				return fmt.Errorf("%w: %s", ErrUnknownProject, as.ProjectID)
			}
		}
	}
	for _, p := range e.TechnicalProjects {
		if p.RoadmapProjectID == nil {
			continue
		}
		if _, ok := roadmap[*p.RoadmapProjectID]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownRoadmap, *p.RoadmapProjectID)
		}
	}
	return nil
}

// Filename suggests a file name: "plan-backend-team-q1-2025.yaml".
func Filename(e Export) string {
	return fmt.Sprintf("plan-%s-%s.yaml", slug(e.TeamName), slug(e.QuarterName))
}

func slug(value string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), " ", "-")
}

// planEnvelope is the on-disk layout. Timestamps are kept as strings so
// both YAML timestamps and quoted JSON strings decode.
type planEnvelope struct {
	Version           string                  `yaml:"version"`
	Metadata          metadataEnvelope        `yaml:"metadata"`
	TeamName          string                  `yaml:"team_name"`
	TeamMembers       []plan.TeamMember       `yaml:"team_members"`
	QuarterName       string                  `yaml:"quarter_name"`
	QuarterStart      calendar.Date           `yaml:"quarter_start_date"`
	WeekCount         int                     `yaml:"num_weeks"`
	RoadmapProjects   []plan.RoadmapProject   `yaml:"roadmap_projects"`
	TechnicalProjects []plan.TechnicalProject `yaml:"technical_projects"`
	Allocations       []plan.Allocation       `yaml:"allocations"`
}

type metadataEnvelope struct {
	Version    string `yaml:"version"`
	CreatedAt  string `yaml:"created_at"`
	ModifiedAt string `yaml:"modified_at"`
}

const timeLayout = time.RFC3339Nano

func (env planEnvelope) toExport() (Export, error) {
	created, err := parseTime(env.Metadata.CreatedAt)
	if err != nil {
		return Export{}, fmt.Errorf("planfile: parse created_at: %w", err)
	}
	modified, err := parseTime(env.Metadata.ModifiedAt)
	if err != nil {
		return Export{}, fmt.Errorf("planfile: parse modified_at: %w", err)
	}
	return Export{
		Version:           env.Version,
		Metadata:          plan.Metadata{Version: env.Metadata.Version, CreatedAt: created, ModifiedAt: modified},
		TeamName:          env.TeamName,
		TeamMembers:       env.TeamMembers,
		QuarterName:       env.QuarterName,
		QuarterStart:      env.QuarterStart,
		WeekCount:         env.WeekCount,
		RoadmapProjects:   env.RoadmapProjects,
		TechnicalProjects: env.TechnicalProjects,
		Allocations:       env.Allocations,
	}, nil
}

func (env *planEnvelope) fromExport(e Export) {
	env.Version = e.Version
	env.Metadata = metadataEnvelope{
		Version:    e.Metadata.Version,
		CreatedAt:  formatTime(e.Metadata.CreatedAt),
		ModifiedAt: formatTime(e.Metadata.ModifiedAt),
	}
	env.TeamName = e.TeamName
	env.TeamMembers = e.TeamMembers
	env.QuarterName = e.QuarterName
	env.QuarterStart = e.QuarterStart
	env.WeekCount = e.WeekCount
	env.RoadmapProjects = e.RoadmapProjects
	env.TechnicalProjects = e.TechnicalProjects
	env.Allocations = e.Allocations
}

func parseTime(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timeLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}
