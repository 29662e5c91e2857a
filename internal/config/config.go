// internal/config/config.go
//
// This package handles configuration and the .planner directory structure.
// Every team that plans with this tool gets a .planner/ folder in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/planner/internal/calendar"
	"github.com/kingrea/planner/internal/plan"
)

const (
	// PlannerDir is the name of the directory we create in each project
	PlannerDir = ".planner"

	defaultLogLevel = "info"
)

const defaultProjectConfigYAML = `# planner project configuration
version: 1

team_name: My Team

# Sprints are counted from the anchor Monday, independent of any quarter.
sprint:
  anchor: 2024-01-01
  length: 2

# Weeks of effort available to a new team member per quarter.
default_capacity: 12

# Project id reserved for on-call weeks.
oncall_project_id: 00000000-0000-0000-0000-0000000000ca

# Plan file opened by default, relative to the project directory.
# plan: .planner/plans/my-team-q1-2025.yaml

log:
  level: info
`

// SprintConfig places sprint boundaries.
type SprintConfig struct {
	Anchor string `yaml:"anchor" env:"PLANNER_SPRINT_ANCHOR" env-default:"2024-01-01"`
	Length int    `yaml:"length" env:"PLANNER_SPRINT_LENGTH" env-default:"2"`
}

// LogConfig controls the log file.
type LogConfig struct {
	Level string `yaml:"level" env:"PLANNER_LOG_LEVEL" env-default:"info"`
}

// ProjectConfig models .planner/config.yaml. Every field can be overridden
// from a PLANNER_* environment variable.
type ProjectConfig struct {
	Version         int          `yaml:"version" env-default:"1"`
	TeamName        string       `yaml:"team_name" env:"PLANNER_TEAM_NAME" env-default:"My Team"`
	Sprint          SprintConfig `yaml:"sprint"`
	DefaultCapacity float64      `yaml:"default_capacity" env:"PLANNER_DEFAULT_CAPACITY" env-default:"12"`
	OncallProjectID string       `yaml:"oncall_project_id" env:"PLANNER_ONCALL_PROJECT_ID" env-default:"00000000-0000-0000-0000-0000000000ca"`
	Plan            string       `yaml:"plan,omitempty" env:"PLANNER_PLAN"`
	Log             LogConfig    `yaml:"log"`
}

// Config holds the runtime configuration for the planner.
type Config struct {
	// ProjectDir is the directory where the user ran `planner` from
	ProjectDir string

	// PlannerProjectDir is ProjectDir/.planner
	PlannerProjectDir string

	Project ProjectConfig

	// Parsed forms of the string settings above.
	SprintAnchor    calendar.Date
	OncallProjectID uuid.UUID
}

// InitPlannerDir creates the .planner directory structure in the given
// project directory and writes a default config.yaml if none exists.
//
// Structure created:
// .planner/
// ├── config.yaml
// ├── logs/   <- planner.log
// └── plans/  <- exported quarter plans
func InitPlannerDir(projectDir string) error {
	plannerDir := filepath.Join(projectDir, PlannerDir)

	dirs := []string{
		filepath.Join(plannerDir, "logs"),
		filepath.Join(plannerDir, "plans"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create %s: %w", dir, err)
		}
	}

	return ensureProjectConfig(filepath.Join(plannerDir, "config.yaml"))
}

// NewConfig loads .planner/config.yaml (if present) with environment
// overrides applied.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:        projectDir,
		PlannerProjectDir: filepath.Join(projectDir, PlannerDir),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.PlannerProjectDir, "logs")
}

// PlansDir returns the directory exported plans are written to
func (c *Config) PlansDir() string {
	return filepath.Join(c.PlannerProjectDir, "plans")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.PlannerProjectDir, "config.yaml")
}

// PlanPath returns the configured plan file, or "" when none is set.
func (c *Config) PlanPath() string {
	return c.Project.Plan
}

// LogLevel returns the configured log level.
func (c *Config) LogLevel() string {
	return c.Project.Log.Level
}

// Preferences builds the team preferences the grid reads.
func (c *Config) Preferences(members []plan.TeamMember) plan.Preferences {
	prefs := plan.NewPreferences(c.Project.TeamName)
	prefs.TeamMembers = members
	prefs.SprintAnchor = c.SprintAnchor
	prefs.SprintLength = c.Project.Sprint.Length
	prefs.DefaultCapacity = c.Project.DefaultCapacity
	prefs.OncallProjectID = c.OncallProjectID
	return prefs
}

// SetPlan records the default plan file and persists the value back to
// .planner/config.yaml.
func (c *Config) SetPlan(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("config: plan path is required")
	}
	c.Project.Plan = path
	return c.saveProjectConfig()
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	var parsed ProjectConfig
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &parsed); err != nil {
			return fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if errors.Is(err, fs.ErrNotExist) {
		if err := cleanenv.ReadEnv(&parsed); err != nil {
			return fmt.Errorf("config: read environment: %w", err)
		}
	} else {
		return fmt.Errorf("config: stat %s: %w", path, err)
	}

	if err := c.apply(parsed); err != nil {
		return err
	}
	return nil
}

func (c *Config) apply(pc ProjectConfig) error {
	pc.applyDefaults()
	pc.normalize(c.ProjectDir)
	anchor, oncall, err := pc.validate()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.Project = pc
	c.SprintAnchor = anchor
	c.OncallProjectID = oncall
	return nil
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.TeamName == "" {
		pc.TeamName = plan.DefaultTeamName
	}
	if pc.Sprint.Anchor == "" {
		pc.Sprint.Anchor = plan.DefaultSprintAnchor.String()
	}
	if pc.Sprint.Length == 0 {
		pc.Sprint.Length = plan.DefaultSprintLength
	}
	if pc.DefaultCapacity == 0 {
		pc.DefaultCapacity = plan.DefaultCapacity
	}
	if pc.OncallProjectID == "" {
		pc.OncallProjectID = plan.DefaultOncallProjectID
	}
	if pc.Log.Level == "" {
		pc.Log.Level = defaultLogLevel
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.TeamName = strings.TrimSpace(pc.TeamName)
	pc.Sprint.Anchor = strings.TrimSpace(pc.Sprint.Anchor)
	pc.OncallProjectID = strings.ToLower(strings.TrimSpace(pc.OncallProjectID))
	pc.Plan = resolvePath(base, pc.Plan)
	pc.Log.Level = strings.ToLower(strings.TrimSpace(pc.Log.Level))
}

func (pc *ProjectConfig) validate() (calendar.Date, uuid.UUID, error) {
	if pc.Version < 1 {
		return calendar.Date{}, uuid.Nil, fmt.Errorf("config version must be >= 1")
	}
	anchor, err := calendar.ParseDate(pc.Sprint.Anchor)
	if err != nil {
		return calendar.Date{}, uuid.Nil, fmt.Errorf("sprint.anchor: %w", err)
	}
	oncall, err := uuid.Parse(pc.OncallProjectID)
	if err != nil {
		return calendar.Date{}, uuid.Nil, fmt.Errorf("oncall_project_id: %w", err)
	}
	prefs := plan.Preferences{
		TeamName:        pc.TeamName,
		SprintAnchor:    anchor,
		SprintLength:    pc.Sprint.Length,
		DefaultCapacity: pc.DefaultCapacity,
	}
	if err := prefs.Validate(); err != nil {
		return calendar.Date{}, uuid.Nil, err
	}
	switch pc.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return calendar.Date{}, uuid.Nil, fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	return anchor, oncall, nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}

func (c *Config) saveProjectConfig() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	if err := c.apply(c.Project); err != nil {
		return err
	}
	if err := os.MkdirAll(c.PlannerProjectDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure planner dir: %w", err)
	}
	out := c.Project
	if rel, err := filepath.Rel(c.ProjectDir, out.Plan); err == nil && out.Plan != "" && !strings.HasPrefix(rel, "..") {
		out.Plan = rel
	}
	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}
