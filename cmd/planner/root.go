package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kingrea/planner/internal/config"
	"github.com/kingrea/planner/internal/logging"
	"github.com/kingrea/planner/internal/plan"
	"github.com/kingrea/planner/internal/planfile"
)

var errNoPlan = errors.New("no plan file: run `planner init` or pass --plan")

// cli carries state shared by every subcommand.
type cli struct {
	dir      string
	planFile string
	now      func() time.Time

	cfg *config.Config
	log *logging.Logger
}

func newCLI(now func() time.Time) *cli {
	return &cli{now: now}
}

// rootCmd builds the command tree. Callers must call close once Execute
// returns, since cobra skips the post-run hook when a command fails.
func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "planner",
		Short: "Quarter resource planning grid",
		Long: `planner lays out a team's quarter as a grid of members by weeks,
resolves every cell from the plan file, and reports capacity health for
members, technical projects and roadmap projects.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = c.close()
		},
	}
	root.PersistentFlags().StringVarP(&c.dir, "dir", "C", "", "project directory (default: current directory)")
	root.PersistentFlags().StringVarP(&c.planFile, "plan", "p", "", "plan file (default: plan from .planner/config.yaml)")

	root.AddCommand(
		c.initCmd(),
		c.weeksCmd(),
		c.gridCmd(),
		c.capacityCmd(),
		c.validateCmd(),
		c.viewCmd(),
	)
	return root
}

func (c *cli) setup() error {
	if c.dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve working directory: %w", err)
		}
		c.dir = cwd
	}
	abs, err := filepath.Abs(c.dir)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", c.dir, err)
	}
	c.dir = abs
	return c.loadConfig()
}

func (c *cli) loadConfig() error {
	cfg, err := config.NewConfig(c.dir)
	if err != nil {
		return err
	}
	c.cfg = cfg
	if c.log == nil {
		logger, err := logging.New(c.dir, cfg.LogLevel())
		if err != nil {
			return err
		}
		c.log = logger
	}
	return nil
}

// close flushes and releases the log file. It is safe to call more than once.
func (c *cli) close() error {
	if c.log == nil {
		return nil
	}
	err := c.log.Close()
	c.log = nil
	return err
}

func (c *cli) logger() *zap.Logger {
	return c.log.Zap()
}

// planPath prefers --plan over the configured default.
func (c *cli) planPath() (string, error) {
	if c.planFile != "" {
		if filepath.IsAbs(c.planFile) {
			return c.planFile, nil
		}
		return filepath.Join(c.dir, c.planFile), nil
	}
	if path := c.cfg.PlanPath(); path != "" {
		return path, nil
	}
	return "", errNoPlan
}

// load reads the plan file and combines it with the local preferences.
func (c *cli) load() (string, planfile.Export, plan.Snapshot, error) {
	path, err := c.planPath()
	if err != nil {
		return "", planfile.Export{}, plan.Snapshot{}, err
	}
	export, err := planfile.Load(path)
	if err != nil {
		return "", planfile.Export{}, plan.Snapshot{}, err
	}
	c.logger().Debug("plan loaded",
		zap.String("path", path),
		zap.String("quarter", export.QuarterName),
		zap.Int("members", len(export.TeamMembers)))
	return path, export, export.Snapshot(c.cfg.Preferences(nil)), nil
}
