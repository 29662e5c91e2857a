package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kingrea/planner/internal/calendar"
	"github.com/kingrea/planner/internal/config"
	"github.com/kingrea/planner/internal/grid"
	"github.com/kingrea/planner/internal/plan"
	"github.com/kingrea/planner/internal/planfile"
	"github.com/kingrea/planner/internal/tui"
)

func (c *cli) initCmd() *cobra.Command {
	var (
		year    int
		quarter int
		weeks   int
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create .planner/ and an empty plan for the next quarter",
		Long: `Creates the .planner/ directory (config.yaml, logs/, plans/) and an
empty plan file for a quarter. Without --year/--quarter the next quarter
after today is used. Existing files are left untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.InitPlannerDir(c.dir); err != nil {
				return err
			}
			if err := c.loadConfig(); err != nil {
				return err
			}

			q := calendar.NextQuarter(calendar.DateOf(c.now()))
			if year != 0 || quarter != 0 {
				var err error
				if q, err = calendar.QuarterOf(year, quarter); err != nil {
					return err
				}
			}

			p := plan.New(q.Name(), q.Start, weeks)
			p.Metadata = plan.NewMetadata(c.now().UTC())
			export := planfile.FromSnapshot(plan.Snapshot{Preferences: c.cfg.Preferences(nil), Plan: p})

			store := planfile.NewStore(c.cfg.PlansDir(), c.logger(), planfile.WithClock(c.now))
			path := store.Path(export)
			if _, err := os.Stat(path); err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "plan already exists: %s\n", path)
				return c.cfg.SetPlan(path)
			} else if !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			if _, err := store.Save(export); err != nil {
				return err
			}
			if err := c.cfg.SetPlan(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s, %d weeks from %s)\n", path, q.Name(), weeks, q.Start)
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "quarter year")
	cmd.Flags().IntVar(&quarter, "quarter", 0, "quarter number (1-4)")
	cmd.Flags().IntVar(&weeks, "weeks", plan.DefaultWeeksInQuarter, "weeks in the quarter")
	return cmd
}

func (c *cli) weeksCmd() *cobra.Command {
	var (
		start string
		weeks int
	)
	cmd := &cobra.Command{
		Use:   "weeks",
		Short: "List the quarter's weeks and sprints",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				from  calendar.Date
				count = weeks
			)
			if start != "" {
				d, err := calendar.ParseDate(start)
				if err != nil {
					return err
				}
				from = d
			} else {
				_, export, _, err := c.load()
				if err != nil {
					return err
				}
				from = export.QuarterStart
				if count == 0 {
					count = export.WeekCount
				}
			}
			if count == 0 {
				count = plan.DefaultWeeksInQuarter
			}
			cal, err := calendar.Generate(from, count, c.cfg.SprintAnchor, c.cfg.Project.Sprint.Length)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tui.RenderWeeks(cal))
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "quarter start date (YYYY-MM-DD), instead of the plan's")
	cmd.Flags().IntVar(&weeks, "weeks", 0, "number of weeks (default: the plan's)")
	return cmd
}

func (c *cli) gridCmd() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Print the allocation grid",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, snapshot, err := c.load()
			if err != nil {
				return err
			}
			var opts []grid.Option
			if strict {
				opts = append(opts, grid.WithStrict())
			}
			g, err := grid.NewBuilder(c.logger(), opts...).Build(cmd.Context(), snapshot)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderGrid(g))
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on the first cell that cannot be resolved")
	return cmd
}

func (c *cli) capacityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "capacity",
		Short: "Report capacity health for members and projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, snapshot, err := c.load()
			if err != nil {
				return err
			}
			out, err := tui.RenderCapacity(snapshot)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func (c *cli) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the plan file for invariant violations",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, export, snapshot, err := c.load()
			if err != nil {
				return err
			}
			if err := export.Validate(c.cfg.OncallProjectID); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			issues := plan.Validate(snapshot)
			fmt.Fprintln(cmd.OutOrStdout(), tui.RenderIssues(issues))
			for _, issue := range issues {
				c.logger().Info("validation issue",
					zap.String("kind", string(issue.Kind)),
					zap.String("severity", string(issue.Severity)),
					zap.String("message", issue.Message))
			}
			if plan.HasErrors(issues) {
				return fmt.Errorf("%s: plan has errors", path)
			}
			return nil
		},
	}
}

func (c *cli) viewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Open the read-only grid viewer; it reloads when the plan file changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _, snapshot, err := c.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			w, err := planfile.NewWatcher(path, c.logger())
			if err != nil {
				return err
			}
			if err := w.Start(ctx); err != nil {
				return err
			}
			defer w.Stop()

			app, err := tui.NewApp(snapshot, grid.NewBuilder(c.logger()),
				tui.WithWatcher(w),
				tui.WithLogger(c.logger()),
				tui.WithContext(ctx))
			if err != nil {
				return err
			}
			p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
			if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return fmt.Errorf("run viewer: %w", err)
			}
			return nil
		},
	}
}
