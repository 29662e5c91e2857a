// Package grid assembles the allocation grid: one row per team member, one
// resolved Cell per week, with span and capacity information alongside.
package grid

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kingrea/planner/internal/calendar"
	"github.com/kingrea/planner/internal/capacity"
	"github.com/kingrea/planner/internal/plan"
)

// Row is one team member's line of the grid.
type Row struct {
	Member   plan.TeamMember
	Cells    []Cell
	Spans    []Span
	Capacity capacity.Report
	// Errors holds cells that failed to resolve in a best-effort build, and
	// allocations that fall outside the calendar. Cells of failed weeks are
	// nil.
	Errors []*CellError
}

// Grid is the resolved view of a snapshot.
type Grid struct {
	QuarterName string
	Calendar    *calendar.Calendar
	Weeks       []calendar.WeekInfo
	Rows        []Row
}

// Cell returns the cell at row r, week w.
func (g *Grid) Cell(r, w int) Cell { return g.Rows[r].Cells[w] }

// Errors collects every cell error across rows.
func (g *Grid) Errors() []*CellError {
	var errs []*CellError
	for _, row := range g.Rows {
		errs = append(errs, row.Errors...)
	}
	return errs
}

// Option configures a Builder.
type Option func(*Builder)

// WithStrict makes Build fail on the first cell that cannot be resolved.
func WithStrict() Option {
	return func(b *Builder) { b.strict = true }
}

// WithConcurrency caps how many rows are resolved at once.
func WithConcurrency(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// Builder resolves grids. It holds no per-build state and may be shared.
type Builder struct {
	logger      *zap.Logger
	strict      bool
	concurrency int
}

// NewBuilder returns a builder. A nil logger disables logging.
func NewBuilder(logger *zap.Logger, opts ...Option) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Builder{logger: logger.Named("grid"), concurrency: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build resolves every cell of the snapshot. The snapshot is only read, so
// rows are resolved concurrently.
func (b *Builder) Build(ctx context.Context, s plan.Snapshot) (*Grid, error) {
	cal, err := s.Calendar()
	if err != nil {
		return nil, fmt.Errorf("grid: build calendar: %w", err)
	}
	idx := plan.NewIndex(s)
	for _, key := range idx.Duplicates() {
		b.logger.Warn("duplicate allocation ignored",
			zap.Stringer("member", key.TeamMemberID),
			zap.Stringer("week", key.WeekStart))
	}

	g := &Grid{
		QuarterName: s.Plan.QuarterName,
		Calendar:    cal,
		Weeks:       cal.Weeks(),
		Rows:        make([]Row, len(s.Preferences.TeamMembers)),
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(b.concurrency)
	for i, member := range s.Preferences.TeamMembers {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			row, err := b.buildRow(member, g.Weeks, cal, idx)
			if err != nil {
				return err
			}
			g.Rows[i] = row
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	b.logger.Debug("grid built",
		zap.String("quarter", g.QuarterName),
		zap.Int("rows", len(g.Rows)),
		zap.Int("weeks", len(g.Weeks)),
		zap.Int("cell_errors", len(g.Errors())))
	return g, nil
}

func (b *Builder) buildRow(member plan.TeamMember, weeks []calendar.WeekInfo, cal *calendar.Calendar, idx *plan.Index) (Row, error) {
	allocs := idx.MemberAllocations(member.ID)
	spans := DetectSpans(member.ID, allocs, cal, idx.Oncall())
	spanIdx := IndexSpans(spans)

	row := Row{
		Member:   member,
		Cells:    make([]Cell, len(weeks)),
		Spans:    spans,
		Capacity: capacity.MemberReport(member, allocs),
	}
	for _, alloc := range allocs {
		if cal.Contains(alloc.WeekStart) {
			continue
		}
		cellErr := &CellError{
			MemberID: member.ID,
			Week:     calendar.WeekInfo{Start: alloc.WeekStart},
			Err:      fmt.Errorf("%w: %s is outside %s to %s", ErrOffCalendar, alloc.WeekStart, cal.Start(), cal.End()),
		}
		if b.strict {
			return Row{}, cellErr
		}
		b.logger.Warn("allocation off calendar",
			zap.String("member", member.Name),
			zap.Stringer("week", alloc.WeekStart))
		row.Errors = append(row.Errors, cellErr)
	}
	for w, week := range weeks {
		alloc, _ := idx.Allocation(member.ID, week.Start)
		cell, err := ResolveCell(member.ID, week, alloc, spanIdx.At(week.Start), idx, idx.Oncall())
		if err != nil {
			cellErr := &CellError{MemberID: member.ID, Week: week, Err: err}
			if b.strict {
				return Row{}, cellErr
			}
			b.logger.Warn("cell skipped",
				zap.String("member", member.Name),
				zap.Stringer("week", week.Start),
				zap.Error(err))
			row.Errors = append(row.Errors, cellErr)
			continue
		}
		row.Cells[w] = cell
	}
	return row, nil
}
