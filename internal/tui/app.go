// internal/tui/app.go
//
// Read-only grid viewer. It follows The Elm Architecture via bubbletea:
// messages come in through Update, the grid is drawn by View, and plan file
// reloads arrive as messages from the watcher.

package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/kingrea/planner/internal/grid"
	"github.com/kingrea/planner/internal/plan"
	"github.com/kingrea/planner/internal/planfile"
)

// chrome is the number of lines taken by the title and footer.
const chrome = 4

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Reload   key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func newKeyMap(vp viewport.KeyMap) keyMap {
	return keyMap{
		Up:       vp.Up,
		Down:     vp.Down,
		PageUp:   vp.PageUp,
		PageDown: vp.PageDown,
		Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Reload, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Reload, k.Help, k.Quit},
	}
}

// reloadMsg carries a freshly loaded plan file. watched marks reloads that
// came from the watcher, which must be re-armed afterwards.
type reloadMsg struct {
	reload  planfile.Reload
	watched bool
}

// gridMsg carries a rebuilt grid.
type gridMsg struct {
	grid    *grid.Grid
	err     error
	watched bool
}

// watcherClosedMsg is sent once the watcher's channel closes.
type watcherClosedMsg struct{}

// AppOption customizes App construction.
type AppOption func(*App)

// WithWatcher rebuilds the grid whenever the watcher reports a change.
func WithWatcher(w *planfile.Watcher) AppOption {
	return func(a *App) {
		a.watcher = w
		if w != nil && a.planPath == "" {
			a.planPath = w.Path()
		}
	}
}

// WithPlanFile enables manual reloads of path.
func WithPlanFile(path string) AppOption {
	return func(a *App) { a.planPath = path }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) AppOption {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithContext bounds grid rebuilds.
func WithContext(ctx context.Context) AppOption {
	return func(a *App) {
		if ctx != nil {
			a.ctx = ctx
		}
	}
}

// App is the viewer model.
type App struct {
	ctx      context.Context
	builder  *grid.Builder
	local    plan.Preferences
	grid     *grid.Grid
	watcher  *planfile.Watcher
	planPath string
	logger   *zap.Logger

	viewport viewport.Model
	keys     keyMap
	help     help.Model
	ready    bool
	status   string
	err      error

	width  int
	height int
}

// NewApp builds the first grid from s. Reloaded plan files are combined
// with s.Preferences, so local sprint settings survive a reload.
func NewApp(s plan.Snapshot, builder *grid.Builder, opts ...AppOption) (*App, error) {
	a := &App{
		ctx:     context.Background(),
		builder: builder,
		local:   s.Preferences,
		logger:  zap.NewNop(),
		help:    help.New(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	a.logger = a.logger.Named("tui")
	if a.builder == nil {
		a.builder = grid.NewBuilder(a.logger)
	}
	g, err := a.builder.Build(a.ctx, s)
	if err != nil {
		return nil, err
	}
	a.grid = g
	a.viewport = viewport.New(0, 0)
	a.keys = newKeyMap(a.viewport.KeyMap)
	a.viewport.SetContent(RenderGrid(g))
	return a, nil
}

// Grid returns the grid currently on screen.
func (a *App) Grid() *grid.Grid { return a.grid }

// Init starts listening for plan file changes.
func (a *App) Init() tea.Cmd {
	return a.waitForReload()
}

// Update handles one message.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.viewport.Width = msg.Width
		a.viewport.Height = max(1, msg.Height-chrome)
		a.ready = true
		return a, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, a.keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, a.keys.Help):
			a.help.ShowAll = !a.help.ShowAll
			return a, nil
		case key.Matches(msg, a.keys.Reload):
			return a, a.loadPlan()
		}
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd

	case reloadMsg:
		if msg.reload.Err != nil {
			a.err = msg.reload.Err
			a.status = "reload failed"
			return a, a.rearm(msg.watched)
		}
		return a, a.rebuild(msg.reload.Export.Snapshot(a.local), msg.watched)

	case gridMsg:
		if msg.err != nil {
			a.err = msg.err
			a.status = "rebuild failed"
		} else {
			a.err = nil
			a.grid = msg.grid
			a.status = fmt.Sprintf("reloaded %s", a.grid.QuarterName)
			a.viewport.SetContent(RenderGrid(a.grid))
		}
		return a, a.rearm(msg.watched)

	case watcherClosedMsg:
		a.watcher = nil
		return a, nil
	}

	var cmd tea.Cmd
	a.viewport, cmd = a.viewport.Update(msg)
	return a, cmd
}

// View renders the title, the scrollable grid and the footer.
func (a *App) View() string {
	if !a.ready {
		return "Loading grid..."
	}
	title := headerStyle.Render("⬡ PLANNER")
	if a.status != "" {
		title += "  " + detailStyle.Render(a.status)
	}
	sections := []string{title, a.viewport.View()}
	if a.err != nil {
		sections = append(sections, errorStyle.Render("⚠ "+a.err.Error()))
	}
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Render(a.help.View(a.keys))
	sections = append(sections, footer)
	return strings.Join(sections, "\n")
}

func (a *App) waitForReload() tea.Cmd {
	if a.watcher == nil {
		return nil
	}
	reloads := a.watcher.Reloads()
	return func() tea.Msg {
		reload, ok := <-reloads
		if !ok {
			return watcherClosedMsg{}
		}
		return reloadMsg{reload: reload, watched: true}
	}
}

func (a *App) rearm(watched bool) tea.Cmd {
	if !watched {
		return nil
	}
	return a.waitForReload()
}

func (a *App) loadPlan() tea.Cmd {
	if a.planPath == "" {
		return nil
	}
	path := a.planPath
	return func() tea.Msg {
		export, err := planfile.Load(path)
		return reloadMsg{reload: planfile.Reload{Path: path, Export: export, Err: err}}
	}
}

func (a *App) rebuild(s plan.Snapshot, watched bool) tea.Cmd {
	ctx, builder, logger := a.ctx, a.builder, a.logger
	return func() tea.Msg {
		g, err := builder.Build(ctx, s)
		if err != nil {
			logger.Warn("grid rebuild failed", zap.Error(err))
		}
		return gridMsg{grid: g, err: err, watched: watched}
	}
}
