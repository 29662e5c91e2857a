package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/planner/internal/planfile"
)

func TestViewRendersGridAfterResize(t *testing.T) {
	app := newTestApp(t, testSnapshotFile(t))
	if got := app.View(); got != "Loading grid..." {
		t.Fatalf("expected loading view before the first resize, got %q", got)
	}
	model, _ := app.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	app = model.(*App)
	view := app.View()
	for _, want := range []string{"PLANNER", "Q1 2025", "Alice Kim", "quit"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestQuitKey(t *testing.T) {
	app := newTestApp(t, testSnapshotFile(t))
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestHelpKeyTogglesFullHelp(t *testing.T) {
	app := newTestApp(t, testSnapshotFile(t))
	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	if !app.help.ShowAll {
		t.Fatalf("expected full help after ?")
	}
}

func TestReloadKeyRebuildsFromPlanFile(t *testing.T) {
	path := testSnapshotFile(t)
	app := newTestApp(t, path)

	export, err := planfile.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	export.QuarterName = "Q1 2025 (revised)"
	if err := planfile.Save(path, export); err != nil {
		t.Fatalf("save: %v", err)
	}

	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	app = runCommands(t, model, cmd)
	if got := app.Grid().QuarterName; got != "Q1 2025 (revised)" {
		t.Fatalf("expected reloaded quarter, got %q", got)
	}
	if app.err != nil {
		t.Fatalf("unexpected error: %v", app.err)
	}
	if !strings.Contains(app.status, "reloaded") {
		t.Fatalf("expected reload status, got %q", app.status)
	}
}

func TestReloadKeepsGridWhenFileIsBroken(t *testing.T) {
	path := testSnapshotFile(t)
	app := newTestApp(t, path)
	before := app.Grid()

	if err := os.WriteFile(path, []byte("team_members: [\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	app = runCommands(t, model, cmd)
	if app.err == nil {
		t.Fatalf("expected reload error")
	}
	if app.Grid() != before {
		t.Fatalf("grid must survive a failed reload")
	}
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	if !strings.Contains(app.View(), "⚠") {
		t.Fatalf("expected error banner in view")
	}
}

func TestWatcherReloadRebuildsGrid(t *testing.T) {
	path := testSnapshotFile(t)
	w, err := planfile.NewWatcher(path, nil, planfile.WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("watcher: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	app := newTestApp(t, "", WithWatcher(w))
	wait := app.Init()
	if wait == nil {
		t.Fatalf("expected init to listen for reloads")
	}

	export, err := planfile.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	export.QuarterName = "Q2 2025"
	if err := planfile.Save(path, export); err != nil {
		t.Fatalf("save: %v", err)
	}

	msgs := make(chan tea.Msg, 1)
	go func() { msgs <- wait() }()
	var msg tea.Msg
	select {
	case msg = <-msgs:
	case <-time.After(5 * time.Second):
		t.Fatalf("no reload from watcher")
	}
	if _, ok := msg.(reloadMsg); !ok {
		t.Fatalf("expected reloadMsg, got %T", msg)
	}

	_, build := app.Update(msg)
	_, rearm := app.Update(build())
	if got := app.Grid().QuarterName; got != "Q2 2025" {
		t.Fatalf("expected rebuilt grid, got %q", got)
	}
	if rearm == nil {
		t.Fatalf("expected watcher to be re-armed")
	}

	w.Stop()
	if _, ok := rearm().(watcherClosedMsg); !ok {
		t.Fatalf("expected watcherClosedMsg after stop")
	}
	if _, cmd := app.Update(watcherClosedMsg{}); cmd != nil {
		t.Fatalf("closed watcher must not be re-armed")
	}
}

func testSnapshotFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.yaml")
	if err := planfile.Save(path, planfile.FromSnapshot(testSnapshot())); err != nil {
		t.Fatalf("save plan: %v", err)
	}
	return path
}

func newTestApp(t *testing.T, path string, opts ...AppOption) *App {
	t.Helper()
	s := testSnapshot()
	if path != "" {
		export, err := planfile.Load(path)
		if err != nil {
			t.Fatalf("load plan: %v", err)
		}
		s = export.Snapshot(s.Preferences)
		opts = append([]AppOption{WithPlanFile(path)}, opts...)
	}
	app, err := NewApp(s, nil, opts...)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return app
}

func runCommands(t *testing.T, model tea.Model, cmd tea.Cmd) *App {
	t.Helper()
	app, ok := model.(*App)
	if !ok {
		t.Fatalf("unexpected model type: %T", model)
	}
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			break
		}
		nextModel, nextCmd := app.Update(msg)
		var ok bool
		app, ok = nextModel.(*App)
		if !ok {
			t.Fatalf("unexpected model type: %T", nextModel)
		}
		cmd = nextCmd
	}
	return app
}
