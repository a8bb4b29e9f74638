package tui

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/adonovan/spaghetti/pkg/client"
	"github.com/adonovan/spaghetti/pkg/dag"
	"github.com/adonovan/spaghetti/pkg/graph"
	"github.com/adonovan/spaghetti/pkg/server"
)

// newSource serves app → {db, log}, db → log (app0 db1 log2) and returns a
// client for it. The tree is node0 (app) ⊃ node1 (db), then dir1 (std) ⊃
// node2 (log).
func newSource(t *testing.T) *client.Client {
	t.Helper()
	g, err := dag.New([]dag.Package{
		{ID: "app", ImportPath: "example.com/app", Module: "example.com/app", Imports: []string{"db", "log"}},
		{ID: "db", ImportPath: "example.com/app/db", Module: "example.com/app", Imports: []string{"log"}},
		{ID: "log", ImportPath: "log"},
	}, []string{"app"})
	if err != nil {
		t.Fatal(err)
	}
	s, err := server.New(server.Config{Graph: g})
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	c, err := client.NewClient(ts.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// drive runs cmd and feeds its messages back into m until nothing is left.
func drive(m Model, cmd tea.Cmd) Model {
	for cmd != nil {
		msg := cmd()
		if _, ok := msg.(tea.QuitMsg); ok {
			return m
		}
		next, c := m.Update(msg)
		m, cmd = next.(Model), c
	}
	return m
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		next, cmd := m.Update(key(k))
		m = drive(next.(Model), cmd)
	}
	return m
}

func start(t *testing.T) Model {
	t.Helper()
	m := New(newSource(t))
	m = drive(m, m.Init())
	if m.Err() != nil {
		t.Fatalf("load: %v", m.Err())
	}
	return m
}

func visibleIDs(m Model) []string {
	var ids []string
	for _, row := range m.Page().Tree.Visible() {
		ids = append(ids, row.Item.ID)
	}
	return ids
}

func TestLoad(t *testing.T) {
	m := start(t)
	if got := strings.Join(visibleIDs(m), " "); got != "node0 dir1" {
		t.Errorf("visible = %s, want collapsed top level", got)
	}
	if !m.Page().Selection.Details().IsCleared() {
		t.Error("selection not idle after load")
	}
}

func TestLoadError(t *testing.T) {
	m := New(failingSource{})
	m = drive(m, m.Init())
	if m.Err() == nil || m.Page() != nil {
		t.Fatalf("Err = %v, Page = %v", m.Err(), m.Page())
	}
	if v := m.View(); !strings.Contains(v, "cannot load graph") {
		t.Errorf("View = %q", v)
	}
}

type failingSource struct{}

func (failingSource) Fetch(context.Context) (*graph.Snapshot, error) {
	return nil, errors.New("connection refused")
}

func (failingSource) Navigate(context.Context, string) error { return nil }

func TestMoveActivates(t *testing.T) {
	m := start(t)

	m = press(m, "down")
	if !m.Page().Selection.Details().IsCleared() {
		t.Error("directory row left a package selected")
	}
	m = press(m, "up")
	if d := m.Page().Selection.Details(); d.Name != "example.com/app" {
		t.Errorf("selected %q, want example.com/app", d.Name)
	}

	m = press(m, "enter")
	if got := strings.Join(visibleIDs(m), " "); got != "node0 node1 dir1" {
		t.Errorf("visible after enter = %s", got)
	}
	m = press(m, "enter")
	if got := strings.Join(visibleIDs(m), " "); got != "node0 dir1" {
		t.Errorf("visible after second enter = %s", got)
	}
}

func TestFollowImport(t *testing.T) {
	m := start(t)
	m = press(m, "enter", "tab", "tab")
	if m.pane != paneImports {
		t.Fatalf("pane = %v, want imports", m.pane)
	}
	m = press(m, "down", "enter")

	if got := m.Page().Tree.Selected(); got != "node2" {
		t.Fatalf("tree selection = %q, want node2", got)
	}
	if d := m.Page().Selection.Details(); d.Name != "log" {
		t.Errorf("selected %q, want log", d.Name)
	}
	rows := m.Page().Tree.Visible()
	if cur := m.cursor[paneTree]; rows[cur].Item.ID != "node2" {
		t.Errorf("tree cursor on %s, want node2", rows[cur].Item.ID)
	}
}

func TestBreakAndUnbreak(t *testing.T) {
	m := start(t)
	// Select log through app's imports, then go to the path pane.
	m = press(m, "enter", "tab", "tab", "down", "enter", "shift+tab")
	if m.pane != panePath {
		t.Fatalf("pane = %v, want path", m.pane)
	}
	if got := len(m.Page().Selection.Details().Path.Controls()); got != 2 {
		t.Fatalf("path has %d hops, want 2 (app → db → log)", got)
	}

	m = press(m, "down", "b")
	if m.Err() != nil {
		t.Fatal(m.Err())
	}
	if got := m.Page().Model.BrokenEdges(); len(got) != 1 || got[0] != (graph.EdgePair{1, 2}) {
		t.Fatalf("broken = %v, want [1->2]", got)
	}
	if m.status != "break example.com/app/db → log" {
		t.Errorf("status = %q", m.status)
	}
	if got := m.Page().Tree.Selected(); got != "node2" {
		t.Errorf("selection lost on reload: %q", got)
	}
	if got := len(m.Page().Selection.Details().Path.Controls()); got != 1 {
		t.Errorf("path has %d hops after break, want 1", got)
	}

	m = press(m, "u")
	if !strings.Contains(m.status, "broken pane") {
		t.Errorf("unbreak outside broken pane: status %q", m.status)
	}
	m = press(m, "tab", "tab", "u")
	if got := m.Page().Model.BrokenEdges(); len(got) != 0 {
		t.Errorf("broken after unbreak = %v", got)
	}
}

func TestBreakAll(t *testing.T) {
	m := start(t)
	m = press(m, "enter", "tab", "tab", "down", "enter", "shift+tab", "down", "B")
	// Break all on db → log cuts app → log too.
	if got := m.Page().Model.BrokenEdges(); len(got) != 2 {
		t.Errorf("broken = %v, want both edges into log", got)
	}
}

func TestBreakOutsidePathPane(t *testing.T) {
	m := start(t)
	m = press(m, "enter", "b")
	if len(m.Page().Model.BrokenEdges()) != 0 {
		t.Error("b in the tree pane broke an edge")
	}
	if !strings.Contains(m.status, "path pane") {
		t.Errorf("status = %q", m.status)
	}
}

func TestSearch(t *testing.T) {
	m := start(t)
	m = press(m, "/", "d", "b")
	if !m.searching {
		t.Fatal("not in search mode")
	}
	if got := strings.Join(visibleIDs(m), " "); got != "node0 node1" {
		t.Errorf("visible while searching = %s", got)
	}
	m = press(m, "enter")
	if m.searching || m.Page().Tree.Filter() != "db" {
		t.Errorf("searching = %v, filter = %q", m.searching, m.Page().Tree.Filter())
	}

	m = press(m, "/", "backspace", "backspace", "esc")
	if m.Page().Tree.Filter() != "" {
		t.Errorf("filter after esc = %q", m.Page().Tree.Filter())
	}
}

func TestView(t *testing.T) {
	m := start(t)
	m = press(m, "enter")
	v := m.View()
	for _, want := range []string{"3 packages", "Path from root", "Imports", "Broken edges", "example.com/app/db"} {
		if !strings.Contains(v, want) {
			t.Errorf("View lacks %q", want)
		}
	}
}

func TestQuit(t *testing.T) {
	m := start(t)
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}
