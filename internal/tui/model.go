// Package tui is a terminal front-end for a spaghetti server, built on
// bubbletea over the same client components as the browser page.
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/adonovan/spaghetti/pkg/client"
	"github.com/adonovan/spaghetti/pkg/graph"
)

// EditTimeout bounds one edit navigation plus the reload that follows it.
const EditTimeout = 30 * time.Second

// Source is a spaghetti server as seen by the browser: snapshots are
// fetched, edits are navigations. *client.Client implements it.
type Source interface {
	Fetch(ctx context.Context) (*graph.Snapshot, error)
	client.Navigator
}

type pane int

const (
	paneTree pane = iota
	panePath
	paneImports
	paneBroken
	numPanes
)

func (p pane) String() string {
	return [...]string{"tree", "path", "imports", "broken"}[p]
}

// snapshotMsg delivers a fetched snapshot.
type snapshotMsg struct {
	snap *graph.Snapshot
	err  error
	// note is shown in the status line after an edit.
	note string
}

// Model is the bubbletea model of the browser. Every load builds a fresh
// client.Page; the selected node, the filter and the expanded directories
// survive reloads.
type Model struct {
	src  Source
	page *client.Page
	err  error

	pane   pane
	cursor [numPanes]int

	open      map[string]bool
	selected  string
	searching bool
	query     string

	status  string
	loading bool
	width   int
	height  int
}

// New returns a model reading from src. The first snapshot is fetched by
// Init.
func New(src Source) Model {
	return Model{src: src, open: make(map[string]bool), loading: true, height: 24, width: 100}
}

// Run browses src until the user quits or ctx is cancelled. It returns the
// last error if the graph could never be loaded.
func Run(ctx context.Context, src Source) error {
	p := tea.NewProgram(New(src), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(Model); ok && m.page == nil {
		return m.err
	}
	return nil
}

// Init starts the first load.
func (m Model) Init() tea.Cmd {
	return m.load("")
}

// Err returns the last load or edit error.
func (m Model) Err() error { return m.err }

// Page returns the page built from the last snapshot, or nil.
func (m Model) Page() *client.Page { return m.page }

func (m Model) load(note string) tea.Cmd {
	src := m.src
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), EditTimeout)
		defer cancel()
		snap, err := src.Fetch(ctx)
		return snapshotMsg{snap: snap, err: err, note: note}
	}
}

// edit navigates to the action's endpoint and reloads. A failed edit
// reloads too: its only visible effect is an unchanged graph.
func (m Model) edit(a client.Action, note string) tea.Cmd {
	editor := m.page.Editor
	src := m.src
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), EditTimeout)
		defer cancel()
		if err := editor.Dispatch(ctx, a); err != nil {
			note = err.Error()
		}
		snap, err := src.Fetch(ctx)
		return snapshotMsg{snap: snap, err: err, note: note}
	}
}

// Update handles a message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case snapshotMsg:
		m.loading = false
		m.status = msg.note
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m = m.reload(msg.snap)
	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateKey(msg)
	}
	return m, nil
}

// reload replaces the page and restores the view state on it.
func (m Model) reload(snap *graph.Snapshot) Model {
	page, err := client.NewPage(snap, nil, m.src)
	if err != nil {
		m.err = err
		return m
	}
	m.page = page
	for id, open := range m.open {
		page.Tree.SetOpen(id, open)
	}
	page.Tree.Search(m.query)
	if m.selected != "" && page.Tree.Activate(m.selected) != nil {
		m.selected = ""
	}
	m.syncTreeCursor()
	for p := panePath; p < numPanes; p++ {
		m.cursor[p] = clamp(m.cursor[p], m.paneLen(p))
	}
	return m
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
	case tea.KeyEsc:
		m.searching = false
		m.query = ""
	case tea.KeyBackspace:
		if r := []rune(m.query); len(r) > 0 {
			m.query = string(r[:len(r)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		m.query += string(msg.Runes)
	case tea.KeyCtrlC:
		return m, tea.Quit
	}
	if m.page != nil {
		m.page.Tree.Search(m.query)
		m.cursor[paneTree] = 0
		m.syncTreeCursor()
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.loading = true
		return m, m.load("reloaded")
	}
	if m.page == nil || m.loading {
		return m, nil
	}

	switch msg.String() {
	case "tab":
		m.pane = (m.pane + 1) % numPanes
	case "shift+tab":
		m.pane = (m.pane + numPanes - 1) % numPanes
	case "/":
		m.searching = true
		m.pane = paneTree
	case "up", "k":
		m = m.move(-1)
	case "down", "j":
		m = m.move(+1)
	case "enter":
		return m.enter()
	case "b", "B":
		return m.breakHop(msg.String() == "B")
	case "u":
		return m.unbreak()
	}
	return m, nil
}

func (m Model) move(delta int) Model {
	n := m.paneLen(m.pane)
	m.cursor[m.pane] = clamp(m.cursor[m.pane]+delta, n)
	if m.pane == paneTree {
		rows := m.page.Tree.Visible()
		if len(rows) > 0 {
			m.activate(rows[m.cursor[paneTree]].Item.ID)
		}
	}
	return m
}

func (m Model) enter() (tea.Model, tea.Cmd) {
	switch m.pane {
	case paneTree:
		rows := m.page.Tree.Visible()
		if len(rows) == 0 {
			return m, nil
		}
		row := rows[m.cursor[paneTree]]
		if row.HasChildren {
			m.open[row.Item.ID] = !row.Open
			m.page.Tree.SetOpen(row.Item.ID, !row.Open)
		}
		m.activate(row.Item.ID)
	case paneImports:
		imps := m.page.Selection.Details().Imports
		if len(imps) == 0 {
			return m, nil
		}
		if err := m.page.SelectImport(imps[m.cursor[paneImports]].Index); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.selected = m.page.Tree.Selected()
		m.syncTreeCursor()
		m.cursor[panePath], m.cursor[paneImports] = 0, 0
	}
	return m, nil
}

func (m Model) breakHop(all bool) (tea.Model, tea.Cmd) {
	if m.pane != panePath {
		m.status = "select an edge in the path pane to break it"
		return m, nil
	}
	hops := m.page.Selection.Details().Path.Controls()
	if len(hops) == 0 {
		return m, nil
	}
	hop := hops[m.cursor[panePath]]
	a := hop.Break
	if all {
		a = hop.BreakAll
	}
	m.loading = true
	return m, m.edit(a, a.Kind.String()+" "+m.edgeLabel(a))
}

func (m Model) unbreak() (tea.Model, tea.Cmd) {
	if m.pane != paneBroken {
		m.status = "select an edge in the broken pane to restore it"
		return m, nil
	}
	broken, _ := m.page.Broken()
	if len(broken) == 0 {
		return m, nil
	}
	e := broken[m.cursor[paneBroken]]
	m.loading = true
	return m, m.edit(e.Unbreak, "unbreak "+e.From+" → "+e.To)
}

func (m Model) edgeLabel(a client.Action) string {
	from, err1 := m.page.Model.PackageAt(a.From)
	to, err2 := m.page.Model.PackageAt(a.To)
	if err1 != nil || err2 != nil {
		return a.URL()
	}
	return from.ImportPath + " → " + to.ImportPath
}

// activate selects a tree node. It mutates the page only; the model value
// keeps the ID so the selection survives reloads.
func (m *Model) activate(id string) {
	if m.page.Tree.Activate(id) == nil {
		m.selected = id
		m.cursor[panePath], m.cursor[paneImports] = 0, 0
	}
}

// syncTreeCursor moves the tree cursor onto the selected row, if visible.
func (m *Model) syncTreeCursor() {
	rows := m.page.Tree.Visible()
	for i, row := range rows {
		if row.Item.ID == m.selected && m.selected != "" {
			m.cursor[paneTree] = i
			return
		}
	}
	m.cursor[paneTree] = clamp(m.cursor[paneTree], len(rows))
}

func (m Model) paneLen(p pane) int {
	if m.page == nil {
		return 0
	}
	switch p {
	case paneTree:
		return len(m.page.Tree.Visible())
	case panePath:
		return len(m.page.Selection.Details().Path.Controls())
	case paneImports:
		return len(m.page.Selection.Details().Imports)
	case paneBroken:
		return len(m.page.Model.BrokenEdges())
	}
	return 0
}

// clamp limits i to [0, n), or 0 when n is 0.
func clamp(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}
