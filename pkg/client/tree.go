package client

import (
	"strings"

	errs "github.com/adonovan/spaghetti/pkg/errors"
	"github.com/adonovan/spaghetti/pkg/graph"
)

// Row is one visible line of the tree.
type Row struct {
	Item        graph.TreeItem
	Depth       int
	HasChildren bool
	Open        bool
	// Match is set when a search is active and the item's label matches it.
	Match bool
}

// TreeAdapter adapts the server's flat, parent-linked tree for a tree
// widget. It keeps open/closed state and the search filter, and forwards
// activations with the node's original payload.
type TreeAdapter struct {
	items      []graph.TreeItem
	index      map[string]int
	children   map[string][]int
	open       map[string]bool
	filter     string
	selected   string
	onActivate func(graph.PackageView)
}

// NewTreeAdapter wraps items, which must be in preorder (as produced by the
// server). onActivate receives the payload of every activated node.
func NewTreeAdapter(items []graph.TreeItem, onActivate func(graph.PackageView)) *TreeAdapter {
	t := &TreeAdapter{
		items:      items,
		index:      make(map[string]int, len(items)),
		children:   make(map[string][]int),
		open:       make(map[string]bool),
		onActivate: onActivate,
	}
	for i, item := range items {
		t.index[item.ID] = i
		t.children[item.Parent] = append(t.children[item.Parent], i)
	}
	return t
}

// Items returns the tree data as supplied.
func (t *TreeAdapter) Items() []graph.TreeItem { return t.items }

// Selected returns the ID of the last activated node.
func (t *TreeAdapter) Selected() string { return t.selected }

// Activate selects the node with the given ID and forwards its payload.
func (t *TreeAdapter) Activate(id string) error {
	i, ok := t.index[id]
	if !ok {
		return errs.New(errs.ErrCodeNotFound, "no tree node %q", id)
	}
	t.selected = id
	t.Reveal(id)
	if t.onActivate != nil {
		t.onActivate(t.items[i].View)
	}
	return nil
}

// Search sets the filter text. Matching is a case-insensitive substring test
// over labels; non-matching nodes are hidden unless they have a matching
// descendant. The empty string clears the filter.
func (t *TreeAdapter) Search(text string) {
	t.filter = strings.ToLower(strings.TrimSpace(text))
}

// Filter returns the active filter text, lower-cased.
func (t *TreeAdapter) Filter() string { return t.filter }

// Toggle flips the open state of a node.
func (t *TreeAdapter) Toggle(id string) {
	t.open[id] = !t.open[id]
}

// SetOpen opens or closes a node.
func (t *TreeAdapter) SetOpen(id string, open bool) {
	t.open[id] = open
}

// Reveal opens every ancestor of id.
func (t *TreeAdapter) Reveal(id string) {
	i, ok := t.index[id]
	if !ok {
		return
	}
	for p := t.items[i].Parent; p != graph.TreeRootID; {
		t.open[p] = true
		j, ok := t.index[p]
		if !ok {
			break
		}
		p = t.items[j].Parent
	}
}

// Visible returns the rows to display, in preorder. While a search is active
// every node on the way to a match is shown expanded.
func (t *TreeAdapter) Visible() []Row {
	var keep map[string]bool
	if t.filter != "" {
		keep = t.matches()
	}

	var rows []Row
	var walk func(parent string, depth int)
	walk = func(parent string, depth int) {
		for _, i := range t.children[parent] {
			item := t.items[i]
			if keep != nil && !keep[item.ID] {
				continue
			}
			row := Row{
				Item:        item,
				Depth:       depth,
				HasChildren: len(t.children[item.ID]) > 0,
				Open:        t.open[item.ID] || keep != nil,
				Match:       keep != nil && t.matchesLabel(item),
			}
			rows = append(rows, row)
			if row.HasChildren && row.Open {
				walk(item.ID, depth+1)
			}
		}
	}
	walk(graph.TreeRootID, 0)
	return rows
}

// matches returns the IDs of matching nodes and all their ancestors.
func (t *TreeAdapter) matches() map[string]bool {
	keep := make(map[string]bool)
	for _, item := range t.items {
		if !t.matchesLabel(item) {
			continue
		}
		for id := item.ID; id != graph.TreeRootID && !keep[id]; {
			keep[id] = true
			j, ok := t.index[id]
			if !ok {
				break
			}
			id = t.items[j].Parent
		}
	}
	return keep
}

func (t *TreeAdapter) matchesLabel(item graph.TreeItem) bool {
	return t.filter != "" && strings.Contains(strings.ToLower(item.Text), t.filter)
}
