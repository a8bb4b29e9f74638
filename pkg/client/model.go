package client

import (
	"slices"

	errs "github.com/adonovan/spaghetti/pkg/errors"
	"github.com/adonovan/spaghetti/pkg/graph"
)

// GraphModel holds one loaded snapshot: the flat package list, the initial
// packages, the broken edges and the directory tree. It answers lookups by
// package index.
//
// A GraphModel is written only by Load and is read-only afterwards. It is not
// safe for concurrent Load and lookup.
type GraphModel struct {
	generation string
	packages   []graph.Package
	initial    []int
	broken     []graph.EdgePair
	tree       []graph.TreeItem
	items      map[int]int // package index -> position in tree
}

// NewGraphModel returns an empty model. Load must be called before lookups
// can succeed.
func NewGraphModel() *GraphModel {
	return &GraphModel{}
}

// Load replaces all held state with the contents of s. If s references an
// index outside its package list the model is left unchanged and an error
// with code MALFORMED_SNAPSHOT is returned.
func (m *GraphModel) Load(s *graph.Snapshot) error {
	if s == nil {
		return errs.New(errs.ErrCodeMalformedSnapshot, "nil snapshot")
	}
	if err := s.Validate(); err != nil {
		return err
	}

	items := make(map[int]int)
	for i, item := range s.Tree {
		if item.View.IsPackage() {
			if _, dup := items[item.View.Package]; !dup {
				items[item.View.Package] = i
			}
		}
	}

	m.generation = s.Generation
	m.packages = slices.Clone(s.Packages)
	m.initial = slices.Clone(s.Initial)
	m.broken = slices.Clone(s.Broken)
	m.tree = slices.Clone(s.Tree)
	m.items = items
	return nil
}

// Len returns the number of packages.
func (m *GraphModel) Len() int { return len(m.packages) }

// Generation returns the server generation of the loaded snapshot.
func (m *GraphModel) Generation() string { return m.generation }

// PackageAt returns the package with the given index, or an error with code
// INDEX_OUT_OF_RANGE.
func (m *GraphModel) PackageAt(i int) (graph.Package, error) {
	if i < 0 || i >= len(m.packages) {
		return graph.Package{}, errs.New(errs.ErrCodeIndexOutOfRange, "package index %d out of range [0, %d)", i, len(m.packages))
	}
	return m.packages[i], nil
}

// BrokenEdges returns the broken edges of the snapshot.
func (m *GraphModel) BrokenEdges() []graph.EdgePair {
	return slices.Clone(m.broken)
}

// Initial returns the indices of the packages the server was started with.
func (m *GraphModel) Initial() []int {
	return slices.Clone(m.initial)
}

// Tree returns the directory tree exactly as delivered by the server.
func (m *GraphModel) Tree() []graph.TreeItem {
	return m.tree
}

// ItemOf returns the tree item that carries package i.
func (m *GraphModel) ItemOf(i int) (graph.TreeItem, bool) {
	pos, ok := m.items[i]
	if !ok {
		return graph.TreeItem{}, false
	}
	return m.tree[pos], true
}

// ViewOf returns the server payload for package i, as it would be delivered
// by activating its tree node.
func (m *GraphModel) ViewOf(i int) (graph.PackageView, bool) {
	item, ok := m.ItemOf(i)
	return item.View, ok
}
