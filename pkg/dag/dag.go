package dag

import (
	"errors"
	"fmt"
	"slices"

	errs "github.com/adonovan/spaghetti/pkg/errors"
	"github.com/adonovan/spaghetti/pkg/graph"
)

var (
	// ErrInvalidNodeID is returned by [New] when a package ID is empty.
	ErrInvalidNodeID = errors.New("package ID must not be empty")

	// ErrDuplicateNodeID is returned by [New] when two packages share an ID.
	ErrDuplicateNodeID = errors.New("duplicate package ID")

	// ErrUnknownTargetNode is returned by [New] when a package imports an ID
	// that is not in the package list.
	ErrUnknownTargetNode = errors.New("unknown imported package")

	// ErrGraphHasCycle is returned by [New] when the import graph contains a
	// cycle. Cycles are detected using depth-first search with
	// white/gray/black coloring.
	ErrGraphHasCycle = errors.New("import graph contains a cycle")
)

// SyntheticRootID is the ID of the package [New] synthesizes when there is
// more than one root. It imports the roots and never appears in paths,
// dominator chains or the directory tree.
const SyntheticRootID = "(root)"

// StdModule is the module path given to packages without a module.
const StdModule = "std"

// Package is a package as delivered by a loader.
type Package struct {
	ID         string
	ImportPath string
	Name       string
	Module     string // empty for standard packages
	Version    string
	Files      int
	Imports    []string // IDs, visited in this order
}

// EdgeKey identifies an import edge by package IDs. Unlike index pairs, edge
// keys remain meaningful across loads.
type EdgeKey struct {
	From string `json:"from" bson:"from"`
	To   string `json:"to" bson:"to"`
}

func (k EdgeKey) String() string { return k.From + " -> " + k.To }

// node is a vertex of the import graph.
type node struct {
	Package
	index   int
	initial bool
	modpath string // StdModule for standard packages
}

// Graph is the mutable package import graph behind the server. Packages are
// numbered once, in deterministic preorder from the root, and keep their
// index for the lifetime of the Graph; breaking and unbreaking edges only
// changes the edge sets and the derived data.
//
// The zero value is not usable; use [New]. Graph is not safe for concurrent
// use without external synchronization.
type Graph struct {
	nodes     []*node
	byID      map[string]int
	synthetic bool

	imports    [][]int
	importedBy [][]int
	broken     []graph.EdgePair

	derived
}

// New builds the graph of pkgs reachable from roots, which are package IDs.
// Node 0 is the single root, or a synthetic root importing every root when
// there are several. Nodes are numbered in preorder: a package is numbered
// before its imports, which are visited in the order of [Package.Imports].
// Packages unreachable from the roots are numbered after the rest, in input
// order.
//
// New computes the derived data before returning; see [Graph.Recompute].
func New(pkgs []Package, roots []string) (*Graph, error) {
	if len(roots) == 0 {
		return nil, errs.New(errs.ErrCodeInvalidInput, "no root packages")
	}

	byID := make(map[string]*Package, len(pkgs)+1)
	for i := range pkgs {
		p := &pkgs[i]
		if p.ID == "" {
			return nil, errs.Wrap(errs.ErrCodeInvalidInput, ErrInvalidNodeID, "package %d", i)
		}
		if _, dup := byID[p.ID]; dup {
			return nil, errs.Wrap(errs.ErrCodeInvalidInput, ErrDuplicateNodeID, "%q", p.ID)
		}
		byID[p.ID] = p
	}
	for _, p := range pkgs {
		for _, imp := range p.Imports {
			if _, ok := byID[imp]; !ok {
				return nil, errs.Wrap(errs.ErrCodeInvalidInput, ErrUnknownTargetNode, "%s imports %q", p.ID, imp)
			}
		}
	}
	for _, r := range roots {
		if _, ok := byID[r]; !ok {
			return nil, errs.New(errs.ErrCodePackageNotFound, "root package %q not loaded", r)
		}
	}

	root := roots[0]
	g := &Graph{byID: make(map[string]int, len(pkgs)+1)}
	if len(roots) > 1 {
		if _, clash := byID[SyntheticRootID]; clash {
			return nil, errs.Wrap(errs.ErrCodeInvalidInput, ErrDuplicateNodeID, "%q is reserved", SyntheticRootID)
		}
		byID[SyntheticRootID] = &Package{
			ID:         SyntheticRootID,
			ImportPath: SyntheticRootID,
			Name:       "synthetic root package",
			Imports:    slices.Clone(roots),
		}
		root = SyntheticRootID
		g.synthetic = true
	}

	var visit func(id string)
	visit = func(id string) {
		if _, seen := g.byID[id]; seen {
			return
		}
		p := byID[id]
		g.add(p)
		for _, imp := range p.Imports {
			visit(imp)
		}
	}
	visit(root)
	for i := range pkgs {
		if _, seen := g.byID[pkgs[i].ID]; !seen {
			g.add(&pkgs[i])
		}
	}

	for _, r := range roots {
		g.nodes[g.byID[r]].initial = true
	}

	g.imports = make([][]int, len(g.nodes))
	g.importedBy = make([][]int, len(g.nodes))
	for _, n := range g.nodes {
		for _, imp := range n.Imports {
			j := g.byID[imp]
			if slices.Contains(g.imports[n.index], j) {
				continue
			}
			g.imports[n.index] = append(g.imports[n.index], j)
			g.importedBy[j] = append(g.importedBy[j], n.index)
		}
	}
	if cyc, ok := g.findCycle(); ok {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, ErrGraphHasCycle, "edge %s -> %s", g.nodes[cyc[0]].ID, g.nodes[cyc[1]].ID)
	}

	g.Recompute()
	return g, nil
}

func (g *Graph) add(p *Package) {
	n := &node{Package: *p, index: len(g.nodes), modpath: p.Module}
	switch {
	case g.synthetic && n.index == 0:
		n.modpath = SyntheticRootID
	case n.modpath == "":
		n.modpath = StdModule
		n.Version = ""
	}
	g.byID[p.ID] = n.index
	g.nodes = append(g.nodes, n)
}

// findCycle returns a back edge if the graph has a cycle.
func (g *Graph) findCycle() ([2]int, bool) {
	const (
		white = iota
		gray
		black
	)
	color := make([]int, len(g.nodes))
	var back [2]int
	found := false

	var dfs func(i int)
	dfs = func(i int) {
		color[i] = gray
		for _, j := range g.imports[i] {
			if found {
				return
			}
			switch color[j] {
			case white:
				dfs(j)
			case gray:
				back, found = [2]int{i, j}, true
			}
		}
		color[i] = black
	}
	for i := range g.nodes {
		if color[i] == white && !found {
			dfs(i)
		}
	}
	return back, found
}

// Len returns the number of packages, including the synthetic root.
func (g *Graph) Len() int { return len(g.nodes) }

// Root returns the index of the root, always 0.
func (g *Graph) Root() int { return 0 }

// HasSyntheticRoot reports whether node 0 was synthesized.
func (g *Graph) HasSyntheticRoot() bool { return g.synthetic }

// IsSynthetic reports whether i is the synthetic root.
func (g *Graph) IsSynthetic(i int) bool { return g.synthetic && i == 0 }

// IndexOf returns the index of the package with the given ID.
func (g *Graph) IndexOf(id string) (int, bool) {
	i, ok := g.byID[id]
	return i, ok
}

// Package returns the wire form of package i.
func (g *Graph) Package(i int) graph.Package {
	n := g.nodes[i]
	return graph.Package{
		Index:      i,
		ID:         n.ID,
		ImportPath: n.ImportPath,
		Name:       n.Name,
		Module:     n.modpath,
		Version:    n.Version,
		Files:      n.Files,
		Weight:     g.weight[i],
	}
}

// ModuleOf returns the module path and version of package i.
func (g *Graph) ModuleOf(i int) (path, version string) {
	n := g.nodes[i]
	return n.modpath, n.Version
}

// Initial returns the indices of the root packages.
func (g *Graph) Initial() []int {
	var out []int
	for _, n := range g.nodes {
		if n.initial {
			out = append(out, n.index)
		}
	}
	return out
}

// Imports returns the current imports of package i in index order.
func (g *Graph) Imports(i int) []int { return slices.Clone(g.imports[i]) }

// ImportedBy returns the current importers of package i in index order.
func (g *Graph) ImportedBy(i int) []int { return slices.Clone(g.importedBy[i]) }

// Edges returns every current edge, ordered by source then target index.
func (g *Graph) Edges() []graph.EdgePair {
	var out []graph.EdgePair
	for i, imps := range g.imports {
		for _, j := range imps {
			out = append(out, graph.EdgePair{i, j})
		}
	}
	return out
}

// HasEdge reports whether from currently imports to.
func (g *Graph) HasEdge(from, to int) bool {
	return g.valid(from) && g.valid(to) && slices.Contains(g.imports[from], to)
}

func (g *Graph) valid(i int) bool { return i >= 0 && i < len(g.nodes) }

func (g *Graph) checkIndex(i int) error {
	if !g.valid(i) {
		return errs.New(errs.ErrCodeIndexOutOfRange, "package index %d out of range [0, %d)", i, len(g.nodes))
	}
	return nil
}

func (g *Graph) String() string {
	return fmt.Sprintf("dag.Graph{packages: %d, edges: %d, broken: %d}", len(g.nodes), len(g.Edges()), len(g.broken))
}
