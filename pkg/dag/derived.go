package dag

import (
	"fmt"
	"path"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/graph/flow"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/adonovan/spaghetti/pkg/graph"
)

// derived holds everything Recompute rebuilds after a graph change.
type derived struct {
	generation string
	elapsed    time.Duration

	from      []int // next link towards the root on the recorded path; -1 at the root
	reached   []bool
	idom      []int // immediate dominator; -1 for the root and unreachable nodes
	weight    []int
	reachable int
	tree      []graph.TreeItem
}

// Recompute rebuilds paths, dominators, weights and the directory tree from
// the current edges, and assigns a new generation ID. Break, Unbreak and
// ApplyBroken call it; it is exported for callers that edit in bulk.
func (g *Graph) Recompute() {
	start := time.Now()
	n := len(g.nodes)

	for i := range g.nodes {
		slices.Sort(g.imports[i])
		slices.Sort(g.importedBy[i])
	}

	// Record one path to every node from the root. The path is arbitrary
	// but determined by edge order.
	g.from = make([]int, n)
	g.reached = make([]bool, n)
	var setPath func(i, from int)
	setPath = func(i, from int) {
		if g.reached[i] {
			return
		}
		g.reached[i] = true
		g.from[i] = from
		for _, j := range g.imports[i] {
			setPath(j, i)
		}
	}
	if n > 0 {
		setPath(0, -1)
	}

	g.idom = g.dominators()

	g.weight = make([]int, n)
	var weigh func(i int) int
	weigh = func(i int) int {
		if g.weight[i] == 0 {
			w := 1 + g.nodes[i].Files
			for _, j := range g.imports[i] {
				w += weigh(j) / len(g.importedBy[j])
			}
			g.weight[i] = w
		}
		return g.weight[i]
	}
	g.reachable = 0
	for i := range g.nodes {
		if g.reached[i] {
			weigh(i)
		}
		if g.Reachable(i) {
			g.reachable++
		}
	}

	g.tree = g.buildTree()
	g.generation = uuid.NewString()
	g.elapsed = time.Since(start)
}

// dominators computes the immediate dominator of every node reachable from
// the root.
func (g *Graph) dominators() []int {
	dg := simple.NewDirectedGraph()
	for i := range g.nodes {
		dg.AddNode(simple.Node(i))
	}
	for i, imps := range g.imports {
		for _, j := range imps {
			if i != j {
				dg.SetEdge(dg.NewEdge(simple.Node(i), simple.Node(j)))
			}
		}
	}

	idom := make([]int, len(g.nodes))
	for i := range idom {
		idom[i] = -1
	}
	if len(g.nodes) == 0 {
		return idom
	}
	tree := flow.Dominators(simple.Node(0), dg)
	for i := range g.nodes {
		if i == 0 || !g.reached[i] {
			continue
		}
		if d := tree.DominatorOf(int64(i)); d != nil {
			idom[i] = int(d.ID())
		}
	}
	return idom
}

// Generation returns the ID of the last recompute.
func (g *Graph) Generation() string { return g.generation }

// Elapsed returns the duration of the last recompute.
func (g *Graph) Elapsed() time.Duration { return g.elapsed }

// ReachableCount returns the number of packages shown in the tree.
func (g *Graph) ReachableCount() int { return g.reachable }

// Reachable reports whether package i is shown: it is a root or it has a
// path from the root. The synthetic root is never shown.
func (g *Graph) Reachable(i int) bool {
	if g.IsSynthetic(i) {
		return false
	}
	return g.nodes[i].initial || g.reached[i]
}

// Weight returns the network-flow weight of package i: one plus its file
// count plus, for each import, that import's weight divided by its number of
// importers. Unreachable packages weigh 0.
func (g *Graph) Weight(i int) int { return g.weight[i] }

// Path returns the recorded path from package i back to the root, selected
// first, excluding the synthetic root.
func (g *Graph) Path(i int) []int {
	if !g.reached[i] {
		return []int{i}
	}
	var out []int
	for n := i; n >= 0 && !g.IsSynthetic(n); n = g.from[n] {
		out = append(out, n)
	}
	return out
}

// Dominators returns the dominator chain of package i, i first and the root
// last, excluding the synthetic root.
func (g *Graph) Dominators(i int) []int {
	var out []int
	for n := i; n >= 0 && !g.IsSynthetic(n); n = g.idom[n] {
		out = append(out, n)
	}
	return out
}

// Idom returns the immediate dominator of package i, or -1.
func (g *Graph) Idom(i int) int { return g.idom[i] }

// View returns the wire payload for package i.
func (g *Graph) View(i int) graph.PackageView {
	return graph.PackageView{
		Package:    i,
		Path:       g.Path(i),
		Dominators: g.Dominators(i),
		Imports:    g.Imports(i),
	}
}

// Tree returns the module/directory tree of reachable packages in preorder.
func (g *Graph) Tree() []graph.TreeItem { return g.tree }

// Snapshot returns the full wire state.
func (g *Graph) Snapshot() *graph.Snapshot {
	s := &graph.Snapshot{
		Generation: g.generation,
		Packages:   make([]graph.Package, len(g.nodes)),
		Initial:    g.Initial(),
		Broken:     g.Broken(),
		Tree:       slices.Clone(g.tree),
	}
	for i := range g.nodes {
		s.Packages[i] = g.Package(i)
	}
	return s
}

// dirent is an entry in the package directory tree.
type dirent struct {
	name     string // slash-separated path, or path@version for a module
	node     int    // package index, or -1
	module   bool
	children map[string]*dirent
}

func (g *Graph) buildTree() []graph.TreeItem {
	root := &dirent{node: -1}
	for i, n := range g.nodes {
		if !g.Reachable(i) {
			continue
		}
		e := getDirent(root, n.ImportPath, n.modpath, n.Version)
		if e.node >= 0 {
			// A variant of an already placed package, such as its test
			// variant, nests under it by ID.
			e = e.child(n.ID, n.ID, false)
		}
		e.node = i
	}

	var items []graph.TreeItem
	dirs := 0
	var visit func(e *dirent, parentID string)
	visit = func(e *dirent, parentID string) {
		keys := make([]string, 0, len(e.children))
		for k := range e.children {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			c := e.children[k]
			item := graph.TreeItem{Parent: parentID, Text: c.name, View: graph.DirectoryView()}
			switch {
			case c.node >= 0:
				item.ID = fmt.Sprintf("node%d", c.node)
				item.Type = graph.TypePackage
				item.Weight = g.weight[c.node]
				item.View = g.View(c.node)
			case c.module:
				dirs++
				item.ID = fmt.Sprintf("dir%d", dirs)
				item.Type = graph.TypeModule
			default:
				dirs++
				item.ID = fmt.Sprintf("dir%d", dirs)
				item.Type = graph.TypeDir
			}
			items = append(items, item)
			visit(c, item.ID)
		}
	}
	visit(root, graph.TreeRootID)
	return items
}

// getDirent returns the entry for the slash-separated name, creating it and
// its ancestors as needed. Modules are top-level entries labeled
// path@version; other names nest under their parent directory, and names
// outside any directory of their module hang directly off the module.
func getDirent(root *dirent, name, modpath, modversion string) *dirent {
	var key string
	var parent *dirent
	module := name == modpath
	if module {
		parent = root
		key = modpath
		if modversion != "" {
			key += "@" + modversion
		}
		name = key
	} else {
		dir, base := path.Dir(name), path.Base(name)
		if dir == "." || dir == "/" || dir == name {
			dir, base = modpath, name
		}
		parent = getDirent(root, dir, modpath, modversion)
		key = base
	}

	return parent.child(key, name, module)
}

func (e *dirent) child(key, name string, module bool) *dirent {
	c := e.children[key]
	if c == nil {
		c = &dirent{name: name, node: -1, module: module}
		if e.children == nil {
			e.children = make(map[string]*dirent)
		}
		e.children[key] = c
	}
	return c
}
