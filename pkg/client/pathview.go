package client

import (
	"slices"
	"strings"

	"github.com/adonovan/spaghetti/pkg/graph"
)

// PathNode is one package on a rendered root→selected path.
type PathNode struct {
	Index      int
	ImportPath string
	// Dominator marks nodes that dominate the selected package.
	Dominator bool
	// Incoming holds the controls for the edge from the previous node.
	// It is nil for the first node.
	Incoming *HopControls
}

// HopControls are the two edit controls shown on the edge between two
// consecutive path nodes. Both reference the same ordered pair and differ
// only in the all flag.
type HopControls struct {
	Break    Action
	BreakAll Action
}

// RenderedPath is the renderable form of a package's path from the root.
// The zero value is the cleared path.
type RenderedPath struct {
	Nodes []PathNode
}

// Empty reports whether the path has nothing to show.
func (p RenderedPath) Empty() bool { return len(p.Nodes) == 0 }

// Controls returns the control pairs of the path in root→selected order.
func (p RenderedPath) Controls() []HopControls {
	var out []HopControls
	for _, n := range p.Nodes {
		if n.Incoming != nil {
			out = append(out, *n.Incoming)
		}
	}
	return out
}

// DominatorStrip is the dominator chain of a package, root first.
type DominatorStrip struct {
	Indices []int
	Labels  []string
}

// String joins the labels with arrows.
func (s DominatorStrip) String() string {
	return strings.Join(s.Labels, " → ")
}

// PathView turns package views into renderable paths using a GraphModel to
// resolve labels.
type PathView struct {
	model *GraphModel
}

// NewPathView returns a PathView reading from m.
func NewPathView(m *GraphModel) *PathView {
	return &PathView{model: m}
}

// Render returns the root→selected chain for v. A non-package view renders as
// the empty path without consulting the model.
//
// The first node never carries controls, including when a server includes
// the root as a hop of its own: there is no edge into the root.
func (pv *PathView) Render(v graph.PackageView) (RenderedPath, error) {
	if !v.IsPackage() {
		return RenderedPath{}, nil
	}

	path := slices.Clone(v.Path)
	slices.Reverse(path)

	nodes := make([]PathNode, len(path))
	for i, idx := range path {
		pkg, err := pv.model.PackageAt(idx)
		if err != nil {
			return RenderedPath{}, err
		}
		nodes[i] = PathNode{
			Index:      idx,
			ImportPath: pkg.ImportPath,
			Dominator:  slices.Contains(v.Dominators, idx),
		}
		if i > 0 {
			from := path[i-1]
			nodes[i].Incoming = &HopControls{
				Break:    BreakAction(from, idx, false),
				BreakAll: BreakAction(from, idx, true),
			}
		}
	}
	return RenderedPath{Nodes: nodes}, nil
}

// RenderDominators returns the dominator chain of v, root first. It has no
// controls; it exists for inspection only.
func (pv *PathView) RenderDominators(v graph.PackageView) (DominatorStrip, error) {
	if !v.IsPackage() {
		return DominatorStrip{}, nil
	}

	doms := slices.Clone(v.Dominators)
	slices.Reverse(doms)

	strip := DominatorStrip{Indices: doms, Labels: make([]string, len(doms))}
	for i, idx := range doms {
		pkg, err := pv.model.PackageAt(idx)
		if err != nil {
			return DominatorStrip{}, err
		}
		strip.Labels[i] = pkg.ImportPath
	}
	return strip, nil
}
