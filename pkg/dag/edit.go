package dag

import (
	"slices"

	errs "github.com/adonovan/spaghetti/pkg/errors"
	"github.com/adonovan/spaghetti/pkg/graph"
)

// Break removes the edge from→to and recomputes the derived data. With all
// set it removes every edge into to instead, so that no package imports it;
// from only names the hop the request came from. It returns the edges
// removed, in index order.
//
// Breaking an edge that does not exist is an error with code NOT_FOUND.
// The synthetic root is never an endpoint.
func (g *Graph) Break(from, to int, all bool) ([]graph.EdgePair, error) {
	if err := g.checkEndpoints(from, to); err != nil {
		return nil, err
	}

	var cut []graph.EdgePair
	if all {
		for _, i := range g.importedBy[to] {
			if !g.IsSynthetic(i) {
				cut = append(cut, graph.EdgePair{i, to})
			}
		}
	} else if g.HasEdge(from, to) {
		cut = []graph.EdgePair{{from, to}}
	}
	if len(cut) == 0 {
		return nil, errs.New(errs.ErrCodeNotFound, "no edge %s -> %s", g.nodes[from].ImportPath, g.nodes[to].ImportPath)
	}

	for _, e := range cut {
		g.removeEdge(e.From(), e.To())
		g.broken = append(g.broken, e)
	}
	g.Recompute()
	return cut, nil
}

// Unbreak restores a broken edge and recomputes the derived data. Restoring
// an edge that is not broken is an error with code NOT_FOUND.
func (g *Graph) Unbreak(from, to int) error {
	if err := g.checkEndpoints(from, to); err != nil {
		return err
	}
	e := graph.EdgePair{from, to}
	i := slices.Index(g.broken, e)
	if i < 0 {
		return errs.New(errs.ErrCodeNotFound, "edge %s -> %s is not broken", g.nodes[from].ImportPath, g.nodes[to].ImportPath)
	}
	g.broken = slices.Delete(g.broken, i, i+1)
	g.imports[from] = append(g.imports[from], to)
	g.importedBy[to] = append(g.importedBy[to], from)
	g.Recompute()
	return nil
}

// Broken returns the broken edges in the order they were broken.
func (g *Graph) Broken() []graph.EdgePair { return slices.Clone(g.broken) }

// BrokenKeys returns the broken edges by package ID.
func (g *Graph) BrokenKeys() []EdgeKey {
	keys := make([]EdgeKey, 0, len(g.broken))
	for _, e := range g.broken {
		keys = append(keys, EdgeKey{From: g.nodes[e.From()].ID, To: g.nodes[e.To()].ID})
	}
	return keys
}

// ApplyBroken breaks the edges named by keys, typically restored from a
// store, and recomputes once. Keys naming unknown packages or edges that no
// longer exist are skipped; the skipped keys are returned.
func (g *Graph) ApplyBroken(keys []EdgeKey) (skipped []EdgeKey) {
	for _, k := range keys {
		from, ok1 := g.byID[k.From]
		to, ok2 := g.byID[k.To]
		if !ok1 || !ok2 || g.IsSynthetic(from) || !g.HasEdge(from, to) {
			skipped = append(skipped, k)
			continue
		}
		g.removeEdge(from, to)
		g.broken = append(g.broken, graph.EdgePair{from, to})
	}
	g.Recompute()
	return skipped
}

func (g *Graph) removeEdge(from, to int) {
	g.imports[from] = slices.DeleteFunc(g.imports[from], func(j int) bool { return j == to })
	g.importedBy[to] = slices.DeleteFunc(g.importedBy[to], func(j int) bool { return j == from })
}

// checkEndpoints validates the packages of an edit. The synthetic root is
// rejected: paths never show it, so an edge it owns could not be restored.
func (g *Graph) checkEndpoints(from, to int) error {
	for _, i := range []int{from, to} {
		if err := g.checkIndex(i); err != nil {
			return err
		}
		if g.IsSynthetic(i) {
			return errs.New(errs.ErrCodeInvalidInput, "package %d is the synthetic root", i)
		}
	}
	return nil
}
