package client

import (
	"github.com/adonovan/spaghetti/pkg/graph"
)

// BrokenEntry is one line of the broken-edges panel.
type BrokenEntry struct {
	Edge     graph.EdgePair
	From, To string // import paths
	Unbreak  Action
}

// Page wires the components for one page lifetime: it owns a GraphModel
// built from one snapshot. A reload builds a new Page.
type Page struct {
	Model     *GraphModel
	Tree      *TreeAdapter
	Selection *SelectionController
	Editor    *EdgeEditor
}

// NewPage loads s and connects the tree, the selection controller and the
// editor. panels and nav may be nil for read-only pages.
func NewPage(s *graph.Snapshot, panels Panels, nav Navigator) (*Page, error) {
	m := NewGraphModel()
	if err := m.Load(s); err != nil {
		return nil, err
	}
	sel := NewSelectionController(m, panels)
	return &Page{
		Model:     m,
		Tree:      NewTreeAdapter(m.Tree(), sel.OnTreeNodeActivated),
		Selection: sel,
		Editor:    NewEdgeEditor(nav),
	}, nil
}

// SelectImport activates the tree node of package i, so that following an
// import moves the tree selection too.
func (p *Page) SelectImport(i int) error {
	item, ok := p.Model.ItemOf(i)
	if !ok {
		return p.Selection.SelectImport(i)
	}
	return p.Tree.Activate(item.ID)
}

// Broken lists the broken edges with their unbreak actions.
func (p *Page) Broken() ([]BrokenEntry, error) {
	var out []BrokenEntry
	for _, e := range p.Model.BrokenEdges() {
		from, err := p.Model.PackageAt(e.From())
		if err != nil {
			return out, err
		}
		to, err := p.Model.PackageAt(e.To())
		if err != nil {
			return out, err
		}
		out = append(out, BrokenEntry{
			Edge:    e,
			From:    from.ImportPath,
			To:      to.ImportPath,
			Unbreak: UnbreakAction(e.From(), e.To()),
		})
	}
	return out, nil
}

// InitialPaths returns the import paths of the initial packages.
func (p *Page) InitialPaths() []string {
	var out []string
	for _, i := range p.Model.Initial() {
		if pkg, err := p.Model.PackageAt(i); err == nil {
			out = append(out, pkg.ImportPath)
		}
	}
	return out
}
