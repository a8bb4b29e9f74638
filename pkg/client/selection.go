package client

import (
	"fmt"

	errs "github.com/adonovan/spaghetti/pkg/errors"
	"github.com/adonovan/spaghetti/pkg/graph"
)

// DocURLTemplate is the documentation link of a package, parameterized by its
// import path.
const DocURLTemplate = "https://pkg.go.dev/%s"

// DocURL returns the documentation link for importPath.
func DocURL(importPath string) string {
	return fmt.Sprintf(DocURLTemplate, importPath)
}

// State is the selection state.
type State int

const (
	// Idle means no package is selected and all panels are cleared.
	Idle State = iota
	// Selected means a package view is current.
	Selected
)

func (s State) String() string {
	if s == Selected {
		return "selected"
	}
	return "idle"
}

// ImportEntry is one direct import of the selected package.
type ImportEntry struct {
	Index      int
	ImportPath string
}

// Details is the content of every detail panel. Each panel has its own error
// so a bad index degrades only the panel that needed it. The zero value with
// Package set to graph.NoPackage is the cleared state.
type Details struct {
	Package int
	Name    string
	DocURL  string
	NameErr error

	Imports    []ImportEntry
	ImportsErr error

	Dominators    DominatorStrip
	DominatorsErr error

	Path    RenderedPath
	PathErr error
}

// Cleared returns the details of the idle state.
func Cleared() Details {
	return Details{Package: graph.NoPackage}
}

// IsCleared reports whether d shows nothing.
func (d Details) IsCleared() bool {
	return d.Package < 0
}

// Panels receives the details to display after every transition.
type Panels interface {
	Show(d Details)
}

// PanelsFunc adapts a function to the Panels interface.
type PanelsFunc func(d Details)

// Show calls f.
func (f PanelsFunc) Show(d Details) { f(d) }

// SelectionController tracks the selected package and keeps the detail
// panels in sync with it.
type SelectionController struct {
	model   *GraphModel
	view    *PathView
	panels  Panels
	state   State
	current graph.PackageView
	details Details
}

// NewSelectionController returns an idle controller. panels may be nil, in
// which case details are only available through Details.
func NewSelectionController(m *GraphModel, panels Panels) *SelectionController {
	return &SelectionController{
		model:   m,
		view:    NewPathView(m),
		panels:  panels,
		current: graph.DirectoryView(),
		details: Cleared(),
	}
}

// OnTreeNodeActivated is the single selection transition. A package view
// moves the controller to Selected (replacing any previous selection); a
// non-package view moves it to Idle and clears every panel.
func (c *SelectionController) OnTreeNodeActivated(v graph.PackageView) {
	if !v.IsPackage() {
		c.state = Idle
		c.current = graph.DirectoryView()
		c.details = Cleared()
	} else {
		c.state = Selected
		c.current = v
		c.details = c.describe(v)
	}
	if c.panels != nil {
		c.panels.Show(c.details)
	}
}

// SelectImport navigates to package i as if its tree node had been
// activated.
func (c *SelectionController) SelectImport(i int) error {
	v, ok := c.model.ViewOf(i)
	if !ok {
		return errs.New(errs.ErrCodePackageNotFound, "package %d is not in the tree", i)
	}
	c.OnTreeNodeActivated(v)
	return nil
}

// State returns the current state.
func (c *SelectionController) State() State { return c.state }

// Current returns the selected view, if any.
func (c *SelectionController) Current() (graph.PackageView, bool) {
	return c.current, c.state == Selected
}

// Details returns what the panels currently show.
func (c *SelectionController) Details() Details { return c.details }

func (c *SelectionController) describe(v graph.PackageView) Details {
	d := Details{Package: v.Package}

	if pkg, err := c.model.PackageAt(v.Package); err != nil {
		d.NameErr = err
	} else {
		d.Name = pkg.ImportPath
		d.DocURL = DocURL(pkg.ImportPath)
	}

	for _, i := range v.Imports {
		pkg, err := c.model.PackageAt(i)
		if err != nil {
			d.ImportsErr = err
			continue
		}
		d.Imports = append(d.Imports, ImportEntry{Index: i, ImportPath: pkg.ImportPath})
	}

	d.Dominators, d.DominatorsErr = c.view.RenderDominators(v)
	d.Path, d.PathErr = c.view.Render(v)
	return d
}
