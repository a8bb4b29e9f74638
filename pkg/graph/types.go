package graph

import (
	"encoding/json"
	"fmt"
)

// =============================================================================
// Constants
// =============================================================================

// NoPackage is the package index carried by directory and module tree nodes.
const NoPackage = -1

// TreeRootID is the parent ID of top-level tree items.
const TreeRootID = "#"

// Tree item types.
const (
	TypePackage = "pkg"
	TypeModule  = "module"
	TypeDir     = "dir"
)

// =============================================================================
// Snapshot - Complete Graph State
// =============================================================================

// Snapshot is the complete graph state served by GET /data.
//
// All ints are indices into Packages. A snapshot is immutable once
// delivered: clients replace it wholesale on every reload.
type Snapshot struct {
	// Generation identifies the server recompute that produced the snapshot.
	Generation string     `json:"generation,omitempty"`
	Packages   []Package  `json:"packages"`
	Initial    []int      `json:"initial"`
	Broken     []EdgePair `json:"broken"`
	Tree       []TreeItem `json:"tree"`
}

// Package is one vertex of the import graph. Index equals its position in
// Snapshot.Packages.
type Package struct {
	Index      int    `json:"index"`
	ID         string `json:"id,omitempty"`
	ImportPath string `json:"importPath"`
	Name       string `json:"name,omitempty"`
	Module     string `json:"module,omitempty"`
	Version    string `json:"version,omitempty"`
	Files      int    `json:"files,omitempty"`
	Weight     int    `json:"weight,omitempty"`
}

// EdgePair is a directed import edge (from, to) identified by package indices.
type EdgePair [2]int

// From returns the importing package index.
func (e EdgePair) From() int { return e[0] }

// To returns the imported package index.
func (e EdgePair) To() int { return e[1] }

// String formats the pair as "from->to".
func (e EdgePair) String() string { return fmt.Sprintf("%d->%d", e[0], e[1]) }

// =============================================================================
// Tree - Module/Directory Hierarchy
// =============================================================================

// TreeItem is one node of the module/package "directory" tree, in the flat
// parent-linked form consumed by tree widgets. Items are listed in preorder.
type TreeItem struct {
	ID     string      `json:"id"`
	Parent string      `json:"parent"`
	Text   string      `json:"text"`
	Type   string      `json:"type,omitempty"`
	Weight int         `json:"weight,omitempty"`
	View   PackageView `json:"view"`
}

// PackageView is the per-node payload delivered with every tree item.
//
// Path and Dominators are both ordered from the package back to the root,
// inclusive; clients reverse them for display. Dominators lists the nodes of
// the dominator-tree chain, all of which lie on Path.
type PackageView struct {
	Package    int   `json:"package"`
	Path       []int `json:"path,omitempty"`
	Dominators []int `json:"dominators,omitempty"`
	Imports    []int `json:"imports,omitempty"`
}

// DirectoryView returns the payload of a non-package tree node.
func DirectoryView() PackageView {
	return PackageView{Package: NoPackage}
}

// IsPackage reports whether the view denotes a package. Directory and module
// nodes use a negative (or, from older servers, null) package index.
func (v PackageView) IsPackage() bool {
	return v.Package >= 0
}

// UnmarshalJSON decodes a view, mapping a null or missing package index to
// NoPackage.
func (v *PackageView) UnmarshalJSON(data []byte) error {
	var aux struct {
		Package    *int  `json:"package"`
		Path       []int `json:"path"`
		Dominators []int `json:"dominators"`
		Imports    []int `json:"imports"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*v = PackageView{
		Package:    NoPackage,
		Path:       aux.Path,
		Dominators: aux.Dominators,
		Imports:    aux.Imports,
	}
	if aux.Package != nil && *aux.Package >= 0 {
		v.Package = *aux.Package
	}
	return nil
}

// =============================================================================
// Node-link Graph - Input File Format
// =============================================================================

// Graph is the node-link file format accepted as an alternative to loading
// Go packages:
//
//	{
//	  "nodes": [{"id": "app"}, {"id": "lib", "module": "example.com/lib"}],
//	  "edges": [{"from": "app", "to": "lib"}]
//	}
type Graph struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// Node is a vertex of a node-link graph.
type Node struct {
	ID      string         `json:"id" bson:"id"`
	Label   string         `json:"label,omitempty" bson:"label,omitempty"` // Import path (defaults to ID)
	Module  string         `json:"module,omitempty" bson:"module,omitempty"`
	Version string         `json:"version,omitempty" bson:"version,omitempty"`
	Files   int            `json:"files,omitempty" bson:"files,omitempty"`
	Meta    map[string]any `json:"meta,omitempty" bson:"meta,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Edge represents a directed edge in a node-link graph.
type Edge struct {
	From string `json:"from" bson:"from"`
	To   string `json:"to" bson:"to"`
}
