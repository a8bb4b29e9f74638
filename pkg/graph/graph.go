package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	errs "github.com/adonovan/spaghetti/pkg/errors"
)

// =============================================================================
// Snapshot Serialization API
// =============================================================================

// WriteSnapshot writes s as compact JSON to w.
func WriteSnapshot(s *Snapshot, w io.Writer) error {
	if err := json.NewEncoder(w).Encode(normalize(s)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// MarshalSnapshot converts s to JSON bytes.
func MarshalSnapshot(s *Snapshot) ([]byte, error) {
	return json.Marshal(normalize(s))
}

// ReadSnapshot decodes a snapshot from r. The result is not validated; see
// [Snapshot.Validate].
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, errs.Wrap(errs.ErrCodeMalformedSnapshot, err, "decode snapshot")
	}
	return &s, nil
}

// normalize returns a shallow copy whose list fields encode as [] rather
// than null.
func normalize(s *Snapshot) *Snapshot {
	out := *s
	if out.Packages == nil {
		out.Packages = []Package{}
	}
	if out.Initial == nil {
		out.Initial = []int{}
	}
	if out.Broken == nil {
		out.Broken = []EdgePair{}
	}
	if out.Tree == nil {
		out.Tree = []TreeItem{}
	}
	return &out
}

// Validate checks that every package sits at its own index and that every
// integer referenced by the snapshot (roots, broken edges, tree payloads) is
// a valid package index. Tree parents must name earlier items.
func (s *Snapshot) Validate() error {
	n := len(s.Packages)
	inRange := func(i int) bool { return i >= 0 && i < n }

	for i, p := range s.Packages {
		if p.Index != i {
			return errs.New(errs.ErrCodeMalformedSnapshot, "package at position %d has index %d", i, p.Index)
		}
	}
	for _, i := range s.Initial {
		if !inRange(i) {
			return errs.New(errs.ErrCodeMalformedSnapshot, "initial package %d out of range [0, %d)", i, n)
		}
	}
	for _, e := range s.Broken {
		if !inRange(e.From()) || !inRange(e.To()) {
			return errs.New(errs.ErrCodeMalformedSnapshot, "broken edge %s out of range [0, %d)", e, n)
		}
	}

	seen := map[string]bool{TreeRootID: true}
	for _, item := range s.Tree {
		if item.ID == "" || item.ID == TreeRootID || seen[item.ID] {
			return errs.New(errs.ErrCodeMalformedSnapshot, "tree item has invalid or duplicate id %q", item.ID)
		}
		if !seen[item.Parent] {
			return errs.New(errs.ErrCodeMalformedSnapshot, "tree item %q has unknown parent %q", item.ID, item.Parent)
		}
		seen[item.ID] = true

		v := item.View
		if !v.IsPackage() {
			continue
		}
		if !inRange(v.Package) {
			return errs.New(errs.ErrCodeMalformedSnapshot, "tree item %q: package %d out of range [0, %d)", item.ID, v.Package, n)
		}
		for _, list := range [][]int{v.Path, v.Dominators, v.Imports} {
			for _, i := range list {
				if !inRange(i) {
					return errs.New(errs.ErrCodeMalformedSnapshot, "tree item %q references package %d out of range [0, %d)", item.ID, i, n)
				}
			}
		}
	}
	return nil
}

// =============================================================================
// Node-link Graph API
// =============================================================================

// ReadGraphFile reads a node-link JSON graph from path.
func ReadGraphFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadGraph(f)
}

// ReadGraph decodes and checks a node-link JSON graph: node IDs must be
// unique and non-empty and edges must connect known nodes.
func ReadGraph(r io.Reader) (*Graph, error) {
	var g Graph
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "decode graph")
	}
	ids := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			return nil, errs.New(errs.ErrCodeInvalidInput, "node ID must not be empty")
		}
		if ids[n.ID] {
			return nil, errs.New(errs.ErrCodeInvalidInput, "duplicate node ID %q", n.ID)
		}
		ids[n.ID] = true
	}
	for _, e := range g.Edges {
		if !ids[e.From] {
			return nil, errs.New(errs.ErrCodeInvalidInput, "edge %s→%s: unknown source node", e.From, e.To)
		}
		if !ids[e.To] {
			return nil, errs.New(errs.ErrCodeInvalidInput, "edge %s→%s: unknown target node", e.From, e.To)
		}
	}
	return &g, nil
}

// Roots returns the IDs of nodes without incoming edges, in node order.
func (g *Graph) Roots() []string {
	imported := make(map[string]bool, len(g.Edges))
	for _, e := range g.Edges {
		imported[e.To] = true
	}
	var roots []string
	for _, n := range g.Nodes {
		if !imported[n.ID] {
			roots = append(roots, n.ID)
		}
	}
	return roots
}
