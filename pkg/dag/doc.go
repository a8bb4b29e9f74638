// Package dag holds the package import graph that a spaghetti server edits
// and serves.
//
// # Overview
//
// A [Graph] is built once from the packages delivered by a loader and the IDs
// of the root packages. Every package gets a stable index in deterministic
// preorder from the root; indices are what the wire format and the browser
// exchange. When there are several roots, a synthetic package with ID
// [SyntheticRootID] is numbered 0 and imports them, so that a single root
// exists for path and dominator computations. The synthetic root never
// appears in paths, dominator chains or the tree.
//
// # Editing
//
// [Graph.Break] removes one edge, or with all set every edge into the target
// package, so that nothing imports it any more. [Graph.Unbreak] restores a broken edge. Each edit calls
// [Graph.Recompute], which rebuilds:
//
//   - one path from the root to every package, found depth-first in edge order
//   - the dominator tree
//   - network-flow weights
//   - the module/directory tree of reachable packages
//
// Broken edges can be exported by package ID with [Graph.BrokenKeys] and
// re-applied to a fresh load with [Graph.ApplyBroken].
//
// # Wire Form
//
// [Graph.Snapshot] returns the complete state as a [graph.Snapshot]. Paths and
// dominator chains in it run from the package back to the root.
//
// # Concurrency
//
// Graph instances are not safe for concurrent use. Callers must synchronize
// access if multiple goroutines read or modify the same graph.
//
// [graph.Snapshot]: github.com/adonovan/spaghetti/pkg/graph.Snapshot
package dag
