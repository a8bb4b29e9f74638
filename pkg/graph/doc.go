// Package graph provides the wire types exchanged between the spaghetti
// server and its front-ends.
//
// # Core Types
//
//   - [Snapshot]: the complete graph state served by GET /data
//   - [Package]: one vertex, identified by its index in Snapshot.Packages
//   - [TreeItem]: one node of the module/package directory tree
//   - [PackageView]: per-node payload with path, dominators and imports
//   - [Graph]: node-link input format for graphs that are not Go packages
//
// # Snapshot Format
//
// All ints in a snapshot are indices into the packages array:
//
//	{
//	  "generation": "5f0c…",
//	  "packages": [{"index": 0, "importPath": "example.com/app"}, …],
//	  "initial":  [0],
//	  "broken":   [[3, 7]],
//	  "tree": [
//	    {"id": "mod:example.com@", "parent": "#", "text": "example.com", "type": "module",
//	     "view": {"package": -1}},
//	    {"id": "node0", "parent": "mod:example.com@", "text": "app", "type": "pkg",
//	     "view": {"package": 0, "path": [0], "dominators": [0], "imports": [1, 2]}}
//	  ]
//	}
//
// PackageView.Path and PackageView.Dominators run from the package back to
// the root. Directory nodes carry package -1; a null package (sent by older
// servers) decodes to [NoPackage] as well.
//
// # Concurrency
//
// Snapshots are values: they are never mutated after being produced, so they
// may be shared freely between goroutines.
package graph
