// Package pkg holds the libraries behind spaghetti, an interactive viewer
// for the import graph of a Go program.
//
// Spaghetti loads a set of packages and everything they import, then serves
// the resulting graph to a browser or terminal front-end. The user picks a
// package to see one path to it from the root, its dominator chain and its
// direct imports, and can "break" edges to find out which imports would have
// to go before a heavy dependency disappears.
//
// # Data Flow
//
//	loader ──> dag ──> server ──> client ──> browser / tui
//	                     │
//	                     └──> render/nodelink (DOT, SVG)
//
//  1. [loader] runs go/packages (or reads a node-link JSON file) and
//     produces a flat package list. [cache] keeps that list between runs.
//  2. [dag] numbers the packages, records paths and dominators, computes
//     weights and builds the module/directory tree. Break and Unbreak edit
//     the edge set and recompute everything.
//  3. [server] publishes the graph as JSON on /data, accepts /break and
//     /unbreak, and renders an HTML page. [store] persists broken edges.
//  4. [client] decodes snapshots and models the tree, selection and editor
//     that a front-end drives.
//
// # Packages
//
// [graph] - Wire types: snapshot, package, tree item and package view.
//
// [dag] - The mutable import graph and its derived data.
//
// [loader] - Package loading through golang.org/x/tools/go/packages.
//
// [cache] - File-backed cache for loaded package lists.
//
// [store] - Broken-edge persistence in memory, on disk, in Redis or MongoDB.
//
// [server] - HTTP endpoints and the server-rendered page.
//
// [client] - Snapshot fetching and front-end models.
//
// [render] and [render/nodelink] - Graphviz output of the current graph.
//
// [observability] - Hooks for load, cache and HTTP events.
//
// [errors] - Coded errors shared by every package.
//
// [buildinfo] - Version information stamped at build time.
//
// # Testing
//
//	go test ./...
//	go test -short ./...   # skip Graphviz rendering
//
// [graph]: https://pkg.go.dev/github.com/adonovan/spaghetti/pkg/graph
// [dag]: https://pkg.go.dev/github.com/adonovan/spaghetti/pkg/dag
// [loader]: https://pkg.go.dev/github.com/adonovan/spaghetti/pkg/loader
// [cache]: https://pkg.go.dev/github.com/adonovan/spaghetti/pkg/cache
// [store]: https://pkg.go.dev/github.com/adonovan/spaghetti/pkg/store
// [server]: https://pkg.go.dev/github.com/adonovan/spaghetti/pkg/server
// [client]: https://pkg.go.dev/github.com/adonovan/spaghetti/pkg/client
// [render]: https://pkg.go.dev/github.com/adonovan/spaghetti/pkg/render
// [render/nodelink]: https://pkg.go.dev/github.com/adonovan/spaghetti/pkg/render/nodelink
// [observability]: https://pkg.go.dev/github.com/adonovan/spaghetti/pkg/observability
// [errors]: https://pkg.go.dev/github.com/adonovan/spaghetti/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/adonovan/spaghetti/pkg/buildinfo
package pkg
