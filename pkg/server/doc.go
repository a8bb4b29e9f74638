// Package server serves a package import graph to browser front-ends.
//
// # Endpoints
//
//	GET /                     the browser page (?node=<tree id>, ?q=<filter>, ?open=<dir id>)
//	GET /data                 the graph snapshot as JSON
//	GET /break?from=&to=&all= break an edge (all: every edge into to)
//	GET /unbreak?from=&to=    restore a broken edge
//	GET /graph.dot            the import graph in DOT (?dom=1 for the dominator tree)
//	GET /graph.svg            the same, rendered by Graphviz
//
// Break and unbreak redirect to the page, so every edit is a full navigation
// after which clients reload the snapshot. Errors carry the HTTP status of
// their code: 400 for bad input, 404 for a missing edge or tree node, 500
// otherwise.
//
// # Persistence
//
// After every edit the broken edges are saved, by package ID, in the
// configured [store.Store]. [Server.Restore] applies them to a freshly
// loaded graph.
//
// [store.Store]: github.com/adonovan/spaghetti/pkg/store.Store
package server
