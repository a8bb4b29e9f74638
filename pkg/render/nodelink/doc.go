// Package nodelink draws package graphs as node-link diagrams with Graphviz.
//
// # Usage
//
// Convert a graph to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Broken: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// With [Options].Dominators set the diagram shows the dominator tree: an
// arrow from each package's immediate dominator to the package. Otherwise it
// shows the current import edges.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
