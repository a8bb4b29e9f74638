// Package render converts rendered graphs between output formats.
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg).
//
//	svg, err := nodelink.RenderSVG(dot)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// The [nodelink] subpackage draws the import graph and the dominator tree
// with Graphviz.
//
// [nodelink]: github.com/adonovan/spaghetti/pkg/render/nodelink
package render
