package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/adonovan/spaghetti/pkg/dag"
	"github.com/adonovan/spaghetti/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Dominators draws the dominator tree instead of the import graph.
	Dominators bool
	// Detailed adds the module and the weight to node labels.
	Detailed bool
	// Broken draws broken edges as dashed red arrows.
	Broken bool
	// ClusterModules groups packages in one box per module.
	ClusterModules bool
}

// ToDOT converts the reachable part of g to Graphviz DOT format. Root
// packages are drawn with a heavy outline. The synthetic root is omitted.
//
// The result can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG].
func ToDOT(g *dag.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	shown := make([]bool, g.Len())
	for i := range shown {
		shown[i] = g.Reachable(i)
	}
	if opts.Broken {
		for _, e := range g.Broken() {
			shown[e.From()] = !g.IsSynthetic(e.From())
			shown[e.To()] = true
		}
	}
	initial := g.Initial()

	writeNode := func(indent string, i int) {
		attrs := []string{fmt.Sprintf("label=%q", fmtLabel(g, i, opts.Detailed))}
		if slices.Contains(initial, i) {
			attrs = append(attrs, "penwidth=2.5")
		}
		if !g.Reachable(i) {
			attrs = append(attrs, "fillcolor=lightgrey", "fontcolor=dimgrey")
		}
		fmt.Fprintf(&buf, "%sn%d [%s];\n", indent, i, strings.Join(attrs, ", "))
	}

	if opts.ClusterModules {
		var modules []string
		members := make(map[string][]int)
		for i, ok := range shown {
			if !ok {
				continue
			}
			mod := moduleLabel(g, i)
			if _, seen := members[mod]; !seen {
				modules = append(modules, mod)
			}
			members[mod] = append(members[mod], i)
		}
		for c, mod := range modules {
			fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", c)
			fmt.Fprintf(&buf, "    label=%q;\n    style=\"rounded,dashed\";\n", mod)
			for _, i := range members[mod] {
				writeNode("    ", i)
			}
			buf.WriteString("  }\n")
		}
	} else {
		for i, ok := range shown {
			if ok {
				writeNode("  ", i)
			}
		}
	}

	buf.WriteString("\n")
	if opts.Dominators {
		for i := range shown {
			if d := g.Idom(i); shown[i] && d >= 0 && !g.IsSynthetic(d) {
				fmt.Fprintf(&buf, "  n%d -> n%d;\n", d, i)
			}
		}
	} else {
		for _, e := range g.Edges() {
			if shown[e.From()] && shown[e.To()] {
				fmt.Fprintf(&buf, "  n%d -> n%d;\n", e.From(), e.To())
			}
		}
	}
	if opts.Broken {
		for _, e := range g.Broken() {
			if shown[e.From()] && shown[e.To()] {
				fmt.Fprintf(&buf, "  n%d -> n%d [style=dashed, color=red, constraint=false];\n", e.From(), e.To())
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func moduleLabel(g *dag.Graph, i int) string {
	path, version := g.ModuleOf(i)
	if version != "" {
		return path + "@" + version
	}
	return path
}

func fmtLabel(g *dag.Graph, i int, detailed bool) string {
	p := g.Package(i)
	if !detailed {
		return p.ImportPath
	}
	return fmt.Sprintf("%s\n%s\nweight: %d", p.ImportPath, moduleLabel(g, i), p.Weight)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the drawing scales with its
// container: Graphviz emits point units and a translated viewBox.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion at the given scale.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
