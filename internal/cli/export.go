package cli

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	errs "github.com/adonovan/spaghetti/pkg/errors"
	"github.com/adonovan/spaghetti/pkg/render/nodelink"
)

// Export formats.
const (
	formatDOT = "dot"
	formatSVG = "svg"
	formatPDF = "pdf"
	formatPNG = "png"
)

var exportFormats = []string{formatDOT, formatSVG, formatPDF, formatPNG}

// exportOpts holds the command-line flags for the export command.
type exportOpts struct {
	load       loadOpts
	output     string // output file; empty writes to stdout
	format     string
	dominators bool
	detailed   bool
	modules    bool
	noBroken   bool // skip re-applying saved broken edges
}

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	opts := exportOpts{format: formatDOT}

	cmd := &cobra.Command{
		Use:   "export [packages...]",
		Short: "Write the import graph or dominator tree as DOT, SVG, PDF or PNG",
		Long: `Export loads packages like serve, applies the broken edges saved for them,
and writes the import graph, or with --dom the dominator tree, to --output or
stdout. PDF and PNG need rsvg-convert (librsvg).`,
		Example: `  spaghetti export ./... > deps.dot
  spaghetti export --dom --format svg -o dom.svg ./cmd/app`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			opts.load.resolve(cmd, c.cfg)
			if !slices.Contains(exportFormats, opts.format) {
				return errs.New(errs.ErrCodeInvalidInput, "unknown format %q (want one of %v)", opts.format, exportFormats)
			}
			if (opts.format == formatPDF || opts.format == formatPNG) && opts.output == "" {
				return errs.New(errs.ErrCodeInvalidInput, "--format %s needs --output", opts.format)
			}

			l, err := c.loadGraph(ctx, opts.load, args)
			if err != nil {
				return err
			}

			if !opts.noBroken {
				st, err := openStore(ctx, opts.load.store)
				if err != nil {
					return err
				}
				keys, err := st.Load(ctx, l.storeKey)
				st.Close()
				if err != nil {
					return err
				}
				if len(keys) > 0 {
					skipped := l.graph.ApplyBroken(keys)
					logger.Info("applied saved broken edges", "count", len(keys)-len(skipped))
				}
			}

			dot := nodelink.ToDOT(l.graph, nodelink.Options{
				Dominators:     opts.dominators,
				Detailed:       opts.detailed,
				Broken:         !opts.dominators,
				ClusterModules: opts.modules,
			})

			var data []byte
			switch opts.format {
			case formatDOT:
				data = []byte(dot)
			case formatSVG:
				data, err = nodelink.RenderSVG(ctx, dot)
			case formatPDF:
				data, err = nodelink.RenderPDF(ctx, dot)
			case formatPNG:
				data, err = nodelink.RenderPNG(ctx, dot, 2.0)
			}
			if err != nil {
				return fmt.Errorf("render %s: %w", opts.format, err)
			}

			if opts.output == "" {
				_, err := os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(opts.output, data, 0o644); err != nil {
				return errs.Wrap(errs.ErrCodeInvalidPath, err, "write %s", opts.output)
			}
			printFile(opts.output)
			return nil
		},
	}

	opts.load.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: dot, svg, pdf, png")
	cmd.Flags().BoolVar(&opts.dominators, "dom", false, "draw the dominator tree instead of the import graph")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label packages with module and weight")
	cmd.Flags().BoolVar(&opts.modules, "modules", false, "group packages by module")
	cmd.Flags().BoolVar(&opts.noBroken, "no-broken", false, "ignore saved broken edges")
	return cmd
}
