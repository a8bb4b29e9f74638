package cli

import (
	"github.com/spf13/cobra"

	"github.com/adonovan/spaghetti/pkg/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		opts loadOpts
		addr string
	)

	cmd := &cobra.Command{
		Use:   "serve [packages...]",
		Short: "Load packages and serve their import graph",
		Long: `Serve loads the named packages (default ".") and everything they import, and
serves the import graph on --addr. Open the address in a browser, or run
"spaghetti browse" in another terminal.

Broken edges are saved in the store and re-applied when the same packages are
served again.`,
		Example: `  spaghetti serve ./...
  spaghetti serve -C ~/src/myproject --test ./cmd/...
  spaghetti serve --graph deps.json --store redis://localhost:6379/0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			opts.resolve(cmd, c.cfg)
			addr = stringFlag(cmd, "addr", addr, c.cfg.Addr)

			l, err := c.loadGraph(ctx, opts, args)
			if err != nil {
				return err
			}
			printStats(l.graph.Len(), len(l.graph.Edges()), l.cached)

			st, err := openStore(ctx, opts.store)
			if err != nil {
				return err
			}
			defer st.Close()

			srv, err := server.New(server.Config{
				Graph:    l.graph,
				Store:    st,
				StoreKey: l.storeKey,
				Title:    l.title,
				Logger:   logger,
			})
			if err != nil {
				return err
			}
			if err := srv.Restore(ctx); err != nil {
				logger.Warn("cannot restore broken edges", "err", err)
			}

			printSuccess("Serving %s", StyleLink.Render("http://"+addr))
			printNextStep("Browse in the terminal", appName+" browse http://"+addr)
			return srv.ListenAndServe(ctx, addr)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	return cmd
}
