package cli

import (
	"github.com/spf13/cobra"

	"github.com/adonovan/spaghetti/internal/tui"
	"github.com/adonovan/spaghetti/pkg/client"
	"github.com/adonovan/spaghetti/pkg/server"
)

// browseCommand creates the browse command, the terminal front-end.
func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse [url]",
		Short: "Browse a running spaghetti server in the terminal",
		Long: `Browse connects to a spaghetti server (default http://` + server.DefaultAddr + `,
or the configured address) and shows the package tree beside the selected
package's path from the root, its dominators, its imports and the broken
edges. Keys:

  ↑/↓    move and select          enter  expand, or follow an import
  /      search                   tab    next pane
  b / B  break edge / break all   u      unbreak
  r      reload                   q      quit`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := c.cfg.Addr
			if addr == "" {
				addr = server.DefaultAddr
			}
			url := "http://" + addr
			if len(args) == 1 {
				url = args[0]
			}
			cl, err := client.NewClient(url, nil)
			if err != nil {
				return err
			}
			loggerFromContext(cmd.Context()).Debug("browsing", "url", cl.BaseURL())
			return tui.Run(cmd.Context(), cl)
		},
	}
}
