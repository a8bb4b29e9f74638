package cli

import (
	"github.com/spf13/cobra"

	"github.com/adonovan/spaghetti/pkg/buildinfo"
	"github.com/adonovan/spaghetti/pkg/observability"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// Before any subcommand runs the configuration is loaded (see [Config]),
// the log level is applied, and the logger is attached to the command
// context. With --verbose the observability hooks log graph, cache and HTTP
// events at debug level.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Spaghetti explores and edits the package dependency graph of a Go program",
		Long: `Spaghetti loads the packages of a Go program and serves their import graph
to a browser or terminal front-end. Select a package to see the path from the
root that makes it a dependency and the packages that dominate it; break an
import edge to see what the graph would look like without it.`,
		Version:      buildinfo.Short(),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(c.configPath, envFile)
			if err != nil {
				return err
			}
			c.cfg = cfg

			level := LogInfo
			if cfg.LogLevel != "" {
				if level, err = parseLevel(cfg.LogLevel); err != nil {
					return err
				}
			}
			if c.verbose {
				level = LogDebug
			}
			c.SetLogLevel(level)
			if level <= LogDebug {
				hooks := newLogHooks(c.Logger)
				observability.SetGraphHooks(hooks)
				observability.SetCacheHooks(hooks)
				observability.SetHTTPHooks(hooks)
			}

			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ./"+defaultConfigFile+" if present)")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
