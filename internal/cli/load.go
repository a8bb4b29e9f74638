package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adonovan/spaghetti/pkg/cache"
	"github.com/adonovan/spaghetti/pkg/dag"
	errs "github.com/adonovan/spaghetti/pkg/errors"
	"github.com/adonovan/spaghetti/pkg/loader"
	"github.com/adonovan/spaghetti/pkg/store"
)

// loadOpts holds the flags shared by the commands that load a graph.
type loadOpts struct {
	graphFile string // node-link JSON graph instead of packages
	dir       string
	tests     bool
	noCache   bool
	store     string
}

func (o *loadOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.graphFile, "graph", "", "load a node-link JSON graph file instead of Go packages")
	cmd.Flags().StringVarP(&o.dir, "dir", "C", "", "directory in which to load packages")
	cmd.Flags().BoolVar(&o.tests, "test", false, "include test packages")
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "disable the package list cache")
	cmd.Flags().StringVar(&o.store, "store", "", "broken-edge store URL (memory://, file://, redis://, mongodb://)")
	registerLoadCompletions(cmd)
}

// resolve merges the configuration into the flags the user left unset.
func (o *loadOpts) resolve(cmd *cobra.Command, cfg Config) {
	o.dir = stringFlag(cmd, "dir", o.dir, cfg.Dir)
	o.tests = boolFlag(cmd, "test", o.tests, cfg.Tests)
	o.noCache = boolFlag(cmd, "no-cache", o.noCache, cfg.NoCache)
	o.store = stringFlag(cmd, "store", o.store, cfg.Store)
}

// loaded is a built graph plus what identifies it.
type loaded struct {
	graph    *dag.Graph
	storeKey string
	title    string
	cached   bool
	errors   int
}

// loadGraph loads packages matching patterns (or the graph file) and builds
// the graph.
func (c *CLI) loadGraph(ctx context.Context, o loadOpts, patterns []string) (*loaded, error) {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	// The spinner would garble debug logs.
	var spin *loadSpinner
	if logger.GetLevel() > LogDebug {
		spin = newLoadSpinner(ctx, os.Stderr, "")
	}
	defer spin.stop()

	var (
		res  *loader.Result
		key  cache.LoadKeyOpts
		err  error
		what string
	)
	if o.graphFile != "" {
		if len(patterns) > 0 {
			return nil, errs.New(errs.ErrCodeInvalidInput, "--graph takes no package arguments")
		}
		if err := errs.ValidatePath(o.graphFile); err != nil {
			return nil, err
		}
		abs, _ := filepath.Abs(o.graphFile)
		key = cache.LoadKeyOpts{Dir: abs}
		what = o.graphFile
		spin.phase("Reading %s", what)
		spin.run()
		res, err = loader.LoadGraphFile(ctx, o.graphFile)
	} else {
		if len(patterns) == 0 {
			patterns = []string{"."}
		}
		pc, cerr := newCache(o.noCache)
		if cerr != nil {
			logger.Warn("cache unavailable", "err", cerr)
			pc = cache.NewNullCache()
		}
		defer pc.Close()
		cfg := loader.Config{Dir: o.dir, Patterns: patterns, Tests: o.tests, Cache: pc}
		key = loader.KeyOpts(cfg)
		what = strings.Join(patterns, " ")
		spin.phase("Loading %s", what)
		spin.run()
		res, err = loader.Load(ctx, cfg)
	}
	if err != nil {
		spin.fail(errs.UserMessage(err))
		return nil, err
	}
	prog.lap()

	build := newProgress(logger)
	spin.phase("Building graph of %s", plural(len(res.Packages), "package"))
	g, err := res.Build()
	if err != nil {
		spin.fail(errs.UserMessage(err))
		return nil, err
	}
	build.lap()
	spin.stop()

	if res.Errors > 0 {
		logger.Warn("some packages have errors", "count", res.Errors)
	}
	prog.done("Loaded " + plural(len(res.Packages), "package"))
	build.done("Built graph of " + plural(g.ReachableCount(), "reachable package"))

	return &loaded{
		graph:    g,
		storeKey: cache.NewDefaultKeyer().BrokenKey(key),
		title:    what,
		cached:   res.Cached,
		errors:   res.Errors,
	}, nil
}

// openStore opens the broken-edge store named by url. The empty URL is the
// file store in the default directory, so edits survive restarts.
func openStore(ctx context.Context, url string) (store.Store, error) {
	if url == "" {
		return store.NewFileStore("")
	}
	return store.Open(ctx, url)
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
