// Package loader produces the package lists a [dag.Graph] is built from:
// either by loading Go packages with go/packages or by reading a node-link
// JSON graph file.
package loader

import (
	"context"
	"encoding/json"
	"path/filepath"
	"slices"
	"sort"
	"time"

	"golang.org/x/tools/go/packages"

	"github.com/adonovan/spaghetti/pkg/cache"
	"github.com/adonovan/spaghetti/pkg/dag"
	errs "github.com/adonovan/spaghetti/pkg/errors"
	"github.com/adonovan/spaghetti/pkg/graph"
	"github.com/adonovan/spaghetti/pkg/observability"
)

// Mode is the go/packages load mode: names, files, modules and the full
// import graph.
const Mode = packages.NeedName | packages.NeedImports | packages.NeedDeps | packages.NeedModule | packages.NeedFiles

// Config controls a package load.
type Config struct {
	// Dir is the directory in which to run the build system. Empty means
	// the current directory.
	Dir string
	// Patterns are the package patterns, such as "./...".
	Patterns []string
	// Tests includes test packages and test variants.
	Tests bool

	// Cache stores the loaded package list. Nil disables caching.
	Cache cache.Cache
	// Keyer derives cache keys. Nil uses cache.DefaultKeyer.
	Keyer cache.Keyer
}

// Result is a loaded package list.
type Result struct {
	Packages []dag.Package `json:"packages"`
	Roots    []string      `json:"roots"`
	// Errors counts packages that loaded with errors. Such packages are
	// still part of the graph.
	Errors int `json:"errors"`
	// Cached reports whether the result came from the cache.
	Cached bool `json:"-"`
}

// KeyOpts returns the cache key options for cfg. The fingerprint covers
// go.mod, go.sum and go.work in cfg.Dir.
func KeyOpts(cfg Config) cache.LoadKeyOpts {
	dir := cfg.Dir
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return cache.LoadKeyOpts{
		Dir:      dir,
		Patterns: slices.Clone(cfg.Patterns),
		Tests:    cfg.Tests,
		Fingerprint: cache.HashFiles(
			filepath.Join(dir, "go.mod"),
			filepath.Join(dir, "go.sum"),
			filepath.Join(dir, "go.work"),
		),
	}
}

// Load loads the packages matching cfg.Patterns and everything they import.
func Load(ctx context.Context, cfg Config) (*Result, error) {
	if len(cfg.Patterns) == 0 {
		return nil, errs.New(errs.ErrCodeInvalidInput, "need package arguments")
	}
	for _, p := range cfg.Patterns {
		if err := errs.ValidatePattern(p); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	c := cfg.Cache
	if c == nil {
		c = cache.NewNullCache()
	}
	keyer := cfg.Keyer
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	key := keyer.PackagesKey(KeyOpts(cfg))

	var res Result
	if err := cache.GetJSON(ctx, c, key, &res); err == nil {
		observability.Cache().OnCacheHit(ctx, "packages")
		res.Cached = true
		observability.Graph().OnLoad(ctx, "cache", len(res.Packages), time.Since(start), nil)
		return &res, nil
	}
	observability.Cache().OnCacheMiss(ctx, "packages")

	loaded, err := loadPackages(ctx, cfg)
	observability.Graph().OnLoad(ctx, "packages", resultLen(loaded), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(loaded); err == nil {
		if c.Set(ctx, key, data, cache.PackagesTTL) == nil {
			observability.Cache().OnCacheSet(ctx, "packages", len(data))
		}
	}
	return loaded, nil
}

func loadPackages(ctx context.Context, cfg Config) (*Result, error) {
	pcfg := &packages.Config{
		Context: ctx,
		Mode:    Mode,
		Dir:     cfg.Dir,
		Tests:   cfg.Tests,
	}
	initial, err := packages.Load(pcfg, cfg.Patterns...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errs.Wrap(errs.ErrCodeTimeout, err, "load packages")
		}
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "load packages")
	}
	if len(initial) == 0 {
		return nil, errs.New(errs.ErrCodePackageNotFound, "no packages match %v", cfg.Patterns)
	}

	res := &Result{}
	packages.Visit(initial, func(p *packages.Package) bool {
		res.Packages = append(res.Packages, convert(p))
		if len(p.Errors) > 0 {
			res.Errors++
		}
		return true
	}, nil)
	for _, p := range initial {
		if !slices.Contains(res.Roots, p.ID) {
			res.Roots = append(res.Roots, p.ID)
		}
	}
	return res, nil
}

// convert maps a go/packages package to a dag package. Imports are listed
// in import path order, the order in which packages.Visit walks them.
func convert(p *packages.Package) dag.Package {
	out := dag.Package{
		ID:         p.ID,
		ImportPath: p.PkgPath,
		Name:       p.Name,
		Files:      len(p.GoFiles),
	}
	if p.Module != nil {
		out.Module = p.Module.Path
		out.Version = p.Module.Version
	}
	paths := make([]string, 0, len(p.Imports))
	for path := range p.Imports {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		out.Imports = append(out.Imports, p.Imports[path].ID)
	}
	return out
}

// FromGraph converts a node-link graph. Nodes without a module become
// modules of their own; roots are the nodes nothing imports.
func FromGraph(g *graph.Graph) (*Result, error) {
	roots := g.Roots()
	if len(roots) == 0 && len(g.Nodes) > 0 {
		return nil, errs.New(errs.ErrCodeInvalidInput, "graph has no root: every node is imported")
	}
	if len(roots) == 0 {
		return nil, errs.New(errs.ErrCodeInvalidInput, "graph is empty")
	}

	imports := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		imports[e.From] = append(imports[e.From], e.To)
	}

	res := &Result{Roots: roots, Packages: make([]dag.Package, 0, len(g.Nodes))}
	for i := range g.Nodes {
		n := &g.Nodes[i]
		module := n.Module
		if module == "" {
			module = n.DisplayLabel()
		}
		res.Packages = append(res.Packages, dag.Package{
			ID:         n.ID,
			ImportPath: n.DisplayLabel(),
			Name:       n.DisplayLabel(),
			Module:     module,
			Version:    n.Version,
			Files:      n.Files,
			Imports:    imports[n.ID],
		})
	}
	return res, nil
}

// LoadGraphFile reads a node-link JSON graph from path.
func LoadGraphFile(ctx context.Context, path string) (*Result, error) {
	start := time.Now()
	g, err := graph.ReadGraphFile(path)
	if err != nil {
		observability.Graph().OnLoad(ctx, path, 0, time.Since(start), err)
		return nil, err
	}
	res, err := FromGraph(g)
	observability.Graph().OnLoad(ctx, path, resultLen(res), time.Since(start), err)
	return res, err
}

// Build constructs the graph of a result.
func (r *Result) Build() (*dag.Graph, error) {
	return dag.New(r.Packages, r.Roots)
}

func resultLen(r *Result) int {
	if r == nil {
		return 0
	}
	return len(r.Packages)
}
