// Package buildinfo provides build-time version information.
//
// Variables are set via ldflags during release builds:
//
//	go build -ldflags "-X github.com/adonovan/spaghetti/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/adonovan/spaghetti/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/adonovan/spaghetti/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Binaries installed with "go install" carry no ldflags; for those the module
// version and VCS stamps recorded by the go command are used instead.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

const unset = "unset"

var (
	// Version is the semantic version (e.g., "v1.2.3").
	Version = unset

	// Commit is the git commit SHA.
	Commit = unset

	// Date is the build timestamp.
	Date = unset
)

var fillOnce sync.Once

// fill replaces unset values with what the go command embedded in the binary.
func fill() {
	fillOnce.Do(func() {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		if Version == unset && info.Main.Version != "" {
			Version = info.Main.Version
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if Commit == unset {
					Commit = s.Value
				}
			case "vcs.time":
				if Date == unset {
					Date = s.Value
				}
			}
		}
	})
}

// String returns the formatted build information.
func String() string {
	fill()
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s\ngo: %s", Version, Commit, Date, runtime.Version())
}

// Template returns the version template string for cobra.
func Template() string {
	fill()
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\ngo: %s\n", Version, Commit, Date, runtime.Version())
}

// Short returns just the version, resolving it from the binary when unset.
func Short() string {
	fill()
	return Version
}
