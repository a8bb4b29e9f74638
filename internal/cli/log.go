// Package cli implements the spaghetti command-line interface.
//
// The serve command loads the packages of a Go program and serves their
// import graph over HTTP; browse is a terminal front-end for a running
// server; export writes the graph or its dominator tree with Graphviz. The
// CLI is built using cobra and supports verbose logging via the
// charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - serve: Load packages and serve the graph to browser front-ends
//   - browse: Explore and edit a served graph in the terminal
//   - export: Write DOT, SVG, PDF or PNG renderings
//   - cache: Manage the package list cache
//
// # Configuration
//
// Flags override SPAGHETTI_ADDR and SPAGHETTI_STORE from the environment or a
// .env file, which override spaghetti.toml. See [Config].
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
	end    time.Time // set by lap
}

// newProgress creates a progress tracker that captures the current time as start.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// lap stops the clock without logging. A later done reports the time up to
// the lap, so the message can wait until the load spinner has cleared its line.
func (p *progress) lap() {
	if p.end.IsZero() {
		p.end = time.Now()
	}
}

func (p *progress) elapsed() time.Duration {
	if p.end.IsZero() {
		return time.Since(p.start)
	}
	return p.end.Sub(p.start)
}

// done logs msg along with the elapsed time, rounded to the millisecond.
// Example output: "Loaded 412 packages (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, p.elapsed().Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx.
// If no logger is attached, it returns log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
