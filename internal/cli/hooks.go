package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/adonovan/spaghetti/pkg/observability"
)

// logHooks reports observability events as debug logs.
type logHooks struct {
	logger *log.Logger
}

func newLogHooks(l *log.Logger) *logHooks {
	return &logHooks{logger: l}
}

func (h *logHooks) OnLoad(_ context.Context, source string, nodeCount int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("load failed", "source", source, "elapsed", d.Round(time.Millisecond), "err", err)
		return
	}
	h.logger.Debug("loaded", "source", source, "packages", nodeCount, "elapsed", d.Round(time.Millisecond))
}

func (h *logHooks) OnRecompute(_ context.Context, nodeCount, reachable int, d time.Duration) {
	h.logger.Debug("recompute", "packages", nodeCount, "reachable", reachable, "elapsed", d)
}

func (h *logHooks) OnBreak(_ context.Context, from, to string, all bool, n int) {
	h.logger.Debug("break", "from", from, "to", to, "all", all, "edges", n)
}

func (h *logHooks) OnUnbreak(_ context.Context, from, to string) {
	h.logger.Debug("unbreak", "from", from, "to", to)
}

func (h *logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *logHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("request", "method", method, "host", host, "path", path)
}

func (h *logHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "path", path, "status", status, "elapsed", d.Round(time.Millisecond))
}

func (h *logHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("request failed", "method", method, "host", host, "path", path, "err", err)
}

var (
	_ observability.GraphHooks = (*logHooks)(nil)
	_ observability.CacheHooks = (*logHooks)(nil)
	_ observability.HTTPHooks  = (*logHooks)(nil)
)
