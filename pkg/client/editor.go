package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Server endpoints for edge mutation.
const (
	BreakEndpoint   = "/break"
	UnbreakEndpoint = "/unbreak"
)

// ActionKind distinguishes the edit actions.
type ActionKind int

const (
	ActionBreak ActionKind = iota
	ActionBreakAll
	ActionUnbreak
)

func (k ActionKind) String() string {
	switch k {
	case ActionBreak:
		return "break"
	case ActionBreakAll:
		return "break all"
	case ActionUnbreak:
		return "unbreak"
	default:
		return fmt.Sprintf("ActionKind(%d)", int(k))
	}
}

// Action is a typed edit request on the edge From→To.
type Action struct {
	Kind ActionKind
	From int
	To   int
}

// BreakAction returns the break (all=false) or break-all (all=true) action for
// an edge.
func BreakAction(from, to int, all bool) Action {
	if all {
		return Action{Kind: ActionBreakAll, From: from, To: to}
	}
	return Action{Kind: ActionBreak, From: from, To: to}
}

// UnbreakAction returns the action restoring a broken edge.
func UnbreakAction(from, to int) Action {
	return Action{Kind: ActionUnbreak, From: from, To: to}
}

// All reports the all flag carried to the break endpoint.
func (a Action) All() bool { return a.Kind == ActionBreakAll }

// URL returns the server-relative navigation target of the action.
func (a Action) URL() string {
	if a.Kind == ActionUnbreak {
		return UnbreakURL(a.From, a.To)
	}
	return BreakURL(a.From, a.To, a.All())
}

// BreakURL returns the navigation target that breaks from→to.
func BreakURL(from, to int, all bool) string {
	q := url.Values{}
	q.Set("from", strconv.Itoa(from))
	q.Set("to", strconv.Itoa(to))
	q.Set("all", strconv.FormatBool(all))
	return BreakEndpoint + "?" + q.Encode()
}

// UnbreakURL returns the navigation target that restores from→to.
func UnbreakURL(from, to int) string {
	q := url.Values{}
	q.Set("from", strconv.Itoa(from))
	q.Set("to", strconv.Itoa(to))
	return UnbreakEndpoint + "?" + q.Encode()
}

// Navigator performs a full navigation to a server-relative target. After a
// navigation all client state is stale: the caller reloads the snapshot.
type Navigator interface {
	Navigate(ctx context.Context, target string) error
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(ctx context.Context, target string) error

// Navigate calls f.
func (f NavigatorFunc) Navigate(ctx context.Context, target string) error { return f(ctx, target) }

// EdgeEditor issues break and unbreak navigations. It never touches the
// model: the only result of an edit is the snapshot observed after reload.
type EdgeEditor struct {
	nav Navigator
}

// NewEdgeEditor returns an editor navigating through nav.
func NewEdgeEditor(nav Navigator) *EdgeEditor {
	return &EdgeEditor{nav: nav}
}

// BreakEdge navigates to the break endpoint for from→to.
func (e *EdgeEditor) BreakEdge(ctx context.Context, from, to int, all bool) error {
	return e.navigate(ctx, BreakURL(from, to, all))
}

// UnbreakEdge navigates to the unbreak endpoint for from→to.
func (e *EdgeEditor) UnbreakEdge(ctx context.Context, from, to int) error {
	return e.navigate(ctx, UnbreakURL(from, to))
}

// Dispatch performs a.
func (e *EdgeEditor) Dispatch(ctx context.Context, a Action) error {
	switch a.Kind {
	case ActionBreak, ActionBreakAll:
		return e.BreakEdge(ctx, a.From, a.To, a.All())
	case ActionUnbreak:
		return e.UnbreakEdge(ctx, a.From, a.To)
	default:
		return fmt.Errorf("unknown action %v", a.Kind)
	}
}

func (e *EdgeEditor) navigate(ctx context.Context, target string) error {
	if e.nav == nil {
		return fmt.Errorf("navigate %s: no navigator", target)
	}
	return e.nav.Navigate(ctx, target)
}
