package store

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable marks a remote store that did not answer its ping.
var ErrUnavailable = errors.New("store unavailable")

// connectAttempts and connectBackoff bound how long opening a remote store
// waits for the server to come up. Tests shorten the backoff.
var (
	connectAttempts = 3
	connectBackoff  = time.Second
)

// ping calls check until it succeeds, doubling the delay between attempts.
// It gives up early when ctx ends. The returned error wraps ErrUnavailable
// and the last failure.
func ping(ctx context.Context, check func(context.Context) error) error {
	delay := connectBackoff
	var last error
	for i := 0; i < connectAttempts; i++ {
		if last = check(ctx); last == nil {
			return nil
		}
		if i == connectAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return errors.Join(ErrUnavailable, ctx.Err())
		case <-time.After(delay):
			delay *= 2
		}
	}
	return errors.Join(ErrUnavailable, last)
}
