// Package store persists broken edges between server runs.
//
// Broken edges are saved by package ID under a key derived from the load
// (see [cache.Keyer.BrokenKey]), so restarting the server on the same
// packages restores the edits. Backends:
//   - memory: process-local, for tests and throwaway sessions
//   - file: JSON files in a state directory, the CLI default
//   - redis: shared between machines
//   - mongodb: shared between machines, one document per key
//
// # Usage
//
//	st, err := store.Open(ctx, "file://")  // ~/.local/state/spaghetti/broken
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
//	edges, err := st.Load(ctx, key)
//	skipped := g.ApplyBroken(edges)
//	...
//	err = st.Save(ctx, key, g.BrokenKeys())
//
// [cache.Keyer.BrokenKey]: github.com/adonovan/spaghetti/pkg/cache.Keyer
package store

import (
	"context"
	"net/url"
	"time"

	"github.com/adonovan/spaghetti/pkg/dag"
	errs "github.com/adonovan/spaghetti/pkg/errors"
)

// Record is the stored form of one broken-edge set.
type Record struct {
	Key       string        `json:"key" bson:"_id"`
	Broken    []dag.EdgeKey `json:"broken" bson:"broken"`
	UpdatedAt time.Time     `json:"updated_at" bson:"updated_at"`
}

// Store is the interface for broken-edge storage backends.
type Store interface {
	// Load returns the edges saved under key, or nil, nil if there are none.
	Load(ctx context.Context, key string) ([]dag.EdgeKey, error)

	// Save replaces the edges saved under key. Saving an empty set
	// removes the key.
	Save(ctx context.Context, key string, edges []dag.EdgeKey) error

	// Close releases the backend's resources.
	Close() error
}

// Open returns the store named by rawURL:
//
//	memory://
//	file:///path/to/dir     (file:// alone uses the default directory)
//	redis://host:6379/0
//	mongodb://host:27017/database
//
// The empty string opens a memory store.
func Open(ctx context.Context, rawURL string) (Store, error) {
	if rawURL == "" {
		return NewMemoryStore(), nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "parse store URL")
	}
	switch u.Scheme {
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(u.Path)
	case "redis", "rediss":
		return NewRedisStore(ctx, rawURL)
	case "mongodb", "mongodb+srv":
		return NewMongoStore(ctx, rawURL)
	default:
		return nil, errs.New(errs.ErrCodeUnsupported, "unsupported store scheme %q", u.Scheme)
	}
}

func storeErr(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return errs.Wrap(errs.ErrCodeStore, err, format, args...)
}
