// Package cache stores loaded package lists between runs.
//
// Loading a large program through go/packages takes seconds; the loader
// caches its result under a key derived from the load configuration and the
// contents of go.mod and go.sum, so a restart of the server is fast.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// PackagesTTL is how long a cached package list stays valid.
const PackagesTTL = 24 * time.Hour

// Cache stores opaque values under string keys.
type Cache interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// NewNullCache returns a cache that stores nothing, used for --no-cache and
// when the cache directory is unavailable. Every Get misses.
func NewNullCache() Cache { return nullCache{} }

type nullCache struct{}

func (nullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (nullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (nullCache) Delete(context.Context, string) error { return nil }
func (nullCache) Close() error { return nil }

// LoadKeyOpts describes one package load.
type LoadKeyOpts struct {
	Dir      string
	Patterns []string
	Tests    bool
	// Fingerprint changes whenever the module's requirements change,
	// typically a hash of go.mod and go.sum.
	Fingerprint string
}

// Keyer derives cache and store keys from a load.
type Keyer interface {
	// PackagesKey identifies the loaded package list. It depends on the
	// fingerprint, so editing go.mod invalidates it.
	PackagesKey(opts LoadKeyOpts) string
	// BrokenKey identifies the broken-edge set of a load. It ignores the
	// fingerprint so broken edges survive dependency updates.
	BrokenKey(opts LoadKeyOpts) string
}

// DefaultKeyer hashes the load options.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// PackagesKey implements Keyer.
func (DefaultKeyer) PackagesKey(opts LoadKeyOpts) string {
	return hashKey("packages", opts.Dir, opts.Patterns, opts.Tests, opts.Fingerprint)
}

// BrokenKey implements Keyer.
func (DefaultKeyer) BrokenKey(opts LoadKeyOpts) string {
	return hashKey("broken", opts.Dir, opts.Patterns, opts.Tests)
}

// ScopedKeyer prefixes every key of an inner Keyer, so that several users
// can share one store.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner uses
// DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// PackagesKey implements Keyer.
func (k *ScopedKeyer) PackagesKey(opts LoadKeyOpts) string {
	return k.prefix + k.inner.PackagesKey(opts)
}

// BrokenKey implements Keyer.
func (k *ScopedKeyer) BrokenKey(opts LoadKeyOpts) string {
	return k.prefix + k.inner.BrokenKey(opts)
}

// GetJSON decodes the value for key into v. It returns ErrCacheMiss when the
// key is absent or the value does not decode.
func GetJSON(ctx context.Context, c Cache, key string, v any) error {
	data, ok, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok || json.Unmarshal(data, v) != nil {
		return ErrCacheMiss
	}
	return nil
}

// SetJSON stores v encoded as JSON.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}
