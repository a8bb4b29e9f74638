package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCacheDisablesLoaderCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	key := NewDefaultKeyer().PackagesKey(LoadKeyOpts{Dir: "/src/app", Patterns: []string{"./..."}})
	if err := SetJSON(ctx, c, key, []string{"example.com/app"}, PackagesTTL); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}
	var got []string
	if err := GetJSON(ctx, c, key, &got); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("GetJSON after SetJSON = %v, want ErrCacheMiss", err)
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Errorf("Delete: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Fatalf("empty cache Get = %v, %v", hit, err)
	}
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry survived Delete")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry was returned")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry was not removed")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	p := c.path("k")
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry Get = %v, %v", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	n, err := c.Clear()
	if err != nil || n != 3 {
		t.Errorf("Clear() = %d, %v, want 3", n, err)
	}
	entries, _ := os.ReadDir(c.Dir())
	if len(entries) != 0 {
		t.Errorf("%d entries left after Clear", len(entries))
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	var got []string
	if err := GetJSON(ctx, c, "k", &got); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("GetJSON(missing) = %v, want ErrCacheMiss", err)
	}
	if err := SetJSON(ctx, c, "k", []string{"fmt", "os"}, time.Hour); err != nil {
		t.Fatal(err)
	}
	if err := GetJSON(ctx, c, "k", &got); err != nil || len(got) != 2 || got[1] != "os" {
		t.Errorf("GetJSON = %v, %v", got, err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestHashFiles(t *testing.T) {
	dir := t.TempDir()
	gomod := filepath.Join(dir, "go.mod")
	gosum := filepath.Join(dir, "go.sum")

	before := HashFiles(gomod, gosum)
	if err := os.WriteFile(gomod, []byte("module example.com\n"), 0644); err != nil {
		t.Fatal(err)
	}
	created := HashFiles(gomod, gosum)
	if created == before {
		t.Error("creating go.mod did not change the hash")
	}
	if err := os.WriteFile(gomod, []byte("module example.com\n\ngo 1.24\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if HashFiles(gomod, gosum) == created {
		t.Error("editing go.mod did not change the hash")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()
	base := LoadKeyOpts{Dir: "/src", Patterns: []string{"./..."}, Fingerprint: "f1"}

	tests := []struct {
		name         string
		opts         LoadKeyOpts
		samePackages bool
		sameBroken   bool
	}{
		{"identical", base, true, true},
		{"fingerprint", LoadKeyOpts{Dir: "/src", Patterns: []string{"./..."}, Fingerprint: "f2"}, false, true},
		{"tests", LoadKeyOpts{Dir: "/src", Patterns: []string{"./..."}, Tests: true, Fingerprint: "f1"}, false, false},
		{"patterns", LoadKeyOpts{Dir: "/src", Patterns: []string{"./cmd/..."}, Fingerprint: "f1"}, false, false},
		{"dir", LoadKeyOpts{Dir: "/other", Patterns: []string{"./..."}, Fingerprint: "f1"}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := k.PackagesKey(tt.opts) == k.PackagesKey(base); got != tt.samePackages {
				t.Errorf("same PackagesKey = %v, want %v", got, tt.samePackages)
			}
			if got := k.BrokenKey(tt.opts) == k.BrokenKey(base); got != tt.sameBroken {
				t.Errorf("same BrokenKey = %v, want %v", got, tt.sameBroken)
			}
		})
	}

	if !strings.HasPrefix(k.PackagesKey(base), "packages:") || !strings.HasPrefix(k.BrokenKey(base), "broken:") {
		t.Error("keys lack their prefixes")
	}
}

func TestScopedKeyer(t *testing.T) {
	opts := LoadKeyOpts{Dir: "/src", Patterns: []string{"."}}
	scoped := NewScopedKeyer(NewDefaultKeyer(), "user:123:")
	if got, want := scoped.BrokenKey(opts), "user:123:"+NewDefaultKeyer().BrokenKey(opts); got != want {
		t.Errorf("BrokenKey = %s, want %s", got, want)
	}
	if got := NewScopedKeyer(nil, "p:").PackagesKey(opts); !strings.HasPrefix(got, "p:packages:") {
		t.Errorf("nil inner PackagesKey = %s", got)
	}
}
