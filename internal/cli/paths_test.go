package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/adonovan/spaghetti/pkg/cache"
	"github.com/adonovan/spaghetti/pkg/store"
)

func TestStateDirs(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := []struct {
		name      string
		xdgCache  string
		xdgState  string
		wantCache string
		wantStore string
	}{
		{
			name:      "defaults",
			wantCache: filepath.Join(home, ".cache", "spaghetti"),
			wantStore: filepath.Join(home, ".local", "state", "spaghetti", "broken"),
		},
		{
			name:      "xdg",
			xdgCache:  "/tmp/xdg-cache",
			xdgState:  "/tmp/xdg-state",
			wantCache: "/tmp/xdg-cache/spaghetti",
			wantStore: "/tmp/xdg-state/spaghetti/broken",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_CACHE_HOME", tt.xdgCache)
			t.Setenv("XDG_STATE_HOME", tt.xdgState)

			if got, err := cacheDir(); err != nil || got != tt.wantCache {
				t.Errorf("cacheDir() = %q, %v; want %q", got, err, tt.wantCache)
			}
			if got, err := store.DefaultDir(); err != nil || got != tt.wantStore {
				t.Errorf("store.DefaultDir() = %q, %v; want %q", got, err, tt.wantStore)
			}
		})
	}
}

func TestNewCache(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	ctx := context.Background()

	c, err := newCache(false)
	if err != nil {
		t.Fatal(err)
	}
	fc, ok := c.(*cache.FileCache)
	if !ok {
		t.Fatalf("newCache(false) = %T, want *cache.FileCache", c)
	}
	if want, _ := cacheDir(); fc.Dir() != want {
		t.Errorf("cache dir = %q, want %q", fc.Dir(), want)
	}

	off, err := newCache(true)
	if err != nil {
		t.Fatal(err)
	}
	if err := off.Set(ctx, "packages", []byte("[]"), 0); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := off.Get(ctx, "packages"); ok {
		t.Error("--no-cache cache kept a value")
	}
}

func TestOpenStoreDefault(t *testing.T) {
	state := t.TempDir()
	t.Setenv("XDG_STATE_HOME", state)

	st, err := openStore(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	fs, ok := st.(*store.FileStore)
	if !ok {
		t.Fatalf("openStore(\"\") = %T, want *store.FileStore", st)
	}
	if want := filepath.Join(state, "spaghetti", "broken"); fs.Path() != want {
		t.Errorf("store path = %q, want %q", fs.Path(), want)
	}
}
