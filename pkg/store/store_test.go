package store

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/adonovan/spaghetti/pkg/dag"
	errs "github.com/adonovan/spaghetti/pkg/errors"
)

var edges = []dag.EdgeKey{
	{From: "example.com/app", To: "example.com/app/internal/db"},
	{From: "example.com/app/internal/db", To: "github.com/lib/pq"},
}

// exercise runs the behavior every backend shares.
func exercise(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	key := "broken:" + t.Name()

	got, err := s.Load(ctx, key)
	if err != nil || got != nil {
		t.Fatalf("Load(missing) = %v, %v", got, err)
	}
	if err := s.Save(ctx, key, edges); err != nil {
		t.Fatal(err)
	}
	got, err = s.Load(ctx, key)
	if err != nil || !slices.Equal(got, edges) {
		t.Fatalf("Load = %v, %v, want %v", got, err, edges)
	}
	if err := s.Save(ctx, key, edges[:1]); err != nil {
		t.Fatal(err)
	}
	if got, _ = s.Load(ctx, key); !slices.Equal(got, edges[:1]) {
		t.Errorf("Load after overwrite = %v", got)
	}
	if err := s.Save(ctx, key, nil); err != nil {
		t.Fatal(err)
	}
	if got, _ = s.Load(ctx, key); got != nil {
		t.Errorf("Load after clearing = %v", got)
	}
}

func TestMemoryStore(t *testing.T) {
	exercise(t, NewMemoryStore())
}

func TestMemoryStoreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	in := slices.Clone(edges)
	if err := s.Save(ctx, "k", in); err != nil {
		t.Fatal(err)
	}
	in[0].From = "changed"
	got, _ := s.Load(ctx, "k")
	if got[0].From == "changed" {
		t.Error("store aliases the caller's slice")
	}
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "broken"))
	if err != nil {
		t.Fatal(err)
	}
	exercise(t, s)
}

func TestFileStorePersists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s1, _ := NewFileStore(dir)
	if err := s1.Save(ctx, "k", edges); err != nil {
		t.Fatal(err)
	}
	s2, _ := NewFileStore(dir)
	got, err := s2.Load(ctx, "k")
	if err != nil || !slices.Equal(got, edges) {
		t.Errorf("reopened Load = %v, %v", got, err)
	}
}

func TestFileStoreCorruptRecord(t *testing.T) {
	ctx := context.Background()
	s, _ := NewFileStore(t.TempDir())
	if err := os.WriteFile(s.recordPath("k"), []byte("{"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(ctx, "k"); !errs.Is(err, errs.ErrCodeStore) {
		t.Errorf("Load(corrupt) error = %v, want STORE_ERROR", err)
	}
}

func TestDefaultDir(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/state")
	dir, err := DefaultDir()
	if err != nil || dir != filepath.Join("/state", "spaghetti", "broken") {
		t.Errorf("DefaultDir() = %q, %v", dir, err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		url  string
		want string
	}{
		{"", "*store.MemoryStore"},
		{"memory://", "*store.MemoryStore"},
		{"file://" + filepath.ToSlash(dir), "*store.FileStore"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			s, err := Open(ctx, tt.url)
			if err != nil {
				t.Fatal(err)
			}
			defer s.Close()
			if got := typeName(s); got != tt.want {
				t.Errorf("Open(%q) = %s, want %s", tt.url, got, tt.want)
			}
		})
	}

	if _, err := Open(ctx, "s3://bucket"); !errs.Is(err, errs.ErrCodeUnsupported) {
		t.Errorf("Open(s3) error = %v, want UNSUPPORTED", err)
	}
}

func typeName(s Store) string {
	switch s.(type) {
	case *MemoryStore:
		return "*store.MemoryStore"
	case *FileStore:
		return "*store.FileStore"
	case *RedisStore:
		return "*store.RedisStore"
	case *MongoStore:
		return "*store.MongoStore"
	}
	return "unknown"
}

func TestParseMongoDatabase(t *testing.T) {
	tests := []struct {
		uri, want string
	}{
		{"mongodb://localhost:27017", DefaultMongoDatabase},
		{"mongodb://localhost:27017/", DefaultMongoDatabase},
		{"mongodb://localhost:27017/graphs", "graphs"},
		{"mongodb://u:p@host/graphs?authSource=admin", "graphs"},
		{"mongodb+srv://cluster.example.com/prod", "prod"},
	}
	for _, tt := range tests {
		got, err := parseMongoDatabase(tt.uri)
		if err != nil || got != tt.want {
			t.Errorf("parseMongoDatabase(%q) = %q, %v, want %q", tt.uri, got, err, tt.want)
		}
	}
	if _, err := parseMongoDatabase("redis://x"); err == nil {
		t.Error("parseMongoDatabase accepted a redis URL")
	}
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("SPAGHETTI_TEST_REDIS")
	if url == "" {
		t.Skip("SPAGHETTI_TEST_REDIS not set")
	}
	s, err := Open(context.Background(), url)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	exercise(t, s)
}

func TestMongoStore(t *testing.T) {
	url := os.Getenv("SPAGHETTI_TEST_MONGO")
	if url == "" {
		t.Skip("SPAGHETTI_TEST_MONGO not set")
	}
	s, err := Open(context.Background(), url)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	exercise(t, s)
}
