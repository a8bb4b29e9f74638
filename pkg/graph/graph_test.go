package graph

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	errs "github.com/adonovan/spaghetti/pkg/errors"
)

func validSnapshot() *Snapshot {
	return &Snapshot{
		Packages: []Package{
			{Index: 0, ImportPath: "example.com/a"},
			{Index: 1, ImportPath: "example.com/b"},
			{Index: 2, ImportPath: "example.com/c"},
		},
		Initial: []int{0},
		Broken:  []EdgePair{{0, 2}},
		Tree: []TreeItem{
			{ID: "mod", Parent: TreeRootID, Text: "example.com", View: DirectoryView()},
			{ID: "node0", Parent: "mod", Text: "a", View: PackageView{Package: 0, Path: []int{0}, Dominators: []int{0}, Imports: []int{1}}},
			{ID: "node1", Parent: "mod", Text: "b", View: PackageView{Package: 1, Path: []int{1, 0}, Dominators: []int{1, 0}, Imports: []int{2}}},
			{ID: "node2", Parent: "mod", Text: "c", View: PackageView{Package: 2, Path: []int{2, 1, 0}, Dominators: []int{2, 1, 0}}},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Snapshot)
	}{
		{"package index mismatch", func(s *Snapshot) { s.Packages[1].Index = 5 }},
		{"initial out of range", func(s *Snapshot) { s.Initial = []int{3} }},
		{"negative initial", func(s *Snapshot) { s.Initial = []int{-1} }},
		{"broken out of range", func(s *Snapshot) { s.Broken = []EdgePair{{0, 9}} }},
		{"view package out of range", func(s *Snapshot) { s.Tree[1].View.Package = 7 }},
		{"path out of range", func(s *Snapshot) { s.Tree[2].View.Path = []int{1, 4} }},
		{"dominator out of range", func(s *Snapshot) { s.Tree[2].View.Dominators = []int{-2} }},
		{"import out of range", func(s *Snapshot) { s.Tree[1].View.Imports = []int{3} }},
		{"unknown parent", func(s *Snapshot) { s.Tree[1].Parent = "nowhere" }},
		{"duplicate id", func(s *Snapshot) { s.Tree[2].ID = "node0" }},
	}

	if err := validSnapshot().Validate(); err != nil {
		t.Fatalf("Validate() on valid snapshot = %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSnapshot()
			tt.mutate(s)
			err := s.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !errs.Is(err, errs.ErrCodeMalformedSnapshot) {
				t.Errorf("Validate() code = %v, want %v", errs.GetCode(err), errs.ErrCodeMalformedSnapshot)
			}
		})
	}
}

func TestValidateIgnoresDirectoryPayload(t *testing.T) {
	s := validSnapshot()
	// Fields of a directory view are meaningless and must not be checked.
	s.Tree[0].View = PackageView{Package: NoPackage, Path: []int{99}, Imports: []int{-5}}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := validSnapshot()
	s.Generation = "gen-1"

	var buf bytes.Buffer
	if err := WriteSnapshot(s, &buf); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	got, err := ReadSnapshot(&buf)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if got.Generation != "gen-1" || len(got.Packages) != 3 || len(got.Tree) != 4 {
		t.Errorf("round trip lost data: %+v", got)
	}
	if got.Tree[0].View.IsPackage() {
		t.Error("directory node decoded as package")
	}
	if !slices.Equal(got.Tree[3].View.Path, []int{2, 1, 0}) {
		t.Errorf("path = %v, want [2 1 0]", got.Tree[3].View.Path)
	}
}

func TestWriteSnapshotEmptyLists(t *testing.T) {
	data, err := MarshalSnapshot(&Snapshot{})
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{`"packages":[]`, `"initial":[]`, `"broken":[]`, `"tree":[]`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("MarshalSnapshot() = %s, missing %s", data, field)
		}
	}
}

func TestPackageViewNullPackage(t *testing.T) {
	tests := []struct {
		name string
		json string
		want bool
	}{
		{"null", `{"package": null, "path": [1]}`, false},
		{"missing", `{"path": [1]}`, false},
		{"negative", `{"package": -1}`, false},
		{"zero", `{"package": 0, "path": [0]}`, true},
		{"positive", `{"package": 4}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v PackageView
			if err := json.Unmarshal([]byte(tt.json), &v); err != nil {
				t.Fatal(err)
			}
			if v.IsPackage() != tt.want {
				t.Errorf("IsPackage() = %v, want %v", v.IsPackage(), tt.want)
			}
			if !tt.want && v.Package != NoPackage {
				t.Errorf("Package = %d, want NoPackage", v.Package)
			}
		})
	}
}

func TestReadSnapshotMalformedJSON(t *testing.T) {
	_, err := ReadSnapshot(strings.NewReader(`{"packages": [`))
	if !errs.Is(err, errs.ErrCodeMalformedSnapshot) {
		t.Errorf("ReadSnapshot() error = %v, want MALFORMED_SNAPSHOT", err)
	}
}

func TestReadGraph(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", `{"nodes":[{"id":"a"},{"id":"b"}],"edges":[{"from":"a","to":"b"}]}`, false},
		{"empty id", `{"nodes":[{"id":""}]}`, true},
		{"duplicate", `{"nodes":[{"id":"a"},{"id":"a"}]}`, true},
		{"unknown source", `{"nodes":[{"id":"a"}],"edges":[{"from":"x","to":"a"}]}`, true},
		{"unknown target", `{"nodes":[{"id":"a"}],"edges":[{"from":"a","to":"x"}]}`, true},
		{"bad json", `{"nodes":`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadGraph(strings.NewReader(tt.input))
			if (err != nil) != tt.wantErr {
				t.Errorf("ReadGraph() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestReadGraphFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.json")
	data := `{"nodes":[{"id":"app"},{"id":"lib","module":"example.com/lib"},{"id":"tool"}],
	          "edges":[{"from":"app","to":"lib"},{"from":"tool","to":"lib"}]}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	g, err := ReadGraphFile(path)
	if err != nil {
		t.Fatalf("ReadGraphFile: %v", err)
	}
	if got := g.Roots(); !slices.Equal(got, []string{"app", "tool"}) {
		t.Errorf("Roots() = %v, want [app tool]", got)
	}

	_, err = ReadGraphFile(filepath.Join(dir, "missing.json"))
	if !errs.Is(err, errs.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v, want FILE_NOT_FOUND", err)
	}
}
