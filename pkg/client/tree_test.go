package client

import (
	"slices"
	"testing"

	errs "github.com/adonovan/spaghetti/pkg/errors"
	"github.com/adonovan/spaghetti/pkg/graph"
)

func rowIDs(rows []Row) []string {
	var ids []string
	for _, r := range rows {
		ids = append(ids, r.Item.ID)
	}
	return ids
}

func nestedTree() []graph.TreeItem {
	pkg := func(i int) graph.PackageView {
		return graph.PackageView{Package: i, Path: []int{i}}
	}
	return []graph.TreeItem{
		{ID: "std", Parent: graph.TreeRootID, Text: "std", Type: graph.TypeModule, View: graph.DirectoryView()},
		{ID: "std/net", Parent: "std", Text: "net", Type: graph.TypeDir, View: graph.DirectoryView()},
		{ID: "node0", Parent: "std/net", Text: "http", Type: graph.TypePackage, View: pkg(0)},
		{ID: "node1", Parent: "std/net", Text: "url", Type: graph.TypePackage, View: pkg(1)},
		{ID: "mod", Parent: graph.TreeRootID, Text: "example.com/m@v1.0.0", Type: graph.TypeModule, View: graph.DirectoryView()},
		{ID: "node2", Parent: "mod", Text: "example.com/m/HTTPx", Type: graph.TypePackage, View: pkg(2)},
	}
}

func TestTreeCollapsedByDefault(t *testing.T) {
	tr := NewTreeAdapter(nestedTree(), nil)
	if got := rowIDs(tr.Visible()); !slices.Equal(got, []string{"std", "mod"}) {
		t.Errorf("Visible() = %v", got)
	}

	tr.Toggle("std")
	if got := rowIDs(tr.Visible()); !slices.Equal(got, []string{"std", "std/net", "mod"}) {
		t.Errorf("after Toggle: %v", got)
	}
	tr.SetOpen("std", false)
	if got := rowIDs(tr.Visible()); len(got) != 2 {
		t.Errorf("after SetOpen(false): %v", got)
	}
}

func TestTreeSearchKeepsAncestors(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"http", []string{"std", "std/net", "node0", "mod", "node2"}},
		{"URL", []string{"std", "std/net", "node1"}},
		{"  net ", []string{"std", "std/net"}},
		{"nothing", nil},
		{"", []string{"std", "mod"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			tr := NewTreeAdapter(nestedTree(), nil)
			tr.Search(tt.query)
			if got := rowIDs(tr.Visible()); !slices.Equal(got, tt.want) {
				t.Errorf("Visible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTreeSearchMarksMatches(t *testing.T) {
	tr := NewTreeAdapter(nestedTree(), nil)
	tr.Search("url")
	for _, r := range tr.Visible() {
		if want := r.Item.ID == "node1"; r.Match != want {
			t.Errorf("%s: Match = %v, want %v", r.Item.ID, r.Match, want)
		}
	}
}

func TestTreeActivateForwardsPayload(t *testing.T) {
	var got []graph.PackageView
	tr := NewTreeAdapter(nestedTree(), func(v graph.PackageView) { got = append(got, v) })

	if err := tr.Activate("node1"); err != nil {
		t.Fatal(err)
	}
	if err := tr.Activate("std"); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Package != 1 || got[1].IsPackage() {
		t.Errorf("payloads = %+v", got)
	}
	if tr.Selected() != "std" {
		t.Errorf("Selected() = %q", tr.Selected())
	}
	if err := tr.Activate("missing"); !errs.Is(err, errs.ErrCodeNotFound) {
		t.Errorf("Activate(missing) error = %v, want NOT_FOUND", err)
	}
}

func TestTreeActivateReveals(t *testing.T) {
	tr := NewTreeAdapter(nestedTree(), nil)
	if err := tr.Activate("node0"); err != nil {
		t.Fatal(err)
	}
	want := []string{"std", "std/net", "node0", "node1", "mod"}
	if got := rowIDs(tr.Visible()); !slices.Equal(got, want) {
		t.Errorf("Visible() = %v, want %v", got, want)
	}
}

func TestTreeDepth(t *testing.T) {
	tr := NewTreeAdapter(nestedTree(), nil)
	tr.Search("http")
	depth := map[string]int{}
	for _, r := range tr.Visible() {
		depth[r.Item.ID] = r.Depth
	}
	if depth["std"] != 0 || depth["std/net"] != 1 || depth["node0"] != 2 || depth["node2"] != 1 {
		t.Errorf("depths = %v", depth)
	}
}
