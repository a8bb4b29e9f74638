package server

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"slices"

	"github.com/adonovan/spaghetti/pkg/client"
	errs "github.com/adonovan/spaghetti/pkg/errors"
	"github.com/adonovan/spaghetti/pkg/graph"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("index.html").
	Funcs(template.FuncMap{"returning": returning}).
	ParseFS(templateFS, "templates/index.html"))

// pageState is the view state carried in the page URL: the selected tree
// node, the search filter and the expanded directories.
type pageState struct {
	Node  string
	Query string
	Open  []string
}

func parseState(q url.Values) pageState {
	return pageState{Node: q.Get("node"), Query: q.Get("q"), Open: q["open"]}
}

// URL returns the page address for st.
func (st pageState) URL() string {
	q := url.Values{}
	if st.Node != "" {
		q.Set("node", st.Node)
	}
	if st.Query != "" {
		q.Set("q", st.Query)
	}
	for _, id := range st.Open {
		q.Add("open", id)
	}
	if len(q) == 0 {
		return "/"
	}
	return "/?" + q.Encode()
}

// returning adds the page address ret to an edit URL, so that the edit
// redirects back to it.
func returning(target, ret string) string {
	if ret == "" || ret == "/" {
		return target
	}
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set("return", ret)
	u.RawQuery = q.Encode()
	return u.String()
}

func (st pageState) toggle(id string) pageState {
	next := st
	if i := slices.Index(st.Open, id); i >= 0 {
		next.Open = slices.Delete(slices.Clone(st.Open), i, i+1)
	} else {
		next.Open = append(slices.Clone(st.Open), id)
	}
	return next
}

func (st pageState) selecting(id string) pageState {
	next := st
	next.Node = id
	return next
}

type treeRow struct {
	client.Row
	Href     string
	Selected bool
}

type importLink struct {
	client.ImportEntry
	Href string
}

type pageData struct {
	Title      string
	Generation string
	Packages   int
	Reachable  int
	Initial    []string
	Broken     []client.BrokenEntry
	Query      string
	Node       string
	Open       []string
	Return     string
	Rows       []treeRow
	Selected   bool
	Details    client.Details
	Imports    []importLink
	Error      string
}

// handleIndex renders the browser page from the current snapshot through
// the same client components a remote front-end uses. Break and unbreak
// controls are links to the edit endpoints.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot()
	st := parseState(r.URL.Query())

	page, err := client.NewPage(snap, nil, nil)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	data := pageData{
		Title:      s.title,
		Generation: snap.Generation,
		Packages:   len(snap.Packages),
		Query:      st.Query,
		Node:       st.Node,
		Open:       st.Open,
		Return:     st.URL(),
		Initial:    page.InitialPaths(),
	}
	for _, i := range snap.Initial {
		if item, ok := page.Model.ItemOf(i); ok {
			page.Tree.Reveal(item.ID)
		}
	}
	for _, item := range snap.Tree {
		if item.Type == graph.TypePackage {
			data.Reachable++
		}
	}
	if data.Broken, err = page.Broken(); err != nil {
		data.Error = errs.UserMessage(err)
	}

	for _, id := range st.Open {
		page.Tree.SetOpen(id, true)
	}
	page.Tree.Search(st.Query)

	status := http.StatusOK
	if st.Node != "" {
		if err := page.Tree.Activate(st.Node); err != nil {
			status = statusOf(err)
			data.Error = errs.UserMessage(err)
		}
	}
	if _, ok := page.Selection.Current(); ok {
		data.Selected = true
		data.Details = page.Selection.Details()
		for _, imp := range data.Details.Imports {
			link := importLink{ImportEntry: imp}
			if item, ok := page.Model.ItemOf(imp.Index); ok {
				link.Href = st.selecting(item.ID).URL()
			}
			data.Imports = append(data.Imports, link)
		}
	}

	for _, row := range page.Tree.Visible() {
		tr := treeRow{Row: row, Selected: row.Item.ID == page.Tree.Selected()}
		if row.Item.View.IsPackage() {
			tr.Href = st.selecting(row.Item.ID).URL()
		} else {
			tr.Href = st.toggle(row.Item.ID).URL()
		}
		data.Rows = append(data.Rows, tr)
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		s.fail(w, r, errs.Wrap(errs.ErrCodeInternal, err, "render page"))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
