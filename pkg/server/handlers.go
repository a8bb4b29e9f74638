package server

import (
	"net/http"
	"net/url"
	"slices"
	"strconv"

	errs "github.com/adonovan/spaghetti/pkg/errors"
	"github.com/adonovan/spaghetti/pkg/graph"
	"github.com/adonovan/spaghetti/pkg/observability"
	"github.com/adonovan/spaghetti/pkg/render/nodelink"
)

func (s *Server) snapshot() *graph.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.g.Snapshot()
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	data, err := graph.MarshalSnapshot(s.snapshot())
	if err != nil {
		s.fail(w, r, errs.Wrap(errs.ErrCodeInternal, err, "encode snapshot"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

// handleBreak serves /break?from=i&to=j&all=bool. Every successful edit
// redirects to the page, which shows the recomputed graph in the state named
// by the optional return parameter.
func (s *Server) handleBreak(w http.ResponseWriter, r *http.Request) {
	from, to, err := edgeParams(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	all, err := boolParam(r, "all")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	ctx := r.Context()
	target := "/"
	s.mu.Lock()
	cut, err := s.g.Break(from, to, all)
	if err == nil {
		fromPath, toPath := s.g.Package(from).ImportPath, s.g.Package(to).ImportPath
		observability.Graph().OnBreak(ctx, fromPath, toPath, all, len(cut))
		s.logger.Info("break", "from", fromPath, "to", toPath, "all", all, "edges", len(cut))
		s.recomputed(ctx)
		s.persist(ctx)
		target = s.returnTarget(r)
	}
	s.mu.Unlock()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (s *Server) handleUnbreak(w http.ResponseWriter, r *http.Request) {
	from, to, err := edgeParams(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	ctx := r.Context()
	target := "/"
	s.mu.Lock()
	err = s.g.Unbreak(from, to)
	if err == nil {
		fromPath, toPath := s.g.Package(from).ImportPath, s.g.Package(to).ImportPath
		observability.Graph().OnUnbreak(ctx, fromPath, toPath)
		s.logger.Info("unbreak", "from", fromPath, "to", toPath)
		s.recomputed(ctx)
		s.persist(ctx)
		target = s.returnTarget(r)
	}
	s.mu.Unlock()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// returnTarget is the page address to show after an edit. Only page URLs
// are accepted, and a selected node that the edit dropped from the tree is
// cleared. Callers hold s.mu.
func (s *Server) returnTarget(r *http.Request) string {
	ret := r.URL.Query().Get("return")
	if ret == "" {
		return "/"
	}
	u, err := url.Parse(ret)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Path != "/" {
		return "/"
	}
	st := parseState(u.Query())
	tree := s.g.Tree()
	present := func(id string) bool {
		return slices.ContainsFunc(tree, func(item graph.TreeItem) bool { return item.ID == id })
	}
	if st.Node != "" && !present(st.Node) {
		st.Node = ""
	}
	st.Open = slices.DeleteFunc(slices.Clone(st.Open), func(id string) bool { return !present(id) })
	return st.URL()
}

func (s *Server) dotOptions(r *http.Request) (nodelink.Options, error) {
	var opts nodelink.Options
	var err error
	if opts.Dominators, err = boolParam(r, "dom"); err != nil {
		return opts, err
	}
	if opts.Detailed, err = boolParam(r, "detailed"); err != nil {
		return opts, err
	}
	if opts.ClusterModules, err = boolParam(r, "modules"); err != nil {
		return opts, err
	}
	opts.Broken = !opts.Dominators
	return opts, nil
}

func (s *Server) dot(r *http.Request) (string, error) {
	opts, err := s.dotOptions(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return nodelink.ToDOT(s.g, opts), nil
}

func (s *Server) handleDOT(w http.ResponseWriter, r *http.Request) {
	dot, err := s.dot(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	_, _ = w.Write([]byte(dot))
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	dot, err := s.dot(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	svg, err := nodelink.RenderSVG(r.Context(), dot)
	if err != nil {
		s.fail(w, r, errs.Wrap(errs.ErrCodeInternal, err, "render graph"))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

func edgeParams(r *http.Request) (from, to int, err error) {
	if from, err = intParam(r, "from"); err != nil {
		return 0, 0, err
	}
	if to, err = intParam(r, "to"); err != nil {
		return 0, 0, err
	}
	return from, to, nil
}

func intParam(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, errs.New(errs.ErrCodeInvalidInput, "missing %s parameter", name)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errs.Wrap(errs.ErrCodeInvalidInput, err, "bad %s parameter %q", name, v)
	}
	return n, nil
}

// boolParam parses an optional boolean parameter; absent means false.
func boolParam(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errs.Wrap(errs.ErrCodeInvalidInput, err, "bad %s parameter %q", name, v)
	}
	return b, nil
}

// statusOf maps an error code to an HTTP status.
func statusOf(err error) int {
	switch errs.GetCode(err) {
	case errs.ErrCodeInvalidInput, errs.ErrCodeIndexOutOfRange:
		return http.StatusBadRequest
	case errs.ErrCodeNotFound, errs.ErrCodePackageNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= 500 {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	} else {
		s.logger.Debug("bad request", "path", r.URL.Path, "err", err)
	}
	http.Error(w, errs.UserMessage(err), status)
}
