package client

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	errs "github.com/adonovan/spaghetti/pkg/errors"
	"github.com/adonovan/spaghetti/pkg/graph"
	"github.com/adonovan/spaghetti/pkg/observability"
)

// DataEndpoint serves the graph snapshot.
const DataEndpoint = "/data"

// Client talks to a spaghetti server: it fetches snapshots and performs
// navigations. It implements Navigator.
type Client struct {
	base *url.URL
	http *http.Client
}

// NewClient returns a client for the server at baseURL. If hc is nil
// http.DefaultClient is used.
func NewClient(baseURL string, hc *http.Client) (*Client, error) {
	if err := errs.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "parse server URL")
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{base: u, http: hc}, nil
}

// BaseURL returns the server address.
func (c *Client) BaseURL() string { return c.base.String() }

// Fetch retrieves the current snapshot. Transport and HTTP failures have
// code NETWORK_ERROR; undecodable payloads MALFORMED_SNAPSHOT. There is no
// retry.
func (c *Client) Fetch(ctx context.Context) (*graph.Snapshot, error) {
	resp, err := c.get(ctx, DataEndpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return graph.ReadSnapshot(resp.Body)
}

// Navigate requests target and discards the response page. Redirects are
// followed, as a browser would.
func (c *Client) Navigate(ctx context.Context, target string) error {
	resp, err := c.get(ctx, target)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) get(ctx context.Context, target string) (*http.Response, error) {
	ref, err := url.Parse(target)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "parse target %q", target)
	}
	u := c.base.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "build request")
	}

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, u.Host, u.Path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, u.Host, u.Path, err)
		if ctx.Err() != nil {
			return nil, errs.Wrap(errs.ErrCodeTimeout, err, "GET %s", u.Path)
		}
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "GET %s", u.Path)
	}
	hooks.OnResponse(ctx, req.Method, u.Host, u.Path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, errs.New(errs.ErrCodeNetwork, "GET %s: %s: %s", u.Path, resp.Status, strings.TrimSpace(string(body)))
	}
	return resp, nil
}

var _ Navigator = (*Client)(nil)
