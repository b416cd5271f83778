// Package pod is the client side of the remote document store: it fetches
// chat documents into per-document RDF graphs, applies SPARQL-update patches,
// and keeps the local graphs write-through so optimistic UI state matches
// what the server was told.
package pod

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/deiu/rdf2go"
	"golang.org/x/sync/singleflight"

	"solidchat-backend/internal/logger"
)

// ErrNotFound is returned when a requested resource does not exist on the
// pod. A missing daily chat document is a valid empty state, so callers
// usually translate this into "zero messages" rather than an error.
var ErrNotFound = errors.New("pod: resource not found")

const (
	turtleMIME        = "text/turtle"
	sparqlMIME        = "application/sparql-update"
	ldpBasicContainer = `<http://www.w3.org/ns/ldp#BasicContainer>; rel="type"`
)

// Client talks to a Solid pod over HTTP. Loaded documents are cached as
// independent graphs keyed by document URI; concurrent refreshes of the same
// document are collapsed into one request.
type Client struct {
	httpClient *http.Client
	bearer     string
	flight     singleflight.Group

	mu         sync.RWMutex
	docs       map[string]*rdf2go.Graph
	updatesVia map[string]string // document URI -> advertised websocket endpoint
}

// NewClient creates a pod client. bearer may be empty for anonymous access.
func NewClient(httpClient *http.Client, bearer string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		bearer:     bearer,
		docs:       make(map[string]*rdf2go.Graph),
		updatesVia: make(map[string]string),
	}
}

// Graph returns the cached graph for a document, or nil when it has not
// been loaded.
func (c *Client) Graph(docURI string) *rdf2go.Graph {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.docs[docURI]
}

// Load returns the cached graph for docURI, fetching it once if needed.
func (c *Client) Load(ctx context.Context, docURI string) (*rdf2go.Graph, error) {
	if g := c.Graph(docURI); g != nil {
		return g, nil
	}
	return c.Reload(ctx, docURI)
}

// Reload fetches docURI unconditionally, replacing the cached graph. A
// refresh that starts while an identical one is in flight joins it instead
// of issuing a second request.
func (c *Client) Reload(ctx context.Context, docURI string) (*rdf2go.Graph, error) {
	v, err, _ := c.flight.Do(docURI, func() (interface{}, error) {
		g, err := c.fetch(ctx, docURI)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.docs[docURI] = g
		c.mu.Unlock()
		return g, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*rdf2go.Graph), nil
}

// Forget drops a document from the cache so the next Load refetches it.
func (c *Client) Forget(docURI string) {
	c.mu.Lock()
	delete(c.docs, docURI)
	c.mu.Unlock()
}

// UpdatesVia returns the change-notification websocket endpoint the server
// advertised for a document, if any.
func (c *Client) UpdatesVia(docURI string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updatesVia[docURI]
}

func (c *Client) fetch(ctx context.Context, docURI string) (*rdf2go.Graph, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, docURI, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid document URI %q: %w", docURI, err)
	}
	req.Header.Set("Accept", turtleMIME)
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", docURI, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, fmt.Errorf("fetch %s: %w", docURI, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("fetch %s: unexpected status %d", docURI, resp.StatusCode)
	}

	if via := resp.Header.Get("Updates-Via"); via != "" {
		c.mu.Lock()
		c.updatesVia[docURI] = via
		c.mu.Unlock()
	}

	g := rdf2go.NewGraph(docURI)
	if err := g.Parse(resp.Body, turtleMIME); err != nil {
		return nil, fmt.Errorf("failed to parse %s as turtle: %w", docURI, err)
	}
	return g, nil
}

// Update sends DELETE DATA / INSERT DATA statement sets as one atomic PATCH
// against docURI, then applies the same change to the cached graph.
func (c *Client) Update(ctx context.Context, docURI string, deletions, insertions []*rdf2go.Triple) error {
	if len(deletions) == 0 && len(insertions) == 0 {
		return nil
	}
	if err := c.patch(ctx, docURI, dataPatch(deletions, insertions)); err != nil {
		return err
	}
	c.apply(docURI, deletions, insertions)
	return nil
}

// UpdateWhere sends a combined DELETE/INSERT/WHERE patch, scoped by a match
// on the current triples, then applies the change to the cached graph.
func (c *Client) UpdateWhere(ctx context.Context, docURI string, deletions, insertions, where []*rdf2go.Triple) error {
	if err := c.patch(ctx, docURI, wherePatch(deletions, insertions, where)); err != nil {
		return err
	}
	c.apply(docURI, deletions, insertions)
	return nil
}

func (c *Client) patch(ctx context.Context, docURI, body string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, docURI, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("invalid document URI %q: %w", docURI, err)
	}
	req.Header.Set("Content-Type", sparqlMIME)
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to patch %s: %w", docURI, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("patch %s rejected with status %d", docURI, resp.StatusCode)
	}
	return nil
}

// apply mirrors an acknowledged patch into the cached graph so local reads
// see the write without another round-trip.
func (c *Client) apply(docURI string, deletions, insertions []*rdf2go.Triple) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.docs[docURI]
	if !ok {
		return
	}
	for _, t := range deletions {
		if existing := g.One(t.Subject, t.Predicate, t.Object); existing != nil {
			g.Remove(existing)
		}
	}
	for _, t := range insertions {
		g.Add(t)
	}
}

// PutTurtle creates or replaces a document with the given turtle body.
func (c *Client) PutTurtle(ctx context.Context, docURI, turtle string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, docURI, strings.NewReader(turtle))
	if err != nil {
		return fmt.Errorf("invalid document URI %q: %w", docURI, err)
	}
	req.Header.Set("Content-Type", turtleMIME)
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", docURI, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("create %s rejected with status %d", docURI, resp.StatusCode)
	}
	return nil
}

// EnsureContainer makes sure an LDP container exists at uri. The operation
// is idempotent: statuses that mean "already there" are success, so callers
// can run it eagerly before the first write of a new day.
func (c *Client) EnsureContainer(ctx context.Context, uri string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uri, strings.NewReader(""))
	if err != nil {
		return fmt.Errorf("invalid container URI %q: %w", uri, err)
	}
	req.Header.Set("Content-Type", turtleMIME)
	req.Header.Set("Link", ldpBasicContainer)
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to create container %s: %w", uri, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	case http.StatusMethodNotAllowed, http.StatusConflict, http.StatusPreconditionFailed:
		// Container already exists.
		logger.L.Debug("container already exists", "uri", uri, "status", resp.StatusCode)
		return nil
	default:
		return fmt.Errorf("create container %s rejected with status %d", uri, resp.StatusCode)
	}
}

func (c *Client) authorize(req *http.Request) {
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}
}
