// Package graph provides a client for the GraphDB triplestore. Instances
// are uploaded as Turtle into per-instance named graphs so that a
// corrected instance can replace its predecessor's graph wholesale.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to a GraphDB repository over its REST API.
type Client struct {
	baseURL    string
	repository string
	username   string
	password   string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBasicAuth sets the repository credentials.
func WithBasicAuth(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// NewClient creates a GraphDB client for one repository.
func NewClient(baseURL, repository string, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		repository: repository,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) statementsEndpoint() string {
	return fmt.Sprintf("%s/repositories/%s/statements", c.baseURL, c.repository)
}

func (c *Client) queryEndpoint() string {
	return fmt.Sprintf("%s/repositories/%s", c.baseURL, c.repository)
}

// UploadGraph uploads Turtle content. A non-empty graphURI targets a
// named graph; empty targets the default graph.
func (c *Client) UploadGraph(ctx context.Context, rdfContent, graphURI string) error {
	endpoint := c.statementsEndpoint()
	if graphURI != "" {
		// GraphDB expects the context parameter as an N-Triples IRI,
		// angle brackets included, URL-encoded.
		endpoint += "?context=" + url.QueryEscape("<"+graphURI+">")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(rdfContent))
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", "text/turtle")
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload graph: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		c.logger.Info("uploaded graph",
			"graph_uri", graphURI,
			"repository", c.repository)
		return nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("upload graph %q: status %d: %s", graphURI, resp.StatusCode, strings.TrimSpace(string(body)))
	}
}

// DeleteGraph drops a named graph via SPARQL UPDATE.
func (c *Client) DeleteGraph(ctx context.Context, graphURI string) error {
	update := fmt.Sprintf("DROP GRAPH <%s>", graphURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.statementsEndpoint(), strings.NewReader(update))
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	req.Header.Set("Content-Type", "application/sparql-update")
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete graph: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		c.logger.Info("deleted graph", "graph_uri", graphURI)
		return nil
	default:
		return fmt.Errorf("delete graph %q: status %d", graphURI, resp.StatusCode)
	}
}

// Query executes a SPARQL query and returns the SPARQL JSON results.
// The repository applies its configured reasoning on the server side.
func (c *Client) Query(ctx context.Context, sparql string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.queryEndpoint(), strings.NewReader(sparql))
	if err != nil {
		return nil, fmt.Errorf("build query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/sparql-query")
	req.Header.Set("Accept", "application/json")
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sparql query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("sparql query: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var results map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode sparql results: %w", err)
	}
	return results, nil
}

// HealthCheck reports whether the GraphDB server is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rest/repositories", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("graphdb health: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("graphdb health: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) setAuth(req *http.Request) {
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
}

// GraphURI derives the named graph URI for one instance of a data model.
func GraphURI(instanceID, dmCTID string) string {
	return fmt.Sprintf("urn:sdc4:dm-%s:%s", dmCTID, instanceID)
}
