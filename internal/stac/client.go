package stac

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/greenshift/greenshift/internal/config"
)

// Client queries a single STAC API catalog.
type Client struct {
	searchURL string
	client    *http.Client
	maxPages  int
}

// New builds a Client for the given catalog configuration.
// The HTTP client is constructed once and reused across searches.
func New(cfg config.CatalogConfig) (*Client, error) {
	client, err := buildHTTPClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("stac: build http client: %w", err)
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = config.DefaultMaxPages
	}
	return &Client{
		searchURL: strings.TrimRight(cfg.URL, "/") + "/search",
		client:    client,
		maxPages:  maxPages,
	}, nil
}

// Search runs the item search and returns all matching items, following
// rel="next" pagination links up to the configured page budget.
func (c *Client) Search(ctx context.Context, req SearchRequest) ([]Item, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("stac: encode search request: %w", err)
	}

	var items []Item
	url, method := c.searchURL, http.MethodPost

	for page := 1; ; page++ {
		col, err := c.fetchPage(ctx, method, url, body)
		if err != nil {
			return nil, fmt.Errorf("stac: page %d: %w", page, err)
		}
		items = append(items, col.Features...)

		if page == 1 {
			slog.Info("stac: search matched", "matched", col.NumberMatched)
		}

		link, ok := col.next()
		if !ok {
			return items, nil
		}
		if page >= c.maxPages {
			slog.Warn("stac: page budget reached — truncating results",
				"pages", page, "items", len(items))
			return items, nil
		}

		url = link.Href
		method = http.MethodGet
		body = nil
		if strings.EqualFold(link.Method, http.MethodPost) {
			method = http.MethodPost
			body = link.Body
		}
	}
}

// fetchPage performs one search request and decodes the item collection.
func (c *Client) fetchPage(ctx context.Context, method, url string, body []byte) (*ItemCollection, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/geo+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var col ItemCollection
	if err := json.NewDecoder(resp.Body).Decode(&col); err != nil {
		return nil, fmt.Errorf("decode item collection: %w", err)
	}
	return &col, nil
}

// authRoundTripper injects authentication headers into every outgoing request.
type authRoundTripper struct {
	base http.RoundTripper
	auth config.AuthConfig
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	switch t.auth.Mode {
	case "apikey":
		req = req.Clone(req.Context())
		req.Header.Set(t.auth.Header, t.auth.Key())
	case "bearer":
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+t.auth.Token())
	}
	return t.base.RoundTrip(req)
}

// buildHTTPClient constructs an http.Client for the catalog's auth and TLS settings.
func buildHTTPClient(cfg config.CatalogConfig) (*http.Client, error) {
	tlsCfg := &tls.Config{
		InsecureSkipVerify: cfg.TLS.InsecureSkipVerify, //nolint:gosec // user-configured
	}

	transport := &authRoundTripper{
		base: &http.Transport{TLSClientConfig: tlsCfg},
		auth: cfg.Auth,
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}
	return &http.Client{Transport: transport, Timeout: timeout}, nil
}
