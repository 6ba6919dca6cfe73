package origin

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/albertocavalcante/go-webresource/label"
)

// Client configuration defaults.
const (
	DefaultMaxIdleConns        = 50
	DefaultMaxIdleConnsPerHost = 20
	DefaultIdleConnTimeout     = 90 * time.Second
	DefaultRequestTimeout      = 15 * time.Second
)

// Client fetches resource content over HTTP.
type Client struct {
	baseURL string
	client  *http.Client

	cache   sync.Map // map[string][]byte keyed by resource URL
	caching bool
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithTimeout sets the HTTP request timeout.
// Zero or negative values fall back to DefaultRequestTimeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.client.Timeout = timeout
		} else {
			c.client.Timeout = DefaultRequestTimeout
		}
	}
}

// WithCache enables or disables the in-memory content cache.
func WithCache(enabled bool) ClientOption {
	return func(c *Client) {
		c.caching = enabled
	}
}

// NewClient creates a client for the origin at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	transport := &http.Transport{
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
	}

	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout:   DefaultRequestTimeout,
			Transport: transport,
		},
		caching: true,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the origin base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL returns the origin URL of a module's resource.
func (c *Client) URL(module label.Key, name string) string {
	var b strings.Builder
	b.WriteString(c.baseURL)
	b.WriteByte('/')
	b.WriteString(url.PathEscape(module.Plugin()))
	b.WriteByte('/')
	b.WriteString(url.PathEscape(module.Module()))
	for _, part := range strings.Split(name, "/") {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(part))
	}
	return b.String()
}

// Fetch returns the content of a module's resource. A 404 from the origin
// yields an error wrapping fs.ErrNotExist.
func (c *Client) Fetch(ctx context.Context, module label.Key, name string) ([]byte, error) {
	u := c.URL(module, name)
	if c.caching {
		if cached, ok := c.cache.Load(u); ok {
			return cached.([]byte), nil
		}
	}

	data, err := c.fetch(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s/%s: %w", module, name, err)
	}

	if c.caching {
		c.cache.Store(u, data)
	}
	return data, nil
}

// Open implements webresource.ResourceSource. The request is bounded by the
// client timeout.
func (c *Client) Open(module label.Key, name string) (io.ReadCloser, error) {
	data, err := c.Fetch(context.Background(), module, name)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// ClearCache removes all cached content.
func (c *Client) ClearCache() {
	c.cache.Clear()
}

// fetch performs an HTTP GET and returns the response body.
func (c *Client) fetch(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		return io.ReadAll(resp.Body)
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", fs.ErrNotExist, u)
	}
	return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, u)
}
