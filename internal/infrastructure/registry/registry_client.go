package registry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/hashicorp/go-hclog"

	plugindomain "github.com/devflow-sh/devflow/internal/core/domain/plugin"
)

const defaultTimeout = 10 * time.Second

// Client fetches and caches the remote plugin registry index. The cache is
// a single whole-document slot held for the process lifetime; there is no
// per-entry invalidation and no conditional requests.
type Client struct {
	registryURL string
	client      *http.Client
	logger      hclog.Logger

	cached *plugindomain.RegistryIndex
}

// Option configures a Client
type Option func(*Client)

// WithLogger sets the logger
func WithLogger(logger hclog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a registry client for the given registry URL
func NewClient(registryURL string, options ...Option) *Client {
	c := &Client{
		registryURL: registryURL,
		client:      &http.Client{Timeout: defaultTimeout},
		logger:      hclog.NewNullLogger(),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// FetchRegistry returns the registry index, serving the cached copy unless
// it is empty or forceRefresh is set.
func (c *Client) FetchRegistry(ctx context.Context, forceRefresh bool) (*plugindomain.RegistryIndex, error) {
	if c.cached != nil && !forceRefresh {
		c.logger.Debug("serving cached registry index", "plugins", len(c.cached.Plugins))
		return c.cached, nil
	}

	c.logger.Debug("fetching registry index", "url", c.registryURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.registryURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "devflow-cli")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &plugindomain.RegistryUnavailableError{URL: c.registryURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &plugindomain.RegistryFetchError{URL: c.registryURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &plugindomain.RegistryUnavailableError{URL: c.registryURL, Err: err}
	}

	var index plugindomain.RegistryIndex
	if err := json.Unmarshal(body, &index); err != nil {
		return nil, &plugindomain.RegistryFormatError{Reason: "body is not valid JSON", Err: err}
	}
	if index.Plugins == nil {
		return nil, &plugindomain.RegistryFormatError{Reason: "missing \"plugins\" key"}
	}

	c.logger.Info("fetched registry index", "plugins", len(index.Plugins), "updated", index.LastUpdated)
	c.cached = &index
	return c.cached, nil
}

// GetPluginEntry looks up pluginID in the (freshly fetched if needed)
// registry index.
func (c *Client) GetPluginEntry(ctx context.Context, pluginID string) (*plugindomain.RegistryEntry, error) {
	index, err := c.FetchRegistry(ctx, false)
	if err != nil {
		return nil, err
	}

	entry, ok := index.Plugins[pluginID]
	if !ok {
		known := make([]string, 0, len(index.Plugins))
		for id := range index.Plugins {
			known = append(known, id)
		}
		sort.Strings(known)
		return nil, &plugindomain.PluginNotFoundError{ID: pluginID, KnownIDs: known}
	}
	return &entry, nil
}
