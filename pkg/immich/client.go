// Package immich is a small client for the parts of the Immich REST API used
// to find photos without a location and to set one.
package immich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

// MinServerVersion is the oldest server release whose search and update
// endpoints match this client.
const MinServerVersion = ">= 1.106.0"

const defaultPageSize = 250

// Client talks to one Immich server with one API key.
type Client struct {
	server    string
	apiKey    string
	transport *transport
	pageSize  int
	startPage int
	maxPages  int
}

// ClientOption is a functional option for configuring a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.transport.client = httpClient
	}
}

// WithRetryPolicy sets the retry policy for 429 and 5xx responses.
func WithRetryPolicy(policy RetryPolicy) ClientOption {
	return func(c *Client) {
		c.transport.retryPolicy = policy
	}
}

// WithPaging sets the search page size, the first page, and the maximum
// number of pages fetched by SearchAll. A maxPages of 0 fetches every page.
func WithPaging(pageSize, startPage, maxPages int) ClientOption {
	return func(c *Client) {
		if pageSize > 0 {
			c.pageSize = pageSize
		}
		if startPage > 0 {
			c.startPage = startPage
		}
		if maxPages >= 0 {
			c.maxPages = maxPages
		}
	}
}

// WithSleepFunc overrides the wait between retries. Intended for tests.
func WithSleepFunc(fn func(ctx context.Context, d time.Duration) error) ClientOption {
	return func(c *Client) {
		c.transport.sleep = fn
	}
}

// NewClient creates a client for the server at baseURL, e.g.
// https://immich.example.com.
func NewClient(baseURL, apiKey string, opts ...ClientOption) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid server url %q", baseURL)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("missing API key")
	}

	c := &Client{
		server:    strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		transport: newTransport(&http.Client{Timeout: 30 * time.Second}, DefaultRetryPolicy(), "immich-gpx"),
		pageSize:  defaultPageSize,
		startPage: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Server returns the server base URL without a trailing slash.
func (c *Client) Server() string {
	return c.server
}

// PhotoURL returns the web UI link of an asset.
func (c *Client) PhotoURL(assetID string) string {
	return c.server + "/photos/" + assetID
}

// SearchMetadata fetches one page of assets matching search.
func (c *Client) SearchMetadata(ctx context.Context, search MetadataSearch) ([]Asset, int, error) {
	var out searchResponse
	if err := c.doJSON(ctx, http.MethodPost, "/search/metadata", search, &out); err != nil {
		return nil, 0, err
	}

	next := 0
	if out.Assets.NextPage != nil && *out.Assets.NextPage != "" {
		n, err := strconv.Atoi(*out.Assets.NextPage)
		if err != nil {
			return nil, 0, &Error{Kind: KindUnexpected, Message: "invalid nextPage " + *out.Assets.NextPage, Err: err}
		}
		next = n
	}
	return out.Assets.Items, next, nil
}

// SearchAll follows nextPage from the configured start page until the server
// runs out of results or the page limit is reached. search.Page and
// search.Size are overwritten.
func (c *Client) SearchAll(ctx context.Context, search MetadataSearch) ([]Asset, error) {
	search.Size = c.pageSize
	search.WithExif = true

	var all []Asset
	page := c.startPage
	for fetched := 0; page > 0 && (c.maxPages == 0 || fetched < c.maxPages); fetched++ {
		search.Page = page
		items, next, err := c.SearchMetadata(ctx, search)
		if err != nil {
			return nil, fmt.Errorf("search page %d: %w", page, err)
		}
		all = append(all, items...)
		page = next
	}
	return all, nil
}

// UpdateAssetLocation sets the GPS position of one asset.
func (c *Client) UpdateAssetLocation(ctx context.Context, assetID string, latitude, longitude float64) error {
	body := updateAssetRequest{Latitude: latitude, Longitude: longitude}
	return c.doJSON(ctx, http.MethodPut, "/assets/"+url.PathEscape(assetID), body, nil)
}

// ServerVersion returns the version reported by the server.
func (c *Client) ServerVersion(ctx context.Context) (ServerVersion, error) {
	var v ServerVersion
	err := c.doJSON(ctx, http.MethodGet, "/server/version", nil, &v)
	return v, err
}

// CheckCompatibility fails when the server is older than MinServerVersion.
func (c *Client) CheckCompatibility(ctx context.Context) (*semver.Version, error) {
	sv, err := c.ServerVersion(ctx)
	if err != nil {
		return nil, err
	}

	version, err := semver.NewVersion(fmt.Sprintf("%d.%d.%d", sv.Major, sv.Minor, sv.Patch))
	if err != nil {
		return nil, fmt.Errorf("failed to parse server version: %w", err)
	}
	constraint, err := semver.NewConstraint(MinServerVersion)
	if err != nil {
		return nil, err
	}
	if !constraint.Check(version) {
		return version, fmt.Errorf("server version %s does not satisfy %s", version, MinServerVersion)
	}
	return version, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return &Error{Kind: KindUnexpected, Message: "failed to encode request", Err: err}
		}
		body = bytes.NewReader(payload)
	}

	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.server+"/api"+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.server+"/api"+path, nil)
	}
	if err != nil {
		return &Error{Kind: KindUnexpected, Message: "failed to build request", Err: err}
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.transport.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: KindUnexpected, StatusCode: resp.StatusCode, Message: "failed to decode response", Err: err}
	}
	return nil
}
