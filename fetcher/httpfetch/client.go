// Package httpfetch provides an HTTP implementation of the
// conflictkit.StampFetcher boundary, for backing stores that expose record
// version stamps over a REST endpoint.
package httpfetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	conflictkit "github.com/c0deZ3R0/go-conflict-kit"
	detectErrors "github.com/c0deZ3R0/go-conflict-kit/errors"
)

// Client fetches version stamps over HTTP. The expected endpoint shape is
// GET {baseURL}/lists/{listID}/items/{itemID}/stamp returning a JSON
// stamp payload.
type Client struct {
	baseURL      string
	http         *http.Client
	maxBodyBytes int64
	authToken    string
}

// ClientOption configures a Client using the functional options pattern.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(cl *http.Client) ClientOption {
	return func(c *Client) {
		c.http = cl
	}
}

// WithMaxBodyBytes limits how large a stamp response may be.
func WithMaxBodyBytes(n int64) ClientOption {
	return func(c *Client) {
		c.maxBodyBytes = n
	}
}

// WithAuthToken sends a bearer token with every request.
func WithAuthToken(token string) ClientOption {
	return func(c *Client) {
		c.authToken = token
	}
}

// NewClient creates a stamp-fetching client for the given base URL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:      baseURL,
		http:         &http.Client{Timeout: 30 * time.Second},
		maxBodyBytes: 1 << 20, // 1MB; stamps are tiny
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the base URL for the client.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// stampPayload is the wire format of a version stamp.
type stampPayload struct {
	Version           string    `json:"version"`
	Modified          time.Time `json:"modified"`
	ModifiedByName    string    `json:"modifiedByName"`
	ModifiedByContact string    `json:"modifiedByContact,omitempty"`
}

// FetchStamp implements conflictkit.StampFetcher. HTTP status codes map
// onto the detection error taxonomy: 404 is NOT_FOUND, 401/403 is
// PERMISSION_DENIED, everything else non-2xx is FETCH_FAILED.
func (c *Client) FetchStamp(ctx context.Context, listID, itemID string) (conflictkit.VersionStamp, error) {
	endpoint := fmt.Sprintf("%s/lists/%s/items/%s/stamp",
		c.baseURL, url.PathEscape(listID), url.PathEscape(itemID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return conflictkit.VersionStamp{}, detectErrors.NewFetchError(detectErrors.OpFetch, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return conflictkit.VersionStamp{}, detectErrors.NewFetchError(detectErrors.OpFetch, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return conflictkit.VersionStamp{}, detectErrors.NewNotFoundError(detectErrors.OpFetch,
			fmt.Errorf("record %s/%s does not exist", listID, itemID))
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return conflictkit.VersionStamp{}, detectErrors.NewPermissionError(detectErrors.OpFetch,
			fmt.Errorf("read access denied for record %s/%s", listID, itemID))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return conflictkit.VersionStamp{}, detectErrors.NewFetchError(detectErrors.OpFetch,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes))
	if err != nil {
		return conflictkit.VersionStamp{}, detectErrors.NewFetchError(detectErrors.OpFetch, err)
	}

	var payload stampPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return conflictkit.VersionStamp{}, detectErrors.NewFetchError(detectErrors.OpFetch,
			fmt.Errorf("malformed stamp payload: %w", err))
	}
	if payload.Version == "" {
		return conflictkit.VersionStamp{}, detectErrors.NewFetchError(detectErrors.OpFetch,
			fmt.Errorf("stamp payload missing version"))
	}

	return conflictkit.VersionStamp{
		Version:  payload.Version,
		Modified: payload.Modified,
		ModifiedBy: conflictkit.Actor{
			Name:      payload.ModifiedByName,
			ContactID: payload.ModifiedByContact,
		},
	}, nil
}
