// Package chromestore provides a store adapter for the Chrome Web Store API.
package chromestore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/mcdonaldj/extpublish/internal/config"
	"github.com/mcdonaldj/extpublish/internal/ports"
)

const (
	// DefaultAPIBase is the root of both the upload and the item endpoints.
	DefaultAPIBase = "https://www.googleapis.com"

	// Scope grants read/write access to the developer's items.
	Scope = "https://www.googleapis.com/auth/chromewebstore"

	apiVersionHeader = "x-goog-api-version"
	apiVersion       = "2"

	// maxErrorBody caps how much of a failed response is kept.
	maxErrorBody = 64 * 1024
)

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("chrome web store: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("chrome web store: HTTP %d: %s", e.StatusCode, body)
}

// Client implements ports.WebStore against the Chrome Web Store API.
type Client struct {
	creds      config.Credentials
	httpClient *http.Client
	apiBase    string
	oauth      *oauth2.Config
}

// Option is a functional option for configuring Client.
type Option func(*Client)

// WithHTTPClient sets the client used for API and token requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithAPIBase points the client at another API root.
func WithAPIBase(base string) Option {
	return func(c *Client) {
		c.apiBase = strings.TrimRight(base, "/")
	}
}

// WithTokenURL overrides the OAuth 2.0 token endpoint.
func WithTokenURL(tokenURL string) Option {
	return func(c *Client) {
		c.oauth.Endpoint.TokenURL = tokenURL
	}
}

// New creates a new Client for one item.
func New(creds config.Credentials, opts ...Option) *Client {
	endpoint := endpoints.Google
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	c := &Client{
		creds:      creds,
		httpClient: http.DefaultClient,
		apiBase:    DefaultAPIBase,
		oauth: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Endpoint:     endpoint,
			Scopes:       []string{Scope},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchToken exchanges the refresh token for an access token.
func (c *Client) FetchToken(ctx context.Context) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := c.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: c.creds.RefreshToken}).Token()
	if err != nil {
		return "", fmt.Errorf("fetching access token: %w", err)
	}
	return tok.AccessToken, nil
}

// UploadExisting uploads zip as a new draft of the item.
func (c *Client) UploadExisting(ctx context.Context, token string, zip io.Reader) (*ports.UploadResponse, error) {
	endpoint := fmt.Sprintf("%s/upload/chromewebstore/v1.1/items/%s", c.apiBase, url.PathEscape(c.creds.ExtensionID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, zip)
	if err != nil {
		return nil, err
	}

	var out ports.UploadResponse
	if err := c.do(req, token, &out); err != nil {
		return nil, fmt.Errorf("uploading item %s: %w", c.creds.ExtensionID, err)
	}
	return &out, nil
}

// Publish publishes the item's current draft to target.
func (c *Client) Publish(ctx context.Context, token, target string) (*ports.PublishResponse, error) {
	endpoint := fmt.Sprintf("%s/chromewebstore/v1.1/items/%s/publish?%s",
		c.apiBase,
		url.PathEscape(c.creds.ExtensionID),
		url.Values{"publishTarget": {target}}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var out ports.PublishResponse
	if err := c.do(req, token, &out); err != nil {
		return nil, fmt.Errorf("publishing item %s: %w", c.creds.ExtensionID, err)
	}
	return &out, nil
}

func (c *Client) do(req *http.Request, token string, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(apiVersionHeader, apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Compile-time check that Client implements ports.WebStore.
var _ ports.WebStore = (*Client)(nil)
