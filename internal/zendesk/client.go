// Package zendesk is the REST adapter for the Zendesk API.
//
// Every operation is a stateless request/response translation: tool
// parameters go in, a flat JSON-serializable record comes out. One
// signed HTTP client covers the ticket, user, macro, and help-center
// endpoints — Zendesk's list/search/macro routes have no SDK-friendly
// shape anyway, so everything goes through the same raw path.
package zendesk

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client talks to a single Zendesk workspace.
type Client struct {
	baseURL    string
	authHeader string
	httpClient *http.Client
}

// New builds a client for https://<subdomain>.zendesk.com/api/v2 using
// API-token basic auth (email/token:token).
func New(subdomain, email, token string) *Client {
	credentials := fmt.Sprintf("%s/token:%s", email, token)
	encoded := base64.StdEncoding.EncodeToString([]byte(credentials))

	return &Client{
		baseURL:    fmt.Sprintf("https://%s.zendesk.com/api/v2", subdomain),
		authHeader: "Basic " + encoded,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetBaseURL points the client at a different endpoint. Tests use this
// to target an httptest server.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// APIError is a non-2xx response from Zendesk.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d %s", e.StatusCode, e.Status)
	}
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// do issues a signed request and decodes the JSON response into out.
// body (if non-nil) is JSON-encoded. out may be nil for calls whose
// response the caller discards.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(bytes.TrimSpace(data)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}
