// Package moltbook centralizes all HTTP calls to the Moltbook API: identity
// verification for credential-based voting, and cross-posting new markets to
// the clawstreetbets submolt.
package moltbook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"clawstreetbets/market"
)

const (
	// BaseURL is the Moltbook API v1 root.
	BaseURL = "https://www.moltbook.com/api/v1"

	requestTimeout = 15 * time.Second
)

// Error is a failed Moltbook call: a rejected request, a malformed
// response, or an unreachable host.
type Error struct {
	Message    string
	StatusCode int
	Hint       string
}

func (e *Error) Error() string { return e.Message }

// Client is an HTTP client for the Moltbook API. API keys are passed per
// call because credential voting verifies a different key on every request.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client against the production Moltbook API.
func NewClient() *Client {
	return &Client{
		baseURL: BaseURL,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// NewClientWithBaseURL is used by tests to point at a local server.
func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

func (c *Client) request(ctx context.Context, method, path, apiKey string, body any) (map[string]any, error) {
	var reqBody *bytes.Buffer
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(buf)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("Moltbook unreachable: %v", err)}
	}
	defer resp.Body.Close()

	var payload map[string]any
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, &Error{
			Message:    fmt.Sprintf("Moltbook returned invalid JSON (HTTP %d)", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}

	if resp.StatusCode >= 400 {
		msg, _ := payload["error"].(string)
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		hint, _ := payload["hint"].(string)
		return nil, &Error{Message: msg, StatusCode: resp.StatusCode, Hint: hint}
	}

	// Responses are wrapped in a "data" envelope; some endpoints return flat.
	if data, ok := payload["data"].(map[string]any); ok {
		return data, nil
	}
	return payload, nil
}

// Me fetches the identity behind an API key.
func (c *Client) Me(ctx context.Context, apiKey string) (map[string]any, error) {
	return c.request(ctx, http.MethodGet, "/agents/me", apiKey, nil)
}

// Verify implements market.IdentityVerifier: a valid key yields the
// external id, display name, and karma of the account behind it.
func (c *Client) Verify(ctx context.Context, apiKey string) (market.Identity, error) {
	me, err := c.Me(ctx, apiKey)
	if err != nil {
		return market.Identity{}, err
	}

	identity := market.Identity{ID: stringField(me, "id")}
	identity.Name = stringField(me, "name")
	if identity.Name == "" {
		identity.Name = stringField(me, "username")
	}
	if karma, ok := me["karma"].(json.Number); ok {
		identity.Karma, _ = karma.Int64()
	}
	return identity, nil
}

// CreatePost publishes a post to a submolt.
func (c *Client) CreatePost(ctx context.Context, apiKey, submolt, title, content string) error {
	_, err := c.request(ctx, http.MethodPost, "/posts", apiKey, map[string]string{
		"submolt": submolt,
		"title":   title,
		"content": content,
	})
	return err
}

// SubscribeSubmolt subscribes the key's account to a submolt.
func (c *Client) SubscribeSubmolt(ctx context.Context, apiKey, name string) error {
	_, err := c.request(ctx, http.MethodPost, "/submolts/"+name+"/subscribe", apiKey, nil)
	return err
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	}
	return ""
}
