// Package slack provides the thin Web API client the bridge needs:
// apps.connections.open for Socket Mode bootstrap and chat.postMessage
// for outbound delivery. Only those two endpoints are modeled.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultAPIBase is the production Slack Web API root.
const DefaultAPIBase = "https://slack.com/api"

// Client calls the Slack Web API.
type Client struct {
	AppToken string
	BotToken string
	APIBase  string
	client   *http.Client
}

// NewClient creates a Client. apiBase is overridable for tests;
// empty means DefaultAPIBase.
func NewClient(appToken, botToken, apiBase string) *Client {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	return &Client{
		AppToken: appToken,
		BotToken: botToken,
		APIBase:  apiBase,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// ConnectionsOpenResponse is the apps.connections.open result.
type ConnectionsOpenResponse struct {
	OK    bool   `json:"ok"`
	URL   string `json:"url,omitempty"`
	Error string `json:"error,omitempty"`
}

// ConnectionsOpen requests a one-time Socket Mode URL.
// The returned URL is single-use and must be dialed promptly.
func (c *Client) ConnectionsOpen(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBase+"/apps.connections.open", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.AppToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("apps.connections.open request: %w", err)
	}
	defer resp.Body.Close()

	var result ConnectionsOpenResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("apps.connections.open decode: %w", err)
	}
	if !result.OK {
		reason := result.Error
		if reason == "" {
			reason = "unknown error"
		}
		return "", fmt.Errorf("apps.connections.open failed: %s", reason)
	}
	if result.URL == "" {
		return "", fmt.Errorf("apps.connections.open returned ok without a url")
	}
	return result.URL, nil
}

// postMessageRequest is the chat.postMessage body.
type postMessageRequest struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

// apiResponse is the minimal envelope every Web API method returns.
type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// PostMessage publishes text to a channel using the bot token.
func (c *Client) PostMessage(ctx context.Context, channel, text string) error {
	body, err := json.Marshal(postMessageRequest{Channel: channel, Text: text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBase+"/chat.postMessage", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.BotToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("chat.postMessage request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("chat.postMessage status %d", resp.StatusCode)
	}

	var result apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("chat.postMessage decode: %w", err)
	}
	if !result.OK {
		reason := result.Error
		if reason == "" {
			reason = "unknown error"
		}
		return fmt.Errorf("chat.postMessage failed: %s", reason)
	}
	return nil
}
