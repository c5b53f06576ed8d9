// Package resend sends transactional email through the Resend HTTP API.
package resend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"wathaci/internal/domain"
)

type Options struct {
	APIKey     string
	BaseURL    string
	From       string
	HTTPClient *http.Client
}

type Client struct {
	apiKey  string
	baseURL string
	from    string
	client  *http.Client
}

// APIError is a non-2xx response. Rate limits and server errors are retryable.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("resend: status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool { return target == domain.ErrProviderFailure }

func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text,omitempty"`
	HTML    string   `json:"html,omitempty"`
}

type sendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Name    string `json:"name"`
}

func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("resend api key is required: %w", domain.ErrProviderDisabled)
	}
	if strings.TrimSpace(opts.From) == "" {
		return nil, fmt.Errorf("resend sender address is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.resend.com"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{apiKey: strings.TrimSpace(opts.APIKey), baseURL: baseURL, from: opts.From, client: client}, nil
}

// SendEmail delivers one message and returns the Resend email id.
func (c *Client) SendEmail(ctx context.Context, to, subject, text, html string) (string, error) {
	payload := sendRequest{From: c.from, To: []string{to}, Subject: subject, Text: text, HTML: html}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("resend: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", &buf)
	if err != nil {
		return "", fmt.Errorf("resend: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &APIError{StatusCode: http.StatusBadGateway, Message: "network error: " + err.Error()}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var out sendResponse
	_ = json.Unmarshal(raw, &out)
	if resp.StatusCode >= 300 {
		msg := out.Message
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return "", &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return out.ID, nil
}
