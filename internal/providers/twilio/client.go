// Package twilio sends SMS through the Twilio Messages REST API.
package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"wathaci/internal/domain"
)

type Options struct {
	AccountSID string
	AuthToken  string
	From       string
	BaseURL    string
	HTTPClient *http.Client
}

type Client struct {
	sid     string
	token   string
	from    string
	baseURL string
	client  *http.Client
}

// APIError is a non-2xx response from Twilio.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("twilio: status %d code %d: %s", e.StatusCode, e.Code, e.Message)
}

func (e *APIError) Is(target error) bool { return target == domain.ErrProviderFailure }

func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type messageResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.AccountSID) == "" || strings.TrimSpace(opts.AuthToken) == "" {
		return nil, fmt.Errorf("twilio credentials are required: %w", domain.ErrProviderDisabled)
	}
	if strings.TrimSpace(opts.From) == "" {
		return nil, fmt.Errorf("twilio sender number is required: %w", domain.ErrProviderDisabled)
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.twilio.com/2010-04-01"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		sid:     strings.TrimSpace(opts.AccountSID),
		token:   strings.TrimSpace(opts.AuthToken),
		from:    strings.TrimSpace(opts.From),
		baseURL: baseURL,
		client:  client,
	}, nil
}

// SendSMS sends body to an E.164 number and returns the message SID. A
// twelve digit Zambian number without plus sign is accepted as well.
func (c *Client) SendSMS(ctx context.Context, to, body string) (string, error) {
	if !strings.HasPrefix(to, "+") {
		to = "+" + to
	}
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.baseURL, url.PathEscape(c.sid))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("twilio: build request: %w", err)
	}
	req.SetBasicAuth(c.sid, c.token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &APIError{StatusCode: http.StatusBadGateway, Message: "network error: " + err.Error()}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var out messageResponse
	_ = json.Unmarshal(raw, &out)
	if resp.StatusCode >= 300 {
		msg := out.Message
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return "", &APIError{StatusCode: resp.StatusCode, Code: out.Code, Message: msg}
	}
	return out.SID, nil
}
