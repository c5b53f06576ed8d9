// Package openai calls the chat completions API in JSON mode to extract
// structured funding opportunities from cleaned page text.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"wathaci/internal/domain"
)

type Options struct {
	APIKey       string
	Model        string
	BaseURL      string
	Organization string
	HTTPClient   *http.Client
	OnFailure    func(reason string, err error)
	OnWarning    func(reason, detail string)
}

type Client struct {
	apiKey       string
	model        string
	baseURL      string
	organization string
	client       *http.Client
	onFailure    func(reason string, err error)
}

// Error carries a short machine readable reason next to the cause. It
// matches domain.ErrProviderFailure.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "openai: " + e.Reason
	}
	return fmt.Sprintf("openai: %s: %v", e.Reason, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == domain.ErrProviderFailure }

const openAIDefaultTimeout = 45 * time.Second

const defaultModel = "gpt-4o-mini"

var modelCanonical = map[string]string{
	"gpt-4o-mini":  "gpt-4o-mini",
	"gpt-4o":       "gpt-4o",
	"gpt-4.1-mini": "gpt-4.1-mini",
}

var modelAliases = map[string]string{
	"gpt4o-mini":             "gpt-4o-mini",
	"gpt4omini":              "gpt-4o-mini",
	"gpt-4o-mini-2024-07-18": "gpt-4o-mini",
	"gpt4o":                  "gpt-4o",
	"gpt-4o-2024-08-06":      "gpt-4o",
	"gpt4.1-mini":            "gpt-4.1-mini",
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *chatFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("openai api key is required: %w", domain.ErrProviderDisabled)
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	modelInput := strings.TrimSpace(opts.Model)
	model, reason := normalizeModel(modelInput)
	if reason != "" && opts.OnWarning != nil {
		opts.OnWarning("model_"+reason, fmt.Sprintf("requested=%s resolved=%s", coalesce(modelInput, defaultModel), model))
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: openAIDefaultTimeout}
	}
	return &Client{
		apiKey:       strings.TrimSpace(opts.APIKey),
		model:        model,
		baseURL:      baseURL,
		organization: strings.TrimSpace(opts.Organization),
		client:       client,
		onFailure:    opts.OnFailure,
	}, nil
}

// Model returns the resolved model name.
func (c *Client) Model() string { return c.model }

// CompleteJSON sends one system and one user message in JSON mode and
// returns the raw content of the first choice.
func (c *Client) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	payload := chatRequest{
		Model:          c.model,
		Temperature:    0.1,
		ResponseFormat: &chatFormat{Type: "json_object"},
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", c.fail("encode_request", err)
	}
	endpoint := fmt.Sprintf("%s/chat/completions", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return "", c.fail("build_request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.organization != "" {
		httpReq.Header.Set("OpenAI-Organization", c.organization)
	}
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", c.fail("http_request", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", c.fail("read_response", err)
	}
	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil && resp.StatusCode < 300 {
		return "", c.fail("decode_response", err)
	}
	if resp.StatusCode >= 300 {
		detail := fmt.Errorf("openai status %d", resp.StatusCode)
		if out.Error != nil && out.Error.Message != "" {
			detail = fmt.Errorf("openai status %d: %s", resp.StatusCode, out.Error.Message)
		}
		return "", c.fail(fmt.Sprintf("http_%d", resp.StatusCode), detail)
	}
	if len(out.Choices) == 0 {
		return "", c.fail("empty_choices", errors.New("no choices"))
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", c.fail("empty_response", errors.New("empty response"))
	}
	return text, nil
}

// ExtractFunding asks the model for the opportunities present in text.
func (c *Client) ExtractFunding(ctx context.Context, req ExtractRequest) ([]ExtractedOpportunity, error) {
	text, err := c.CompleteJSON(ctx, extractionSystemPrompt, buildExtractionPrompt(req))
	if err != nil {
		return nil, err
	}
	parsed, err := parseModelPayload[extractionPayload](text)
	if err != nil {
		return nil, c.fail("parse_payload", err)
	}
	return parsed.Opportunities, nil
}

func (c *Client) fail(reason string, err error) error {
	if c.onFailure != nil {
		c.onFailure(reason, err)
	}
	return &Error{Reason: reason, Err: err}
}

func normalizeModel(name string) (string, string) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return defaultModel, ""
	}
	normalized := strings.ToLower(trimmed)
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	if canonical, ok := modelCanonical[normalized]; ok {
		return canonical, ""
	}
	if alias, ok := modelAliases[normalized]; ok {
		return alias, "alias"
	}
	return defaultModel, "defaulted"
}
