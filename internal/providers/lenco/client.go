// Package lenco is a client for the Lenco mobile money collections API and
// its webhook signature scheme.
package lenco

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"wathaci/internal/domain"
)

// SignatureHeader carries the webhook HMAC.
const SignatureHeader = "X-Lenco-Signature"

const defaultTimeout = 20 * time.Second

// Collection statuses reported by the gateway.
const (
	StatusPending    = "pending"
	StatusSuccessful = "successful"
	StatusFailed     = "failed"
	StatusPayOffline = "pay-offline"
	StatusOTPReq     = "otp-required"
)

// Webhook event names.
const (
	EventCollectionSuccessful = "collection.successful"
	EventCollectionFailed     = "collection.failed"
)

type Options struct {
	APIKey        string
	BaseURL       string
	WebhookSecret string
	HTTPClient    *http.Client
}

type Client struct {
	apiKey     string
	baseURL    string
	webhookKey []byte
	client     *http.Client
}

// CollectionRequest starts a mobile money debit of Amount from Phone.
type CollectionRequest struct {
	Reference string
	Amount    decimal.Decimal
	Currency  string
	Phone     string
	Operator  domain.MobileOperator
}

// Collection is the gateway view of a collection.
type Collection struct {
	ID               string `json:"id"`
	Reference        string `json:"reference"`
	LencoReference   string `json:"lencoReference"`
	Amount           string `json:"amount"`
	Currency         string `json:"currency"`
	Status           string `json:"status"`
	ReasonForFailure string `json:"reasonForFailure"`
	Type             string `json:"type"`
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// APIError is a non-success response from the gateway. It matches
// domain.ErrProviderFailure.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lenco: status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool { return target == domain.ErrProviderFailure }

func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("lenco api key is required: %w", domain.ErrProviderDisabled)
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.lenco.co/access/v2"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		webhookKey: WebhookKey(opts.WebhookSecret),
		client:     client,
	}, nil
}

// InitiateCollection asks the payer's operator to approve a debit.
func (c *Client) InitiateCollection(ctx context.Context, req CollectionRequest) (*Collection, error) {
	body := map[string]any{
		"amount":    req.Amount.StringFixed(2),
		"reference": req.Reference,
		"phone":     req.Phone,
		"operator":  string(req.Operator),
		"country":   "zm",
		"bearer":    "merchant",
	}
	var out Collection
	if err := c.do(ctx, http.MethodPost, "/collections/mobile-money", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CollectionStatus fetches the current state of a collection by our reference.
func (c *Client) CollectionStatus(ctx context.Context, reference string) (*Collection, error) {
	var out Collection
	if err := c.do(ctx, http.MethodGet, "/collections/status/"+url.PathEscape(reference), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("lenco: encode request: %w", err)
		}
		reader = &buf
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("lenco: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("lenco: network error: %w: %v", domain.ErrProviderFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("lenco: read response: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 300 {
			return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		}
		return fmt.Errorf("lenco: decode response: %w", err)
	}
	if resp.StatusCode >= 300 || !env.Status {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("lenco: decode data: %w", err)
		}
	}
	return nil
}

// WebhookKey derives the HMAC key: the hex SHA-256 digest of the secret.
func WebhookKey(secret string) []byte {
	if secret == "" {
		return nil
	}
	sum := sha256.Sum256([]byte(secret))
	return []byte(hex.EncodeToString(sum[:]))
}

// Sign returns the hex HMAC-SHA512 of body under key.
func Sign(key, body []byte) string {
	mac := hmac.New(sha512.New, key)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

var errNoWebhookSecret = errors.New("lenco: webhook secret not configured")

// VerifySignature checks the webhook signature in constant time.
func (c *Client) VerifySignature(body []byte, signature string) error {
	return VerifySignature(c.webhookKey, body, signature)
}

func VerifySignature(key, body []byte, signature string) error {
	if len(key) == 0 {
		return errNoWebhookSecret
	}
	signature = strings.ToLower(strings.TrimSpace(signature))
	if signature == "" {
		return domain.ErrInvalidSignature
	}
	expected := Sign(key, body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return domain.ErrInvalidSignature
	}
	return nil
}

// WebhookEvent is the body of a gateway webhook.
type WebhookEvent struct {
	Event string     `json:"event"`
	Data  Collection `json:"data"`
}

// ParseWebhook decodes a webhook body.
func ParseWebhook(body []byte) (*WebhookEvent, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("%w: webhook body: %v", domain.ErrInvalidInput, err)
	}
	if ev.Event == "" || ev.Data.Reference == "" {
		return nil, fmt.Errorf("%w: webhook missing event or reference", domain.ErrInvalidInput)
	}
	return &ev, nil
}

// ID identifies the event for deduplication.
func (e *WebhookEvent) ID() string {
	ref := e.Data.ID
	if ref == "" {
		ref = e.Data.Reference
	}
	return e.Event + ":" + ref
}
