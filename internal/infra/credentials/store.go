// Package credentials keeps provider secrets in the integration_tokens table
// so operators can rotate them without redeploying.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"wathaci/internal/infra"
	"wathaci/internal/sqlinline"
)

const (
	ProviderLenco        = "lenco"
	ProviderLencoWebhook = "lenco_webhook"
	ProviderResend       = "resend"
	ProviderTwilio       = "twilio"
	ProviderOpenAI       = "openai"
)

// Twilio properties stored next to the auth token.
const (
	PropAccountSID = "account_sid"
	PropFromNumber = "from_number"
)

// Providers lists every provider name the store accepts.
var Providers = []string{ProviderLenco, ProviderLencoWebhook, ProviderResend, ProviderTwilio, ProviderOpenAI}

var ErrUnknownProvider = errors.New("unknown provider")

type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// Entry is a stored provider without its secret.
type Entry struct {
	Provider  string    `json:"provider"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Token returns the stored secret for provider, or "" when none is stored.
func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	token, _, err := s.Lookup(ctx, provider)
	return token, err
}

// Lookup returns the secret and properties stored for provider.
func (s *Store) Lookup(ctx context.Context, provider string) (string, map[string]string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	var raw []byte
	if err := row.Scan(&token, &raw); err != nil {
		if infra.IsNoRows(err) {
			return "", nil, nil
		}
		return "", nil, err
	}
	props := map[string]string{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &props); err != nil {
			return "", nil, fmt.Errorf("decode %s properties: %w", provider, err)
		}
	}
	return strings.TrimSpace(token), props, nil
}

// Set stores token and props for provider, replacing earlier values.
func (s *Store) Set(ctx context.Context, provider, token string, props map[string]string) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if !known(provider) {
		return fmt.Errorf("%w %q", ErrUnknownProvider, provider)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%s token is required", provider)
	}
	if provider == ProviderTwilio && (props[PropAccountSID] == "" || props[PropFromNumber] == "") {
		return fmt.Errorf("twilio needs %s and %s", PropAccountSID, PropFromNumber)
	}
	if props == nil {
		props = map[string]string{}
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token, raw)
	return err
}

func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.sql.Query(ctx, sqlinline.QListIntegrationProviders)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Provider, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Resolve fills provider settings missing from cfg with stored values and
// returns the providers it loaded.
func (s *Store) Resolve(ctx context.Context, cfg *infra.Config) ([]string, error) {
	var loaded []string
	fill := func(provider string, target *string) error {
		if strings.TrimSpace(*target) != "" {
			return nil
		}
		token, err := s.Token(ctx, provider)
		if err != nil {
			return fmt.Errorf("load %s credentials: %w", provider, err)
		}
		if token != "" {
			*target = token
			loaded = append(loaded, provider)
		}
		return nil
	}
	for provider, target := range map[string]*string{
		ProviderLenco:        &cfg.LencoAPIKey,
		ProviderLencoWebhook: &cfg.LencoWebhookSecret,
		ProviderResend:       &cfg.ResendAPIKey,
		ProviderOpenAI:       &cfg.OpenAIAPIKey,
	} {
		if err := fill(provider, target); err != nil {
			return loaded, err
		}
	}

	if cfg.TwilioAuthToken == "" {
		token, props, err := s.Lookup(ctx, ProviderTwilio)
		if err != nil {
			return loaded, fmt.Errorf("load twilio credentials: %w", err)
		}
		if token != "" {
			cfg.TwilioAuthToken = token
			if cfg.TwilioAccountSID == "" {
				cfg.TwilioAccountSID = props[PropAccountSID]
			}
			if cfg.TwilioFromNumber == "" {
				cfg.TwilioFromNumber = props[PropFromNumber]
			}
			loaded = append(loaded, ProviderTwilio)
		}
	}
	return loaded, nil
}

func known(provider string) bool {
	for _, p := range Providers {
		if p == provider {
			return true
		}
	}
	return false
}
