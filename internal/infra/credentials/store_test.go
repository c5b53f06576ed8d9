package credentials

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"wathaci/internal/infra"
	"wathaci/internal/infra/sqltest"
)

func TestTokenTrimsStoredValue(t *testing.T) {
	exec := sqltest.NewExecutor().OnQueryRow("8a8e0d52", sqltest.NewRow(" sk-test ", []byte(`{}`)))
	store := NewStore(exec)
	key, err := store.Token(context.Background(), ProviderOpenAI)
	if err != nil {
		t.Fatalf("Token error: %v", err)
	}
	if key != "sk-test" {
		t.Fatalf("expected sk-test, got %q", key)
	}
	if got := exec.CallsTo("8a8e0d52")[0].Args[0]; got != ProviderOpenAI {
		t.Fatalf("expected provider argument openai, got %v", got)
	}
}

func TestTokenNoRows(t *testing.T) {
	store := NewStore(sqltest.NewExecutor())
	key, err := store.Token(context.Background(), ProviderLenco)
	if err != nil {
		t.Fatalf("Token error: %v", err)
	}
	if key != "" {
		t.Fatalf("expected empty key, got %q", key)
	}
}

func TestTokenPropagatesErrors(t *testing.T) {
	boom := errors.New("connection reset")
	store := NewStore(sqltest.NewExecutor().OnQueryRow("8a8e0d52", sqltest.ErrRow(boom)))
	if _, err := store.Token(context.Background(), ProviderResend); !errors.Is(err, boom) {
		t.Fatalf("expected connection error, got %v", err)
	}
}

func TestSet(t *testing.T) {
	exec := sqltest.NewExecutor()
	store := NewStore(exec)
	if err := store.Set(context.Background(), " Lenco ", "secret", nil); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	calls := exec.CallsTo("6d4f5660")
	if len(calls) != 1 || len(calls[0].Args) != 3 {
		t.Fatalf("expected one upsert with 3 args, got %+v", calls)
	}
	if calls[0].Args[0] != ProviderLenco || calls[0].Args[1] != "secret" {
		t.Fatalf("unexpected upsert args %v", calls[0].Args)
	}
	if string(calls[0].Args[2].([]byte)) != "{}" {
		t.Fatalf("expected empty properties, got %s", calls[0].Args[2])
	}
}

func TestSetRejects(t *testing.T) {
	store := NewStore(sqltest.NewExecutor())
	cases := map[string]struct {
		provider, token string
		props           map[string]string
	}{
		"unknown provider":   {"gemini", "x", nil},
		"empty token":        {ProviderResend, " ", nil},
		"twilio without sid": {ProviderTwilio, "tok", map[string]string{PropFromNumber: "+260970000000"}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if err := store.Set(context.Background(), tc.provider, tc.token, tc.props); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestResolveFillsMissingSettings(t *testing.T) {
	exec := sqltest.NewExecutor()
	// Map iteration order is random, so every lookup except twilio returns
	// the same token.
	for i := 0; i < 3; i++ {
		exec.OnQueryRow("8a8e0d52", sqltest.NewRow("stored", []byte(`{}`)))
	}
	exec.OnQueryRow("8a8e0d52", sqltest.NewRow("twilio-token", []byte(`{"account_sid":"AC1","from_number":"+260970000001"}`)))

	cfg := &infra.Config{OpenAIAPIKey: "from-env"}
	loaded, err := NewStore(exec).Resolve(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	sort.Strings(loaded)
	want := []string{ProviderLenco, ProviderLencoWebhook, ProviderResend, ProviderTwilio}
	if len(loaded) != len(want) {
		t.Fatalf("loaded = %v, want %v", loaded, want)
	}
	for i := range want {
		if loaded[i] != want[i] {
			t.Fatalf("loaded = %v, want %v", loaded, want)
		}
	}
	if cfg.OpenAIAPIKey != "from-env" {
		t.Fatalf("environment value must win, got %q", cfg.OpenAIAPIKey)
	}
	if cfg.LencoAPIKey != "stored" || cfg.ResendAPIKey != "stored" {
		t.Fatalf("expected stored tokens, got %+v", cfg)
	}
	if cfg.TwilioAuthToken != "twilio-token" || cfg.TwilioAccountSID != "AC1" || cfg.TwilioFromNumber != "+260970000001" {
		t.Fatalf("twilio settings not resolved: %+v", cfg)
	}
}

func TestList(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	exec := sqltest.NewExecutor().OnQuery("2f0a8f43", sqltest.NewRows(
		[]any{"lenco", at},
		[]any{"openai", at},
	))
	entries, err := NewStore(exec).List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(entries) != 2 || entries[1].Provider != "openai" || !entries[0].UpdatedAt.Equal(at) {
		t.Fatalf("unexpected entries %+v", entries)
	}
}
