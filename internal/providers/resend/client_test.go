package resend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/emails" || r.Header.Get("Authorization") != "Bearer re_test" {
			t.Fatalf("unexpected request %s %q", r.URL.Path, r.Header.Get("Authorization"))
		}
		var body sendRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.From != "Wathaci <no-reply@wathaci.com>" || len(body.To) != 1 || body.To[0] != "bwalya@example.zm" {
			t.Fatalf("unexpected body %+v", body)
		}
		_, _ = w.Write([]byte(`{"id":"em_123"}`))
	}))
	defer srv.Close()

	c, err := NewClient(Options{APIKey: "re_test", BaseURL: srv.URL, From: "Wathaci <no-reply@wathaci.com>"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	id, err := c.SendEmail(context.Background(), "bwalya@example.zm", "Welcome", "hello", "<p>hello</p>")
	if err != nil || id != "em_123" {
		t.Fatalf("SendEmail = %q, %v", id, err)
	}
}

func TestSendEmailRetryable(t *testing.T) {
	cases := []struct {
		status    int
		retryable bool
	}{
		{status: http.StatusUnprocessableEntity, retryable: false},
		{status: http.StatusTooManyRequests, retryable: true},
		{status: http.StatusInternalServerError, retryable: true},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(`{"name":"error","message":"nope"}`))
		}))
		c, _ := NewClient(Options{APIKey: "re_test", BaseURL: srv.URL, From: "a@b.c"})
		_, err := c.SendEmail(context.Background(), "x@y.z", "s", "t", "")
		srv.Close()

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("status %d: expected APIError, got %v", tc.status, err)
		}
		if apiErr.Retryable() != tc.retryable || apiErr.Message != "nope" {
			t.Fatalf("status %d: retryable=%v message=%q", tc.status, apiErr.Retryable(), apiErr.Message)
		}
	}
}
