package twilio

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendSMS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Accounts/AC123/Messages.json" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC123" || pass != "secret" {
			t.Fatalf("unexpected basic auth %q %q", user, pass)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		if r.PostForm.Get("To") != "+260971234567" || r.PostForm.Get("From") != "+15005550006" {
			t.Fatalf("unexpected form %v", r.PostForm)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM1","status":"queued"}`))
	}))
	defer srv.Close()

	c, err := NewClient(Options{AccountSID: "AC123", AuthToken: "secret", From: "+15005550006", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	sid, err := c.SendSMS(context.Background(), "260971234567", "Your payment was received")
	if err != nil || sid != "SM1" {
		t.Fatalf("SendSMS = %q, %v", sid, err)
	}
}

func TestSendSMSInvalidNumberNotRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":21211,"message":"The 'To' number is not a valid phone number."}`))
	}))
	defer srv.Close()

	c, _ := NewClient(Options{AccountSID: "AC123", AuthToken: "secret", From: "+15005550006", BaseURL: srv.URL})
	_, err := c.SendSMS(context.Background(), "+260000", "x")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != 21211 || apiErr.Retryable() {
		t.Fatalf("unexpected error %v", err)
	}
}
