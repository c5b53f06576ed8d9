package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

type assertError string

func (e assertError) Error() string { return string(e) }

func TestDetectLocale(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(r *http.Request)
		fallback string
		want     string
	}{
		{
			name: "x-locale overrides",
			setup: func(r *http.Request) {
				r.Header.Set("X-Locale", "BEM")
				r.Header.Set("Accept-Language", "ny")
			},
			want: "bem",
		},
		{
			name: "accept-language used",
			setup: func(r *http.Request) {
				r.Header.Set("Accept-Language", "en-US,en;q=0.9")
			},
			want: "en",
		},
		{
			name: "accept-language nyanja preference",
			setup: func(r *http.Request) {
				r.Header.Set("Accept-Language", "ny-ZM,en;q=0.8")
			},
			want: "ny",
		},
		{
			name: "unsupported x-locale falls through to accept-language",
			setup: func(r *http.Request) {
				r.Header.Set("X-Locale", "not a locale!!")
				r.Header.Set("Accept-Language", "bem")
			},
			want: "bem",
		},
		{
			name: "unsupported language uses fallback",
			setup: func(r *http.Request) {
				r.Header.Set("Accept-Language", "ja")
			},
			fallback: "ny",
			want:     "ny",
		},
		{
			name:     "configured fallback",
			fallback: "bem",
			want:     "bem",
		},
		{
			name: "default to en",
			want: "en",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.setup != nil {
				tc.setup(req)
			}
			got := detectLocale(req, tc.fallback)
			if got != tc.want {
				t.Fatalf("detectLocale() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestResolveCountry(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(r *http.Request)
		resolver CountryLookup
		want     string
	}{
		{
			name: "header precedence",
			setup: func(r *http.Request) {
				r.Header.Set("X-Country-Code", "zm")
				r.Header.Set("CF-IPCountry", "za")
			},
			want: "ZM",
		},
		{
			name: "locale region fallback",
			setup: func(r *http.Request) {
				r.Header.Set("X-Locale", "bem-ZM")
			},
			want: "ZM",
		},
		{
			name: "accept-language region",
			setup: func(r *http.Request) {
				r.Header.Set("Accept-Language", "en-ZA,en;q=0.9")
			},
			want: "ZA",
		},
		{
			name: "resolver fallback",
			resolver: func(ip string) (string, error) {
				if ip != "203.0.113.4" {
					t.Fatalf("unexpected ip: %s", ip)
				}
				return "mw", nil
			},
			want: "MW",
		},
		{
			name: "resolver ignores forwarded header",
			setup: func(r *http.Request) {
				r.Header.Set("X-Forwarded-For", "198.51.100.99")
			},
			resolver: func(ip string) (string, error) {
				if ip != "203.0.113.4" {
					t.Fatalf("lookup used forwarded ip %s", ip)
				}
				return "zm", nil
			},
			want: "ZM",
		},
		{
			name: "resolver error returns empty",
			resolver: func(ip string) (string, error) {
				return "", assertError("boom")
			},
			want: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "203.0.113.4:80"
			if tc.setup != nil {
				tc.setup(req)
			}
			got := ResolveCountry(req, tc.resolver)
			if got != tc.want {
				t.Fatalf("ResolveCountry() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLocaleFromContext(t *testing.T) {
	ctx := context.Background()
	if got := LocaleFromContext(ctx); got != "en" {
		t.Fatalf("LocaleFromContext() default = %q, want %q", got, "en")
	}
	ctx = context.WithValue(ctx, LocaleKey, "ny")
	if got := LocaleFromContext(ctx); got != "ny" {
		t.Fatalf("LocaleFromContext() with value = %q, want %q", got, "ny")
	}
}
