package middleware

import (
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"
)

func TestRateLimitKeyIgnoresForwardingHeaders(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		remoteAddr string
		want       string
	}{
		{"remote host", "", "198.51.100.10:1234", "198.51.100.10"},
		{"forwarded header ignored", "203.0.113.1", "198.51.100.10:1234", "198.51.100.10"},
		{"ipv6 remote", "2001:db8::1", net.JoinHostPort("2001:db8::2", "443"), "2001:db8::2"},
		{"remote without port", "", "203.0.113.1", "203.0.113.1"},
		{"ipv4 mapped", "", "[::ffff:198.51.100.7]:80", "198.51.100.7"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.header != "" {
				req.Header.Set("X-Forwarded-For", tc.header)
			}
			if got := rateLimitKey(req); got != tc.want {
				t.Fatalf("rateLimitKey() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRateLimitRotatingForwardedForStillLimited(t *testing.T) {
	trusted := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}
	handler := TrustedRealIP(trusted)(RateLimit(2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	send := func(remote, forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/signin", nil)
		req.RemoteAddr = remote
		req.Header.Set("X-Forwarded-For", forwarded)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	// direct client spoofing a fresh address on every attempt
	for i, want := range []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests} {
		if got := send("198.51.100.9:4000", fmt.Sprintf("203.0.113.%d", i+1)); got != want {
			t.Fatalf("direct request %d: status %d, want %d", i, got, want)
		}
	}
	// behind a trusted proxy each forwarded client has its own bucket
	for i := 0; i < 2; i++ {
		if got := send("10.0.0.5:8080", "192.0.2.1"); got != http.StatusNoContent {
			t.Fatalf("proxied request %d: status %d", i, got)
		}
	}
	if got := send("10.0.0.5:8080", "192.0.2.2"); got != http.StatusNoContent {
		t.Fatalf("second proxied client limited: status %d", got)
	}
	if got := send("10.0.0.5:8080", "192.0.2.1"); got != http.StatusTooManyRequests {
		t.Fatalf("proxied client not limited: status %d", got)
	}
}

func TestTrustedRealIPRewritesOnlyTrustedPeers(t *testing.T) {
	var seen string
	handler := TrustedRealIP([]netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.RemoteAddr
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.2.3.4:5000"
	req.Header.Set("X-Forwarded-For", "192.0.2.50")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "192.0.2.50" {
		t.Fatalf("trusted peer: RemoteAddr = %q", seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.1:5000"
	req.Header.Set("X-Forwarded-For", "192.0.2.50")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "198.51.100.1:5000" {
		t.Fatalf("untrusted peer: RemoteAddr = %q", seen)
	}
}

func TestRateLimitFixedWindow(t *testing.T) {
	handler := RateLimit(2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 4)
	for _, addr := range []string{"198.51.100.1:1", "198.51.100.1:2", "198.51.100.1:3", "198.51.100.2:1"} {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/signin", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
		if rr.Code == http.StatusTooManyRequests && rr.Header().Get("Retry-After") == "" {
			t.Fatalf("expected Retry-After on limited response")
		}
	}
	want := []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests, http.StatusNoContent}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("request %d: status %d, want %d", i, codes[i], want[i])
		}
	}
}

func TestRateLimitDisabled(t *testing.T) {
	handler := RateLimit(0, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	for i := 0; i < 5; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("disabled limiter rejected request %d", i)
		}
	}
}
