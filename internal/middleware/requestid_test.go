package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
)

func TestRequestIDEchoesCallerID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = chimw.GetReqID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "support-123")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if seen != "support-123" {
		t.Fatalf("context id = %q", seen)
	}
	if got := rr.Header().Get(RequestIDHeader); got != "support-123" {
		t.Fatalf("response id = %q", got)
	}
}

func TestRequestIDGeneratesDistinctIDs(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	ids := map[string]bool{}
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		id := rr.Header().Get(RequestIDHeader)
		if id == "" {
			t.Fatalf("request %d: missing %s", i, RequestIDHeader)
		}
		ids[id] = true
	}
	if len(ids) != 3 {
		t.Fatalf("expected distinct ids, got %v", ids)
	}
}
