package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestRequestIDGenerated verifies a UUID is assigned when none is supplied.
func TestRequestIDGenerated(t *testing.T) {
	t.Parallel()

	var got string
	handler := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = GetRequestID(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/quote", nil))

	if got == "" {
		t.Errorf("expected a generated request ID")
	}
	if w.Header().Get("X-Request-ID") != got {
		t.Errorf("expected response header to echo request ID")
	}
}

// TestRequestIDPassthrough verifies a valid caller-supplied ID is reused and
// an invalid one is replaced.
func TestRequestIDPassthrough(t *testing.T) {
	t.Parallel()

	var got string
	handler := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/quote", nil)
	req.Header.Set("X-Request-ID", "caller-id.1")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if got != "caller-id.1" {
		t.Errorf("expected caller ID reused, got '%s'", got)
	}

	req = httptest.NewRequest(http.MethodPost, "/quote", nil)
	req.Header.Set("X-Request-ID", "bad id with spaces")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if got == "bad id with spaces" {
		t.Errorf("expected invalid caller ID replaced")
	}
}
