package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// =============================================================================
// Security Headers Middleware Tests
// =============================================================================

func secureResponse(t *testing.T, isSecure bool) *httptest.ResponseRecorder {
	t.Helper()

	mw := NewSecurityHeadersMiddleware(isSecure)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	mw.Handler(handler).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	return rec
}

func TestSecurityHeadersMiddleware_SetsBaselineHeaders(t *testing.T) {
	rec := secureResponse(t, true)

	tests := []struct {
		header   string
		expected string
	}{
		{"X-Frame-Options", "DENY"},
		{"X-Content-Type-Options", "nosniff"},
		{"Referrer-Policy", "strict-origin-when-cross-origin"},
		{"X-XSS-Protection", "1; mode=block"},
	}

	for _, tc := range tests {
		if got := rec.Header().Get(tc.header); got != tc.expected {
			t.Errorf("%s: expected %q, got %q", tc.header, tc.expected, got)
		}
	}
}

func TestSecurityHeadersMiddleware_HSTSOnlyWhenSecure(t *testing.T) {
	hsts := secureResponse(t, true).Header().Get("Strict-Transport-Security")
	if !strings.Contains(hsts, "max-age=") || !strings.Contains(hsts, "includeSubDomains") {
		t.Errorf("expected full HSTS header in production, got %q", hsts)
	}

	if hsts := secureResponse(t, false).Header().Get("Strict-Transport-Security"); hsts != "" {
		t.Errorf("expected no HSTS header in development, got %q", hsts)
	}
}

func TestSecurityHeadersMiddleware_CSPDeniesEverything(t *testing.T) {
	csp := secureResponse(t, true).Header().Get("Content-Security-Policy")

	// A JSON API loads no subresources, so every directive denies.
	for _, directive := range []string{
		"default-src 'none'",
		"frame-ancestors 'none'",
		"base-uri 'none'",
		"form-action 'none'",
	} {
		if !strings.Contains(csp, directive) {
			t.Errorf("CSP missing directive %q: %s", directive, csp)
		}
	}
}

func TestSecurityHeadersMiddleware_PermissionsPolicy(t *testing.T) {
	pp := secureResponse(t, true).Header().Get("Permissions-Policy")

	for _, feature := range []string{"geolocation=()", "camera=()", "microphone=()"} {
		if !strings.Contains(pp, feature) {
			t.Errorf("expected %s in Permissions-Policy: %s", feature, pp)
		}
	}
}

func TestSecurityHeadersMiddleware_PassesRequestThrough(t *testing.T) {
	mw := NewSecurityHeadersMiddleware(true)

	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	req := httptest.NewRequest("POST", "/api/requests", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	mw.Handler(handler).ServeHTTP(rec, req)

	if !handlerCalled {
		t.Error("expected handler to be called")
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", rec.Code)
	}
	if rec.Body.String() != `{"ok":true}` {
		t.Errorf("body should be preserved, got %q", rec.Body.String())
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("headers should be set on POST responses too")
	}
}
