package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// =============================================================================
// Metrics Auth Middleware Tests
// =============================================================================

// scrapeWith sends a /metrics request through the middleware using the given
// basic-auth credentials; empty strings send no Authorization header.
func scrapeWith(mw *MetricsAuthMiddleware, user, pass string) *httptest.ResponseRecorder {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("metrics data"))
	})

	req := httptest.NewRequest("GET", "/metrics", nil)
	if user != "" || pass != "" {
		req.SetBasicAuth(user, pass)
	}
	rec := httptest.NewRecorder()
	mw.Handler(handler).ServeHTTP(rec, req)
	return rec
}

func TestMetricsAuthMiddleware_CredentialMatrix(t *testing.T) {
	mw := NewMetricsAuthMiddleware("admin", "secret123")

	testCases := []struct {
		name     string
		user     string
		pass     string
		expected int
	}{
		{"valid credentials", "admin", "secret123", http.StatusOK},
		{"wrong password", "admin", "wrongpassword", http.StatusUnauthorized},
		{"wrong username", "wronguser", "secret123", http.StatusUnauthorized},
		{"both wrong", "wrong", "wrong", http.StatusUnauthorized},
		{"no credentials", "", "", http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := scrapeWith(mw, tc.user, tc.pass)
			if rec.Code != tc.expected {
				t.Errorf("expected %d, got %d", tc.expected, rec.Code)
			}
		})
	}
}

func TestMetricsAuthMiddleware_ChallengeHeader(t *testing.T) {
	mw := NewMetricsAuthMiddleware("admin", "secret123")

	rec := scrapeWith(mw, "", "")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	if got := rec.Header().Get("WWW-Authenticate"); got != `Basic realm="metrics"` {
		t.Errorf("unexpected WWW-Authenticate header: %q", got)
	}
}

func TestMetricsAuthMiddleware_RejectsMalformedAuth(t *testing.T) {
	mw := NewMetricsAuthMiddleware("admin", "secret123")

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/metrics", nil)
	req.Header.Set("Authorization", "Basic notvalidbase64!!!")
	rec := httptest.NewRecorder()

	mw.Handler(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
}

func TestMetricsAuthMiddleware_ValidRequestReachesScraper(t *testing.T) {
	mw := NewMetricsAuthMiddleware("admin", "secret123")

	rec := scrapeWith(mw, "admin", "secret123")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if rec.Body.String() != "metrics data" {
		t.Errorf("expected scraper body, got %q", rec.Body.String())
	}
}

func TestMetricsAuthMiddleware_DisabledWhenNoCredentialsConfigured(t *testing.T) {
	mw := NewMetricsAuthMiddleware("", "")

	rec := scrapeWith(mw, "", "")

	if rec.Code != http.StatusOK {
		t.Errorf("expected open access when auth is not configured, got %d", rec.Code)
	}
}
