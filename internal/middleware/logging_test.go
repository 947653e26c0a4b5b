package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// =============================================================================
// Request Logging Middleware Tests
// =============================================================================

// logRequest runs one request through the logging middleware and returns the
// captured log output.
func logRequest(t *testing.T, status int, target string, decorate func(*http.Request)) string {
	t.Helper()

	var buf bytes.Buffer
	mw := NewRequestLoggingMiddleware(slog.New(slog.NewTextHandler(&buf, nil)))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})

	req := httptest.NewRequest("GET", target, nil)
	req.RemoteAddr = "192.168.1.1:12345"
	if decorate != nil {
		decorate(req)
	}

	mw.Handler(handler).ServeHTTP(httptest.NewRecorder(), req)
	return buf.String()
}

func TestRequestLoggingMiddleware_LogsBasicInfo(t *testing.T) {
	out := logRequest(t, http.StatusOK, "/board", nil)

	for _, want := range []string{"GET", "/board", "200", "duration"} {
		if !strings.Contains(out, want) {
			t.Errorf("log should contain %q, got: %s", want, out)
		}
	}
}

func TestRequestLoggingMiddleware_LogsForwardedClientIP(t *testing.T) {
	out := logRequest(t, http.StatusOK, "/requests", func(r *http.Request) {
		r.Header.Set("X-Forwarded-For", "203.0.113.195")
	})

	if !strings.Contains(out, "203.0.113.195") {
		t.Errorf("log should contain client IP from X-Forwarded-For, got: %s", out)
	}
}

func TestRequestLoggingMiddleware_ServerErrorsLogAtWarn(t *testing.T) {
	out := logRequest(t, http.StatusInternalServerError, "/requests", nil)

	if !strings.Contains(out, "500") {
		t.Errorf("log should contain 500 status, got: %s", out)
	}
	if !strings.Contains(out, "level=WARN") && !strings.Contains(out, "level=ERROR") {
		t.Errorf("5xx should log above info level, got: %s", out)
	}
}

func TestRequestLoggingMiddleware_LogsUserAgent(t *testing.T) {
	out := logRequest(t, http.StatusOK, "/", func(r *http.Request) {
		r.Header.Set("User-Agent", "Mozilla/5.0 TestBrowser")
	})

	if !strings.Contains(out, "TestBrowser") {
		t.Errorf("log should contain user agent, got: %s", out)
	}
}

func TestRequestLoggingMiddleware_RedactsSensitiveQueryParams(t *testing.T) {
	tests := []struct {
		name   string
		target string
		secret string
	}{
		{"token param", "/auth/verify?token=secrettoken123", "secrettoken123"},
		{"password param", "/auth/login?password=hunter2pass", "hunter2pass"},
		{"api key param", "/requests?api_key=sk_live_abc", "sk_live_abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := logRequest(t, http.StatusOK, tt.target, nil)
			if strings.Contains(out, tt.secret) {
				t.Errorf("log should not contain secret value, got: %s", out)
			}
			if !strings.Contains(out, "[REDACTED]") {
				t.Errorf("log should mark the redaction, got: %s", out)
			}
		})
	}
}

func TestRequestLoggingMiddleware_PassesRequestThrough(t *testing.T) {
	var buf bytes.Buffer
	mw := NewRequestLoggingMiddleware(slog.New(slog.NewTextHandler(&buf, nil)))

	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.Header().Set("X-Custom", "value")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("response body"))
	})

	req := httptest.NewRequest("POST", "/requests", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	rec := httptest.NewRecorder()

	mw.Handler(handler).ServeHTTP(rec, req)

	if !handlerCalled {
		t.Error("handler should have been called")
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", rec.Code)
	}
	if rec.Header().Get("X-Custom") != "value" {
		t.Error("custom header should be preserved")
	}
	if rec.Body.String() != "response body" {
		t.Errorf("response body should be preserved, got: %s", rec.Body.String())
	}
}

func TestRequestLoggingMiddleware_SkipsNoisyEndpoints(t *testing.T) {
	for _, target := range []string{"/health", "/metrics", "/files/photos/abc.jpg"} {
		t.Run(target, func(t *testing.T) {
			out := logRequest(t, http.StatusOK, target, nil)
			if out != "" {
				t.Errorf("%s should not be logged, got: %s", target, out)
			}
		})
	}
}
