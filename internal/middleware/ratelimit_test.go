package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// =============================================================================
// RateLimiter Tests
// =============================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRateLimiter_AttemptCounting(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute, testLogger())

	for i := 0; i < 3; i++ {
		if !rl.Allow("192.168.1.1") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if rl.Allow("192.168.1.1") {
		t.Error("attempt past the limit should be denied")
	}
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute, testLogger())

	rl.Allow("192.168.1.1")
	rl.Allow("192.168.1.1")
	if rl.Allow("192.168.1.1") {
		t.Error("first IP should be limited")
	}

	if !rl.Allow("192.168.1.2") {
		t.Error("second IP should have its own budget")
	}
}

func TestRateLimiter_WindowExpiry(t *testing.T) {
	rl := NewRateLimiter(2, 50*time.Millisecond, testLogger())

	rl.Allow("192.168.1.1")
	rl.Allow("192.168.1.1")
	if rl.Allow("192.168.1.1") {
		t.Error("should be limited inside the window")
	}

	time.Sleep(60 * time.Millisecond)

	if !rl.Allow("192.168.1.1") {
		t.Error("should be allowed after the window rolls over")
	}
}

func TestRateLimiter_RecordFailureConsumesAttempts(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute, testLogger())

	// Failed logins recorded by the auth handler count against the limit
	// even though the middleware admitted the requests.
	for i := 0; i < 5; i++ {
		rl.RecordFailure("192.168.1.1")
	}

	if rl.Allow("192.168.1.1") {
		t.Error("should be blocked after five recorded failures")
	}
}

func TestRateLimiter_Reset(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute, testLogger())

	rl.Allow("192.168.1.1")
	rl.Allow("192.168.1.1")
	rl.Reset("192.168.1.1")

	if !rl.Allow("192.168.1.1") {
		t.Error("should be allowed after reset")
	}
}

func TestRateLimiter_TimeUntilReset(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, testLogger())

	if got := rl.TimeUntilReset("192.168.1.1"); got != 0 {
		t.Errorf("unknown key should have zero wait, got %v", got)
	}

	rl.Allow("192.168.1.1")
	if got := rl.TimeUntilReset("192.168.1.1"); got <= 0 || got > time.Minute {
		t.Errorf("expected wait within the window, got %v", got)
	}
}

// =============================================================================
// RateLimitMiddleware Tests
// =============================================================================

// hammer sends n requests through the middleware from the same address and
// returns the recorder of the last one.
func hammer(wrapped http.Handler, n int, decorate func(*http.Request)) *httptest.ResponseRecorder {
	var rec *httptest.ResponseRecorder
	for i := 0; i < n; i++ {
		req := httptest.NewRequest("POST", "/api/auth/login", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		if decorate != nil {
			decorate(req)
		}
		rec = httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)
	}
	return rec
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitMiddleware_AdmitsUnderLimit(t *testing.T) {
	mw := NewRateLimitMiddleware(NewRateLimiter(5, time.Minute, testLogger()), testLogger())
	wrapped := mw.Limit(okHandler())

	if rec := hammer(wrapped, 5, nil); rec.Code != http.StatusOK {
		t.Errorf("expected 200 within the limit, got %d", rec.Code)
	}
}

func TestRateLimitMiddleware_BlocksPastLimit(t *testing.T) {
	mw := NewRateLimitMiddleware(NewRateLimiter(2, time.Minute, testLogger()), testLogger())
	wrapped := mw.Limit(okHandler())

	rec := hammer(wrapped, 3, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 past the limit, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header on limited response")
	}
}

func TestRateLimitMiddleware_ErrorEnvelope(t *testing.T) {
	mw := NewRateLimitMiddleware(NewRateLimiter(1, time.Minute, testLogger()), testLogger())
	wrapped := mw.Limit(okHandler())

	rec := hammer(wrapped, 2, nil)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json content type, got %s", ct)
	}
	if code := decodeErrorCode(t, rec.Body.String()); code != "rate_limit" {
		t.Errorf("error code = %q, want %q", code, "rate_limit")
	}
}

func TestRateLimitMiddleware_KeysOnForwardedIP(t *testing.T) {
	tests := []struct {
		name   string
		header string
		value  string
	}{
		{"x-forwarded-for chain", "X-Forwarded-For", "203.0.113.195, 70.41.3.18"},
		{"x-real-ip", "X-Real-IP", "203.0.113.195"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := NewRateLimitMiddleware(NewRateLimiter(2, time.Minute, testLogger()), testLogger())
			wrapped := mw.Limit(okHandler())

			// All requests come via the same proxy address but carry the
			// real client IP in the header.
			rec := hammer(wrapped, 3, func(r *http.Request) {
				r.RemoteAddr = "10.0.0.1:12345"
				r.Header.Set(tt.header, tt.value)
			})

			if rec.Code != http.StatusTooManyRequests {
				t.Errorf("expected 429 keyed on forwarded IP, got %d", rec.Code)
			}
		})
	}
}

// =============================================================================
// AuthRateLimiter Tests
// =============================================================================

func TestAuthRateLimiter_LoginLimit(t *testing.T) {
	arl := NewAuthRateLimiter(testLogger())
	wrapped := arl.LimitLogin(okHandler())

	// 5 per 15 minutes
	if rec := hammer(wrapped, 5, nil); rec.Code != http.StatusOK {
		t.Errorf("fifth login attempt should pass, got %d", rec.Code)
	}
	if rec := hammer(wrapped, 1, nil); rec.Code != http.StatusTooManyRequests {
		t.Errorf("sixth login attempt should be limited, got %d", rec.Code)
	}
}

func TestAuthRateLimiter_RegisterLimit(t *testing.T) {
	arl := NewAuthRateLimiter(testLogger())
	wrapped := arl.LimitRegister(okHandler())

	// 3 per hour
	if rec := hammer(wrapped, 3, nil); rec.Code != http.StatusOK {
		t.Errorf("third registration should pass, got %d", rec.Code)
	}
	if rec := hammer(wrapped, 1, nil); rec.Code != http.StatusTooManyRequests {
		t.Errorf("fourth registration should be limited, got %d", rec.Code)
	}
}

func TestAuthRateLimiter_FailedLoginsConsumeBudget(t *testing.T) {
	arl := NewAuthRateLimiter(testLogger())

	for i := 0; i < 5; i++ {
		arl.RecordFailedLogin("192.168.1.1")
	}

	wrapped := arl.LimitLogin(okHandler())
	if rec := hammer(wrapped, 1, nil); rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 after recorded failures, got %d", rec.Code)
	}
}

func TestAuthRateLimiter_SuccessfulLoginResets(t *testing.T) {
	arl := NewAuthRateLimiter(testLogger())

	for i := 0; i < 4; i++ {
		arl.RecordFailedLogin("192.168.1.1")
	}
	arl.ResetLogin("192.168.1.1")

	wrapped := arl.LimitLogin(okHandler())
	if rec := hammer(wrapped, 5, nil); rec.Code != http.StatusOK {
		t.Errorf("expected full budget after reset, got %d", rec.Code)
	}
}
