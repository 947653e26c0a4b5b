package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/auth"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/domain"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/session"
	"github.com/google/uuid"
)

// =============================================================================
// Mock UserService Implementation
// =============================================================================

// mockUserService implements the service.UserService interface for testing.
type mockUserService struct {
	GetBySessionTokenFunc func(ctx context.Context, token string) (*domain.User, error)
	LogoutFunc            func(ctx context.Context, token string) error
}

func (m *mockUserService) Register(ctx context.Context, params domain.RegisterParams) (*domain.User, error) {
	return nil, errors.New("not implemented")
}

func (m *mockUserService) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	return nil, errors.New("not implemented")
}

func (m *mockUserService) Logout(ctx context.Context, token string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, token)
	}
	return nil
}

func (m *mockUserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return nil, errors.New("not implemented")
}

func (m *mockUserService) GetBySessionToken(ctx context.Context, token string) (*domain.User, error) {
	if m.GetBySessionTokenFunc != nil {
		return m.GetBySessionTokenFunc(ctx, token)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUserService) DeleteExpiredSessions(ctx context.Context) error {
	return errors.New("not implemented")
}

// =============================================================================
// Test Helpers
// =============================================================================

// newTestLogger creates a logger that discards output for testing.
func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError, // Only show errors in tests
	}))
}

// newTestAuthMiddleware creates an AuthMiddleware with mock service for testing.
func newTestAuthMiddleware(mock *mockUserService) *AuthMiddleware {
	return NewAuthMiddleware(mock, newTestLogger(), false)
}

func userWithRole(role domain.Role) *domain.User {
	return &domain.User{
		ID:    uuid.New(),
		Email: "test@example.com",
		Name:  "Test User",
		Role:  role,
	}
}

func decodeErrorCode(t *testing.T, body string) string {
	t.Helper()

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		t.Fatalf("response body is not the JSON error envelope: %v\nbody: %s", err, body)
	}
	return envelope.Error.Code
}

// =============================================================================
// WithUser Middleware Tests
// =============================================================================

func TestWithUser_NoToken_ContinuesWithoutUser(t *testing.T) {
	mock := &mockUserService{}
	mw := newTestAuthMiddleware(mock)

	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true

		if user := auth.GetUser(r.Context()); user != nil {
			t.Errorf("expected nil user, got %+v", user)
		}

		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	rec := httptest.NewRecorder()

	mw.WithUser(handler).ServeHTTP(rec, req)

	if !handlerCalled {
		t.Error("handler was not called")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status code = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestWithUser_ValidCookie_SetsUserInContext(t *testing.T) {
	expectedUser := userWithRole(domain.RoleCustomer)

	mock := &mockUserService{
		GetBySessionTokenFunc: func(ctx context.Context, token string) (*domain.User, error) {
			if token != "valid-token-123" {
				t.Errorf("GetBySessionToken called with token = %q, want %q", token, "valid-token-123")
			}
			return expectedUser, nil
		},
	}

	mw := newTestAuthMiddleware(mock)

	var capturedUser *domain.User
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedUser = auth.GetUser(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.AddCookie(&http.Cookie{
		Name:  session.CookieName,
		Value: "valid-token-123",
	})
	rec := httptest.NewRecorder()

	mw.WithUser(handler).ServeHTTP(rec, req)

	if capturedUser == nil {
		t.Fatal("user not set in context")
	}
	if capturedUser.ID != expectedUser.ID {
		t.Errorf("user.ID = %v, want %v", capturedUser.ID, expectedUser.ID)
	}
}

func TestWithUser_BearerToken_SetsUserInContext(t *testing.T) {
	expectedUser := userWithRole(domain.RoleManager)

	mock := &mockUserService{
		GetBySessionTokenFunc: func(ctx context.Context, token string) (*domain.User, error) {
			if token != "bearer-token-456" {
				t.Errorf("GetBySessionToken called with token = %q, want %q", token, "bearer-token-456")
			}
			return expectedUser, nil
		},
	}

	mw := newTestAuthMiddleware(mock)

	var capturedUser *domain.User
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedUser = auth.GetUser(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer bearer-token-456")
	rec := httptest.NewRecorder()

	mw.WithUser(handler).ServeHTTP(rec, req)

	if capturedUser == nil {
		t.Fatal("user not set in context")
	}
	if capturedUser.ID != expectedUser.ID {
		t.Errorf("user.ID = %v, want %v", capturedUser.ID, expectedUser.ID)
	}
}

func TestWithUser_InvalidCookie_ClearsAndContinues(t *testing.T) {
	mock := &mockUserService{
		GetBySessionTokenFunc: func(ctx context.Context, token string) (*domain.User, error) {
			return nil, domain.Unauthorized("test", "invalid session")
		},
	}

	mw := newTestAuthMiddleware(mock)

	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true

		if user := auth.GetUser(r.Context()); user != nil {
			t.Errorf("expected nil user, got %+v", user)
		}

		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.AddCookie(&http.Cookie{
		Name:  session.CookieName,
		Value: "invalid-token",
	})
	rec := httptest.NewRecorder()

	mw.WithUser(handler).ServeHTTP(rec, req)

	if !handlerCalled {
		t.Error("handler was not called")
	}

	// The stale cookie should be cleared
	cleared := false
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == session.CookieName && cookie.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected session cookie to be cleared")
	}
}

func TestWithUser_InvalidBearerToken_DoesNotTouchCookies(t *testing.T) {
	mock := &mockUserService{
		GetBySessionTokenFunc: func(ctx context.Context, token string) (*domain.User, error) {
			return nil, domain.Unauthorized("test", "invalid session")
		},
	}

	mw := newTestAuthMiddleware(mock)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	rec := httptest.NewRecorder()

	mw.WithUser(handler).ServeHTTP(rec, req)

	if cookies := rec.Result().Cookies(); len(cookies) != 0 {
		t.Errorf("expected no Set-Cookie headers, got %d", len(cookies))
	}
}

// =============================================================================
// RequireUser Middleware Tests
// =============================================================================

func TestRequireUser_NoUser_Returns401(t *testing.T) {
	mw := newTestAuthMiddleware(&mockUserService{})

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	})

	req := httptest.NewRequest("GET", "/api/me", nil)
	rec := httptest.NewRecorder()

	mw.RequireUser(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status code = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if code := decodeErrorCode(t, rec.Body.String()); code != string(domain.EUNAUTHORIZED) {
		t.Errorf("error code = %q, want %q", code, domain.EUNAUTHORIZED)
	}
}

func TestRequireUser_AuthenticatedUser_CallsHandler(t *testing.T) {
	mw := newTestAuthMiddleware(&mockUserService{})

	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/api/me", nil)
	req = req.WithContext(auth.SetUser(req.Context(), userWithRole(domain.RoleCustomer)))
	rec := httptest.NewRecorder()

	mw.RequireUser(handler).ServeHTTP(rec, req)

	if !handlerCalled {
		t.Error("handler was not called")
	}
}

// =============================================================================
// Role Middleware Tests
// =============================================================================

func TestRequireManager(t *testing.T) {
	tests := []struct {
		name       string
		user       *domain.User
		wantStatus int
	}{
		{
			name:       "no user",
			user:       nil,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "customer denied",
			user:       userWithRole(domain.RoleCustomer),
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "manager allowed",
			user:       userWithRole(domain.RoleManager),
			wantStatus: http.StatusOK,
		},
		{
			name:       "admin allowed",
			user:       userWithRole(domain.RoleAdmin),
			wantStatus: http.StatusOK,
		},
	}

	mw := newTestAuthMiddleware(&mockUserService{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/manager/requests", nil)
			if tt.user != nil {
				req = req.WithContext(auth.SetUser(req.Context(), tt.user))
			}
			rec := httptest.NewRecorder()

			mw.RequireManager(handler).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status code = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name       string
		user       *domain.User
		wantStatus int
	}{
		{
			name:       "manager denied",
			user:       userWithRole(domain.RoleManager),
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "admin allowed",
			user:       userWithRole(domain.RoleAdmin),
			wantStatus: http.StatusOK,
		},
	}

	mw := newTestAuthMiddleware(&mockUserService{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/admin/assign", nil)
			req = req.WithContext(auth.SetUser(req.Context(), tt.user))
			rec := httptest.NewRecorder()

			mw.RequireAdmin(handler).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status code = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

// =============================================================================
// Cookie and Stack Tests
// =============================================================================

func TestSetSessionCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	SetSessionCookie(rec, "token-abc", true)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}

	cookie := cookies[0]
	if cookie.Name != session.CookieName {
		t.Errorf("cookie.Name = %q, want %q", cookie.Name, session.CookieName)
	}
	if cookie.Value != "token-abc" {
		t.Errorf("cookie.Value = %q, want %q", cookie.Value, "token-abc")
	}
	if !cookie.HttpOnly {
		t.Error("cookie should be HttpOnly")
	}
	if !cookie.Secure {
		t.Error("cookie should be Secure when isSecure is true")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("cookie.SameSite = %v, want %v", cookie.SameSite, http.SameSiteLaxMode)
	}
}

func TestStack_AppliesInOrder(t *testing.T) {
	var order []string

	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	})

	stack := Stack(mw("first"), mw("second"), mw("third"))

	req := httptest.NewRequest("GET", "/test", nil)
	rec := httptest.NewRecorder()
	stack(handler).ServeHTTP(rec, req)

	got := strings.Join(order, ",")
	want := "first,second,third,handler"
	if got != want {
		t.Errorf("execution order = %q, want %q", got, want)
	}
}

// =============================================================================
// Admin Email Allowlist Tests
// =============================================================================

func TestRequireAdmin_AllowlistedEmail_Continues(t *testing.T) {
	authMw := newTestAuthMiddleware(&mockUserService{}).
		WithAdminEmails([]string{"admin@example.com", "boss@example.com"})

	// Manager role, but email is on the admin allowlist
	user := userWithRole(domain.RoleManager)
	user.Email = "admin@example.com"

	handlerCalled := false
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/requests", nil)
	req = req.WithContext(auth.SetUser(req.Context(), user))
	rec := httptest.NewRecorder()

	authMw.RequireAdmin(testHandler).ServeHTTP(rec, req)

	if !handlerCalled {
		t.Error("expected handler to be called for allowlisted email")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status code = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRequireAdmin_AllowlistMatchingIsCaseInsensitive(t *testing.T) {
	authMw := newTestAuthMiddleware(&mockUserService{}).
		WithAdminEmails([]string{"Admin@Example.Com"})

	user := userWithRole(domain.RoleManager)
	user.Email = "admin@example.com"

	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/requests", nil)
	req = req.WithContext(auth.SetUser(req.Context(), user))
	rec := httptest.NewRecorder()

	authMw.RequireAdmin(testHandler).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status code = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRequireAdmin_EmailNotOnAllowlist_Returns403(t *testing.T) {
	authMw := newTestAuthMiddleware(&mockUserService{}).
		WithAdminEmails([]string{"admin@example.com"})

	user := userWithRole(domain.RoleManager)
	user.Email = "user@example.com"

	handlerCalled := false
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/requests", nil)
	req = req.WithContext(auth.SetUser(req.Context(), user))
	rec := httptest.NewRecorder()

	authMw.RequireAdmin(testHandler).ServeHTTP(rec, req)

	if handlerCalled {
		t.Error("handler should not be called for non-allowlisted email")
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status code = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if code := decodeErrorCode(t, rec.Body.String()); code != domain.EFORBIDDEN {
		t.Errorf("error code = %q, want %q", code, domain.EFORBIDDEN)
	}
}
