// Package middleware contains HTTP middleware for the LocalMoves API.
//
// Middleware functions follow the standard Go pattern of wrapping http.Handler.
// They are designed to be composed using a middleware stack approach.
package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/auth"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/domain"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/service"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/session"
)

// AuthMiddleware resolves session tokens into authenticated users and
// enforces authentication and role requirements on routes.
type AuthMiddleware struct {
	userService service.UserService
	logger      *slog.Logger
	isSecure    bool // Whether to set Secure flag on cookies (true in production)

	// adminEmails grants admin access to specific accounts regardless of
	// role, for bootstrapping before any admin user exists. Lowercased.
	adminEmails map[string]struct{}
}

// NewAuthMiddleware creates a new AuthMiddleware instance.
// Set isSecure to true in production to enable the Secure cookie flag.
func NewAuthMiddleware(userService service.UserService, logger *slog.Logger, isSecure bool) *AuthMiddleware {
	return &AuthMiddleware{
		userService: userService,
		logger:      logger,
		isSecure:    isSecure,
	}
}

// WithAdminEmails returns the middleware configured to also grant admin
// access to the given email addresses. Matching is case-insensitive.
func (m *AuthMiddleware) WithAdminEmails(emails []string) *AuthMiddleware {
	if len(emails) == 0 {
		return m
	}
	m.adminEmails = make(map[string]struct{}, len(emails))
	for _, e := range emails {
		m.adminEmails[strings.ToLower(strings.TrimSpace(e))] = struct{}{}
	}
	return m
}

// isAdmin reports whether the user has admin privileges, either through
// their role or through the configured admin email allowlist.
func (m *AuthMiddleware) isAdmin(u *domain.User) bool {
	if u.Role == domain.RoleAdmin {
		return true
	}
	_, ok := m.adminEmails[strings.ToLower(u.Email)]
	return ok
}

// WithUser attempts to load the user for the request's session token.
//
// The token is read from the session cookie, or from an
// "Authorization: Bearer <token>" header for non-browser clients. The
// request continues regardless of authentication status; handlers retrieve
// the user with auth.GetUser(r.Context()) and get nil when unauthenticated.
func (m *AuthMiddleware) WithUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.userService.GetBySessionToken(r.Context(), token)
		if err != nil {
			// Invalid or expired session. Clear the cookie so the client
			// stops sending it.
			if _, cookieErr := r.Cookie(session.CookieName); cookieErr == nil {
				clearSessionCookie(w, m.isSecure)
			}
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.SetUser(r.Context(), user)))
	})
}

// RequireUser rejects unauthenticated requests with 401.
// Must be used after WithUser in the middleware chain.
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.GetUser(r.Context()) == nil {
			m.writeError(w, http.StatusUnauthorized, string(domain.EUNAUTHORIZED), "Authentication required.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireManager rejects requests from users who are not company managers
// or administrators. Must be used after WithUser.
func (m *AuthMiddleware) RequireManager(next http.Handler) http.Handler {
	return m.requireRole(next, func(u *domain.User) bool {
		return u.Role == domain.RoleManager || m.isAdmin(u)
	}, "Company manager access required.")
}

// RequireAdmin rejects requests from non-administrators.
// Must be used after WithUser.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return m.requireRole(next, m.isAdmin, "Administrator access required.")
}

func (m *AuthMiddleware) requireRole(next http.Handler, allowed func(*domain.User) bool, message string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := auth.GetUser(r.Context())
		if user == nil {
			m.writeError(w, http.StatusUnauthorized, string(domain.EUNAUTHORIZED), "Authentication required.")
			return
		}
		if !allowed(user) {
			m.writeError(w, http.StatusForbidden, string(domain.EFORBIDDEN), message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeError sends a minimal JSON error body. The handler package has richer
// error mapping; middleware keeps its own small version to avoid an import
// cycle with handlers.
func (m *AuthMiddleware) writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	body := map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		m.logger.Error("Failed to write error response", "error", err)
	}
}

// sessionToken extracts the session token from the request.
// The cookie takes precedence over the Authorization header.
func sessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(session.CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}

	return ""
}

// SetSessionCookie sets the session cookie on the response.
//
// Cookie settings:
// - HttpOnly: true - prevents JavaScript access
// - Secure: configurable - set true in production (HTTPS only)
// - SameSite: Lax - blocks cross-site POSTs while allowing normal navigation
// - MaxAge: 7 days - matches session duration
func SetSessionCookie(w http.ResponseWriter, token string, isSecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     session.CookiePath,
		MaxAge:   session.CookieMaxAge,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie removes the session cookie from the client by setting
// MaxAge to -1.
func clearSessionCookie(w http.ResponseWriter, isSecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     session.CookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie is the exported version for use in logout handlers.
func ClearSessionCookie(w http.ResponseWriter, isSecure bool) {
	clearSessionCookie(w, isSecure)
}

// Stack composes multiple middleware functions into a single middleware.
//
// Middleware is applied in the order provided, meaning the first middleware
// in the slice is the outermost (runs first on request, last on response).
//
// Example:
//
//	stack := Stack(loggingMw, authMw.WithUser, authMw.RequireUser)
//	mux.Handle("GET /api/me", stack(meHandler))
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// Ensure middleware functions have the correct signature.
var (
	_ func(http.Handler) http.Handler = (&AuthMiddleware{}).WithUser
	_ func(http.Handler) http.Handler = (&AuthMiddleware{}).RequireUser
	_ func(http.Handler) http.Handler = (&AuthMiddleware{}).RequireManager
	_ func(http.Handler) http.Handler = (&AuthMiddleware{}).RequireAdmin
)
