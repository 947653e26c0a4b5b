// Package handler contains the JSON API handlers for the LocalMoves
// marketplace.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/auth"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/domain"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/middleware"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/service"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/session"
)

// AuthHandler handles registration, login, logout, and the current-user
// endpoint.
//
// Routes handled:
//   - POST /api/auth/register -> Register
//   - POST /api/auth/login    -> Login
//   - POST /api/auth/logout   -> Logout
//   - GET  /api/me            -> Me
type AuthHandler struct {
	userService service.UserService
	rateLimiter *middleware.AuthRateLimiter
	logger      *slog.Logger
	isSecure    bool
}

// NewAuthHandler creates a new AuthHandler.
// Set isSecure to true in production to enable the Secure cookie flag.
func NewAuthHandler(userService service.UserService, rateLimiter *middleware.AuthRateLimiter, logger *slog.Logger, isSecure bool) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		rateLimiter: rateLimiter,
		logger:      logger,
		isSecure:    isSecure,
	}
}

// RegisterRoutes registers auth routes on the provided mux.
// Register and Login are public but rate limited; Logout and Me require a
// session.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, withUser, requireUser func(http.Handler) http.Handler) {
	mux.Handle("POST /api/auth/register", h.rateLimiter.LimitRegister(http.HandlerFunc(h.Register)))
	mux.Handle("POST /api/auth/login", h.rateLimiter.LimitLogin(http.HandlerFunc(h.Login)))
	mux.Handle("POST /api/auth/logout", withUser(http.HandlerFunc(h.Logout)))
	mux.Handle("GET /api/me", withUser(requireUser(http.HandlerFunc(h.Me))))
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

type sessionResponse struct {
	User  userJSON `json:"user"`
	Token string   `json:"token"`
}

// Register creates a new user account and immediately logs it in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	user, err := h.userService.Register(r.Context(), domain.RegisterParams{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	// Log the fresh account in so the client gets a session right away.
	result, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		// The account exists; report creation but require an explicit login.
		h.logger.Warn("post-registration login failed", "error", err, "user_id", user.ID)
		respondJSON(w, http.StatusCreated, map[string]interface{}{
			"user": toUserJSON(user),
		})
		return
	}

	middleware.SetSessionCookie(w, result.Token, h.isSecure)
	respondJSON(w, http.StatusCreated, sessionResponse{
		User:  toUserJSON(result.User),
		Token: result.Token,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates a user and starts a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		// Failed attempts count against the login rate limit even though
		// the limiter middleware already admitted this request.
		h.rateLimiter.RecordFailedLogin(middleware.ClientIP(r))
		ErrorResponse(w, r, h.logger, err)
		return
	}

	h.rateLimiter.ResetLogin(middleware.ClientIP(r))
	middleware.SetSessionCookie(w, result.Token, h.isSecure)
	respondJSON(w, http.StatusOK, sessionResponse{
		User:  toUserJSON(result.User),
		Token: result.Token,
	})
}

// Logout invalidates the current session. Idempotent: logging out without a
// valid session still succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(session.CookieName); err == nil && cookie.Value != "" {
		if err := h.userService.Logout(r.Context(), cookie.Value); err != nil {
			h.logger.Warn("logout failed", "error", err)
		}
	}

	middleware.ClearSessionCookie(w, h.isSecure)
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"user": toUserJSON(user),
	})
}
