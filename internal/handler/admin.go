package handler

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/domain"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/service"
)

// AdminHandler handles administrative operations.
//
// Routes handled:
//   - POST /api/admin/requests/{id}/assign     -> AssignRequest
//   - POST /api/admin/maintenance/reset-views  -> ResetViews
//   - POST /api/admin/maintenance/check-expiry -> CheckExpiry
//
// The maintenance endpoints run the same operations the scheduler enqueues,
// for manual intervention.
type AdminHandler struct {
	assignments   service.AssignmentService
	subscriptions service.SubscriptionService
	logger        *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(assignments service.AssignmentService, subscriptions service.SubscriptionService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		assignments:   assignments,
		subscriptions: subscriptions,
		logger:        logger,
	}
}

// RegisterRoutes registers admin routes on the provided mux.
func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux, requireAdmin func(http.Handler) http.Handler) {
	mux.Handle("POST /api/admin/requests/{id}/assign", requireAdmin(http.HandlerFunc(h.AssignRequest)))
	mux.Handle("POST /api/admin/maintenance/reset-views", requireAdmin(http.HandlerFunc(h.ResetViews)))
	mux.Handle("POST /api/admin/maintenance/check-expiry", requireAdmin(http.HandlerFunc(h.CheckExpiry)))
}

type adminAssignRequest struct {
	CompanyID     uuid.UUID `json:"company_id"`
	EstimatedCost *float64  `json:"estimated_cost"`
}

// AssignRequest assigns a request to a company, bypassing service-area
// checks but keeping the subscription and quota guards.
func (h *AdminHandler) AssignRequest(w http.ResponseWriter, r *http.Request) {
	id, err := parseRequestID(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req adminAssignRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if req.CompanyID == uuid.Nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("request.admin_assign", "A company ID is required"))
		return
	}

	result, err := h.assignments.AdminAssign(r.Context(), id, req.CompanyID, req.EstimatedCost)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"request": toRequestJSON(result.Request),
		"kind":    string(result.Kind),
	})
}

// ResetViews zeroes every company's monthly view counter immediately.
func (h *AdminHandler) ResetViews(w http.ResponseWriter, r *http.Request) {
	count, err := h.subscriptions.ResetAllViewCounts(r.Context())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	h.logger.Info("admin triggered view counter reset", "companies", count)
	respondJSON(w, http.StatusOK, map[string]int64{"companies": count})
}

// CheckExpiry demotes companies whose paid period has lapsed immediately.
func (h *AdminHandler) CheckExpiry(w http.ResponseWriter, r *http.Request) {
	count, err := h.subscriptions.CheckExpiry(r.Context())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	h.logger.Info("admin triggered subscription expiry check", "companies", count)
	respondJSON(w, http.StatusOK, map[string]int64{"companies": count})
}
