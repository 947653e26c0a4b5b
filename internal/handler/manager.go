package handler

import (
	"log/slog"
	"net/http"

	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/auth"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/service"
)

// ManagerHandler handles the manager-facing board and bulk reclaim.
//
// Routes handled:
//   - GET  /api/manager/requests -> Board
//   - POST /api/manager/reclaim  -> Reclaim
type ManagerHandler struct {
	board       service.BoardService
	assignments service.AssignmentService
	logger      *slog.Logger
}

// NewManagerHandler creates a new ManagerHandler.
func NewManagerHandler(board service.BoardService, assignments service.AssignmentService, logger *slog.Logger) *ManagerHandler {
	return &ManagerHandler{
		board:       board,
		assignments: assignments,
		logger:      logger,
	}
}

// RegisterRoutes registers manager routes on the provided mux.
func (h *ManagerHandler) RegisterRoutes(mux *http.ServeMux, requireManager func(http.Handler) http.Handler) {
	mux.Handle("GET /api/manager/requests", requireManager(http.HandlerFunc(h.Board)))
	mux.Handle("POST /api/manager/reclaim", requireManager(http.HandlerFunc(h.Reclaim)))
}

// Board returns the manager's request board. Reading the board runs the
// quota reconciliation sweep first, so what the manager sees always matches
// what their plan allows.
func (h *ManagerHandler) Board(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())

	board, err := h.board.ListAndReconcile(r.Context(), user)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, toBoardJSON(board))
}

// Reclaim accepts, oldest first, the requests soft-reserved for the
// manager's company until the remaining quota runs out.
func (h *ManagerHandler) Reclaim(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())

	result, err := h.assignments.BulkReclaim(r.Context(), user)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]int{
		"reclaimed": result.Reclaimed,
		"failed":    result.Failed,
	})
}
