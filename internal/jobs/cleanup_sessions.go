package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/service"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/worker"
)

// CleanupSessionsHandler deletes expired login sessions so the sessions
// table does not grow without bound.
type CleanupSessionsHandler struct {
	users  service.UserService
	logger *slog.Logger
}

// NewCleanupSessionsHandler creates a handler for the session cleanup job.
func NewCleanupSessionsHandler(users service.UserService, logger *slog.Logger) *CleanupSessionsHandler {
	return &CleanupSessionsHandler{
		users:  users,
		logger: logger,
	}
}

// Type returns the job type identifier.
func (h *CleanupSessionsHandler) Type() string {
	return worker.JobTypeCleanupSessions
}

// Handle executes the expired-session cleanup.
func (h *CleanupSessionsHandler) Handle(ctx context.Context, payload []byte) error {
	var p worker.CleanupSessionsPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return worker.NewPermanentError(fmt.Errorf("invalid payload: %w", err))
	}

	if err := h.users.DeleteExpiredSessions(ctx); err != nil {
		// Database error - retryable
		return fmt.Errorf("delete expired sessions: %w", err)
	}

	return nil
}
