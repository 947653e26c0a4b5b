package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/service"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/worker"
)

// ResetMonthlyViewsHandler processes the monthly view counter reset job.
// It zeroes every company's monthly request view counter so the new
// billing month starts with a fresh quota.
type ResetMonthlyViewsHandler struct {
	subscriptions service.SubscriptionService
	logger        *slog.Logger
}

// NewResetMonthlyViewsHandler creates a handler for the monthly reset job.
func NewResetMonthlyViewsHandler(subscriptions service.SubscriptionService, logger *slog.Logger) *ResetMonthlyViewsHandler {
	return &ResetMonthlyViewsHandler{
		subscriptions: subscriptions,
		logger:        logger,
	}
}

// Type returns the job type identifier.
func (h *ResetMonthlyViewsHandler) Type() string {
	return worker.JobTypeResetMonthlyViews
}

// Handle executes the monthly view counter reset.
func (h *ResetMonthlyViewsHandler) Handle(ctx context.Context, payload []byte) error {
	var p worker.ResetMonthlyViewsPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return worker.NewPermanentError(fmt.Errorf("invalid payload: %w", err))
	}

	count, err := h.subscriptions.ResetAllViewCounts(ctx)
	if err != nil {
		// Database error - retryable
		return fmt.Errorf("reset view counts: %w", err)
	}

	h.logger.Info("Monthly view counters reset",
		"companies", count,
		"requested", p.Requested,
	)

	return nil
}
