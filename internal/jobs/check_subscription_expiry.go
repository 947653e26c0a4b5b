package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/service"
	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/worker"
)

// CheckSubscriptionExpiryHandler processes the daily subscription expiry
// sweep. Companies whose paid period has lapsed are demoted to the free plan
// so their request access reflects what they are actually paying for.
type CheckSubscriptionExpiryHandler struct {
	subscriptions service.SubscriptionService
	logger        *slog.Logger
}

// NewCheckSubscriptionExpiryHandler creates a handler for the expiry sweep.
func NewCheckSubscriptionExpiryHandler(subscriptions service.SubscriptionService, logger *slog.Logger) *CheckSubscriptionExpiryHandler {
	return &CheckSubscriptionExpiryHandler{
		subscriptions: subscriptions,
		logger:        logger,
	}
}

// Type returns the job type identifier.
func (h *CheckSubscriptionExpiryHandler) Type() string {
	return worker.JobTypeCheckSubscriptionExpiry
}

// Handle executes the subscription expiry sweep.
func (h *CheckSubscriptionExpiryHandler) Handle(ctx context.Context, payload []byte) error {
	var p worker.CheckSubscriptionExpiryPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return worker.NewPermanentError(fmt.Errorf("invalid payload: %w", err))
	}

	count, err := h.subscriptions.CheckExpiry(ctx)
	if err != nil {
		// Database error - retryable
		return fmt.Errorf("check subscription expiry: %w", err)
	}

	if count > 0 {
		h.logger.Info("Expired subscriptions demoted", "companies", count)
	}

	return nil
}
