package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/repository"
)

// Job type constants - these must match the JobHandler.Type() values
const (
	JobTypeResetMonthlyViews       = "reset_monthly_views"
	JobTypeCheckSubscriptionExpiry = "check_subscription_expiry"
	JobTypeCleanupSessions         = "cleanup_sessions"
)

// Priority constants for job scheduling
const (
	PriorityLow    = 0
	PriorityNormal = 10
	PriorityHigh   = 20
)

// ResetMonthlyViewsPayload is the payload for the monthly view counter reset job.
// Requested marks when the reset cycle was scheduled, for audit logging.
type ResetMonthlyViewsPayload struct {
	Requested time.Time `json:"requested"`
}

// CheckSubscriptionExpiryPayload is the payload for the subscription expiry sweep.
type CheckSubscriptionExpiryPayload struct {
	Requested time.Time `json:"requested"`
}

// CleanupSessionsPayload is the payload for the expired-session cleanup job.
type CleanupSessionsPayload struct {
	Requested time.Time `json:"requested"`
}

// EnqueueOption is a functional option for customizing job enqueue parameters.
type EnqueueOption func(*repository.EnqueueJobParams)

// WithPriority sets the job priority.
func WithPriority(priority int32) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.Priority = priority
	}
}

// WithMaxAttempts sets the maximum number of retry attempts.
func WithMaxAttempts(attempts int32) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.MaxAttempts = attempts
	}
}

// WithDelay schedules the job to run after a delay.
func WithDelay(delay time.Duration) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.ScheduledAt = time.Now().Add(delay)
	}
}

// EnqueueJob is a generic helper for enqueuing jobs with custom options.
func EnqueueJob(
	ctx context.Context,
	queries *repository.Queries,
	jobType string,
	payload interface{},
	opts ...EnqueueOption,
) (repository.Job, error) {
	// Marshal the payload to JSON
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return repository.Job{}, fmt.Errorf("marshal payload: %w", err)
	}

	// Default parameters
	params := repository.EnqueueJobParams{
		JobType:     jobType,
		Payload:     payloadJSON,
		Priority:    PriorityNormal,
		MaxAttempts: 3,
		ScheduledAt: time.Now(),
	}

	// Apply options
	for _, opt := range opts {
		opt(&params)
	}

	// Enqueue the job
	job, err := queries.EnqueueJob(ctx, params)
	if err != nil {
		return repository.Job{}, fmt.Errorf("enqueue job: %w", err)
	}

	return job, nil
}

// EnqueueResetMonthlyViews enqueues a job that resets every company's
// monthly view counter. Run at the start of each billing month.
func EnqueueResetMonthlyViews(
	ctx context.Context,
	queries *repository.Queries,
	opts ...EnqueueOption,
) (repository.Job, error) {
	payload := ResetMonthlyViewsPayload{Requested: time.Now().UTC()}
	return EnqueueJob(ctx, queries, JobTypeResetMonthlyViews, payload, opts...)
}

// EnqueueCheckSubscriptionExpiry enqueues a sweep that downgrades companies
// whose paid subscription period has lapsed.
func EnqueueCheckSubscriptionExpiry(
	ctx context.Context,
	queries *repository.Queries,
	opts ...EnqueueOption,
) (repository.Job, error) {
	payload := CheckSubscriptionExpiryPayload{Requested: time.Now().UTC()}
	return EnqueueJob(ctx, queries, JobTypeCheckSubscriptionExpiry, payload, opts...)
}

// EnqueueCleanupSessions enqueues a job that deletes expired login sessions.
func EnqueueCleanupSessions(
	ctx context.Context,
	queries *repository.Queries,
	opts ...EnqueueOption,
) (repository.Job, error) {
	payload := CleanupSessionsPayload{Requested: time.Now().UTC()}
	return EnqueueJob(ctx, queries, JobTypeCleanupSessions, payload, opts...)
}
