package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ispeciadev/LocalMoves-Backend-sub000/internal/repository"
)

// schedulerCheckInterval is how often the scheduler wakes up to see whether a
// recurring job is due. The per-job idempotence check keeps this safe to run
// frequently and on multiple instances at once.
const schedulerCheckInterval = 15 * time.Minute

// scheduledJob describes a recurring job: when its current period started and
// how to enqueue it. A job is due when no job of its type has been enqueued
// since the period start.
type scheduledJob struct {
	jobType     string
	periodStart func(now time.Time) time.Time
	enqueue     func(ctx context.Context, queries *repository.Queries) (repository.Job, error)
}

// Scheduler enqueues recurring maintenance jobs on a fixed calendar:
// the monthly view counter reset on the first of each month, and the
// daily subscription expiry and session cleanup sweeps.
type Scheduler struct {
	queries *repository.Queries
	logger  *slog.Logger
	jobs    []scheduledJob

	wg     sync.WaitGroup
	stopCh chan struct{}
}

// NewScheduler creates a scheduler wired with the standard recurring jobs.
func NewScheduler(queries *repository.Queries, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		queries: queries,
		logger:  logger,
		stopCh:  make(chan struct{}),
		jobs: []scheduledJob{
			{
				jobType:     JobTypeResetMonthlyViews,
				periodStart: startOfMonth,
				enqueue: func(ctx context.Context, q *repository.Queries) (repository.Job, error) {
					return EnqueueResetMonthlyViews(ctx, q, WithPriority(PriorityHigh))
				},
			},
			{
				jobType:     JobTypeCheckSubscriptionExpiry,
				periodStart: startOfDay,
				enqueue: func(ctx context.Context, q *repository.Queries) (repository.Job, error) {
					return EnqueueCheckSubscriptionExpiry(ctx, q)
				},
			},
			{
				jobType:     JobTypeCleanupSessions,
				periodStart: startOfDay,
				enqueue: func(ctx context.Context, q *repository.Queries) (repository.Job, error) {
					return EnqueueCleanupSessions(ctx, q, WithPriority(PriorityLow))
				},
			},
		},
	}
}

// Start launches the scheduler loop. Call Stop to shut it down.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.run(ctx)
	s.logger.Info("Scheduler started", "check_interval", schedulerCheckInterval)
}

// Stop signals the scheduler to stop and waits for the loop to exit.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	// Check once at startup so a freshly deployed instance does not wait a
	// full interval to catch up on a missed period.
	s.checkDueJobs(ctx)

	ticker := time.NewTicker(schedulerCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkDueJobs(ctx)
		}
	}
}

// checkDueJobs enqueues every recurring job whose current period has no
// enqueued job yet. The count query makes the check idempotent across
// restarts and across multiple scheduler instances sharing one database.
func (s *Scheduler) checkDueJobs(ctx context.Context) {
	now := time.Now().UTC()

	for _, job := range s.jobs {
		since := job.periodStart(now)

		count, err := s.queries.CountJobsByTypeSince(ctx, job.jobType, since)
		if err != nil {
			s.logger.Error("Failed to check for scheduled job",
				"job_type", job.jobType,
				"error", err,
			)
			continue
		}
		if count > 0 {
			continue
		}

		enqueued, err := job.enqueue(ctx, s.queries)
		if err != nil {
			s.logger.Error("Failed to enqueue scheduled job",
				"job_type", job.jobType,
				"error", err,
			)
			continue
		}

		s.logger.Info("Enqueued scheduled job",
			"job_type", job.jobType,
			"job_id", enqueued.ID,
			"period_start", since,
		)
	}
}

func startOfMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func startOfDay(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
