package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const jobColumns = `id, job_type, payload, status, priority, attempts, max_attempts,
	scheduled_at, started_at, completed_at, error_message, created_at`

func scanJob(row interface{ Scan(...interface{}) error }) (Job, error) {
	var j Job
	err := row.Scan(
		&j.ID,
		&j.JobType,
		&j.Payload,
		&j.Status,
		&j.Priority,
		&j.Attempts,
		&j.MaxAttempts,
		&j.ScheduledAt,
		&j.StartedAt,
		&j.CompletedAt,
		&j.ErrorMessage,
		&j.CreatedAt,
	)
	return j, err
}

// EnqueueJobParams holds the insert values for a new background job.
type EnqueueJobParams struct {
	JobType     string
	Payload     []byte
	Priority    int32
	MaxAttempts int32
	ScheduledAt time.Time
}

// EnqueueJob inserts a pending job into the queue.
func (q *Queries) EnqueueJob(ctx context.Context, arg EnqueueJobParams) (Job, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO jobs (id, job_type, payload, status, priority, max_attempts, scheduled_at)
		VALUES ($1, $2, $3, 'pending', $4, $5, $6)
		RETURNING `+jobColumns,
		uuid.New(), arg.JobType, arg.Payload, arg.Priority, arg.MaxAttempts, arg.ScheduledAt,
	)
	return scanJob(row)
}

// DequeueJob claims the next runnable job using SKIP LOCKED so concurrent
// workers never grab the same row. Returns sql.ErrNoRows when the queue is
// empty.
func (q *Queries) DequeueJob(ctx context.Context) (Job, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE status = 'pending' AND scheduled_at <= now()
		ORDER BY priority DESC, scheduled_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED`)
	return scanJob(row)
}

// UpdateJobStarted marks a job as running and bumps its attempt counter.
func (q *Queries) UpdateJobStarted(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = 'running', started_at = now(), attempts = attempts + 1
		WHERE id = $1`,
		id)
	return err
}

// UpdateJobCompleted marks a job as successfully finished.
func (q *Queries) UpdateJobCompleted(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = 'completed', completed_at = now(), error_message = NULL
		WHERE id = $1`,
		id)
	return err
}

// UpdateJobFailedParams records a failure on a job.
type UpdateJobFailedParams struct {
	ID           uuid.UUID
	ErrorMessage sql.NullString
}

// UpdateJobFailed marks a job failed, or reschedules it with exponential
// backoff while attempts remain.
func (q *Queries) UpdateJobFailed(ctx context.Context, arg UpdateJobFailedParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = CASE WHEN attempts >= max_attempts THEN 'failed' ELSE 'pending' END,
		    scheduled_at = CASE WHEN attempts >= max_attempts THEN scheduled_at
		                        ELSE now() + (interval '30 seconds' * power(2, attempts)) END,
		    error_message = $2
		WHERE id = $1`,
		arg.ID, arg.ErrorMessage)
	return err
}

// RecoverStaleJobs resets jobs stuck in 'running' longer than the threshold
// back to pending. Returns the number of recovered jobs.
func (q *Queries) RecoverStaleJobs(ctx context.Context, thresholdSeconds float64) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = 'pending', started_at = NULL
		WHERE status = 'running'
		  AND started_at < now() - ($1 * interval '1 second')`,
		thresholdSeconds)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountJobsByTypeSince counts non-failed jobs of a type enqueued at or after
// the given time. Used by the scheduler to keep periodic jobs idempotent.
func (q *Queries) CountJobsByTypeSince(ctx context.Context, jobType string, since time.Time) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM jobs
		WHERE job_type = $1
		  AND status IN ('pending', 'running', 'completed')
		  AND created_at >= $2`,
		jobType, since).Scan(&count)
	return count, err
}
