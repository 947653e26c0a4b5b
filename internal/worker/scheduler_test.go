package worker

import (
	"testing"
	"time"
)

func TestStartOfMonth(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "mid month",
			now:  time.Date(2025, 6, 15, 13, 45, 12, 0, time.UTC),
			want: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "first of month",
			now:  time.Date(2025, 6, 1, 0, 0, 1, 0, time.UTC),
			want: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "new year boundary",
			now:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			want: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := startOfMonth(tt.now); !got.Equal(tt.want) {
				t.Errorf("startOfMonth(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestStartOfDay(t *testing.T) {
	now := time.Date(2025, 6, 15, 23, 59, 59, 0, time.UTC)
	want := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	if got := startOfDay(now); !got.Equal(want) {
		t.Errorf("startOfDay(%v) = %v, want %v", now, got, want)
	}
}

func TestNewScheduler_WiresRecurringJobs(t *testing.T) {
	s := NewScheduler(nil, nil)

	types := make(map[string]bool, len(s.jobs))
	for _, job := range s.jobs {
		types[job.jobType] = true
		if job.periodStart == nil {
			t.Errorf("job %s has no period function", job.jobType)
		}
		if job.enqueue == nil {
			t.Errorf("job %s has no enqueue function", job.jobType)
		}
	}

	for _, want := range []string{JobTypeResetMonthlyViews, JobTypeCheckSubscriptionExpiry, JobTypeCleanupSessions} {
		if !types[want] {
			t.Errorf("scheduler missing recurring job %s", want)
		}
	}
}
