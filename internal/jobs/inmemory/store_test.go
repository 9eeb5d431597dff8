package inmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/expense-coach/internal/domain"
	"github.com/dvloznov/expense-coach/internal/jobs"
)

func TestStore_ListJobs(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	_ = s.SaveJob(ctx, &jobs.BatchJob{JobID: "w1", Kind: domain.PeriodWeek, Status: jobs.JobStatusCompleted, CreatedAt: base})
	_ = s.SaveJob(ctx, &jobs.BatchJob{JobID: "m1", Kind: domain.PeriodMonth, Status: jobs.JobStatusFailed, CreatedAt: base.Add(time.Hour)})
	_ = s.SaveJob(ctx, &jobs.BatchJob{JobID: "w2", Kind: domain.PeriodWeek, Status: jobs.JobStatusSkipped, CreatedAt: base.Add(2 * time.Hour)})

	tests := []struct {
		name   string
		filter jobs.JobFilter
		want   []string
	}{
		{"all newest first", jobs.JobFilter{}, []string{"w2", "m1", "w1"}},
		{"by kind", jobs.JobFilter{Kind: domain.PeriodWeek}, []string{"w2", "w1"}},
		{"by status", jobs.JobFilter{Status: jobs.JobStatusFailed}, []string{"m1"}},
		{"limit", jobs.JobFilter{Limit: 1}, []string{"w2"}},
		{"offset", jobs.JobFilter{Offset: 2}, []string{"w1"}},
		{"offset past end", jobs.JobFilter{Offset: 5}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListJobs(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListJobs: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d jobs, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].JobID != id {
					t.Errorf("job %d = %s, want %s", i, got[i].JobID, id)
				}
			}
		})
	}
}

func TestStore_GetJob_NotFound(t *testing.T) {
	s := NewStore()
	if _, err := s.GetJob(context.Background(), "missing"); !errors.Is(err, jobs.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
	if err := s.UpdateJobStatus(context.Background(), "missing", jobs.JobStatusFailed, "x"); !errors.Is(err, jobs.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
	if err := s.SaveJob(context.Background(), &jobs.BatchJob{}); err == nil {
		t.Error("expected error for empty job ID")
	}
}
