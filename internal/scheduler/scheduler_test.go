package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wonny/papertrade/pkg/logger"
)

// countingJob fails its first failN runs
type countingJob struct {
	name     string
	schedule string
	failN    int32
	calls    int32
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }

func (j *countingJob) Run(ctx context.Context) error {
	n := atomic.AddInt32(&j.calls, 1)
	if n <= j.failN {
		return errors.New("upstream down")
	}
	return nil
}

func TestScheduler_AddAndRemove(t *testing.T) {
	s := New(logger.Nop(), DefaultOptions())
	job := &countingJob{name: "engine_run", schedule: "0 30 16 * * 1-5"}

	require.NoError(t, s.AddJob(job))
	assert.Error(t, s.AddJob(job), "duplicate names are rejected")
	assert.Equal(t, []string{"engine_run"}, s.GetAllJobs())

	require.NoError(t, s.RemoveJob("engine_run"))
	assert.Empty(t, s.GetAllJobs())
	assert.Error(t, s.RemoveJob("engine_run"))
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := New(logger.Nop(), DefaultOptions())
	err := s.AddJob(&countingJob{name: "bad", schedule: "every tuesday"})
	assert.Error(t, err)
	assert.Empty(t, s.GetAllJobs())
}

func TestScheduler_RunJobRetries(t *testing.T) {
	tests := []struct {
		name         string
		maxRetries   int
		failN        int32
		wantSuccess  bool
		wantAttempts int
	}{
		{"succeeds first time", 0, 0, true, 1},
		{"no retries configured", 0, 1, false, 1},
		{"recovers on retry", 2, 1, true, 2},
		{"exhausts retries", 2, 5, false, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(logger.Nop(), Options{MaxRetries: tt.maxRetries, RetryDelay: time.Millisecond})
			job := &countingJob{name: "j", schedule: "@daily", failN: tt.failN}
			require.NoError(t, s.AddJob(job))

			result, err := s.RunJob(context.Background(), "j")
			require.NoError(t, err)
			assert.Equal(t, tt.wantSuccess, result.Success)
			assert.Equal(t, tt.wantAttempts, result.Attempts)
			if !tt.wantSuccess {
				assert.Contains(t, result.Error, "upstream down")
			}

			history, err := s.GetJobHistory("j")
			require.NoError(t, err)
			require.Len(t, history, 1)

			stats := s.GetJobStats()["j"]
			assert.Equal(t, 1, stats.TotalRuns)
			require.NotNil(t, stats.LastRun)
			if tt.wantSuccess {
				assert.Equal(t, 1.0, stats.SuccessRate)
				assert.NotNil(t, stats.LastSuccess)
			} else {
				assert.Equal(t, 1, stats.FailureCount)
				assert.NotNil(t, stats.LastFailure)
			}
		})
	}
}

func TestScheduler_RunUnknownJob(t *testing.T) {
	s := New(logger.Nop(), DefaultOptions())
	_, err := s.RunJob(context.Background(), "missing")
	assert.Error(t, err)
}

func TestScheduler_FiresOnSchedule(t *testing.T) {
	s := New(logger.Nop(), DefaultOptions())
	job := &countingJob{name: "tick", schedule: "@every 1s"}
	require.NoError(t, s.AddJob(job))

	next, err := s.NextRun("tick")
	require.NoError(t, err)
	assert.True(t, next.IsZero(), "entries have no next time before Start")

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&job.calls) >= 1 }, 3*time.Second, 20*time.Millisecond)
}

func TestJobHistory_Bounded(t *testing.T) {
	var h JobHistory
	for i := 0; i < maxHistory+20; i++ {
		h.AddResult(JobResult{Success: i%2 == 0})
	}

	assert.Len(t, h.Results, maxHistory)
	assert.Len(t, h.GetLatestResults(5), 5)
	assert.Empty(t, h.GetLatestResults(0))
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 1e-9)
}
