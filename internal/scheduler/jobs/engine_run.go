package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/papertrade/internal/engine"
	"github.com/wonny/papertrade/pkg/logger"
)

// RunAller runs every strategy
type RunAller interface {
	RunAll(ctx context.Context) ([]*engine.RunResult, error)
}

// EngineRunJob rebalances every strategy on a schedule
// ⭐ SSOT: the periodic rebalancing trigger
type EngineRunJob struct {
	runner   RunAller
	schedule string
	timeout  time.Duration
	logger   *logger.Logger
}

// NewEngineRunJob creates the periodic run job. timeout <= 0 means unbounded.
func NewEngineRunJob(runner RunAller, schedule string, timeout time.Duration, log *logger.Logger) *EngineRunJob {
	return &EngineRunJob{
		runner:   runner,
		schedule: schedule,
		timeout:  timeout,
		logger:   log,
	}
}

// Name returns the job name
func (j *EngineRunJob) Name() string {
	return "engine_run"
}

// Schedule returns the cron schedule
func (j *EngineRunJob) Schedule() string {
	return j.schedule
}

// Run rebalances all strategies. It fails when any strategy's run did not complete.
func (j *EngineRunJob) Run(ctx context.Context) error {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	j.logger.Info("Starting scheduled rebalancing")

	results, err := j.runner.RunAll(ctx)
	if err != nil {
		return fmt.Errorf("run all: %w", err)
	}

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"strategies": len(results),
		"failed":     failed,
	}).Info("Scheduled rebalancing finished")

	if failed > 0 {
		return fmt.Errorf("%d of %d strategies failed", failed, len(results))
	}
	return nil
}
