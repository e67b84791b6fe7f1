package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/puppytalk-hub/notification-engine/internal/application/notify"
)

// ══════════════════════════════════════════════════════════════════════════════
// RETRY FAILED JOB
// ══════════════════════════════════════════════════════════════════════════════

// RetryFailedJob re-sends failed notifications that are still below the
// retry ceiling. Runs every 15 minutes.
type RetryFailedJob struct {
	dispatcher *notify.Dispatcher
	logger     *slog.Logger
	config     RetryFailedConfig

	lastRunStats atomic.Value // *DispatchStats
}

// RetryFailedConfig contains configuration for the retry job.
type RetryFailedConfig struct {
	// BatchSize is how many failed notifications one pass retries.
	BatchSize int

	// Timeout is the maximum duration for the job.
	Timeout time.Duration
}

// DefaultRetryFailedConfig returns sensible defaults.
func DefaultRetryFailedConfig() RetryFailedConfig {
	return RetryFailedConfig{
		BatchSize: 50,
		Timeout:   4 * time.Minute,
	}
}

// NewRetryFailedJob creates a new retry job.
func NewRetryFailedJob(dispatcher *notify.Dispatcher, logger *slog.Logger, config RetryFailedConfig) *RetryFailedJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultRetryFailedConfig().BatchSize
	}

	return &RetryFailedJob{
		dispatcher: dispatcher,
		logger:     logger,
		config:     config,
	}
}

// Name returns the job name.
func (j *RetryFailedJob) Name() string {
	return "retry_failed"
}

// Description returns a human-readable description.
func (j *RetryFailedJob) Description() string {
	return "Re-sends failed notifications below the retry ceiling"
}

// Run executes the retry job.
func (j *RetryFailedJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	j.logger.Info("starting retry_failed job", "batch_size", j.config.BatchSize)

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	result, err := j.dispatcher.RetryFailed(ctx, j.config.BatchSize)
	if err != nil {
		return fmt.Errorf("retry pass: %w", err)
	}

	stats := &DispatchStats{
		StartedAt:   startedAt,
		CompletedAt: time.Now(),
		Processed:   result.Processed,
		Succeeded:   result.Succeeded,
		Failed:      result.Failed,
	}
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastRunStats.Store(stats)

	j.logger.Info("retry_failed job completed",
		"duration", stats.Duration.String(),
		"processed", stats.Processed,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
	)

	return nil
}

// LastRunStats returns statistics from the last retry run.
func (j *RetryFailedJob) LastRunStats() *DispatchStats {
	stats := j.lastRunStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*DispatchStats)
}
