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
// DISPATCH PENDING JOB
// ══════════════════════════════════════════════════════════════════════════════

// DispatchPendingJob sends due notifications through the delivery channel.
// Runs every 5 minutes.
type DispatchPendingJob struct {
	dispatcher *notify.Dispatcher
	logger     *slog.Logger
	config     DispatchPendingConfig

	lastRunStats atomic.Value // *DispatchStats
}

// DispatchPendingConfig contains configuration for the dispatch job.
type DispatchPendingConfig struct {
	// BatchSize is how many due notifications one pass sends.
	BatchSize int

	// Timeout is the maximum duration for the job.
	Timeout time.Duration
}

// DefaultDispatchPendingConfig returns sensible defaults.
func DefaultDispatchPendingConfig() DispatchPendingConfig {
	return DispatchPendingConfig{
		BatchSize: 100,
		Timeout:   4 * time.Minute,
	}
}

// DispatchStats contains statistics from a dispatch run.
type DispatchStats struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Processed   int
	Succeeded   int
	Failed      int
}

// NewDispatchPendingJob creates a new dispatch job.
func NewDispatchPendingJob(dispatcher *notify.Dispatcher, logger *slog.Logger, config DispatchPendingConfig) *DispatchPendingJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultDispatchPendingConfig().BatchSize
	}

	return &DispatchPendingJob{
		dispatcher: dispatcher,
		logger:     logger,
		config:     config,
	}
}

// Name returns the job name.
func (j *DispatchPendingJob) Name() string {
	return "dispatch_pending"
}

// Description returns a human-readable description.
func (j *DispatchPendingJob) Description() string {
	return "Sends due notifications through the delivery channel"
}

// Run executes the dispatch job.
func (j *DispatchPendingJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	j.logger.Info("starting dispatch_pending job", "batch_size", j.config.BatchSize)

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	result, err := j.dispatcher.DispatchPending(ctx, j.config.BatchSize)
	if err != nil {
		return fmt.Errorf("dispatch pass: %w", err)
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

	j.logger.Info("dispatch_pending job completed",
		"duration", stats.Duration.String(),
		"processed", stats.Processed,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
	)

	return nil
}

// LastRunStats returns statistics from the last dispatch run.
func (j *DispatchPendingJob) LastRunStats() *DispatchStats {
	stats := j.lastRunStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*DispatchStats)
}
