package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/puppytalk-hub/notification-engine/internal/domain/activity"
	"github.com/puppytalk-hub/notification-engine/internal/domain/notification"
)

// ══════════════════════════════════════════════════════════════════════════════
// CLEANUP JOB
// ══════════════════════════════════════════════════════════════════════════════

// CleanupJob expires stale notifications and removes old completed records
// and activity history. Runs once a day at 03:00.
type CleanupJob struct {
	notifications *notification.DomainService
	activities    *activity.DomainService
	logger        *slog.Logger
	config        CleanupConfig

	lastRunStats atomic.Value // *CleanupStats
}

// CleanupConfig contains configuration for the cleanup job.
type CleanupConfig struct {
	// Timeout is the maximum duration for the job.
	Timeout time.Duration
}

// DefaultCleanupConfig returns sensible defaults.
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{Timeout: 10 * time.Minute}
}

// CleanupStats contains statistics from a cleanup run.
type CleanupStats struct {
	StartedAt            time.Time
	CompletedAt          time.Time
	Duration             time.Duration
	NotificationsExpired int64
	NotificationsDeleted int64
	ActivitiesDeleted    int64
}

// NewCleanupJob creates a new cleanup job.
func NewCleanupJob(
	notifications *notification.DomainService,
	activities *activity.DomainService,
	logger *slog.Logger,
	config CleanupConfig,
) *CleanupJob {
	if logger == nil {
		logger = slog.Default()
	}

	return &CleanupJob{
		notifications: notifications,
		activities:    activities,
		logger:        logger,
		config:        config,
	}
}

// Name returns the job name.
func (j *CleanupJob) Name() string {
	return "cleanup"
}

// Description returns a human-readable description.
func (j *CleanupJob) Description() string {
	return "Expires stale notifications and removes old records"
}

// Run executes the cleanup job. The three passes are independent; a
// failure in one does not block the others.
func (j *CleanupJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	j.logger.Info("starting cleanup job")

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	stats := &CleanupStats{StartedAt: startedAt}
	var firstErr error

	expired, err := j.notifications.CleanupExpired(ctx)
	if err != nil {
		firstErr = fmt.Errorf("expire notifications: %w", err)
		j.logger.Error("failed to expire notifications", "error", err)
	}
	stats.NotificationsExpired = expired

	deleted, err := j.notifications.CleanupOld(ctx)
	if err != nil {
		if firstErr == nil {
			firstErr = fmt.Errorf("delete old notifications: %w", err)
		}
		j.logger.Error("failed to delete old notifications", "error", err)
	}
	stats.NotificationsDeleted = deleted

	activitiesDeleted, err := j.activities.CleanupOld(ctx)
	if err != nil {
		if firstErr == nil {
			firstErr = fmt.Errorf("delete old activities: %w", err)
		}
		j.logger.Error("failed to delete old activities", "error", err)
	}
	stats.ActivitiesDeleted = activitiesDeleted

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastRunStats.Store(stats)

	j.logger.Info("cleanup job completed",
		"duration", stats.Duration.String(),
		"notifications_expired", stats.NotificationsExpired,
		"notifications_deleted", stats.NotificationsDeleted,
		"activities_deleted", stats.ActivitiesDeleted,
	)

	return firstErr
}

// LastRunStats returns statistics from the last cleanup run.
func (j *CleanupJob) LastRunStats() *CleanupStats {
	stats := j.lastRunStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*CleanupStats)
}
