// Package jobs contains the scheduled jobs that drive the notification
// lifecycle: inactivity detection, dispatch, retry, and cleanup.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/puppytalk-hub/notification-engine/internal/application/notify"
	"github.com/puppytalk-hub/notification-engine/internal/domain/shared"
	"github.com/puppytalk-hub/notification-engine/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// DETECT INACTIVE JOB
// ══════════════════════════════════════════════════════════════════════════════

// DetectInactiveJob finds users who have gone quiet and creates a
// scheduled pet message for each of them. Runs every 30 minutes.
type DetectInactiveJob struct {
	flow   *notify.InactivityFlow
	clock  shared.Clock
	logger *slog.Logger
	config DetectInactiveConfig

	lastRunStats atomic.Value // *DetectInactiveStats
}

// DetectInactiveConfig contains configuration for the detect inactive job.
type DetectInactiveConfig struct {
	// CandidateLimit caps how many inactive users one pass considers.
	CandidateLimit int

	// Timeout is the maximum duration for the job.
	Timeout time.Duration

	// RespectQuietHours skips detection passes during the local night so
	// pets don't wake their owners up.
	RespectQuietHours bool
}

// DefaultDetectInactiveConfig returns sensible defaults.
func DefaultDetectInactiveConfig() DetectInactiveConfig {
	return DetectInactiveConfig{
		CandidateLimit:    500,
		Timeout:           5 * time.Minute,
		RespectQuietHours: true,
	}
}

// DetectInactiveStats contains statistics from a detection run.
type DetectInactiveStats struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Candidates  int
	Eligible    int
	Created     int
	Skipped     int
	Failed      int
}

// NewDetectInactiveJob creates a new detect inactive job.
func NewDetectInactiveJob(flow *notify.InactivityFlow, clock shared.Clock, logger *slog.Logger, config DetectInactiveConfig) *DetectInactiveJob {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if config.CandidateLimit <= 0 {
		config.CandidateLimit = DefaultDetectInactiveConfig().CandidateLimit
	}

	return &DetectInactiveJob{
		flow:   flow,
		clock:  clock,
		logger: logger,
		config: config,
	}
}

// Name returns the job name.
func (j *DetectInactiveJob) Name() string {
	return "detect_inactive"
}

// Description returns a human-readable description.
func (j *DetectInactiveJob) Description() string {
	return "Detects inactive users and schedules pet messages for them"
}

// Run executes the detection job.
func (j *DetectInactiveJob) Run(ctx context.Context) error {
	startedAt := time.Now()

	if j.config.RespectQuietHours && !timeutil.IsSafeNotificationTime(j.clock.Now()) {
		j.logger.Debug("skipping detection pass during quiet hours",
			"next_safe_time", timeutil.FormatSeoul(timeutil.NextSafeNotificationTime(j.clock.Now()), timeutil.FormatDateTime))
		return nil
	}

	j.logger.Info("starting detect_inactive job", "candidate_limit", j.config.CandidateLimit)

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	result, err := j.flow.DetectAndCreate(ctx, j.config.CandidateLimit)
	if err != nil {
		return fmt.Errorf("detection pass: %w", err)
	}

	stats := &DetectInactiveStats{
		StartedAt:   startedAt,
		CompletedAt: time.Now(),
		Candidates:  result.Candidates,
		Eligible:    result.Eligible,
		Created:     result.Created,
		Skipped:     result.Skipped,
		Failed:      result.Failed,
	}
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastRunStats.Store(stats)

	j.logger.Info("detect_inactive job completed",
		"duration", stats.Duration.String(),
		"candidates", stats.Candidates,
		"eligible", stats.Eligible,
		"created", stats.Created,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
	)

	return nil
}

// LastRunStats returns statistics from the last detection run.
func (j *DetectInactiveJob) LastRunStats() *DetectInactiveStats {
	stats := j.lastRunStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*DetectInactiveStats)
}
