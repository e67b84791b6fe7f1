package scheduler

import (
	"context"
	"fmt"
	"log/slog"
)

// Locker is the distributed lock a job takes before running, so only one
// scheduler instance executes a given job at a time. The Redis
// notification cache satisfies this interface.
type Locker interface {
	AcquireSchedulerLock(ctx context.Context, jobName, holder string) (bool, error)
	ReleaseSchedulerLock(ctx context.Context, jobName, holder string) error
}

// LockedJob wraps a Job with a leader lock. When another instance holds
// the lock the run is skipped silently; the job fires again on its next
// scheduled slot.
type LockedJob struct {
	inner  Job
	locker Locker
	holder string
	logger *slog.Logger
}

// NewLockedJob wraps inner with the distributed lock. holder identifies
// this scheduler instance in the lock value.
func NewLockedJob(inner Job, locker Locker, holder string, logger *slog.Logger) *LockedJob {
	return &LockedJob{
		inner:  inner,
		locker: locker,
		holder: holder,
		logger: logger,
	}
}

// Name returns the wrapped job's name.
func (j *LockedJob) Name() string {
	return j.inner.Name()
}

// Description returns the wrapped job's description.
func (j *LockedJob) Description() string {
	return j.inner.Description()
}

// Run executes the wrapped job if this instance wins the lock.
func (j *LockedJob) Run(ctx context.Context) error {
	acquired, err := j.locker.AcquireSchedulerLock(ctx, j.inner.Name(), j.holder)
	if err != nil {
		return fmt.Errorf("acquire lock for job %s: %w", j.inner.Name(), err)
	}
	if !acquired {
		j.logger.Debug("job skipped, another instance holds the lock",
			"job", j.inner.Name())
		return nil
	}

	defer func() {
		if err := j.locker.ReleaseSchedulerLock(context.WithoutCancel(ctx), j.inner.Name(), j.holder); err != nil {
			j.logger.Warn("failed to release job lock",
				"job", j.inner.Name(), "error", err)
		}
	}()

	return j.inner.Run(ctx)
}
