package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/puppytalk-hub/notification-engine/internal/domain/notification"
	"github.com/puppytalk-hub/notification-engine/internal/domain/shared"
)

// BatchResult summarizes one dispatch or retry pass.
type BatchResult struct {
	Processed int
	Succeeded int
	Failed    int
}

// DeliveryCounter mirrors per-user delivery counters kept outside the
// primary store (daily counter, unread badge). The counters are advisory:
// errors are logged and never fail a dispatch.
type DeliveryCounter interface {
	IncrementDailyCount(ctx context.Context, userID shared.UserID, now time.Time) (int64, error)
	InvalidateUnread(ctx context.Context, userID shared.UserID) error
}

// Dispatcher pushes due notifications through the delivery channel and
// records the outcome of every attempt. A failed item stays in the batch's
// failure count; it never aborts the pass.
type Dispatcher struct {
	notifications *notification.DomainService
	channel       notification.DeliveryChannel
	counter       DeliveryCounter // optional
	clock         shared.Clock
	logger        *slog.Logger
}

// NewDispatcher wires the dispatch use case. counter may be nil when no
// counter backend is configured.
func NewDispatcher(
	notifications *notification.DomainService,
	channel notification.DeliveryChannel,
	counter DeliveryCounter,
	clock shared.Clock,
	logger *slog.Logger,
) *Dispatcher {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Dispatcher{
		notifications: notifications,
		channel:       channel,
		counter:       counter,
		clock:         clock,
		logger:        logger,
	}
}

// DispatchPending sends up to batchSize due notifications.
func (d *Dispatcher) DispatchPending(ctx context.Context, batchSize int) (BatchResult, error) {
	pending, err := d.notifications.FindPendingNotifications(ctx, batchSize)
	if err != nil {
		return BatchResult{}, fmt.Errorf("find pending notifications: %w", err)
	}
	return d.deliver(ctx, pending), nil
}

// RetryFailed re-sends up to batchSize failed notifications that are still
// below the retry ceiling.
func (d *Dispatcher) RetryFailed(ctx context.Context, batchSize int) (BatchResult, error) {
	retryable, err := d.notifications.GetRetryableNotifications(ctx, batchSize)
	if err != nil {
		return BatchResult{}, fmt.Errorf("find retryable notifications: %w", err)
	}
	return d.deliver(ctx, retryable), nil
}

// deliver attempts each notification in turn, recording SENT or FAILED.
func (d *Dispatcher) deliver(ctx context.Context, batch []notification.Notification) BatchResult {
	var result BatchResult

	for _, n := range batch {
		if ctx.Err() != nil {
			break
		}
		// Pre-flight: a channel that declares itself down would fail every
		// remaining item and burn a retry attempt per record. Leave them
		// pending for the next pass instead.
		if !d.channel.IsAvailable() {
			d.logger.Warn("delivery channel unavailable, stopping pass",
				"channel", d.channel.Name(),
				"remaining", len(batch)-result.Processed)
			break
		}
		result.Processed++

		if err := d.channel.Send(ctx, n); err != nil {
			result.Failed++
			d.logger.Warn("delivery attempt failed",
				"notification_id", n.ID,
				"user_id", n.UserID,
				"channel", d.channel.Name(),
				"retry_count", n.RetryCount,
				"error", err)

			if markErr := d.notifications.MarkAsFailed(ctx, n.ID, err.Error()); markErr != nil {
				d.logger.Error("failed to record delivery failure",
					"notification_id", n.ID, "error", markErr)
			}
			continue
		}

		if err := d.notifications.MarkAsSent(ctx, n.ID); err != nil {
			// The push went out but the record did not advance; the retry
			// job will re-send it, which the channel must tolerate.
			result.Failed++
			d.logger.Error("failed to record delivery success",
				"notification_id", n.ID, "error", err)
			continue
		}

		result.Succeeded++
		d.recordDelivery(ctx, n)
	}

	return result
}

// recordDelivery bumps the advisory counters after a successful send.
func (d *Dispatcher) recordDelivery(ctx context.Context, n notification.Notification) {
	if d.counter == nil {
		return
	}

	if _, err := d.counter.IncrementDailyCount(ctx, n.UserID, d.clock.Now()); err != nil {
		d.logger.Warn("failed to bump daily counter",
			"notification_id", n.ID, "user_id", n.UserID, "error", err)
	}

	// The new delivery invalidates the cached unread badge.
	if err := d.counter.InvalidateUnread(ctx, n.UserID); err != nil {
		d.logger.Warn("failed to invalidate unread badge",
			"notification_id", n.ID, "user_id", n.UserID, "error", err)
	}
}
