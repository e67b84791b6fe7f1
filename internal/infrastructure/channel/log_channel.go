package channel

import (
	"context"
	"log/slog"

	"github.com/puppytalk-hub/notification-engine/internal/domain/notification"
)

// LogChannel writes every notification to the structured log instead of
// delivering it anywhere. Used when no push backend is configured.
type LogChannel struct {
	logger *slog.Logger
}

// NewLogChannel creates a log-only delivery channel.
func NewLogChannel(logger *slog.Logger) *LogChannel {
	return &LogChannel{logger: logger}
}

// Name identifies the channel in logs.
func (c *LogChannel) Name() string {
	return "log"
}

// IsAvailable always reports true; the log never goes down.
func (c *LogChannel) IsAvailable() bool {
	return true
}

// Send logs the notification and reports success.
func (c *LogChannel) Send(ctx context.Context, n notification.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.logger.Info("notification delivered to log channel",
		"notification_id", n.ID,
		"user_id", n.UserID,
		"type", n.Type,
		"title", n.Title,
		"content", n.Content)
	return nil
}
