// Package channel provides delivery channel implementations. Production
// runs FCM push; development and tests run the mock or logging channels.
package channel

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/puppytalk-hub/notification-engine/internal/domain/notification"
)

// MockFailureRate is the fraction of sends the mock channel rejects,
// mimicking FCM's occasional token and transport errors.
const MockFailureRate = 0.1

// MockFCMChannel simulates FCM delivery for development environments.
// Failures are drawn from an injected random source so tests can pin the
// outcome with a seeded generator.
type MockFCMChannel struct {
	mu     sync.Mutex
	rng    *rand.Rand
	logger *slog.Logger

	failureRate float64
}

// NewMockFCMChannel creates a mock channel. A nil rng falls back to an
// unseeded source, which is fine outside tests.
func NewMockFCMChannel(rng *rand.Rand, logger *slog.Logger) *MockFCMChannel {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &MockFCMChannel{
		rng:         rng,
		logger:      logger,
		failureRate: MockFailureRate,
	}
}

// SetFailureRate overrides the simulated failure rate. Values outside
// [0, 1] are clamped.
func (c *MockFCMChannel) SetFailureRate(rate float64) {
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	c.mu.Lock()
	c.failureRate = rate
	c.mu.Unlock()
}

// Name identifies the channel in logs.
func (c *MockFCMChannel) Name() string {
	return "mock-fcm"
}

// IsAvailable always reports true; individual sends simulate failures.
func (c *MockFCMChannel) IsAvailable() bool {
	return true
}

// Send simulates a push delivery attempt.
func (c *MockFCMChannel) Send(ctx context.Context, n notification.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	failed := c.rng.Float64() < c.failureRate
	c.mu.Unlock()

	if failed {
		return fmt.Errorf("mock fcm: simulated delivery failure for notification %s", n.ID)
	}

	c.logger.Debug("mock push delivered",
		"notification_id", n.ID,
		"user_id", n.UserID,
		"type", n.Type,
		"title", n.Title)
	return nil
}
