package channel

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puppytalk-hub/notification-engine/internal/domain/notification"
	"github.com/puppytalk-hub/notification-engine/internal/domain/shared"
	"github.com/puppytalk-hub/notification-engine/pkg/circuitbreaker"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testNotification() notification.Notification {
	return notification.Notification{
		ID:     notification.NewNotificationID(),
		UserID: shared.UserID(1),
		Type:   notification.TypeInactivityMessage,
		Title:  "title",
	}
}

func TestMockFCMChannel_NeverFailsAtZeroRate(t *testing.T) {
	c := NewMockFCMChannel(rand.New(rand.NewSource(42)), discardLogger())
	c.SetFailureRate(0)

	for i := 0; i < 100; i++ {
		assert.NoError(t, c.Send(context.Background(), testNotification()))
	}
}

func TestMockFCMChannel_AlwaysFailsAtFullRate(t *testing.T) {
	c := NewMockFCMChannel(rand.New(rand.NewSource(42)), discardLogger())
	c.SetFailureRate(1)

	for i := 0; i < 100; i++ {
		assert.Error(t, c.Send(context.Background(), testNotification()))
	}
}

func TestMockFCMChannel_SeededOutcomeIsDeterministic(t *testing.T) {
	run := func() []bool {
		c := NewMockFCMChannel(rand.New(rand.NewSource(7)), discardLogger())
		outcomes := make([]bool, 50)
		for i := range outcomes {
			outcomes[i] = c.Send(context.Background(), testNotification()) == nil
		}
		return outcomes
	}

	assert.Equal(t, run(), run())
}

func TestMockFCMChannel_RespectsContext(t *testing.T) {
	c := NewMockFCMChannel(rand.New(rand.NewSource(1)), discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.Send(ctx, testNotification()), context.Canceled)
}

func TestLogChannel(t *testing.T) {
	c := NewLogChannel(discardLogger())
	assert.Equal(t, "log", c.Name())
	assert.NoError(t, c.Send(context.Background(), testNotification()))
}

type failingChannel struct{ err error }

func (c *failingChannel) Name() string { return "failing" }

func (c *failingChannel) IsAvailable() bool { return true }

func (c *failingChannel) Send(context.Context, notification.Notification) error {
	return c.err
}

func TestBreakerChannel_OpensAfterRepeatedFailures(t *testing.T) {
	inner := &failingChannel{err: errors.New("fcm unavailable")}
	c := NewBreakerChannel(inner, discardLogger())
	ctx := context.Background()

	assert.True(t, c.IsAvailable())

	for i := 0; i < 20 && !c.Breaker().IsOpen(); i++ {
		err := c.Send(ctx, testNotification())
		require.Error(t, err)
	}
	require.True(t, c.Breaker().IsOpen())
	assert.False(t, c.IsAvailable())

	// Once open, sends are rejected without touching the inner channel.
	// The rejection matches both the breaker sentinel and the shared kind.
	err := c.Send(ctx, testNotification())
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
	assert.Equal(t, "failing", c.Name())
}

func TestChannelAvailability(t *testing.T) {
	fcm := NewMockFCMChannel(rand.New(rand.NewSource(1)), discardLogger())
	assert.True(t, fcm.IsAvailable())
	assert.True(t, NewLogChannel(discardLogger()).IsAvailable())
}
