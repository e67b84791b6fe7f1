package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/puppytalk-hub/notification-engine/internal/domain/notification"
	"github.com/puppytalk-hub/notification-engine/internal/domain/shared"
	"github.com/puppytalk-hub/notification-engine/pkg/circuitbreaker"
)

// BreakerChannel wraps a delivery channel with a circuit breaker. When the
// underlying channel keeps failing, sends are rejected immediately instead
// of burning a delivery attempt per notification; the rejected items go
// through the normal FAILED/retry path.
type BreakerChannel struct {
	inner   notification.DeliveryChannel
	breaker *circuitbreaker.CircuitBreaker
}

// NewBreakerChannel wraps inner with the push-delivery breaker profile.
func NewBreakerChannel(inner notification.DeliveryChannel, logger *slog.Logger) *BreakerChannel {
	breaker := circuitbreaker.PushBreaker(func(name string, from, to circuitbreaker.State) {
		logger.Warn("delivery circuit state changed",
			"breaker", name, "from", from.String(), "to", to.String())
	})

	return &BreakerChannel{inner: inner, breaker: breaker}
}

// Name identifies the channel in logs.
func (c *BreakerChannel) Name() string {
	return c.inner.Name()
}

// IsAvailable reports false while the circuit is open or the wrapped
// channel declares itself down.
func (c *BreakerChannel) IsAvailable() bool {
	return !c.breaker.IsOpen() && c.inner.IsAvailable()
}

// Send delivers through the breaker. An open-circuit rejection is reported
// as both the breaker sentinel and shared.ErrServiceUnavailable so domain
// callers can match the category without importing the breaker package.
func (c *BreakerChannel) Send(ctx context.Context, n notification.Notification) error {
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.inner.Send(ctx, n)
	})
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		return fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, err)
	}
	return err
}

// Breaker exposes the underlying breaker for health reporting.
func (c *BreakerChannel) Breaker() *circuitbreaker.CircuitBreaker {
	return c.breaker
}
