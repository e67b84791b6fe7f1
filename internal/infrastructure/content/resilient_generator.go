package content

import (
	"context"
	"log/slog"

	"github.com/puppytalk-hub/notification-engine/internal/domain/notification"
	"github.com/puppytalk-hub/notification-engine/pkg/circuitbreaker"
)

// ResilientGenerator runs the primary generator behind a circuit breaker
// and falls back to canned content on any failure. The notification still
// goes out even when the AI service is down; it is just less personal.
type ResilientGenerator struct {
	primary  notification.ContentGenerator
	fallback notification.ContentGenerator
	breaker  *circuitbreaker.CircuitBreaker
	logger   *slog.Logger
}

// NewResilientGenerator wraps primary with the AI-service breaker profile
// and the given fallback.
func NewResilientGenerator(primary, fallback notification.ContentGenerator, logger *slog.Logger) *ResilientGenerator {
	breaker := circuitbreaker.AIServiceBreaker(func(name string, from, to circuitbreaker.State) {
		logger.Warn("content circuit state changed",
			"breaker", name, "from", from.String(), "to", to.String())
	})

	return &ResilientGenerator{
		primary:  primary,
		fallback: fallback,
		breaker:  breaker,
		logger:   logger,
	}
}

// Generate tries the primary generator and degrades to the fallback.
func (g *ResilientGenerator) Generate(ctx context.Context, req notification.ContentRequest) (notification.Content, error) {
	var content notification.Content

	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var genErr error
		content, genErr = g.primary.Generate(ctx, req)
		return genErr
	})
	if err == nil {
		return content, nil
	}

	g.logger.Warn("primary content generation failed, using fallback",
		"pet_name", req.PetName, "error", err)
	return g.fallback.Generate(ctx, req)
}
