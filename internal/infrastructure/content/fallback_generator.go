package content

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/puppytalk-hub/notification-engine/internal/domain/notification"
)

// fallbackMessages are the canned pet-voice bodies used when the AI service
// cannot produce content. %s is the pet's name.
var fallbackMessages = []string{
	"%s misses you! Come say hi when you have a minute.",
	"%s has been waiting by the phone. Got a moment to chat?",
	"Woof! %s found something exciting and wants to tell you about it.",
	"%s is wondering what you're up to today.",
	"It's been a while! %s would love to hear from you.",
}

// FallbackGenerator picks a canned message in the pet's voice. The random
// source is injected so tests can seed it and assert the exact message.
type FallbackGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewFallbackGenerator creates a fallback generator. A nil rng falls back
// to an unseeded source.
func NewFallbackGenerator(rng *rand.Rand) *FallbackGenerator {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &FallbackGenerator{rng: rng}
}

// Generate returns a canned message. It never fails.
func (g *FallbackGenerator) Generate(_ context.Context, req notification.ContentRequest) (notification.Content, error) {
	name := req.PetName
	if name == "" {
		name = "Your pet"
	}

	g.mu.Lock()
	template := fallbackMessages[g.rng.Intn(len(fallbackMessages))]
	g.mu.Unlock()

	return notification.Content{
		Title: fmt.Sprintf("%s sent you a message", name),
		Body:  fmt.Sprintf(template, name),
	}, nil
}
