package notification

import "context"

// DeliveryChannel abstracts the transport that carries a notification to
// the recipient's device (FCM in production, a logging channel in
// development). A nil error means the channel accepted the message.
type DeliveryChannel interface {
	// Name identifies the channel in logs.
	Name() string

	// Send delivers the notification. The call blocks until the channel
	// accepts or rejects the message, or the context is cancelled.
	Send(ctx context.Context, n Notification) error

	// IsAvailable reports whether the channel is currently able to accept
	// sends. Dispatchers use it as a pre-flight so a known-down channel
	// does not burn a delivery attempt per notification.
	IsAvailable() bool
}

// Content is a generated notification payload.
type Content struct {
	Title string
	Body  string
}

// ContentRequest carries the persona context needed to generate a
// notification in the pet's voice.
type ContentRequest struct {
	PetName        string
	Persona        string
	RecentMessages []string
}

// ContentGenerator produces notification content for a pet persona.
// Implementations must never return empty content on a nil error: when
// generation is impossible they either return an error or fall back to a
// canned message.
type ContentGenerator interface {
	Generate(ctx context.Context, req ContentRequest) (Content, error)
}
