package shared_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puppytalk-hub/notification-engine/internal/domain/shared"
)

func TestDomainError_WithoutCause(t *testing.T) {
	err := shared.NewDomainError("notification", "MarkAsSent", shared.ErrInvalidState, "already terminal")

	assert.Equal(t, "notification.MarkAsSent: already terminal", err.Error())
	assert.ErrorIs(t, err, shared.ErrInvalidState)
	assert.NotErrorIs(t, err, shared.ErrNotFound)
}

func TestDomainError_WithCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := shared.WrapDomainError("notification", "Create", shared.ErrExternalService, "save failed", cause)

	assert.Equal(t, "notification.Create: save failed: connection reset", err.Error())

	// Both the kind and the wrapped cause are matchable.
	assert.ErrorIs(t, err, shared.ErrExternalService)
	assert.ErrorIs(t, err, cause)

	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "notification", de.Domain)
	assert.Equal(t, "Create", de.Op)
}
