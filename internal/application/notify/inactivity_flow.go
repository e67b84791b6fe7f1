package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/puppytalk-hub/notification-engine/internal/domain/activity"
	"github.com/puppytalk-hub/notification-engine/internal/domain/notification"
	"github.com/puppytalk-hub/notification-engine/internal/domain/shared"
)

// ChatHistoryLimit is how many recent messages are fed to the content
// generator as conversation context.
const ChatHistoryLimit = 20

// DetectionResult summarizes one detection pass.
type DetectionResult struct {
	// Candidates is how many inactive users the activity log produced.
	Candidates int
	// Eligible is how many survived the dedup and daily-limit filters.
	Eligible int
	// Created is how many notifications were actually written.
	Created int
	// Skipped is how many eligible users were dropped late (no pet, or a
	// concurrent creator won the dedup race).
	Skipped int
	// Failed is how many users hit an unexpected error.
	Failed int
}

// InactivityFlow detects users who went quiet and creates a scheduled pet
// message for each of them. One user failing never aborts the pass.
type InactivityFlow struct {
	activities    *activity.DomainService
	notifications *notification.DomainService
	pets          PetDirectory
	history       ChatHistory
	generator     notification.ContentGenerator
	logger        *slog.Logger
}

// NewInactivityFlow wires the detection use case.
func NewInactivityFlow(
	activities *activity.DomainService,
	notifications *notification.DomainService,
	pets PetDirectory,
	history ChatHistory,
	generator notification.ContentGenerator,
	logger *slog.Logger,
) *InactivityFlow {
	return &InactivityFlow{
		activities:    activities,
		notifications: notifications,
		pets:          pets,
		history:       history,
		generator:     generator,
		logger:        logger,
	}
}

// DetectAndCreate runs one detection pass: find inactive users, filter out
// those that must not be contacted, and create a scheduled notification for
// each of the rest.
func (f *InactivityFlow) DetectAndCreate(ctx context.Context, candidateLimit int) (DetectionResult, error) {
	var result DetectionResult

	candidates, err := f.activities.FindInactiveUsers(ctx, candidateLimit)
	if err != nil {
		return result, fmt.Errorf("find inactive users: %w", err)
	}
	result.Candidates = len(candidates)

	if len(candidates) == 0 {
		return result, nil
	}

	eligible, err := f.notifications.FilterUsersForNotification(ctx, candidates)
	if err != nil {
		return result, fmt.Errorf("filter notification candidates: %w", err)
	}
	result.Eligible = len(eligible)

	for _, userID := range eligible {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		switch err := f.createForUser(ctx, userID); {
		case err == nil:
			result.Created++
		case errors.Is(err, ErrNoPet),
			errors.Is(err, notification.ErrDuplicate),
			errors.Is(err, notification.ErrDailyLimitExceeded):
			result.Skipped++
			f.logger.Debug("skipped inactivity notification",
				"user_id", userID, "reason", err)
		default:
			result.Failed++
			f.logger.Error("failed to create inactivity notification",
				"user_id", userID, "error", err)
		}
	}

	return result, nil
}

// createForUser builds and persists one inactivity notification.
func (f *InactivityFlow) createForUser(ctx context.Context, userID shared.UserID) error {
	pet, err := f.pets.FindPetByUser(ctx, userID)
	if err != nil {
		return err
	}

	messages, err := f.history.RecentMessages(ctx, pet.ChatRoomID, ChatHistoryLimit)
	if err != nil {
		return fmt.Errorf("load chat history: %w", err)
	}

	content, err := f.generator.Generate(ctx, notification.ContentRequest{
		PetName:        pet.Name,
		Persona:        pet.Persona,
		RecentMessages: messages,
	})
	if err != nil {
		return fmt.Errorf("generate content: %w", err)
	}

	_, err = f.notifications.CreateInactivityNotification(
		ctx, userID, pet.PetID, pet.ChatRoomID, content.Title, content.Body)
	return err
}
