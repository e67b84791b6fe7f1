package postgres

import (
	"context"
	"fmt"

	"github.com/puppytalk-hub/notification-engine/internal/domain/shared"
)

// ChatHistory implements notify.ChatHistory against the chat_messages table
// owned by the main PuppyTalk service. Read-only, no migration here.
type ChatHistory struct {
	conn *Connection
}

// NewChatHistory creates a PostgreSQL chat history reader.
func NewChatHistory(conn *Connection) *ChatHistory {
	return &ChatHistory{conn: conn}
}

// RecentMessages returns up to limit message bodies from the chat room,
// newest last, so the generator sees the conversation in reading order.
func (h *ChatHistory) RecentMessages(ctx context.Context, chatRoomID shared.ChatRoomID, limit int) ([]string, error) {
	query := `
		SELECT content
		FROM chat_messages
		WHERE chat_room_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := h.conn.Query(ctx, query, chatRoomID.Int64(), limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: recent messages for chat room %s: %w", chatRoomID, err)
	}
	defer rows.Close()

	var messages []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("postgres: scan chat message: %w", err)
		}
		messages = append(messages, content)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate chat messages: %w", err)
	}

	// Flip from newest-first to newest-last.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
