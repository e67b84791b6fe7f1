package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/puppytalk-hub/notification-engine/internal/domain/notification"
	"github.com/puppytalk-hub/notification-engine/internal/domain/shared"
)

// NotificationRepository implements notification.Repository on PostgreSQL.
type NotificationRepository struct {
	conn *Connection
}

// NewNotificationRepository creates a PostgreSQL notification repository.
func NewNotificationRepository(conn *Connection) *NotificationRepository {
	return &NotificationRepository{conn: conn}
}

const notificationColumns = `
	id, user_id, pet_id, chat_room_id, type, title, content, status,
	scheduled_at, sent_at, read_at, created_at, updated_at,
	retry_count, failure_reason`

// Save persists a new notification and returns its assigned ID.
func (r *NotificationRepository) Save(ctx context.Context, n *notification.Notification) (notification.NotificationID, error) {
	id := n.ID
	if !id.IsValid() {
		id = notification.NewNotificationID()
	}

	query := `
		INSERT INTO notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.conn.Exec(ctx, query, insertArgs(id, n)...)
	if err != nil {
		return "", fmt.Errorf("postgres: insert notification: %w", err)
	}

	return id, nil
}

// SaveUniquePending inserts an inactivity notification unless the user
// already has a pending one. The partial unique index on (user_id) turns
// the dedup check into a single atomic statement.
func (r *NotificationRepository) SaveUniquePending(ctx context.Context, n *notification.Notification) (notification.NotificationID, bool, error) {
	id := n.ID
	if !id.IsValid() {
		id = notification.NewNotificationID()
	}

	query := `
		INSERT INTO notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (user_id)
		WHERE type = 'INACTIVITY_MESSAGE' AND status IN ('CREATED', 'QUEUED')
		DO NOTHING`

	tag, err := r.conn.Exec(ctx, query, insertArgs(id, n)...)
	if err != nil {
		return "", false, fmt.Errorf("postgres: insert pending notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return "", false, nil
	}

	return id, true, nil
}

// FindByID loads a notification by its ID.
func (r *NotificationRepository) FindByID(ctx context.Context, id notification.NotificationID) (*notification.Notification, error) {
	query := `SELECT` + notificationColumns + ` FROM notifications WHERE id = $1`

	row := r.conn.QueryRow(ctx, query, id.String())
	n, err := scanNotification(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, notification.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: find notification %s: %w", id, err)
	}

	return n, nil
}

// FindPending returns due CREATED/QUEUED notifications, oldest schedule first.
func (r *NotificationRepository) FindPending(ctx context.Context, now time.Time, limit int) ([]notification.Notification, error) {
	query := `
		SELECT` + notificationColumns + `
		FROM notifications
		WHERE status IN ('CREATED', 'QUEUED') AND scheduled_at <= $1
		ORDER BY scheduled_at ASC
		LIMIT $2`

	return r.queryNotifications(ctx, query, now, limit)
}

// FindRetryable returns FAILED notifications below the retry ceiling.
func (r *NotificationRepository) FindRetryable(ctx context.Context, limit int) ([]notification.Notification, error) {
	query := `
		SELECT` + notificationColumns + `
		FROM notifications
		WHERE status = 'FAILED' AND retry_count < $1
		ORDER BY updated_at ASC
		LIMIT $2`

	return r.queryNotifications(ctx, query, notification.MaxRetryCount, limit)
}

// Update replaces the stored record identified by n.ID.
func (r *NotificationRepository) Update(ctx context.Context, n notification.Notification) error {
	query := `
		UPDATE notifications SET
			status = $2, title = $3, content = $4, scheduled_at = $5,
			sent_at = $6, read_at = $7, updated_at = $8,
			retry_count = $9, failure_reason = $10
		WHERE id = $1`

	tag, err := r.conn.Exec(ctx, query,
		n.ID.String(), n.Status.String(), n.Title, n.Content, n.ScheduledAt,
		n.SentAt, n.ReadAt, n.UpdatedAt, n.RetryCount, n.FailureReason)
	if err != nil {
		return fmt.Errorf("postgres: update notification %s: %w", n.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return notification.ErrNotFound
	}

	return nil
}

// HasPendingInactivity reports whether the user has a pending inactivity
// notification.
func (r *NotificationRepository) HasPendingInactivity(ctx context.Context, userID shared.UserID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM notifications
			WHERE user_id = $1
				AND type = 'INACTIVITY_MESSAGE'
				AND status IN ('CREATED', 'QUEUED')
		)`

	var exists bool
	if err := r.conn.QueryRow(ctx, query, userID.Int64()).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres: check pending inactivity for user %s: %w", userID, err)
	}

	return exists, nil
}

// CountSentBetween counts delivered notifications for the user in [from, to).
func (r *NotificationRepository) CountSentBetween(ctx context.Context, userID shared.UserID, from, to time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM notifications
		WHERE user_id = $1
			AND status IN ('SENT', 'READ')
			AND sent_at >= $2 AND sent_at < $3`

	var count int
	if err := r.conn.QueryRow(ctx, query, userID.Int64(), from, to).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count sent notifications for user %s: %w", userID, err)
	}

	return count, nil
}

// FindUnreadByUser returns the user's delivered-but-unread notifications,
// newest first.
func (r *NotificationRepository) FindUnreadByUser(ctx context.Context, userID shared.UserID) ([]notification.Notification, error) {
	query := `
		SELECT` + notificationColumns + `
		FROM notifications
		WHERE user_id = $1 AND status = 'SENT'
		ORDER BY sent_at DESC`

	return r.queryNotifications(ctx, query, userID.Int64())
}

// CountUnreadByUser counts the user's delivered-but-unread notifications.
func (r *NotificationRepository) CountUnreadByUser(ctx context.Context, userID shared.UserID) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND status = 'SENT'`

	var count int
	if err := r.conn.QueryRow(ctx, query, userID.Int64()).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count unread for user %s: %w", userID, err)
	}

	return count, nil
}

// MarkExpired transitions non-terminal notifications scheduled before
// cutoff to EXPIRED.
func (r *NotificationRepository) MarkExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE notifications
		SET status = 'EXPIRED', updated_at = NOW()
		WHERE status IN ('CREATED', 'QUEUED', 'SENDING', 'FAILED')
			AND scheduled_at < $1`

	tag, err := r.conn.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres: mark expired notifications: %w", err)
	}

	return tag.RowsAffected(), nil
}

// DeleteOlderThan removes completed notifications created before cutoff.
func (r *NotificationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM notifications
		WHERE status IN ('SENT', 'READ', 'FAILED', 'EXPIRED', 'CANCELLED')
			AND created_at < $1`

	tag, err := r.conn.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete old notifications: %w", err)
	}

	return tag.RowsAffected(), nil
}

// CollectStats aggregates delivery outcomes for notifications created
// within [start, end].
func (r *NotificationRepository) CollectStats(ctx context.Context, start, end time.Time) (notification.Stats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status IN ('CREATED', 'QUEUED', 'SENDING')),
			COUNT(*) FILTER (WHERE status = 'SENT'),
			COUNT(*) FILTER (WHERE status = 'READ'),
			COUNT(*) FILTER (WHERE status = 'FAILED'),
			COUNT(*) FILTER (WHERE status = 'EXPIRED')
		FROM notifications
		WHERE created_at >= $1 AND created_at <= $2`

	stats := notification.Stats{Start: start, End: end}
	err := r.conn.QueryRow(ctx, query, start, end).Scan(
		&stats.TotalCreated,
		&stats.TotalPending,
		&stats.TotalSent,
		&stats.TotalRead,
		&stats.TotalFailed,
		&stats.TotalExpired,
	)
	if err != nil {
		return notification.Stats{}, fmt.Errorf("postgres: collect notification stats: %w", err)
	}

	return stats, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ROW MAPPING
// ══════════════════════════════════════════════════════════════════════════════

func insertArgs(id notification.NotificationID, n *notification.Notification) []interface{} {
	return []interface{}{
		id.String(), n.UserID.Int64(), n.PetID.Int64(), n.ChatRoomID.Int64(),
		n.Type.String(), n.Title, n.Content, n.Status.String(),
		n.ScheduledAt, n.SentAt, n.ReadAt, n.CreatedAt, n.UpdatedAt,
		n.RetryCount, n.FailureReason,
	}
}

func scanNotification(row pgx.Row) (*notification.Notification, error) {
	var (
		n          notification.Notification
		id         string
		userID     int64
		petID      int64
		chatRoomID int64
		typ        string
		status     string
	)

	err := row.Scan(
		&id, &userID, &petID, &chatRoomID, &typ, &n.Title, &n.Content, &status,
		&n.ScheduledAt, &n.SentAt, &n.ReadAt, &n.CreatedAt, &n.UpdatedAt,
		&n.RetryCount, &n.FailureReason,
	)
	if err != nil {
		return nil, err
	}

	n.ID = notification.NotificationID(id)
	n.UserID = shared.UserID(userID)
	n.PetID = shared.PetID(petID)
	n.ChatRoomID = shared.ChatRoomID(chatRoomID)
	n.Type = notification.Type(typ)
	n.Status = notification.Status(status)

	return &n, nil
}

func (r *NotificationRepository) queryNotifications(ctx context.Context, query string, args ...interface{}) ([]notification.Notification, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query notifications: %w", err)
	}
	defer rows.Close()

	var result []notification.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan notification row: %w", err)
		}
		result = append(result, *n)
	}

	return result, rows.Err()
}
