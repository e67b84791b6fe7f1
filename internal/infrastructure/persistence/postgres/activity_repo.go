package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/puppytalk-hub/notification-engine/internal/domain/activity"
	"github.com/puppytalk-hub/notification-engine/internal/domain/shared"
)

// ActivityRepository implements activity.Repository on PostgreSQL.
type ActivityRepository struct {
	conn *Connection
}

// NewActivityRepository creates a PostgreSQL activity repository.
func NewActivityRepository(conn *Connection) *ActivityRepository {
	return &ActivityRepository{conn: conn}
}

// Save appends an activity record and returns its assigned ID.
func (r *ActivityRepository) Save(ctx context.Context, a *activity.UserActivity) (int64, error) {
	query := `
		INSERT INTO user_activities (user_id, activity_type, occurred_at)
		VALUES ($1, $2, $3)
		RETURNING id`

	var id int64
	err := r.conn.QueryRow(ctx, query, a.UserID.Int64(), a.Type.String(), a.OccurredAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres: insert activity: %w", err)
	}

	return id, nil
}

// FindLastActivity returns the user's most recent activity record, or nil
// when the user has never been active.
func (r *ActivityRepository) FindLastActivity(ctx context.Context, userID shared.UserID) (*activity.UserActivity, error) {
	query := `
		SELECT id, user_id, activity_type, occurred_at
		FROM user_activities
		WHERE user_id = $1
		ORDER BY occurred_at DESC
		LIMIT 1`

	var (
		a   activity.UserActivity
		uid int64
		typ string
	)
	err := r.conn.QueryRow(ctx, query, userID.Int64()).Scan(&a.ID, &uid, &typ, &a.OccurredAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres: find last activity for user %s: %w", userID, err)
	}

	a.UserID = shared.UserID(uid)
	a.Type = activity.ActivityType(typ)
	return &a, nil
}

// FindInactiveUserIDs returns users whose most recent activity predates
// cutoff, quietest first.
func (r *ActivityRepository) FindInactiveUserIDs(ctx context.Context, cutoff time.Time, limit int) ([]shared.UserID, error) {
	query := `
		SELECT user_id
		FROM user_activities
		GROUP BY user_id
		HAVING MAX(occurred_at) < $1
		ORDER BY MAX(occurred_at) ASC
		LIMIT $2`

	rows, err := r.conn.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: query inactive users: %w", err)
	}
	defer rows.Close()

	var result []shared.UserID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres: scan inactive user row: %w", err)
		}
		result = append(result, shared.UserID(id))
	}

	return result, rows.Err()
}

// DeleteOlderThan removes activity records older than cutoff, keeping each
// user's most recent record so inactivity detection stays possible.
func (r *ActivityRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM user_activities a
		WHERE a.occurred_at < $1
			AND EXISTS (
				SELECT 1 FROM user_activities b
				WHERE b.user_id = a.user_id AND b.occurred_at > a.occurred_at
			)`

	tag, err := r.conn.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete old activities: %w", err)
	}

	return tag.RowsAffected(), nil
}
