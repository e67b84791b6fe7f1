// Package memory provides in-memory repository implementations used in
// tests and local development. They mirror the PostgreSQL repositories'
// semantics, including the atomic pending-dedup insert.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/puppytalk-hub/notification-engine/internal/domain/notification"
	"github.com/puppytalk-hub/notification-engine/internal/domain/shared"
)

// NotificationRepository is a thread-safe in-memory notification store.
type NotificationRepository struct {
	mu      sync.RWMutex
	records map[notification.NotificationID]notification.Notification
	seq     []notification.NotificationID // insertion order, for stable tie-breaks
}

// NewNotificationRepository creates an empty in-memory notification store.
func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{
		records: make(map[notification.NotificationID]notification.Notification),
	}
}

// Save persists a new notification and returns its assigned ID.
func (r *NotificationRepository) Save(_ context.Context, n *notification.Notification) (notification.NotificationID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := n.ID
	if !id.IsValid() {
		id = notification.NewNotificationID()
	}

	r.records[id] = n.WithID(id)
	r.seq = append(r.seq, id)
	return id, nil
}

// SaveUniquePending inserts unless the user already has a pending
// inactivity notification. The whole check-and-insert runs under one lock,
// matching the conditional insert of the PostgreSQL store.
func (r *NotificationRepository) SaveUniquePending(_ context.Context, n *notification.Notification) (notification.NotificationID, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.records {
		if existing.UserID == n.UserID &&
			existing.Type == notification.TypeInactivityMessage &&
			(existing.Status == notification.StatusCreated || existing.Status == notification.StatusQueued) {
			return "", false, nil
		}
	}

	id := n.ID
	if !id.IsValid() {
		id = notification.NewNotificationID()
	}

	r.records[id] = n.WithID(id)
	r.seq = append(r.seq, id)
	return id, true, nil
}

// FindByID loads a notification by its ID.
func (r *NotificationRepository) FindByID(_ context.Context, id notification.NotificationID) (*notification.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.records[id]
	if !ok {
		return nil, notification.ErrNotFound
	}
	return &n, nil
}

// FindPending returns due CREATED/QUEUED notifications, oldest schedule first.
func (r *NotificationRepository) FindPending(_ context.Context, now time.Time, limit int) ([]notification.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []notification.Notification
	for _, id := range r.seq {
		n := r.records[id]
		if (n.Status == notification.StatusCreated || n.Status == notification.StatusQueued) &&
			!n.ScheduledAt.After(now) {
			result = append(result, n)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ScheduledAt.Before(result[j].ScheduledAt)
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// FindRetryable returns FAILED notifications below the retry ceiling.
func (r *NotificationRepository) FindRetryable(_ context.Context, limit int) ([]notification.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []notification.Notification
	for _, id := range r.seq {
		n := r.records[id]
		if n.Status == notification.StatusFailed && n.RetryCount < notification.MaxRetryCount {
			result = append(result, n)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].UpdatedAt.Before(result[j].UpdatedAt)
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Update replaces the stored record identified by n.ID.
func (r *NotificationRepository) Update(_ context.Context, n notification.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[n.ID]; !ok {
		return notification.ErrNotFound
	}

	r.records[n.ID] = n
	return nil
}

// HasPendingInactivity reports whether the user has a pending inactivity
// notification.
func (r *NotificationRepository) HasPendingInactivity(_ context.Context, userID shared.UserID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, n := range r.records {
		if n.UserID == userID &&
			n.Type == notification.TypeInactivityMessage &&
			(n.Status == notification.StatusCreated || n.Status == notification.StatusQueued) {
			return true, nil
		}
	}
	return false, nil
}

// CountSentBetween counts delivered notifications for the user in [from, to).
func (r *NotificationRepository) CountSentBetween(_ context.Context, userID shared.UserID, from, to time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, n := range r.records {
		if n.UserID != userID || !n.Status.IsSuccessful() || n.SentAt == nil {
			continue
		}
		if !n.SentAt.Before(from) && n.SentAt.Before(to) {
			count++
		}
	}
	return count, nil
}

// FindUnreadByUser returns the user's delivered-but-unread notifications,
// newest first.
func (r *NotificationRepository) FindUnreadByUser(_ context.Context, userID shared.UserID) ([]notification.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []notification.Notification
	for _, id := range r.seq {
		n := r.records[id]
		if n.UserID == userID && n.Status == notification.StatusSent {
			result = append(result, n)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		ti, tj := result[i].SentAt, result[j].SentAt
		if ti == nil || tj == nil {
			return tj == nil && ti != nil
		}
		return ti.After(*tj)
	})

	return result, nil
}

// CountUnreadByUser counts the user's delivered-but-unread notifications.
func (r *NotificationRepository) CountUnreadByUser(_ context.Context, userID shared.UserID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, n := range r.records {
		if n.UserID == userID && n.Status == notification.StatusSent {
			count++
		}
	}
	return count, nil
}

// MarkExpired transitions non-terminal notifications scheduled before
// cutoff to EXPIRED.
func (r *NotificationRepository) MarkExpired(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var affected int64
	for id, n := range r.records {
		if !n.Status.IsInProgress() && n.Status != notification.StatusFailed {
			continue
		}
		if n.ScheduledAt.Before(cutoff) {
			n.Status = notification.StatusExpired
			r.records[id] = n
			affected++
		}
	}
	return affected, nil
}

// DeleteOlderThan removes completed notifications created before cutoff.
func (r *NotificationRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for id, n := range r.records {
		if n.Status.IsCompleted() && n.CreatedAt.Before(cutoff) {
			delete(r.records, id)
			removed++
		}
	}

	if removed > 0 {
		kept := r.seq[:0]
		for _, id := range r.seq {
			if _, ok := r.records[id]; ok {
				kept = append(kept, id)
			}
		}
		r.seq = kept
	}

	return removed, nil
}

// CollectStats aggregates delivery outcomes for notifications created
// within [start, end].
func (r *NotificationRepository) CollectStats(_ context.Context, start, end time.Time) (notification.Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := notification.Stats{Start: start, End: end}
	for _, n := range r.records {
		if n.CreatedAt.Before(start) || n.CreatedAt.After(end) {
			continue
		}
		stats.TotalCreated++
		if n.Status.IsInProgress() {
			stats.TotalPending++
		}
		switch n.Status {
		case notification.StatusSent:
			stats.TotalSent++
		case notification.StatusRead:
			stats.TotalRead++
		case notification.StatusFailed:
			stats.TotalFailed++
		case notification.StatusExpired:
			stats.TotalExpired++
		}
	}
	return stats, nil
}

// Len returns how many records the store holds.
func (r *NotificationRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
