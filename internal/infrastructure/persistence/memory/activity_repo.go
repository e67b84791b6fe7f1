package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/puppytalk-hub/notification-engine/internal/domain/activity"
	"github.com/puppytalk-hub/notification-engine/internal/domain/shared"
)

// ActivityRepository is a thread-safe in-memory activity log.
type ActivityRepository struct {
	mu      sync.RWMutex
	records []activity.UserActivity
	nextID  int64
}

// NewActivityRepository creates an empty in-memory activity log.
func NewActivityRepository() *ActivityRepository {
	return &ActivityRepository{nextID: 1}
}

// Save appends an activity record and returns its assigned ID.
func (r *ActivityRepository) Save(_ context.Context, a *activity.UserActivity) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++

	record := *a
	record.ID = id
	r.records = append(r.records, record)
	return id, nil
}

// FindLastActivity returns the user's most recent activity record, or nil
// when the user has never been active.
func (r *ActivityRepository) FindLastActivity(_ context.Context, userID shared.UserID) (*activity.UserActivity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var last *activity.UserActivity
	for i := range r.records {
		a := r.records[i]
		if a.UserID != userID {
			continue
		}
		if last == nil || a.OccurredAt.After(last.OccurredAt) {
			last = &a
		}
	}
	return last, nil
}

// FindInactiveUserIDs returns users whose most recent activity predates
// cutoff, quietest first.
func (r *ActivityRepository) FindInactiveUserIDs(_ context.Context, cutoff time.Time, limit int) ([]shared.UserID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	latest := make(map[shared.UserID]time.Time)
	for _, a := range r.records {
		if t, ok := latest[a.UserID]; !ok || a.OccurredAt.After(t) {
			latest[a.UserID] = a.OccurredAt
		}
	}

	type candidate struct {
		userID shared.UserID
		last   time.Time
	}
	var candidates []candidate
	for userID, last := range latest {
		if last.Before(cutoff) {
			candidates = append(candidates, candidate{userID, last})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].last.Equal(candidates[j].last) {
			return candidates[i].userID < candidates[j].userID
		}
		return candidates[i].last.Before(candidates[j].last)
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	result := make([]shared.UserID, 0, len(candidates))
	for _, c := range candidates {
		result = append(result, c.userID)
	}
	return result, nil
}

// DeleteOlderThan removes activity records older than cutoff, keeping each
// user's most recent record.
func (r *ActivityRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	latest := make(map[shared.UserID]time.Time)
	for _, a := range r.records {
		if t, ok := latest[a.UserID]; !ok || a.OccurredAt.After(t) {
			latest[a.UserID] = a.OccurredAt
		}
	}

	var removed int64
	kept := r.records[:0]
	for _, a := range r.records {
		if a.OccurredAt.Before(cutoff) && a.OccurredAt.Before(latest[a.UserID]) {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	r.records = kept

	return removed, nil
}
