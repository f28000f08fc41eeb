package engine

import (
	"context"
	"errors"
	"time"

	"waitlist-backend/internal/model"
	"waitlist-backend/internal/store"
)

// CleanupResult reports what a sweep run expired.
type CleanupResult struct {
	ExpiredWaiting int `json:"expired_waiting"`
	ExpiredCalled  int `json:"expired_called"`
	Total          int `json:"total"`
}

// CleanupExpiredEntries expires waiting entries older than max_wait_minutes
// and called entries unconfirmed past call_timeout_minutes, releasing any
// held tables. Each entry is swept in its own transaction guarded by the
// status compare-and-set, so a seat or cancel landing mid-sweep simply wins:
// the losing expiration write is a no-op, not an error. Running the sweep
// twice back to back yields zero counts on the second run.
func (e *Engine) CleanupExpiredEntries(ctx context.Context) (CleanupResult, error) {
	settings := e.settings.Waitlist()
	now := e.now()
	var result CleanupResult

	waiting, err := e.store.ListEntriesByStatus(ctx, model.EntryStatusWaiting)
	if err != nil {
		return result, err
	}
	for _, entry := range waiting {
		if now.Sub(entry.CreatedAt) <= settings.MaxWait() {
			continue
		}
		err := e.store.UpdateEntryStatus(ctx, entry.ID, model.EntryStatusWaiting, model.EntryStatusExpired, map[string]any{
			"finished_at": now,
		})
		if errors.Is(err, store.ErrInvalidTransition) || errors.Is(err, store.ErrNotFound) {
			continue // entry moved on while we were sweeping
		}
		if err != nil {
			return result, err
		}
		result.ExpiredWaiting++
	}

	called, err := e.store.ListEntriesByStatus(ctx, model.EntryStatusCalled)
	if err != nil {
		return result, err
	}
	for _, entry := range called {
		if entry.CalledAt == nil || now.Sub(*entry.CalledAt) <= settings.CallTimeout() {
			continue
		}
		expired, err := e.expireCalledEntry(ctx, entry, now)
		if err != nil {
			return result, err
		}
		if expired {
			result.ExpiredCalled++
		}
	}

	result.Total = result.ExpiredWaiting + result.ExpiredCalled
	if result.Total > 0 {
		e.log.Infof("expired %d waiting and %d called entries", result.ExpiredWaiting, result.ExpiredCalled)
	}
	return result, nil
}

// expireCalledEntry expires one called entry and frees its table in a single
// transaction. Returns false when a concurrent transition won the race.
func (e *Engine) expireCalledEntry(ctx context.Context, entry model.QueueEntry, now time.Time) (bool, error) {
	tableID := entry.TableID
	err := e.store.Transaction(ctx, func(tx store.Store) error {
		err := tx.UpdateEntryStatus(ctx, entry.ID, model.EntryStatusCalled, model.EntryStatusExpired, map[string]any{
			"finished_at": now,
			"table_id":    nil,
		})
		if err != nil {
			return err
		}
		if tableID != nil {
			return tx.ReleaseTable(ctx, *tableID)
		}
		return nil
	})
	if errors.Is(err, store.ErrInvalidTransition) || errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeleteOldFinishedEntries hard-deletes terminal entries past the retention
// window and returns how many went.
func (e *Engine) DeleteOldFinishedEntries(ctx context.Context) (int64, error) {
	settings := e.settings.Waitlist()
	cutoff := e.now().Add(-settings.FinishedRetention())

	deleted, err := e.store.DeleteTerminalEntriesBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		e.log.Infof("deleted %d entries older than %dh", deleted, settings.FinishedRetentionHours)
	}
	return deleted, nil
}
