package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"waitlist-backend/internal/model"
)

// EnqueueEntry persists a new queue entry.
func (s *gormStore) EnqueueEntry(ctx context.Context, entry *model.QueueEntry) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create queue entry: %w", err)
	}
	return nil
}

// GetEntry fetches a single queue entry by id.
func (s *gormStore) GetEntry(ctx context.Context, id uint) (*model.QueueEntry, error) {
	var entry model.QueueEntry
	err := s.db.WithContext(ctx).First(&entry, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("queue entry %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch queue entry %d: %w", id, err)
	}
	return &entry, nil
}

// ListEntriesByStatus returns entries in waitlist order: highest priority
// weight first, then oldest first, then lowest id. The id tie-break keeps the
// selection deterministic even for entries created in the same instant.
func (s *gormStore) ListEntriesByStatus(ctx context.Context, statuses ...string) ([]model.QueueEntry, error) {
	var entries []model.QueueEntry
	err := s.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("priority_weight DESC, created_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list entries by status: %w", err)
	}
	return entries, nil
}

// UpdateEntryStatus performs a compare-and-set transition: the update only
// lands if the entry's current status equals from. Extra column values (table
// link, timestamps) ride along in fields. A lost race surfaces as
// ErrInvalidTransition, a missing entry as ErrNotFound.
func (s *gormStore) UpdateEntryStatus(ctx context.Context, id uint, from, to string, fields map[string]any) error {
	updates := map[string]any{"status": to}
	for k, v := range fields {
		updates[k] = v
	}

	res := s.db.WithContext(ctx).
		Model(&model.QueueEntry{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update queue entry %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&model.QueueEntry{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check queue entry %d: %w", id, err)
		}
		if count == 0 {
			return fmt.Errorf("queue entry %d: %w", id, ErrNotFound)
		}
		return fmt.Errorf("queue entry %d is not %q: %w", id, from, ErrInvalidTransition)
	}
	return nil
}

// DeleteTerminalEntriesBefore hard-deletes finished, cancelled and expired
// entries whose terminal timestamp is older than cutoff. Active entries are
// never touched. Push subscriptions registered for the deleted entries go
// with them.
func (s *gormStore) DeleteTerminalEntriesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&model.QueueEntry{}).
			Where("status IN ? AND finished_at IS NOT NULL AND finished_at < ?", model.TerminalEntryStatuses, cutoff).
			Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("failed to select terminal entries: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}

		if err := tx.Where("queue_entry_id IN ?", ids).Delete(&model.PushSubscription{}).Error; err != nil {
			return fmt.Errorf("failed to delete subscriptions for old entries: %w", err)
		}

		res := tx.Where("id IN ?", ids).Delete(&model.QueueEntry{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete old entries: %w", res.Error)
		}
		deleted = res.RowsAffected
		return nil
	})
	return deleted, err
}

// ListEntriesCreatedBetween returns every entry created in [from, to),
// regardless of status. The aggregator uses it to roll up a full day.
func (s *gormStore) ListEntriesCreatedBetween(ctx context.Context, from, to time.Time) ([]model.QueueEntry, error) {
	var entries []model.QueueEntry
	err := s.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list entries for window: %w", err)
	}
	return entries, nil
}
