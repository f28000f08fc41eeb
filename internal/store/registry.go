package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"waitlist-backend/internal/model"
)

// GetTable fetches a single table by id.
func (s *gormStore) GetTable(ctx context.Context, id uint) (*model.Table, error) {
	var table model.Table
	err := s.db.WithContext(ctx).First(&table, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("table %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch table %d: %w", id, err)
	}
	return &table, nil
}

// ListTables returns all tables ordered by table number.
func (s *gormStore) ListTables(ctx context.Context) ([]model.Table, error) {
	var tables []model.Table
	if err := s.db.WithContext(ctx).Order("table_number ASC").Find(&tables).Error; err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return tables, nil
}

// ListAvailableTables returns available tables with at least minCapacity
// seats, smallest first so large tables stay free for large parties.
func (s *gormStore) ListAvailableTables(ctx context.Context, minCapacity int) ([]model.Table, error) {
	var tables []model.Table
	err := s.db.WithContext(ctx).
		Where("status = ? AND capacity >= ?", model.TableStatusAvailable, minCapacity).
		Order("capacity ASC, id ASC").
		Find(&tables).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list available tables: %w", err)
	}
	return tables, nil
}

// OccupyTable links a table to a queue entry. The guard on the current status
// makes concurrent occupations of the same table resolve to exactly one
// winner; the loser observes ErrConflict.
func (s *gormStore) OccupyTable(ctx context.Context, tableID, entryID uint) error {
	res := s.db.WithContext(ctx).
		Model(&model.Table{}).
		Where("id = ? AND status = ?", tableID, model.TableStatusAvailable).
		Updates(map[string]any{
			"status":           model.TableStatusOccupied,
			"current_queue_id": entryID,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to occupy table %d: %w", tableID, res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&model.Table{}).Where("id = ?", tableID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check table %d: %w", tableID, err)
		}
		if count == 0 {
			return fmt.Errorf("table %d: %w", tableID, ErrNotFound)
		}
		return fmt.Errorf("table %d: %w", tableID, ErrConflict)
	}
	return nil
}

// ReleaseTable puts an occupied table back in the available pool and clears
// the occupant link.
func (s *gormStore) ReleaseTable(ctx context.Context, tableID uint) error {
	res := s.db.WithContext(ctx).
		Model(&model.Table{}).
		Where("id = ? AND status = ?", tableID, model.TableStatusOccupied).
		Updates(map[string]any{
			"status":           model.TableStatusAvailable,
			"current_queue_id": nil,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to release table %d: %w", tableID, res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&model.Table{}).Where("id = ?", tableID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check table %d: %w", tableID, err)
		}
		if count == 0 {
			return fmt.Errorf("table %d: %w", tableID, ErrNotFound)
		}
		return fmt.Errorf("table %d: %w", tableID, ErrInvalidState)
	}
	return nil
}
