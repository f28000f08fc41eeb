package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"waitlist-backend/internal/model"
)

// UpsertDailyStats creates or overwrites the stats row for stats.Date.
// Re-running aggregation for a date must never produce a second row.
func (s *gormStore) UpsertDailyStats(ctx context.Context, stats *model.DailyStats) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_customers",
			"customers_seated",
			"customers_expired_or_canceled",
			"average_wait_minutes",
			"updated_at",
		}),
	}).Create(stats).Error
	if err != nil {
		return fmt.Errorf("failed to upsert daily stats for %s: %w", stats.Date.Format("2006-01-02"), err)
	}
	return nil
}

// GetDailyStats fetches the stats row for a calendar date.
func (s *gormStore) GetDailyStats(ctx context.Context, date time.Time) (*model.DailyStats, error) {
	var stats model.DailyStats
	err := s.db.WithContext(ctx).Where("date = ?", date).First(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("daily stats for %s: %w", date.Format("2006-01-02"), ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch daily stats: %w", err)
	}
	return &stats, nil
}
