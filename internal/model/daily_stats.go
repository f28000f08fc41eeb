package model

import "time"

// DailyStats is the immutable per-date rollup written by the aggregator.
// One row per calendar date; re-aggregating a date overwrites in place.
type DailyStats struct {
	ID                         uint      `gorm:"primaryKey" json:"id"`
	Date                       time.Time `gorm:"uniqueIndex;not null" json:"date"`
	TotalCustomers             int64     `gorm:"not null" json:"total_customers"`
	CustomersSeated            int64     `gorm:"not null" json:"customers_seated"`
	CustomersExpiredOrCanceled int64     `gorm:"not null" json:"customers_expired_or_cancelled"`
	AverageWaitMinutes         float64   `gorm:"not null" json:"average_wait_minutes"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
