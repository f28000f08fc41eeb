package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"waitlist-backend/internal/model"
)

// Store defines the persistence contracts of the waitlist engine: the queue
// store, the table registry and the daily stats rollup. A Store obtained from
// Transaction shares one database transaction, so multi-record writes (entry
// plus table) commit or roll back as a unit.
type Store interface {
	DB() *gorm.DB
	Transaction(ctx context.Context, fn func(tx Store) error) error

	// Queue store.
	EnqueueEntry(ctx context.Context, entry *model.QueueEntry) error
	GetEntry(ctx context.Context, id uint) (*model.QueueEntry, error)
	ListEntriesByStatus(ctx context.Context, statuses ...string) ([]model.QueueEntry, error)
	UpdateEntryStatus(ctx context.Context, id uint, from, to string, fields map[string]any) error
	DeleteTerminalEntriesBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Table registry.
	GetTable(ctx context.Context, id uint) (*model.Table, error)
	ListTables(ctx context.Context) ([]model.Table, error)
	ListAvailableTables(ctx context.Context, minCapacity int) ([]model.Table, error)
	OccupyTable(ctx context.Context, tableID, entryID uint) error
	ReleaseTable(ctx context.Context, tableID uint) error

	// Daily stats.
	ListEntriesCreatedBetween(ctx context.Context, from, to time.Time) ([]model.QueueEntry, error)
	UpsertDailyStats(ctx context.Context, stats *model.DailyStats) error
	GetDailyStats(ctx context.Context, date time.Time) (*model.DailyStats, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying connection for wiring (router, worker pool).
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn against a Store bound to a single database transaction.
func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}
