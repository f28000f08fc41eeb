package store

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"waitlist-backend/internal/model"
)

var testDBSeq atomic.Int64

// newTestDB opens a fresh in-memory SQLite database per test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:store_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&model.Table{}, &model.QueueEntry{}, &model.DailyStats{}, &model.PushSubscription{})
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

func TestListEntriesByStatus_Ordering(t *testing.T) {
	db := newTestDB(t)
	s := NewGormStore(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 30, 18, 0, 0, 0, time.UTC)
	entries := []model.QueueEntry{
		{CustomerName: "early normal", PartySize: 2, Priority: model.PriorityNormal, PriorityWeight: 0, Status: model.EntryStatusWaiting, CreatedAt: base},
		{CustomerName: "late normal", PartySize: 2, Priority: model.PriorityNormal, PriorityWeight: 0, Status: model.EntryStatusWaiting, CreatedAt: base.Add(10 * time.Minute)},
		{CustomerName: "late vip", PartySize: 2, Priority: model.PriorityVIP, PriorityWeight: 10, Status: model.EntryStatusWaiting, CreatedAt: base.Add(20 * time.Minute)},
		{CustomerName: "seated", PartySize: 2, Priority: model.PriorityNormal, PriorityWeight: 0, Status: model.EntryStatusSeated, CreatedAt: base},
	}
	for i := range entries {
		require.NoError(t, s.EnqueueEntry(ctx, &entries[i]))
	}

	got, err := s.ListEntriesByStatus(ctx, model.EntryStatusWaiting)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// VIP jumps ahead of both normal entries despite being newest.
	assert.Equal(t, "late vip", got[0].CustomerName)
	assert.Equal(t, "early normal", got[1].CustomerName)
	assert.Equal(t, "late normal", got[2].CustomerName)
}

func TestListEntriesByStatus_IDTieBreak(t *testing.T) {
	db := newTestDB(t)
	s := NewGormStore(db)
	ctx := context.Background()

	at := time.Date(2026, 8, 30, 18, 0, 0, 0, time.UTC)
	a := model.QueueEntry{CustomerName: "a", PartySize: 2, Status: model.EntryStatusWaiting, CreatedAt: at}
	b := model.QueueEntry{CustomerName: "b", PartySize: 2, Status: model.EntryStatusWaiting, CreatedAt: at}
	require.NoError(t, s.EnqueueEntry(ctx, &a))
	require.NoError(t, s.EnqueueEntry(ctx, &b))

	got, err := s.ListEntriesByStatus(ctx, model.EntryStatusWaiting)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Less(t, got[0].ID, got[1].ID, "equal priority and timestamp must order by id")
}

func TestUpdateEntryStatus_CompareAndSet(t *testing.T) {
	db := newTestDB(t)
	s := NewGormStore(db)
	ctx := context.Background()

	entry := model.QueueEntry{CustomerName: "cas", PartySize: 2, Status: model.EntryStatusWaiting, CreatedAt: time.Now().UTC()}
	require.NoError(t, s.EnqueueEntry(ctx, &entry))

	now := time.Now().UTC()
	err := s.UpdateEntryStatus(ctx, entry.ID, model.EntryStatusWaiting, model.EntryStatusCalled, map[string]any{
		"called_at": now,
	})
	require.NoError(t, err)

	got, err := s.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EntryStatusCalled, got.Status)
	require.NotNil(t, got.CalledAt)

	// A second transition from the stale status loses the race.
	err = s.UpdateEntryStatus(ctx, entry.ID, model.EntryStatusWaiting, model.EntryStatusExpired, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// The losing write changed nothing.
	got, err = s.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EntryStatusCalled, got.Status)

	err = s.UpdateEntryStatus(ctx, 9999, model.EntryStatusWaiting, model.EntryStatusExpired, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOccupyAndReleaseTable(t *testing.T) {
	db := newTestDB(t)
	s := NewGormStore(db)
	ctx := context.Background()

	table := model.Table{TableNumber: "T1", Capacity: 4, Status: model.TableStatusAvailable}
	require.NoError(t, db.Create(&table).Error)

	require.NoError(t, s.OccupyTable(ctx, table.ID, 42))

	got, err := s.GetTable(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TableStatusOccupied, got.Status)
	require.NotNil(t, got.CurrentQueueID)
	assert.Equal(t, uint(42), *got.CurrentQueueID)

	// Occupying an occupied table conflicts.
	err = s.OccupyTable(ctx, table.ID, 43)
	assert.ErrorIs(t, err, ErrConflict)

	require.NoError(t, s.ReleaseTable(ctx, table.ID))
	got, err = s.GetTable(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TableStatusAvailable, got.Status)
	assert.Nil(t, got.CurrentQueueID)

	// Releasing an available table is an invalid state.
	err = s.ReleaseTable(ctx, table.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	assert.ErrorIs(t, s.OccupyTable(ctx, 9999, 1), ErrNotFound)
	assert.ErrorIs(t, s.ReleaseTable(ctx, 9999), ErrNotFound)
}

func TestListAvailableTables(t *testing.T) {
	db := newTestDB(t)
	s := NewGormStore(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&[]model.Table{
		{TableNumber: "T1", Capacity: 2, Status: model.TableStatusAvailable},
		{TableNumber: "T2", Capacity: 4, Status: model.TableStatusOccupied},
		{TableNumber: "T3", Capacity: 6, Status: model.TableStatusAvailable},
		{TableNumber: "T4", Capacity: 8, Status: model.TableStatusDisabled},
	}).Error)

	got, err := s.ListAvailableTables(ctx, 3)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "T3", got[0].TableNumber)

	got, err = s.ListAvailableTables(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Smallest table first.
	assert.Equal(t, "T1", got[0].TableNumber)
}

func TestUpsertDailyStats_Overwrites(t *testing.T) {
	db := newTestDB(t)
	s := NewGormStore(db)
	ctx := context.Background()

	day := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpsertDailyStats(ctx, &model.DailyStats{Date: day, TotalCustomers: 10, CustomersSeated: 7, AverageWaitMinutes: 12.5}))
	require.NoError(t, s.UpsertDailyStats(ctx, &model.DailyStats{Date: day, TotalCustomers: 11, CustomersSeated: 8, AverageWaitMinutes: 13.0}))

	var count int64
	require.NoError(t, db.Model(&model.DailyStats{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "re-aggregation must overwrite, not duplicate")

	got, err := s.GetDailyStats(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, int64(11), got.TotalCustomers)
	assert.Equal(t, int64(8), got.CustomersSeated)
}

func TestDeleteTerminalEntriesBefore(t *testing.T) {
	db := newTestDB(t)
	s := NewGormStore(db)
	ctx := context.Background()

	now := time.Now().UTC()
	old := now.Add(-72 * time.Hour)
	recent := now.Add(-1 * time.Hour)

	oldFinished := model.QueueEntry{CustomerName: "old finished", PartySize: 2, Status: model.EntryStatusFinished, CreatedAt: old, FinishedAt: &old}
	oldExpired := model.QueueEntry{CustomerName: "old expired", PartySize: 2, Status: model.EntryStatusExpired, CreatedAt: old, FinishedAt: &old}
	recentFinished := model.QueueEntry{CustomerName: "recent finished", PartySize: 2, Status: model.EntryStatusFinished, CreatedAt: recent, FinishedAt: &recent}
	active := model.QueueEntry{CustomerName: "active", PartySize: 2, Status: model.EntryStatusWaiting, CreatedAt: old}
	for _, e := range []*model.QueueEntry{&oldFinished, &oldExpired, &recentFinished, &active} {
		require.NoError(t, s.EnqueueEntry(ctx, e))
	}
	require.NoError(t, db.Create(&model.PushSubscription{Endpoint: "https://push/old", P256DH: "k", Auth: "a", QueueEntryID: oldFinished.ID}).Error)

	deleted, err := s.DeleteTerminalEntriesBefore(ctx, now.Add(-48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	var remaining []model.QueueEntry
	require.NoError(t, db.Order("id ASC").Find(&remaining).Error)
	require.Len(t, remaining, 2)
	assert.Equal(t, "recent finished", remaining[0].CustomerName)
	assert.Equal(t, "active", remaining[1].CustomerName, "active entries survive regardless of age")

	var subCount int64
	require.NoError(t, db.Model(&model.PushSubscription{}).Count(&subCount).Error)
	assert.Equal(t, int64(0), subCount, "subscriptions of deleted entries go with them")
}
