package scheduler

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"waitlist-backend/config"
	"waitlist-backend/internal/engine"
	"waitlist-backend/internal/model"
	"waitlist-backend/internal/store"
)

var testDBSeq atomic.Int64

// setupScheduler wires a scheduler and engine over a fresh in-memory database
// with the clock pinned to 2026-08-31 01:00 UTC.
func setupScheduler(t *testing.T) (*Scheduler, store.Store, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:scheduler_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Table{}, &model.QueueEntry{}, &model.DailyStats{}, &model.PushSubscription{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	settings := config.StaticSettings{
		MaxWaitMinutes:         30,
		CallTimeoutMinutes:     15,
		FinishedRetentionHours: 48,
		PriorityWeights:        map[string]int{model.PriorityNormal: 0, model.PriorityVIP: 10},
	}

	clock := func() time.Time { return time.Date(2026, 8, 31, 1, 0, 0, 0, time.UTC) }

	s := store.NewGormStore(db)
	eng := engine.New(s, settings, logger)
	eng.SetClock(clock)

	cfg := config.SchedulerConfig{
		Enabled:         true,
		SweepInterval:   15 * time.Minute,
		AggregateHour:   0,
		AggregateMinute: 30,
	}
	sched := New(cfg, eng, logger)
	sched.SetClock(clock)
	return sched, s, db
}

func TestRunSweepOnce_ExpiresStaleEntries(t *testing.T) {
	sched, s, _ := setupScheduler(t)
	ctx := context.Background()

	// An entry enqueued two hours before the pinned clock, well past the
	// 30-minute wait limit.
	stale := model.QueueEntry{
		CustomerName: "stale", PartySize: 2, Status: model.EntryStatusWaiting,
		CreatedAt: time.Date(2026, 8, 30, 23, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.EnqueueEntry(ctx, &stale))

	sched.RunSweepOnce(ctx)

	got, err := s.GetEntry(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EntryStatusExpired, got.Status)
}

func TestRunAggregateOnce_RollsUpYesterday(t *testing.T) {
	sched, s, _ := setupScheduler(t)
	ctx := context.Background()

	// Two terminal entries created on 2026-08-30, yesterday relative to the
	// pinned clock.
	created := time.Date(2026, 8, 30, 19, 0, 0, 0, time.UTC)
	seatedAt := created.Add(12 * time.Minute)
	finishedAt := created.Add(70 * time.Minute)
	require.NoError(t, s.EnqueueEntry(ctx, &model.QueueEntry{
		CustomerName: "done", PartySize: 2, Status: model.EntryStatusFinished,
		CreatedAt: created, SeatedAt: &seatedAt, FinishedAt: &finishedAt,
	}))
	expiredAt := created.Add(40 * time.Minute)
	require.NoError(t, s.EnqueueEntry(ctx, &model.QueueEntry{
		CustomerName: "gone", PartySize: 4, Status: model.EntryStatusExpired,
		CreatedAt: created, FinishedAt: &expiredAt,
	}))

	sched.RunAggregateOnce(ctx)

	stats, err := s.GetDailyStats(ctx, time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalCustomers)
	assert.Equal(t, int64(1), stats.CustomersSeated)
	assert.Equal(t, int64(1), stats.CustomersExpiredOrCanceled)
	assert.InDelta(t, 12.0, stats.AverageWaitMinutes, 0.01)
}

func TestRunAggregateOnce_AppliesRetention(t *testing.T) {
	sched, s, db := setupScheduler(t)
	ctx := context.Background()

	// Terminal three days ago, well past the 48h retention window.
	created := time.Date(2026, 8, 27, 19, 0, 0, 0, time.UTC)
	finishedAt := created.Add(time.Hour)
	require.NoError(t, s.EnqueueEntry(ctx, &model.QueueEntry{
		CustomerName: "ancient", PartySize: 2, Status: model.EntryStatusFinished,
		CreatedAt: created, FinishedAt: &finishedAt,
	}))

	sched.RunAggregateOnce(ctx)

	var count int64
	require.NoError(t, db.Model(&model.QueueEntry{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestStartStop(t *testing.T) {
	sched, _, _ := setupScheduler(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched.Start(ctx)
	sched.Stop()
}

func TestStart_Disabled(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	sched := New(config.SchedulerConfig{Enabled: false}, nil, logger)
	sched.Start(context.Background())
	sched.Stop() // must not block waiting for loops that never started
}

func TestUntilNextAggregation(t *testing.T) {
	sched, _, _ := setupScheduler(t)

	// Clock is pinned to 01:00; the 00:30 slot has passed, so the next run
	// is 23h30m out.
	assert.Equal(t, 23*time.Hour+30*time.Minute, sched.untilNextAggregation())
}
