package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waitlist-backend/internal/model"
	"waitlist-backend/internal/store"
)

func TestCleanupExpiredEntries(t *testing.T) {
	eng, _, db, clock := newTestEngine(t)
	ctx := context.Background()
	table := seedTable(t, db, "T1", 4)

	// A party that will sit in the waiting list too long.
	staleWaiting, err := eng.Enqueue(ctx, EnqueueParams{CustomerName: "stale", PartySize: 6})
	require.NoError(t, err)

	// A party called to a table but never confirmed.
	staleCalled, err := eng.Enqueue(ctx, EnqueueParams{CustomerName: "no-show", PartySize: 2})
	require.NoError(t, err)
	_, err = eng.CallNext(ctx, table.ID)
	require.NoError(t, err)

	// A fresh party that must survive the sweep.
	clock.Advance(20 * time.Minute)
	fresh, err := eng.Enqueue(ctx, EnqueueParams{CustomerName: "fresh", PartySize: 2})
	require.NoError(t, err)

	// 35 minutes after enqueue: past max_wait (30) and call_timeout (15).
	clock.Advance(15 * time.Minute)
	result, err := eng.CleanupExpiredEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ExpiredWaiting)
	assert.Equal(t, 1, result.ExpiredCalled)
	assert.Equal(t, 2, result.Total)

	got, err := eng.store.GetEntry(ctx, staleWaiting.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EntryStatusExpired, got.Status)
	assert.NotNil(t, got.FinishedAt)

	got, err = eng.store.GetEntry(ctx, staleCalled.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EntryStatusExpired, got.Status)
	assert.Nil(t, got.TableID)

	gotTable, err := eng.store.GetTable(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TableStatusAvailable, gotTable.Status, "an expired call frees its table")
	assert.Nil(t, gotTable.CurrentQueueID)

	got, err = eng.store.GetEntry(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EntryStatusWaiting, got.Status)

	// Second run with no intervening mutation: nothing left to expire.
	result, err = eng.CleanupExpiredEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, CleanupResult{}, result)

	assertLinkInvariant(t, db)
}

func TestCleanupExpiredEntries_SeatWinsTheRace(t *testing.T) {
	eng, _, db, clock := newTestEngine(t)
	ctx := context.Background()
	table := seedTable(t, db, "T1", 4)

	entry, err := eng.Enqueue(ctx, EnqueueParams{CustomerName: "slow but seated", PartySize: 2})
	require.NoError(t, err)
	_, err = eng.CallNext(ctx, table.ID)
	require.NoError(t, err)

	// The call is well past its timeout, but the party sits down just
	// before the sweep writes. The expiration must lose quietly.
	clock.Advance(25 * time.Minute)
	_, err = eng.Seat(ctx, entry.ID)
	require.NoError(t, err)

	result, err := eng.CleanupExpiredEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)

	got, err := eng.store.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EntryStatusSeated, got.Status)

	gotTable, err := eng.store.GetTable(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TableStatusOccupied, gotTable.Status)
	assertLinkInvariant(t, db)
}

func TestCleanupExpiredEntries_ExactlyOneTransitionCommits(t *testing.T) {
	eng, _, db, clock := newTestEngine(t)
	ctx := context.Background()
	table := seedTable(t, db, "T1", 4)

	entry, err := eng.Enqueue(ctx, EnqueueParams{CustomerName: "race", PartySize: 2})
	require.NoError(t, err)
	_, err = eng.CallNext(ctx, table.ID)
	require.NoError(t, err)
	clock.Advance(20 * time.Minute)

	// The sweep expires the called entry first; the late seat must then
	// observe the compare-and-set failure instead of resurrecting it.
	result, err := eng.CleanupExpiredEntries(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, result.ExpiredCalled)

	_, err = eng.Seat(ctx, entry.ID)
	assert.ErrorIs(t, err, store.ErrInvalidTransition)

	got, err := eng.store.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EntryStatusExpired, got.Status)
	assertLinkInvariant(t, db)
}

func TestDeleteOldFinishedEntries(t *testing.T) {
	eng, s, db, clock := newTestEngine(t)
	ctx := context.Background()
	table := seedTable(t, db, "T1", 4)

	// Finish one party, then let two full retention windows pass.
	entry, err := eng.Enqueue(ctx, EnqueueParams{CustomerName: "long gone", PartySize: 2})
	require.NoError(t, err)
	_, err = eng.CallNext(ctx, table.ID)
	require.NoError(t, err)
	_, err = eng.Seat(ctx, entry.ID)
	require.NoError(t, err)
	_, err = eng.Finish(ctx, entry.ID)
	require.NoError(t, err)

	clock.Advance(96 * time.Hour)

	// A recent cancellation stays inside the window.
	recent, err := eng.Enqueue(ctx, EnqueueParams{CustomerName: "recent", PartySize: 2})
	require.NoError(t, err)
	_, err = eng.Cancel(ctx, recent.ID)
	require.NoError(t, err)

	deleted, err := eng.DeleteOldFinishedEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = s.GetEntry(ctx, entry.ID)
	assert.Error(t, err)
	_, err = s.GetEntry(ctx, recent.ID)
	assert.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&model.QueueEntry{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
