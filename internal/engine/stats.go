package engine

import (
	"context"
	"time"

	"waitlist-backend/internal/model"
)

// AggregateDailyStats rolls the 24-hour window of forDate (by entry creation
// time, UTC) into one DailyStats row. The row is upserted keyed on the date,
// so re-aggregating a day overwrites rather than duplicates.
func (e *Engine) AggregateDailyStats(ctx context.Context, forDate time.Time) (*model.DailyStats, error) {
	day := time.Date(forDate.Year(), forDate.Month(), forDate.Day(), 0, 0, 0, 0, time.UTC)
	entries, err := e.store.ListEntriesCreatedBetween(ctx, day, day.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}

	stats := &model.DailyStats{Date: day, TotalCustomers: int64(len(entries))}
	var waitedTotal time.Duration
	var waitedCount int64
	for _, entry := range entries {
		switch entry.Status {
		case model.EntryStatusExpired, model.EntryStatusCancelled:
			stats.CustomersExpiredOrCanceled++
		}

		seated := entry.SeatedAt != nil ||
			entry.Status == model.EntryStatusSeated ||
			entry.Status == model.EntryStatusFinished
		if !seated {
			continue
		}
		stats.CustomersSeated++

		// Wait ends when the party sat down; fall back to the finish time
		// for rows missing the seated timestamp.
		switch {
		case entry.SeatedAt != nil:
			waitedTotal += entry.SeatedAt.Sub(entry.CreatedAt)
			waitedCount++
		case entry.FinishedAt != nil:
			waitedTotal += entry.FinishedAt.Sub(entry.CreatedAt)
			waitedCount++
		}
	}
	if waitedCount > 0 {
		stats.AverageWaitMinutes = waitedTotal.Minutes() / float64(waitedCount)
	}

	if err := e.store.UpsertDailyStats(ctx, stats); err != nil {
		return nil, err
	}

	e.log.Infof("aggregated %s: %d total, %d seated, %d expired/cancelled, avg wait %.1f min",
		day.Format("2006-01-02"), stats.TotalCustomers, stats.CustomersSeated,
		stats.CustomersExpiredOrCanceled, stats.AverageWaitMinutes)
	return stats, nil
}
