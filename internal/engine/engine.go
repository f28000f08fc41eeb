// Package engine implements the waitlist and table-assignment engine: it
// admits walk-in customers into the queue, matches them to tables, expires
// stale entries and rolls up daily activity. All multi-record writes run in a
// single store transaction, and every status change is a compare-and-set, so
// concurrent staff terminals and the background sweeper race safely.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"waitlist-backend/config"
	"waitlist-backend/internal/model"
	"waitlist-backend/internal/parse"
	"waitlist-backend/internal/store"
)

// Notifier dispatches a table-ready notification for a queue entry. Dispatch
// must not block; delivery happens out of band.
type Notifier interface {
	Dispatch(entryID uint)
}

// Engine drives the queue entry and table state machines.
type Engine struct {
	store    store.Store
	settings config.SettingsSource
	log      *logrus.Logger
	notifier Notifier
	now      func() time.Time
}

// New creates an engine using the real clock.
func New(s store.Store, settings config.SettingsSource, log *logrus.Logger) *Engine {
	return &Engine{
		store:    s,
		settings: settings,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetNotifier wires an optional table-ready notifier.
func (e *Engine) SetNotifier(n Notifier) {
	e.notifier = n
}

// SetClock replaces the engine clock, for deterministic tests.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// EnqueueParams carries the input for a new waitlist entry.
type EnqueueParams struct {
	CustomerName string
	Contact      string
	PartySize    int
	Priority     string
	CreatedBy    string
}

// Enqueue validates the request and creates a waiting entry.
func (e *Engine) Enqueue(ctx context.Context, params EnqueueParams) (*model.QueueEntry, error) {
	if params.PartySize < 1 {
		return nil, fmt.Errorf("party size must be at least 1: %w", store.ErrValidation)
	}

	settings := e.settings.Waitlist()
	priority := params.Priority
	if priority == "" {
		priority = model.PriorityNormal
	}
	if !settings.KnownPriority(priority) {
		return nil, fmt.Errorf("unknown priority %q: %w", priority, store.ErrValidation)
	}

	contact := params.Contact
	if contact != "" {
		normalized, err := parse.Phone(contact)
		if err != nil {
			return nil, fmt.Errorf("invalid contact number %q: %w", params.Contact, store.ErrValidation)
		}
		contact = normalized
	}

	entry := &model.QueueEntry{
		CustomerName:   params.CustomerName,
		Contact:        contact,
		PartySize:      params.PartySize,
		Priority:       priority,
		PriorityWeight: settings.WeightFor(priority),
		Status:         model.EntryStatusWaiting,
		CreatedBy:      params.CreatedBy,
		CreatedAt:      e.now(),
	}
	if err := e.store.EnqueueEntry(ctx, entry); err != nil {
		return nil, err
	}

	e.log.Infof("enqueued entry %d: party of %d (%s)", entry.ID, entry.PartySize, entry.Priority)
	return entry, nil
}

// CallNext assigns the best-fit waiting entry to the given table: the highest
// priority, earliest created entry whose party fits the table's capacity.
// Entry and table mutate in one transaction. A nil entry with a nil error
// means no waiting entry fits the table.
func (e *Engine) CallNext(ctx context.Context, tableID uint) (*model.QueueEntry, error) {
	var assigned *model.QueueEntry

	err := e.store.Transaction(ctx, func(tx store.Store) error {
		table, err := tx.GetTable(ctx, tableID)
		if err != nil {
			return err
		}
		if table.Status != model.TableStatusAvailable {
			return fmt.Errorf("table %d is %s: %w", tableID, table.Status, store.ErrConflict)
		}

		waiting, err := tx.ListEntriesByStatus(ctx, model.EntryStatusWaiting)
		if err != nil {
			return err
		}
		var pick *model.QueueEntry
		for i := range waiting {
			if waiting[i].PartySize <= table.Capacity {
				pick = &waiting[i]
				break
			}
		}
		if pick == nil {
			return nil
		}

		now := e.now()
		err = tx.UpdateEntryStatus(ctx, pick.ID, model.EntryStatusWaiting, model.EntryStatusCalled, map[string]any{
			"table_id":  tableID,
			"called_at": now,
		})
		if err != nil {
			return err
		}
		if err := tx.OccupyTable(ctx, tableID, pick.ID); err != nil {
			return err
		}

		pick.Status = model.EntryStatusCalled
		pick.TableID = &tableID
		pick.CalledAt = &now
		assigned = pick
		return nil
	})
	if err != nil {
		return nil, err
	}
	if assigned == nil {
		return nil, nil
	}

	e.log.Infof("called entry %d to table %d", assigned.ID, tableID)
	if e.notifier != nil {
		e.notifier.Dispatch(assigned.ID)
	}
	return assigned, nil
}

// Seat confirms the called party has sat down. The table stays occupied and
// keeps its occupant link.
func (e *Engine) Seat(ctx context.Context, entryID uint) (*model.QueueEntry, error) {
	now := e.now()
	err := e.store.UpdateEntryStatus(ctx, entryID, model.EntryStatusCalled, model.EntryStatusSeated, map[string]any{
		"seated_at": now,
	})
	if err != nil {
		return nil, err
	}
	e.log.Infof("seated entry %d", entryID)
	return e.store.GetEntry(ctx, entryID)
}

// Finish completes a seated party and returns the table to the available
// pool, atomically.
func (e *Engine) Finish(ctx context.Context, entryID uint) (*model.QueueEntry, error) {
	now := e.now()
	err := e.store.Transaction(ctx, func(tx store.Store) error {
		entry, err := tx.GetEntry(ctx, entryID)
		if err != nil {
			return err
		}
		tableID := entry.TableID

		err = tx.UpdateEntryStatus(ctx, entryID, model.EntryStatusSeated, model.EntryStatusFinished, map[string]any{
			"finished_at": now,
			"table_id":    nil,
		})
		if err != nil {
			return err
		}
		if tableID != nil {
			if err := tx.ReleaseTable(ctx, *tableID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.log.Infof("finished entry %d", entryID)
	return e.store.GetEntry(ctx, entryID)
}

// Cancel terminates an entry from waiting or called. Cancelling a called
// entry also releases its held table.
func (e *Engine) Cancel(ctx context.Context, entryID uint) (*model.QueueEntry, error) {
	now := e.now()
	err := e.store.Transaction(ctx, func(tx store.Store) error {
		entry, err := tx.GetEntry(ctx, entryID)
		if err != nil {
			return err
		}

		switch entry.Status {
		case model.EntryStatusWaiting:
			return tx.UpdateEntryStatus(ctx, entryID, model.EntryStatusWaiting, model.EntryStatusCancelled, map[string]any{
				"finished_at": now,
			})
		case model.EntryStatusCalled:
			err := tx.UpdateEntryStatus(ctx, entryID, model.EntryStatusCalled, model.EntryStatusCancelled, map[string]any{
				"finished_at": now,
				"table_id":    nil,
			})
			if err != nil {
				return err
			}
			if entry.TableID != nil {
				return tx.ReleaseTable(ctx, *entry.TableID)
			}
			return nil
		default:
			return fmt.Errorf("queue entry %d is %s: %w", entryID, entry.Status, store.ErrInvalidTransition)
		}
	})
	if err != nil {
		return nil, err
	}
	e.log.Infof("cancelled entry %d", entryID)
	return e.store.GetEntry(ctx, entryID)
}
