package model

import "time"

// Queue entry statuses. An entry moves waiting -> called -> seated -> finished,
// with cancelled/expired as the terminal side exits.
const (
	EntryStatusWaiting   = "waiting"
	EntryStatusCalled    = "called"
	EntryStatusSeated    = "seated"
	EntryStatusFinished  = "finished"
	EntryStatusCancelled = "cancelled"
	EntryStatusExpired   = "expired"
)

// Priority tier names. Weights are resolved from settings at enqueue time.
const (
	PriorityNormal = "normal"
	PriorityVIP    = "vip"
)

// QueueEntry is one customer's waitlist ticket.
//
// TableID is set exactly while the entry is called or seated; FinishedAt is
// the terminal timestamp for finished, cancelled and expired entries alike
// and is what the retention sweep cuts on.
type QueueEntry struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	CustomerName   string `gorm:"size:128;not null" json:"customer_name"`
	Contact        string `gorm:"size:32" json:"contact"`
	PartySize      int    `gorm:"not null" json:"party_size"`
	Priority       string `gorm:"size:16;not null;default:'normal'" json:"priority"`
	PriorityWeight int    `gorm:"not null;index:idx_queue_entries_waitlist_order,priority:2" json:"-"`
	Status         string `gorm:"size:16;not null;index:idx_queue_entries_waitlist_order,priority:1" json:"status"`
	TableID        *uint  `gorm:"index" json:"table_id,omitempty"`
	CreatedBy      string `gorm:"size:64" json:"created_by,omitempty"`

	CreatedAt  time.Time  `gorm:"not null;index:idx_queue_entries_waitlist_order,priority:3" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null" json:"updated_at"`
	CalledAt   *time.Time `json:"called_at,omitempty"`
	SeatedAt   *time.Time `json:"seated_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Active reports whether the entry still participates in the live waitlist.
func (e *QueueEntry) Active() bool {
	switch e.Status {
	case EntryStatusWaiting, EntryStatusCalled, EntryStatusSeated:
		return true
	}
	return false
}

// TerminalEntryStatuses are the statuses eligible for retention deletion and
// daily aggregation.
var TerminalEntryStatuses = []string{EntryStatusFinished, EntryStatusCancelled, EntryStatusExpired}
