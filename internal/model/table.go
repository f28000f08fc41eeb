package model

import "time"

// Table statuses.
const (
	TableStatusAvailable = "available"
	TableStatusOccupied  = "occupied"
	TableStatusDisabled  = "disabled"
)

// Table is one physical table. Rows are provisioned from configuration; the
// engine only ever mutates Status and CurrentQueueID.
//
// Invariant: CurrentQueueID is non-nil iff Status is occupied, and the
// referenced QueueEntry points back via TableID while called or seated.
type Table struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	TableNumber    string `gorm:"uniqueIndex;size:32;not null" json:"table_number"`
	Capacity       int    `gorm:"not null" json:"capacity"`
	Location       string `gorm:"size:64" json:"location,omitempty"`
	Status         string `gorm:"size:16;not null;default:'available'" json:"status"`
	CurrentQueueID *uint  `gorm:"index" json:"current_queue_id,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
