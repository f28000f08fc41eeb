package model

import "time"

// PushSubscription holds a browser push subscription registered against a
// single waitlist entry, so the customer can be notified when their table is
// ready.
type PushSubscription struct {
	Endpoint     string    `gorm:"primaryKey"`
	P256DH       string    `gorm:"column:p256dh;not null"`
	Auth         string    `gorm:"not null"`
	QueueEntryID uint      `gorm:"index;not null"`
	CreatedAt    time.Time `gorm:"not null"`
}
