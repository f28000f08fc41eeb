package notification

import (
	"context"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"waitlist-backend/internal/model"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of Sender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool delivers table-ready notifications for called queue entries.
// Dispatch never blocks the assignment path beyond the buffered channel.
type WorkerPool struct {
	size    int
	jobs    chan uint
	db      *gorm.DB
	webpush *webpush.Options
	sender  Sender
	log     *logrus.Logger
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options, log *logrus.Logger) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan uint, size),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		log:     log,
	}
}

// SetSender replaces the push sender, for tests.
func (wp *WorkerPool) SetSender(sender Sender) {
	wp.sender = sender
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	wp.log.Debugf("notification worker %d started", id)
	for {
		select {
		case entryID := <-wp.jobs:
			wp.notifyEntry(ctx, entryID)
		case <-ctx.Done():
			wp.log.Debugf("notification worker %d shutting down", id)
			return
		}
	}
}

// Dispatch sends a job to the worker pool.
func (wp *WorkerPool) Dispatch(entryID uint) {
	wp.jobs <- entryID
}

// notifyEntry fetches the subscriptions registered for a queue entry and
// sends each one a table-ready message.
func (wp *WorkerPool) notifyEntry(ctx context.Context, entryID uint) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Where("queue_entry_id = ?", entryID).
		Find(&subscriptions).Error
	if err != nil {
		wp.log.Errorf("error fetching subscriptions for entry %d: %v", entryID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	var entry model.QueueEntry
	if err := wp.db.WithContext(ctx).First(&entry, entryID).Error; err != nil {
		wp.log.Errorf("error fetching entry %d: %v", entryID, err)
		return
	}

	message := fmt.Sprintf("%s, your table is ready!", entry.CustomerName)
	if entry.TableID != nil {
		var table model.Table
		if err := wp.db.WithContext(ctx).Select("table_number").First(&table, *entry.TableID).Error; err == nil {
			message = fmt.Sprintf("%s, your table is ready: table %s.", entry.CustomerName, table.TableNumber)
		}
	}

	wp.log.Infof("sending %d notifications for entry %d", len(subscriptions), entryID)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

// sendNotification sends a single web push notification and prunes the
// subscription when the push service reports it gone.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		wp.log.Errorf("error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		wp.log.Infof("subscription %s is expired, deleting", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			wp.log.Errorf("failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
