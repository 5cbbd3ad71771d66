package services

import (
	"context"
	"log"
	"time"
)

// Notification categories used by the fee engine
const (
	NotifyCategoryPayment = "payment_completed"
	NotifyCategoryRefund  = "refund_completed"
)

// NotificationMessage is the payload handed off to the worker queue
type NotificationMessage struct {
	UserID     uint      `json:"user_id"`
	Category   string    `json:"category"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Attempt    int       `json:"attempt"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Notifier is the fire-and-forget notification hand-off. Implementations
// must never block the financial flow or propagate failures; Notify has no
// error return on purpose.
type Notifier interface {
	Notify(ctx context.Context, userID uint, category, title, body string)
}

// NotificationQueueKey is the Redis list the worker consumes
const NotificationQueueKey = "schoolpay:notifications"

// QueueNotifier pushes messages onto the Redis queue. Enqueue failures are
// logged and swallowed; a notification outage cannot block fee collection.
type QueueNotifier struct {
	cache *RedisCache
}

func NewQueueNotifier(cache *RedisCache) *QueueNotifier {
	return &QueueNotifier{cache: cache}
}

func (n *QueueNotifier) Notify(ctx context.Context, userID uint, category, title, body string) {
	if n.cache == nil {
		log.Printf("Notification dropped (queue not configured): user=%d category=%s", userID, category)
		return
	}

	msg := NotificationMessage{
		UserID:     userID,
		Category:   category,
		Title:      title,
		Body:       body,
		Attempt:    1,
		EnqueuedAt: time.Now(),
	}

	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	if err := n.cache.QueuePush(pushCtx, NotificationQueueKey, msg); err != nil {
		log.Printf("Failed to enqueue notification for user %d: %v", userID, err)
	}
}
