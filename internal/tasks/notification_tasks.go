package tasks

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"

	"schoolpay_backend/internal/models"
	"schoolpay_backend/internal/services"
)

// MaxDeliveryAttempts bounds the worker's redelivery of a failed message
const MaxDeliveryAttempts = 3

// Initialize registers the delivery handlers. Payment and refund messages
// share the channel-dispatch logic; the categories exist so templates can
// diverge later.
func Initialize(email *services.EmailService) {
	deliver := func(ctx context.Context, db *gorm.DB, msg services.NotificationMessage) error {
		return deliverToUser(ctx, db, email, msg)
	}
	RegisterHandler(services.NotifyCategoryPayment, deliver)
	RegisterHandler(services.NotifyCategoryRefund, deliver)
	GlobalRegistry.SetFallback(deliver)
}

// deliverToUser looks up the user's channel preference and delivers. Every
// attempt is recorded as a NotificationLog row.
func deliverToUser(ctx context.Context, db *gorm.DB, email *services.EmailService, msg services.NotificationMessage) error {
	entry := models.NotificationLog{
		UserID:   msg.UserID,
		Category: msg.Category,
		Title:    msg.Title,
		Attempt:  msg.Attempt,
	}

	var user models.User
	if err := db.WithContext(ctx).First(&user, msg.UserID).Error; err != nil {
		entry.Status = "failed"
		entry.Error = fmt.Sprintf("user lookup: %v", err)
		db.Create(&entry)
		return fmt.Errorf("user %d lookup failed: %w", msg.UserID, err)
	}

	entry.Channel = string(user.NotifyChannel)
	switch user.NotifyChannel {
	case models.NotificationChannelNone:
		log.Printf("Notification disabled for user %d, skipping", user.ID)
		entry.Status = "skipped"
		db.Create(&entry)
		return nil
	case models.NotificationChannelEmail:
		if err := email.SendEmail([]string{user.Email}, msg.Title, msg.Body); err != nil {
			entry.Status = "failed"
			entry.Error = err.Error()
			db.Create(&entry)
			return err
		}
		entry.Status = "sent"
		db.Create(&entry)
		return nil
	default:
		log.Printf("Unsupported notification channel %q for user %d, skipping", user.NotifyChannel, user.ID)
		entry.Status = "skipped"
		db.Create(&entry)
		return nil
	}
}
