package models

import (
	"time"
)

// NotificationLog records one delivery attempt made by the worker. Kept for
// audit; the financial flow never reads or waits on these rows.
type NotificationLog struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID   uint   `gorm:"index" json:"user_id"`
	Category string `gorm:"type:varchar(50)" json:"category"`
	Title    string `gorm:"type:varchar(255)" json:"title"`
	Channel  string `gorm:"type:varchar(20)" json:"channel"`
	Attempt  int    `json:"attempt"`
	Status   string `gorm:"type:varchar(20)" json:"status"` // sent, skipped, failed
	Error    string `gorm:"type:text" json:"error,omitempty"`
}
