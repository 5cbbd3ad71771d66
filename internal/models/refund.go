package models

import (
	"time"
)

// RefundStatus mirrors PaymentStatus for the reversal ledger
type RefundStatus string

const (
	RefundStatusPending RefundStatus = "PENDING"
	RefundStatusSuccess RefundStatus = "SUCCESS"
	RefundStatusFailed  RefundStatus = "FAILED"
)

// Refund is an append-only reversal against a Payment. Rows are never
// updated after creation; a failed gateway call aborts before the row is
// written. The sum of SUCCESS refund amounts never exceeds the payment's
// amount, enforced under the payment row lock.
type Refund struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PaymentID      uint         `gorm:"index" json:"payment_id"`
	SchoolID       uint         `gorm:"index" json:"school_id"`
	StudentID      uint         `gorm:"index" json:"student_id"`
	Amount         float64      `gorm:"type:decimal(15,2)" json:"amount"`
	Reason         string       `gorm:"type:varchar(500)" json:"reason"`
	Status         RefundStatus `gorm:"type:varchar(20)" json:"status"`
	IdempotencyKey string       `gorm:"type:varchar(100)" json:"idempotency_key"`

	Payment Payment `gorm:"foreignKey:PaymentID" json:"payment,omitempty"`
}
