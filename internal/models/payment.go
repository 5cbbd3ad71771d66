package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// PaymentStatus represents the lifecycle of a gateway transaction attempt.
// A payment transitions to SUCCESS exactly once and never back.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// PaymentGateway identifies which provider handled a payment
type PaymentGateway string

const (
	PaymentGatewayJuspay   PaymentGateway = "juspay"
	PaymentGatewayMidtrans PaymentGateway = "midtrans"
	// Recorded at the school office; no external gateway involved,
	// so refunds skip the online reversal.
	PaymentGatewayManual PaymentGateway = "manual"
)

// Payment records one gateway transaction attempt against a student.
// EventRegistrationID marks a non-fee payment; those never touch the
// fee ledger and are excluded from fee-refund eligibility.
type Payment struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	SchoolID             uint            `gorm:"index" json:"school_id"`
	StudentID            uint            `gorm:"index" json:"student_id"`
	Amount               float64         `gorm:"type:decimal(15,2)" json:"amount"`
	Status               PaymentStatus   `gorm:"type:varchar(20);default:'PENDING'" json:"status"`
	Gateway              PaymentGateway  `gorm:"type:varchar(50)" json:"gateway"`
	OrderID              string          `gorm:"type:varchar(100);uniqueIndex" json:"order_id"`
	GatewayTransactionID string          `gorm:"type:varchar(100);index" json:"gateway_transaction_id"`
	EventRegistrationID  *uint           `gorm:"index" json:"event_registration_id,omitempty"`
	SessionMetadata      json.RawMessage `gorm:"type:jsonb" json:"session_metadata,omitempty"`
	PaidAt               *time.Time      `json:"paid_at,omitempty"`

	// Relationships
	Student           Student            `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Refunds           []Refund           `gorm:"foreignKey:PaymentID" json:"refunds,omitempty"`
	EventRegistration *EventRegistration `gorm:"foreignKey:EventRegistrationID" json:"event_registration,omitempty"`
}

// EventRegistrationStatus tracks a non-fee registration paid through the
// same gateway flow
type EventRegistrationStatus string

const (
	EventRegistrationPending EventRegistrationStatus = "pending"
	EventRegistrationPaid    EventRegistrationStatus = "paid"
)

// EventRegistration is the non-fee purpose a Payment may be linked to
// (workshops, school events). Verification updates its status instead of
// the fee ledger.
type EventRegistration struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	SchoolID  uint                    `gorm:"index" json:"school_id"`
	StudentID uint                    `gorm:"index" json:"student_id"`
	EventName string                  `gorm:"type:varchar(255)" json:"event_name"`
	Amount    float64                 `gorm:"type:decimal(15,2)" json:"amount"`
	Status    EventRegistrationStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`

	Student Student `gorm:"foreignKey:StudentID" json:"student,omitempty"`
}
