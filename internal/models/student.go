package models

import (
	"time"

	"gorm.io/gorm"
)

// Student is the billable party. ClassName/Section feed the extra-fee
// target selector.
type Student struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	SchoolID  uint   `gorm:"index" json:"school_id"`
	Name      string `gorm:"type:varchar(255)" json:"name"`
	Email     string `gorm:"type:varchar(255)" json:"email"`
	ClassName string `gorm:"type:varchar(50);index" json:"class_name"`
	Section   string `gorm:"type:varchar(20)" json:"section"`

	// Relationships
	School   School      `gorm:"foreignKey:SchoolID" json:"school,omitempty"`
	Fee      *StudentFee `gorm:"foreignKey:StudentID" json:"fee,omitempty"`
	Payments []Payment   `gorm:"foreignKey:StudentID" json:"payments,omitempty"`
}

// StudentFee is the per-student fee ledger, one row per student.
// AmountPaid and RemainingFee are never negative; every mutation goes
// through Credit/Debit/ApplyScheduleDelta inside a transaction.
type StudentFee struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	StudentID       uint    `gorm:"uniqueIndex" json:"student_id"`
	SchoolID        uint    `gorm:"index" json:"school_id"`
	TotalFee        float64 `gorm:"type:decimal(15,2)" json:"total_fee"`
	DiscountPercent float64 `gorm:"type:decimal(5,2)" json:"discount_percent"`
	FinalFee        float64 `gorm:"type:decimal(15,2)" json:"final_fee"`
	AmountPaid      float64 `gorm:"type:decimal(15,2)" json:"amount_paid"`
	RemainingFee    float64 `gorm:"type:decimal(15,2)" json:"remaining_fee"`

	Student Student `gorm:"foreignKey:StudentID" json:"student,omitempty"`
}

// Credit records a verified payment against the ledger.
func (f *StudentFee) Credit(amount float64) {
	f.AmountPaid += amount
	f.RemainingFee = floorZero(f.FinalFee - f.AmountPaid)
}

// Debit records a refund against the ledger. AmountPaid floors at zero.
func (f *StudentFee) Debit(amount float64) {
	f.AmountPaid = floorZero(f.AmountPaid - amount)
	f.RemainingFee = floorZero(f.FinalFee - f.AmountPaid)
}

// ApplyScheduleDelta applies a pre-discount fee-schedule change. The
// student's own discount applies to FinalFee and RemainingFee.
func (f *StudentFee) ApplyScheduleDelta(delta float64) {
	discounted := delta * (1 - f.DiscountPercent/100)
	f.TotalFee += delta
	f.FinalFee += discounted
	f.RemainingFee = floorZero(f.RemainingFee + discounted)
}

func floorZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
