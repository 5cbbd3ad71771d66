package models

import (
	"time"

	"gorm.io/gorm"
)

// ExtraFeeTarget selects which students a fee-schedule rule applies to
type ExtraFeeTarget string

const (
	ExtraFeeTargetSchool  ExtraFeeTarget = "SCHOOL"
	ExtraFeeTargetClass   ExtraFeeTarget = "CLASS"
	ExtraFeeTargetSection ExtraFeeTarget = "SECTION"
	ExtraFeeTargetStudent ExtraFeeTarget = "STUDENT"
)

// ExtraFee is a fee-schedule rule. Amount is pre-discount; propagation
// applies each matched student's own discount when writing the ledger.
type ExtraFee struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	SchoolID   uint           `gorm:"index" json:"school_id"`
	Name       string         `gorm:"type:varchar(255)" json:"name"`
	Amount     float64        `gorm:"type:decimal(15,2)" json:"amount"`
	TargetType ExtraFeeTarget `gorm:"type:varchar(20)" json:"target_type"`

	// Selector references; which ones are read depends on TargetType
	ClassName string `gorm:"type:varchar(50)" json:"class_name,omitempty"`
	Section   string `gorm:"type:varchar(20)" json:"section,omitempty"`
	StudentID *uint  `gorm:"index" json:"student_id,omitempty"`
}
