package models

import (
	"time"

	"gorm.io/gorm"
)

// School is the tenant boundary; every financial row carries its SchoolID
// and is re-validated against the caller's scope before any mutation.
type School struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name    string `gorm:"type:varchar(255)" json:"name"`
	Address string `gorm:"type:varchar(500)" json:"address"`

	// Relationships
	Students []Student `gorm:"foreignKey:SchoolID" json:"students,omitempty"`
}

// GatewayAuthStyle selects how the HTTP gateway's Basic auth header is built
type GatewayAuthStyle string

const (
	// merchantId:apiKey
	GatewayAuthMerchantKey GatewayAuthStyle = "merchant_key"
	// apiKey: (empty password)
	GatewayAuthKeyOnly GatewayAuthStyle = "key_only"
)

// SchoolGatewayConfig holds per-school gateway credentials. A school without
// a row (or with blank credentials) falls back to the process-wide defaults.
type SchoolGatewayConfig struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	SchoolID   uint             `gorm:"uniqueIndex" json:"school_id"`
	MerchantID string           `gorm:"type:varchar(100)" json:"merchant_id"`
	APIKey     string           `gorm:"type:varchar(255)" json:"-"`
	AuthStyle  GatewayAuthStyle `gorm:"type:varchar(20);default:'merchant_key'" json:"auth_style"`
	BaseURL    string           `gorm:"type:varchar(255)" json:"base_url"`

	School School `gorm:"foreignKey:SchoolID" json:"school,omitempty"`
}
