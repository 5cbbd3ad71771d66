package models

import (
	"time"

	"gorm.io/gorm"
)

// UserRole represents the role of a user within their school
type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"
	UserRoleStudent UserRole = "student"
)

// NotificationChannel selects how the worker delivers notifications to a user
type NotificationChannel string

const (
	NotificationChannelEmail NotificationChannel = "email"
	NotificationChannelNone  NotificationChannel = "none"
)

// User represents an authenticated account. The Firebase UID links the
// session cookie to the local row; Role and SchoolID define the caller's
// scope for every financial operation.
type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	FirebaseUID   string              `gorm:"type:varchar(128);uniqueIndex" json:"firebase_uid"`
	Name          string              `gorm:"type:varchar(255)" json:"name"`
	Email         string              `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	Role          UserRole            `gorm:"type:varchar(20);default:'student'" json:"role"`
	SchoolID      uint                `gorm:"index" json:"school_id"`
	StudentID     *uint               `gorm:"index" json:"student_id,omitempty"`
	NotifyChannel NotificationChannel `gorm:"type:varchar(20);default:'email'" json:"notify_channel"`

	School  School   `gorm:"foreignKey:SchoolID" json:"school,omitempty"`
	Student *Student `gorm:"foreignKey:StudentID" json:"student,omitempty"`
}

// Principal is the resolved caller placed in the request context by the
// auth middleware. The engine trusts this scope and re-validates every
// entity against it.
type Principal struct {
	UserID    uint
	StudentID *uint
	Role      UserRole
	SchoolID  uint
}

// IsAdmin reports whether the principal can perform school-admin operations
func (p Principal) IsAdmin() bool {
	return p.Role == UserRoleAdmin
}

// OwnsStudent reports whether the principal is the given student
func (p Principal) OwnsStudent(studentID uint) bool {
	return p.StudentID != nil && *p.StudentID == studentID
}
