package Models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification types
const (
	NotificationAssignment = "work_order_assigned"
	NotificationCompletion = "work_order_completed"
	NotificationVerified   = "work_order_verified"
	NotificationOverdue    = "work_order_overdue"
)

// Notification is the in-app inbox row; push/email/slack delivery happens in
// the Notifications package on top of it.
type Notification struct {
	gorm.Model
	CompanyID uint           `json:"company_id" gorm:"index;not null"`
	UserID    uint           `json:"user_id" gorm:"index;not null"`
	Type      string         `json:"type" gorm:"size:32;not null"`
	Title     string         `json:"title" gorm:"not null"`
	Body      string         `json:"body" gorm:"type:text"`
	Data      datatypes.JSON `json:"data,omitempty"`
	// Column named is_read since READ is reserved in MySQL
	Read bool `json:"read" gorm:"column:is_read;default:false"`
}

// FCMToken stores a user's device token for Firebase push delivery.
type FCMToken struct {
	gorm.Model
	UserID uint   `json:"user_id" gorm:"index;not null"`
	Value  string `json:"value" gorm:"not null"`
}
