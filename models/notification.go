package models

import (
	"time"

	"gorm.io/gorm"
)

// Notification channels
const (
	ChannelInApp = "in_app"
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// Notification event types
const (
	NotificationInspectionScheduled = "inspection_scheduled"
	NotificationInspectionStarted   = "inspection_started"
	NotificationInspectionCompleted = "inspection_completed"
	NotificationRequestUpdated      = "service_request_updated"
	NotificationInvoiceSent         = "invoice_sent"
	NotificationInvoicePaid         = "invoice_paid"
	NotificationMessageReceived     = "message_received"
)

// Notification is an in-app notification record. It also records which
// channels dispatch was attempted on. Write-once except for read state.
type Notification struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"not null;index" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	Type     string         `gorm:"not null;index" json:"type"`
	Title    string         `gorm:"not null" json:"title"`
	Body     string         `gorm:"type:text" json:"body"`
	Data     map[string]any `gorm:"serializer:json" json:"data"` // opaque deep-link payload
	Channels []string       `gorm:"serializer:json" json:"channels"`

	Read   bool       `gorm:"not null;default:false;index" json:"read"`
	ReadAt *time.Time `json:"read_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Notification model
func (Notification) TableName() string {
	return "notifications"
}
