package models

import (
	"time"

	"gorm.io/gorm"
)

// Conversation is a chat thread between one customer and the staff side.
// Conversations are created lazily on first contact (first message or first
// inbound SMS from a known phone number).
type Conversation struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	CustomerID uint `gorm:"not null;index" json:"customer_id"`
	Customer   User `gorm:"foreignKey:CustomerID" json:"customer"`

	Subject       string     `json:"subject"`
	LastMessageAt *time.Time `gorm:"index" json:"last_message_at"`

	// Per-side unread flags, flipped by the counterpart's messages
	CustomerUnread bool `gorm:"not null;default:false" json:"customer_unread"`
	StaffUnread    bool `gorm:"not null;default:false" json:"staff_unread"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Conversation model
func (Conversation) TableName() string {
	return "conversations"
}
