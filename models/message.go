package models

import (
	"time"

	"gorm.io/gorm"
)

// Message represents a single message in a conversation. SenderID is nil for
// messages that arrived over the SMS inbound webhook before the sender could
// be matched to a user; ExternalID carries the provider's message SID.
type Message struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	ConversationID uint         `gorm:"not null;index" json:"conversation_id"`
	Conversation   Conversation `gorm:"foreignKey:ConversationID" json:"-"` // don't include full conversation in JSON
	SenderID       *uint        `gorm:"index" json:"sender_id"`
	Sender         *User        `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Body           string       `gorm:"type:text;not null" json:"body"`
	ExternalID     *string      `gorm:"index" json:"external_id,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Message model
func (Message) TableName() string {
	return "messages"
}

// AllModels returns every model migrated at boot, in dependency order.
func AllModels() []any {
	return []any{
		&User{},
		&Property{},
		&ChecklistTemplate{},
		&ChecklistItem{},
		&Inspection{},
		&ServiceRequest{},
		&Invoice{},
		&InvoiceItem{},
		&Notification{},
		&Conversation{},
		&Message{},
	}
}
