package models

import (
	"time"

	"gorm.io/gorm"
)

// ServiceRequest statuses. Forward-only like inspections, but with a
// cancelled terminal reachable from any non-terminal state.
const (
	RequestStatusPending    = "pending"
	RequestStatusApproved   = "approved"
	RequestStatusScheduled  = "scheduled"
	RequestStatusInProgress = "in_progress"
	RequestStatusCompleted  = "completed"
	RequestStatusCancelled  = "cancelled"
)

// Service request priorities
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// requestStatusRank orders the forward path; cancelled is handled separately.
var requestStatusRank = map[string]int{
	RequestStatusPending:    0,
	RequestStatusApproved:   1,
	RequestStatusScheduled:  2,
	RequestStatusInProgress: 3,
	RequestStatusCompleted:  4,
}

// ServiceRequest represents a customer or staff request for work at a
// property beyond the regular home-watch visit.
type ServiceRequest struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	PropertyID  uint     `gorm:"not null;index" json:"property_id"`
	Property    Property `gorm:"foreignKey:PropertyID" json:"property"`
	RequesterID uint     `gorm:"not null;index" json:"requester_id"`
	Requester   User     `gorm:"foreignKey:RequesterID" json:"requester"`
	AssigneeID  *uint    `gorm:"index" json:"assignee_id"`
	Assignee    *User    `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`

	Type        string   `gorm:"not null" json:"type"` // e.g. storm_prep, maintenance, key_handoff
	Description string   `gorm:"type:text" json:"description"`
	Status      string   `gorm:"not null;default:'pending';index" json:"status"`
	Priority    string   `gorm:"not null;default:'normal'" json:"priority"`
	QuotedPrice *float64 `json:"quoted_price"` // pricing snapshot at approval time

	CompletedAt *time.Time `json:"completed_at"`
	CancelledAt *time.Time `json:"cancelled_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the ServiceRequest model
func (ServiceRequest) TableName() string {
	return "service_requests"
}

// IsTerminal reports whether the request can no longer change status.
func (r *ServiceRequest) IsTerminal() bool {
	return r.Status == RequestStatusCompleted || r.Status == RequestStatusCancelled
}

// CanTransitionTo reports whether the status change is allowed: forward-only
// along the defined sequence, plus cancellation from any non-terminal state.
func (r *ServiceRequest) CanTransitionTo(next string) bool {
	if r.IsTerminal() {
		return false
	}
	if next == RequestStatusCancelled {
		return true
	}
	from, ok := requestStatusRank[r.Status]
	if !ok {
		return false
	}
	to, ok := requestStatusRank[next]
	if !ok {
		return false
	}
	return to > from
}
