package models

import (
	"time"

	"gorm.io/gorm"
)

// Roles, in increasing order of privilege. A principal without a confirmed
// database row is treated as a customer (lowest privilege), never rejected.
const (
	RoleCustomer   = "customer"
	RoleTechnician = "technician"
	RoleStaff      = "staff"
	RoleAdmin      = "admin"
	RoleOwner      = "owner"
)

// User represents a person in the system: customer, field technician, or
// back-office staff. Users are never hard-deleted.
type User struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Auth0ID string `gorm:"uniqueIndex;not null" json:"auth0_id"` // Auth0 user ID (from 'sub' claim)
	Name    string `gorm:"not null" json:"name"`
	Email   string `gorm:"uniqueIndex;not null" json:"email"`
	Phone   string `gorm:"index" json:"phone"`
	Role    string `gorm:"not null;default:'customer'" json:"role"`

	// Per-channel notification preferences
	EmailEnabled bool `gorm:"not null;default:true" json:"email_enabled"`
	SMSEnabled   bool `gorm:"not null;default:true" json:"sms_enabled"`
	InAppEnabled bool `gorm:"not null;default:true" json:"in_app_enabled"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// IsStaff reports whether the user holds a back-office role
// (staff, admin, or owner).
func (u *User) IsStaff() bool {
	return u.Role == RoleStaff || u.Role == RoleAdmin || u.Role == RoleOwner
}

// IsAdmin reports whether the user may manage other users' roles.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleOwner
}

// ValidRole reports whether role is one of the defined role values.
func ValidRole(role string) bool {
	switch role {
	case RoleCustomer, RoleTechnician, RoleStaff, RoleAdmin, RoleOwner:
		return true
	}
	return false
}
