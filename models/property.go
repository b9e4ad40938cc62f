package models

import (
	"time"

	"gorm.io/gorm"
)

// Property lifecycle statuses
const (
	PropertyStatusOnboarding = "onboarding"
	PropertyStatusActive     = "active"
	PropertyStatusInactive   = "inactive"
)

// Property represents a watched property owned by exactly one customer.
// Properties are soft-deleted by setting status=inactive so that inspections
// and invoices keep a valid reference for audit history.
type Property struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	OwnerID uint `gorm:"not null;index" json:"owner_id"` // foreign key to users table
	Owner   User `gorm:"foreignKey:OwnerID" json:"owner"`

	Name         string `gorm:"not null" json:"name"`
	AddressLine1 string `gorm:"not null" json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `gorm:"not null" json:"city"`
	State        string `gorm:"not null" json:"state"`
	Zip          string `gorm:"not null" json:"zip"`

	// Coordinates are resolved by the geocoding collaborator and may be
	// absent. With no coordinates, check-in geofence verification is
	// trivially accepted.
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`

	// Access and utility metadata for field technicians
	GateCode        string `json:"gate_code"`
	LockboxCode     string `json:"lockbox_code"`
	AlarmInfo       string `json:"alarm_info"`
	UtilityNotes    string `gorm:"type:text" json:"utility_notes"`
	EmergencyName   string `json:"emergency_name"`
	EmergencyPhone  string `json:"emergency_phone"`
	AccessNotes     string `gorm:"type:text" json:"access_notes"`

	Status string `gorm:"not null;default:'onboarding'" json:"status"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Property model
func (Property) TableName() string {
	return "properties"
}

// HasCoordinates reports whether the property has been geocoded.
func (p *Property) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// FullAddress joins the address fields into a single geocodable string.
func (p *Property) FullAddress() string {
	addr := p.AddressLine1
	if p.AddressLine2 != "" {
		addr += ", " + p.AddressLine2
	}
	return addr + ", " + p.City + ", " + p.State + " " + p.Zip
}
