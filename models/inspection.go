package models

import (
	"time"

	"gorm.io/gorm"
)

// Inspection statuses. The sequence only moves forward:
// pending -> scheduled -> in_progress -> completed.
// There is deliberately no cancelled state for inspections, unlike service
// requests; a scheduled inspection is rescheduled, never cancelled.
const (
	InspectionStatusPending    = "pending"
	InspectionStatusScheduled  = "scheduled"
	InspectionStatusInProgress = "in_progress"
	InspectionStatusCompleted  = "completed"
)

// Overall outcome of a completed inspection
const (
	OutcomeGood        = "good"
	OutcomeIssuesFound = "issues_found"
)

// ChecklistResponse is a technician's answer to a single checklist item.
type ChecklistResponse struct {
	Item     string `json:"item"`
	Response string `json:"response"` // ok, issue, n/a
	Notes    string `json:"notes,omitempty"`
	PhotoKey string `json:"photo_key,omitempty"`
}

// Inspection represents one home-watch visit to a property. Rows are never
// deleted; completed inspections are the customer's report history.
type Inspection struct {
	ID         uint     `gorm:"primaryKey" json:"id"`
	PropertyID uint     `gorm:"not null;index" json:"property_id"`
	Property   Property `gorm:"foreignKey:PropertyID" json:"property"`

	TechnicianID *uint `gorm:"index" json:"technician_id"` // nullable until assigned
	Technician   *User `gorm:"foreignKey:TechnicianID" json:"technician,omitempty"`

	Status        string     `gorm:"not null;default:'pending';index" json:"status"`
	ScheduledDate *time.Time `json:"scheduled_date"`
	TimeWindow    string     `json:"time_window"` // e.g. "morning", "13:00-15:00"

	ChecklistTemplateID *uint              `json:"checklist_template_id"`
	ChecklistTemplate   *ChecklistTemplate `gorm:"foreignKey:ChecklistTemplateID" json:"checklist_template,omitempty"`

	// Check-in / check-out records. CheckInVerified reflects the geofence
	// result only; an unverified check-in still succeeds.
	CheckInAt       *time.Time `json:"check_in_at"`
	CheckInLat      *float64   `json:"check_in_lat"`
	CheckInLng      *float64   `json:"check_in_lng"`
	CheckInVerified *bool      `json:"check_in_verified"`
	CheckOutAt      *time.Time `json:"check_out_at"`
	CheckOutLat     *float64   `json:"check_out_lat"`
	CheckOutLng     *float64   `json:"check_out_lng"`

	ChecklistResponses []ChecklistResponse `gorm:"serializer:json" json:"checklist_responses"`
	IssuesFound        []string            `gorm:"serializer:json" json:"issues_found"`
	Summary            string              `gorm:"type:text" json:"summary"`
	WeatherSnapshot    string              `json:"weather_snapshot"`

	OverallStatus     string     `json:"overall_status"` // good or issues_found, set on submit
	ReportGeneratedAt *time.Time `json:"report_generated_at"`
	CustomerViewed    bool       `gorm:"not null;default:false" json:"customer_viewed"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Inspection model
func (Inspection) TableName() string {
	return "inspections"
}

// CanCheckIn reports whether a check-in is allowed from the current status.
func (i *Inspection) CanCheckIn() bool {
	return i.Status == InspectionStatusScheduled
}

// CanCheckOut reports whether a check-out is allowed from the current status.
func (i *Inspection) CanCheckOut() bool {
	return i.Status == InspectionStatusInProgress
}

// CanSubmit reports whether a report submission is allowed from the current
// status. A completed inspection cannot be re-submitted.
func (i *Inspection) CanSubmit() bool {
	return i.Status == InspectionStatusInProgress
}

// IsAssignedTo reports whether the inspection is assigned to the given user.
func (i *Inspection) IsAssignedTo(userID uint) bool {
	return i.TechnicianID != nil && *i.TechnicianID == userID
}

// ChecklistTemplate is a reusable ordered list of inspection items.
// Templates are reference data, not operational state.
type ChecklistTemplate struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"not null" json:"name"`
	Description string          `json:"description"`
	Items       []ChecklistItem `gorm:"foreignKey:TemplateID" json:"items"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TableName specifies the table name for the ChecklistTemplate model
func (ChecklistTemplate) TableName() string {
	return "checklist_templates"
}

// ChecklistItem is a single line in a checklist template.
type ChecklistItem struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	TemplateID    uint   `gorm:"not null;index" json:"template_id"`
	Category      string `gorm:"not null" json:"category"`
	ItemText      string `gorm:"not null" json:"item_text"`
	Required      bool   `gorm:"not null;default:false" json:"required"`
	PhotoRequired bool   `gorm:"not null;default:false" json:"photo_required"`
	SortOrder     int    `gorm:"not null;default:0" json:"sort_order"`
}

// TableName specifies the table name for the ChecklistItem model
func (ChecklistItem) TableName() string {
	return "checklist_items"
}
