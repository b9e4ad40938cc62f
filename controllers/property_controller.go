package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/harborpoint/homewatch-api/config"
	"github.com/harborpoint/homewatch-api/middleware"
	"github.com/harborpoint/homewatch-api/models"
	"github.com/harborpoint/homewatch-api/services"
)

// CreatePropertyRequest represents the request body for registering a property
type CreatePropertyRequest struct {
	Name         string `json:"name" binding:"required"`
	AddressLine1 string `json:"address_line1" binding:"required"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city" binding:"required"`
	State        string `json:"state" binding:"required"`
	Zip          string `json:"zip" binding:"required"`

	// Staff may register on behalf of a customer
	OwnerID uint `json:"owner_id"`

	GateCode       string `json:"gate_code"`
	LockboxCode    string `json:"lockbox_code"`
	AlarmInfo      string `json:"alarm_info"`
	UtilityNotes   string `json:"utility_notes"`
	EmergencyName  string `json:"emergency_name"`
	EmergencyPhone string `json:"emergency_phone"`
	AccessNotes    string `json:"access_notes"`
}

// UpdatePropertyRequest represents the request body for updating a property
type UpdatePropertyRequest struct {
	Name         *string `json:"name"`
	AddressLine1 *string `json:"address_line1"`
	AddressLine2 *string `json:"address_line2"`
	City         *string `json:"city"`
	State        *string `json:"state"`
	Zip          *string `json:"zip"`

	GateCode       *string `json:"gate_code"`
	LockboxCode    *string `json:"lockbox_code"`
	AlarmInfo      *string `json:"alarm_info"`
	UtilityNotes   *string `json:"utility_notes"`
	EmergencyName  *string `json:"emergency_name"`
	EmergencyPhone *string `json:"emergency_phone"`
	AccessNotes    *string `json:"access_notes"`

	Status *string `json:"status"`
}

// CreateProperty handles POST /api/v1/properties - registers a property.
// Customers register their own; staff may register for any owner.
func CreateProperty(c *gin.Context) {
	user, ok := middleware.RequireConfirmedUser(c)
	if !ok {
		return
	}

	var req CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	ownerID := user.ID
	db := config.GetDB()
	if req.OwnerID != 0 && req.OwnerID != user.ID {
		if !user.IsStaff() {
			respondError(c, http.StatusForbidden, "FORBIDDEN", "Only staff can register a property for another customer")
			return
		}
		var owner models.User
		if err := db.First(&owner, req.OwnerID).Error; err != nil {
			respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "Property owner not found")
			return
		}
		ownerID = owner.ID
	}

	property := models.Property{
		OwnerID:        ownerID,
		Name:           req.Name,
		AddressLine1:   req.AddressLine1,
		AddressLine2:   req.AddressLine2,
		City:           req.City,
		State:          req.State,
		Zip:            req.Zip,
		GateCode:       req.GateCode,
		LockboxCode:    req.LockboxCode,
		AlarmInfo:      req.AlarmInfo,
		UtilityNotes:   req.UtilityNotes,
		EmergencyName:  req.EmergencyName,
		EmergencyPhone: req.EmergencyPhone,
		AccessNotes:    req.AccessNotes,
		Status:         models.PropertyStatusOnboarding,
	}

	geocodeProperty(&property)

	if err := db.Create(&property).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create property")
		return
	}

	if err := db.Preload("Owner").First(&property, property.ID).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load property details")
		return
	}

	respondData(c, http.StatusCreated, property)
}

// ListProperties handles GET /api/v1/properties - lists properties scoped to
// the requester's role
func ListProperties(c *gin.Context) {
	user, ok := middleware.RequireConfirmedUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	query := db.Preload("Owner").Order("created_at DESC")

	switch {
	case user.IsStaff():
		// unscoped
	case user.Role == models.RoleTechnician:
		// technicians see properties of inspections assigned to them
		query = query.Where("id IN (?)",
			db.Model(&models.Inspection{}).Select("property_id").Where("technician_id = ?", user.ID))
	default:
		query = query.Where("owner_id = ?", user.ID)
	}

	var properties []models.Property
	if err := query.Find(&properties).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch properties")
		return
	}

	respondData(c, http.StatusOK, properties)
}

// GetProperty handles GET /api/v1/properties/:id
func GetProperty(c *gin.Context) {
	user, ok := middleware.RequireConfirmedUser(c)
	if !ok {
		return
	}

	property, ok := loadPropertyScoped(c, user)
	if !ok {
		return
	}

	respondData(c, http.StatusOK, property)
}

// UpdateProperty handles PATCH /api/v1/properties/:id - updates a property;
// changing any address field re-triggers geocoding
func UpdateProperty(c *gin.Context) {
	user, ok := middleware.RequireConfirmedUser(c)
	if !ok {
		return
	}

	property, ok := loadPropertyScoped(c, user)
	if !ok {
		return
	}

	// Technicians have read access only
	if user.Role == models.RoleTechnician {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Technicians cannot modify properties")
		return
	}

	var req UpdatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	addressChanged := false
	applyString := func(dst *string, src *string, address bool) {
		if src != nil {
			*dst = *src
			if address {
				addressChanged = true
			}
		}
	}

	applyString(&property.Name, req.Name, false)
	applyString(&property.AddressLine1, req.AddressLine1, true)
	applyString(&property.AddressLine2, req.AddressLine2, true)
	applyString(&property.City, req.City, true)
	applyString(&property.State, req.State, true)
	applyString(&property.Zip, req.Zip, true)
	applyString(&property.GateCode, req.GateCode, false)
	applyString(&property.LockboxCode, req.LockboxCode, false)
	applyString(&property.AlarmInfo, req.AlarmInfo, false)
	applyString(&property.UtilityNotes, req.UtilityNotes, false)
	applyString(&property.EmergencyName, req.EmergencyName, false)
	applyString(&property.EmergencyPhone, req.EmergencyPhone, false)
	applyString(&property.AccessNotes, req.AccessNotes, false)

	if req.Status != nil {
		switch *req.Status {
		case models.PropertyStatusOnboarding, models.PropertyStatusActive, models.PropertyStatusInactive:
			property.Status = *req.Status
		default:
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown property status")
			return
		}
	}

	if addressChanged {
		geocodeProperty(property)
	}

	db := config.GetDB()
	if err := db.Save(property).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update property")
		return
	}

	respondData(c, http.StatusOK, property)
}

// DeleteProperty handles DELETE /api/v1/properties/:id - soft delete only:
// the row is kept (inspections and invoices reference it for audit history)
// and its status becomes inactive
func DeleteProperty(c *gin.Context) {
	user, ok := middleware.RequireConfirmedUser(c)
	if !ok {
		return
	}

	property, ok := loadPropertyScoped(c, user)
	if !ok {
		return
	}

	if user.Role == models.RoleTechnician {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Technicians cannot modify properties")
		return
	}

	db := config.GetDB()
	if err := db.Model(property).Update("status", models.PropertyStatusInactive).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to deactivate property")
		return
	}

	respondData(c, http.StatusOK, property)
}

// loadPropertyScoped fetches the property from the :id route parameter and
// enforces access scoping: owners see their own, technicians see properties
// with an inspection assigned to them, staff see all. Writes the error
// response itself and returns ok=false on failure.
func loadPropertyScoped(c *gin.Context, user *models.User) (*models.Property, bool) {
	db := config.GetDB()

	var property models.Property
	if err := db.Preload("Owner").First(&property, c.Param("id")).Error; err != nil {
		respondError(c, http.StatusNotFound, "PROPERTY_NOT_FOUND", "Property not found")
		return nil, false
	}

	switch {
	case user.IsStaff():
		return &property, true
	case property.OwnerID == user.ID:
		return &property, true
	case user.Role == models.RoleTechnician:
		var count int64
		db.Model(&models.Inspection{}).
			Where("property_id = ? AND technician_id = ?", property.ID, user.ID).
			Count(&count)
		if count > 0 {
			return &property, true
		}
	}

	respondError(c, http.StatusForbidden, "FORBIDDEN", "You do not have access to this property")
	return nil, false
}

// geocodeProperty resolves coordinates for the property's address. Failures
// are logged and ignored; the property is saved without coordinates and the
// geofence check degrades to trivially accepted.
func geocodeProperty(property *models.Property) {
	geocoder := services.GetGeocoder()
	if geocoder == nil {
		return
	}

	coords, err := geocoder.Geocode(property.FullAddress())
	if err != nil {
		log.Printf("geocoding failed for property %q: %v", property.Name, err)
		property.Latitude = nil
		property.Longitude = nil
		return
	}

	property.Latitude = &coords.Latitude
	property.Longitude = &coords.Longitude
}
