package controllers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harborpoint/homewatch-api/config"
	"github.com/harborpoint/homewatch-api/middleware"
	"github.com/harborpoint/homewatch-api/models"
	"github.com/harborpoint/homewatch-api/services"
)

// CreateInspectionRequest represents the request body for scheduling an inspection
type CreateInspectionRequest struct {
	PropertyID          uint       `json:"property_id" binding:"required"`
	TechnicianID        *uint      `json:"technician_id"`
	ScheduledDate       *time.Time `json:"scheduled_date"`
	TimeWindow          string     `json:"time_window"`
	ChecklistTemplateID *uint      `json:"checklist_template_id"`
}

// UpdateInspectionRequest represents the request body for rescheduling
type UpdateInspectionRequest struct {
	TechnicianID        *uint      `json:"technician_id"`
	ScheduledDate       *time.Time `json:"scheduled_date"`
	TimeWindow          *string    `json:"time_window"`
	ChecklistTemplateID *uint      `json:"checklist_template_id"`
}

// CheckInRequest carries the technician's reported GPS position
type CheckInRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// CheckOutRequest carries the optional check-out position
type CheckOutRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// SubmitInspectionRequest represents the completed report payload
type SubmitInspectionRequest struct {
	ChecklistResponses []models.ChecklistResponse `json:"checklist_responses"`
	IssuesFound        []string                   `json:"issues_found"`
	Summary            string                     `json:"summary"`
	WeatherSnapshot    string                     `json:"weather_snapshot"`
}

// CreateInspection handles POST /api/v1/inspections - schedules an inspection
// (staff and above; route is guarded by RequireStaff). Status becomes
// scheduled once a technician is assigned, otherwise it stays pending.
func CreateInspection(c *gin.Context) {
	var req CreateInspectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	db := config.GetDB()

	var property models.Property
	if err := db.First(&property, req.PropertyID).Error; err != nil {
		respondError(c, http.StatusNotFound, "PROPERTY_NOT_FOUND", "Property not found")
		return
	}

	if req.TechnicianID != nil {
		var tech models.User
		if err := db.First(&tech, *req.TechnicianID).Error; err != nil || tech.Role != models.RoleTechnician {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Assigned technician not found or not a technician")
			return
		}
	}

	status := models.InspectionStatusPending
	if req.TechnicianID != nil {
		status = models.InspectionStatusScheduled
	}

	inspection := models.Inspection{
		PropertyID:          req.PropertyID,
		TechnicianID:        req.TechnicianID,
		Status:              status,
		ScheduledDate:       req.ScheduledDate,
		TimeWindow:          req.TimeWindow,
		ChecklistTemplateID: req.ChecklistTemplateID,
	}

	if err := db.Create(&inspection).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create inspection")
		return
	}

	if err := db.Preload("Property").Preload("Property.Owner").Preload("Technician").
		First(&inspection, inspection.ID).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load inspection details")
		return
	}

	// Best-effort scheduling notice; never fails the operation
	if inspection.Status == models.InspectionStatusScheduled {
		notifyInspectionEvent(&inspection, models.NotificationInspectionScheduled,
			"Inspection scheduled",
			fmt.Sprintf("A home watch visit to %s has been scheduled.", inspection.Property.Name))
	}

	respondData(c, http.StatusCreated, inspection)
}

// ListInspections handles GET /api/v1/inspections - lists inspections scoped
// to the requester's role. Optional ?status= and ?property_id= filters.
func ListInspections(c *gin.Context) {
	user, ok := middleware.RequireConfirmedUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	query := db.Preload("Property").Preload("Technician").Order("scheduled_date ASC")

	switch {
	case user.IsStaff():
		// unscoped
	case user.Role == models.RoleTechnician:
		query = query.Where("technician_id = ?", user.ID)
	default:
		query = query.Where("property_id IN (?)",
			db.Model(&models.Property{}).Select("id").Where("owner_id = ?", user.ID))
	}

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if propertyID := c.Query("property_id"); propertyID != "" {
		query = query.Where("property_id = ?", propertyID)
	}

	var inspections []models.Inspection
	if err := query.Find(&inspections).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch inspections")
		return
	}

	respondData(c, http.StatusOK, inspections)
}

// GetInspection handles GET /api/v1/inspections/:id
func GetInspection(c *gin.Context) {
	user, ok := middleware.RequireConfirmedUser(c)
	if !ok {
		return
	}

	inspection, ok := loadInspectionScoped(c, user)
	if !ok {
		return
	}

	respondData(c, http.StatusOK, inspection)
}

// UpdateInspection handles PATCH /api/v1/inspections/:id - reschedules or
// reassigns (staff and above; route is guarded by RequireStaff). Only allowed
// while the inspection is still pending or scheduled.
func UpdateInspection(c *gin.Context) {
	db := config.GetDB()

	var inspection models.Inspection
	if err := db.First(&inspection, c.Param("id")).Error; err != nil {
		respondError(c, http.StatusNotFound, "INSPECTION_NOT_FOUND", "Inspection not found")
		return
	}

	if inspection.Status != models.InspectionStatusPending && inspection.Status != models.InspectionStatusScheduled {
		respondError(c, http.StatusConflict, "INVALID_STATE", "Only pending or scheduled inspections can be rescheduled")
		return
	}

	var req UpdateInspectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if req.TechnicianID != nil {
		var tech models.User
		if err := db.First(&tech, *req.TechnicianID).Error; err != nil || tech.Role != models.RoleTechnician {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Assigned technician not found or not a technician")
			return
		}
		inspection.TechnicianID = req.TechnicianID
	}
	if req.ScheduledDate != nil {
		inspection.ScheduledDate = req.ScheduledDate
	}
	if req.TimeWindow != nil {
		inspection.TimeWindow = *req.TimeWindow
	}
	if req.ChecklistTemplateID != nil {
		inspection.ChecklistTemplateID = req.ChecklistTemplateID
	}

	// Assignment drives the pending/scheduled split
	if inspection.TechnicianID != nil {
		inspection.Status = models.InspectionStatusScheduled
	} else {
		inspection.Status = models.InspectionStatusPending
	}

	if err := db.Save(&inspection).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update inspection")
		return
	}

	if err := db.Preload("Property").Preload("Technician").First(&inspection, inspection.ID).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load inspection details")
		return
	}

	respondData(c, http.StatusOK, inspection)
}

// CheckIn handles POST /api/v1/inspections/:id/check-in
//
// Requires the assigned technician (or staff) and a scheduled inspection.
// The geofence result is recorded but never blocks the check-in: an
// out-of-radius position yields location_verified=false with a warning while
// the inspection still moves to in_progress. Verification is audit evidence,
// not access control.
func CheckIn(c *gin.Context) {
	user, ok := middleware.RequireConfirmedUser(c)
	if !ok {
		return
	}

	inspection, ok := loadInspectionForFieldWork(c, user)
	if !ok {
		return
	}

	if !inspection.CanCheckIn() {
		respondError(c, http.StatusConflict, "INVALID_STATE",
			fmt.Sprintf("Check-in requires a scheduled inspection (current status: %s)", inspection.Status))
		return
	}

	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	verified := true
	if inspection.Property.HasCoordinates() {
		radius := config.DefaultGeofenceRadiusMeters
		if cfg := config.GetConfig(); cfg != nil {
			radius = cfg.GeofenceRadiusMeters
		}
		verified = services.WithinRadius(
			*req.Latitude, *req.Longitude,
			*inspection.Property.Latitude, *inspection.Property.Longitude,
			radius,
		)
	}

	now := time.Now().UTC()
	inspection.CheckInAt = &now
	inspection.CheckInLat = req.Latitude
	inspection.CheckInLng = req.Longitude
	inspection.CheckInVerified = &verified
	inspection.Status = models.InspectionStatusInProgress

	db := config.GetDB()
	if err := db.Save(inspection).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to record check-in")
		return
	}

	notifyInspectionEvent(inspection, models.NotificationInspectionStarted,
		"Inspection started",
		fmt.Sprintf("Your home watch visit to %s is underway.", inspection.Property.Name))

	message := "Checked in"
	if !verified {
		message = "Checked in, but your location could not be verified against the property address"
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"inspection":        inspection,
			"location_verified": verified,
			"message":           message,
		},
	})
}

// CheckOut handles POST /api/v1/inspections/:id/check-out - records the
// departure time and optional position. No status change and no minimum
// on-site duration is enforced.
func CheckOut(c *gin.Context) {
	user, ok := middleware.RequireConfirmedUser(c)
	if !ok {
		return
	}

	inspection, ok := loadInspectionForFieldWork(c, user)
	if !ok {
		return
	}

	if !inspection.CanCheckOut() {
		respondError(c, http.StatusConflict, "INVALID_STATE",
			fmt.Sprintf("Check-out requires an in-progress inspection (current status: %s)", inspection.Status))
		return
	}

	var req CheckOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	now := time.Now().UTC()
	inspection.CheckOutAt = &now
	inspection.CheckOutLat = req.Latitude
	inspection.CheckOutLng = req.Longitude

	db := config.GetDB()
	if err := db.Save(inspection).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to record check-out")
		return
	}

	respondData(c, http.StatusOK, inspection)
}

// SubmitInspection handles POST /api/v1/inspections/:id/submit - completes
// the inspection with the field report. Re-submitting a completed inspection
// is rejected as a conflict; a failed submit leaves the inspection
// in_progress for a manual retry.
func SubmitInspection(c *gin.Context) {
	user, ok := middleware.RequireConfirmedUser(c)
	if !ok {
		return
	}

	inspection, ok := loadInspectionForFieldWork(c, user)
	if !ok {
		return
	}

	if !inspection.CanSubmit() {
		respondError(c, http.StatusConflict, "INVALID_STATE",
			fmt.Sprintf("Submit requires an in-progress inspection (current status: %s)", inspection.Status))
		return
	}

	var req SubmitInspectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	outcome := models.OutcomeGood
	if len(req.IssuesFound) > 0 {
		outcome = models.OutcomeIssuesFound
	}

	now := time.Now().UTC()
	inspection.ChecklistResponses = req.ChecklistResponses
	inspection.IssuesFound = req.IssuesFound
	inspection.Summary = req.Summary
	inspection.WeatherSnapshot = req.WeatherSnapshot
	inspection.OverallStatus = outcome
	inspection.ReportGeneratedAt = &now
	inspection.Status = models.InspectionStatusCompleted

	db := config.GetDB()
	if err := db.Save(inspection).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to submit inspection report")
		return
	}

	body := fmt.Sprintf("Your home watch report for %s is ready.", inspection.Property.Name)
	if outcome == models.OutcomeIssuesFound {
		body = fmt.Sprintf("Your home watch visit to %s found %d issue(s). The full report is ready.",
			inspection.Property.Name, len(req.IssuesFound))
	}
	notifyInspectionEvent(inspection, models.NotificationInspectionCompleted, "Inspection report ready", body)

	respondData(c, http.StatusOK, inspection)
}

// MarkInspectionViewed handles POST /api/v1/inspections/:id/viewed - the
// property owner acknowledges the report
func MarkInspectionViewed(c *gin.Context) {
	user, ok := middleware.RequireConfirmedUser(c)
	if !ok {
		return
	}

	inspection, ok := loadInspectionScoped(c, user)
	if !ok {
		return
	}

	if inspection.Property.OwnerID != user.ID && !user.IsStaff() {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Only the property owner can mark a report viewed")
		return
	}

	db := config.GetDB()
	if err := db.Model(inspection).Update("customer_viewed", true).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update inspection")
		return
	}

	respondData(c, http.StatusOK, inspection)
}

// loadInspectionScoped fetches the inspection from the :id route parameter
// and enforces read scoping: property owner, assigned technician, or staff.
func loadInspectionScoped(c *gin.Context, user *models.User) (*models.Inspection, bool) {
	db := config.GetDB()

	var inspection models.Inspection
	if err := db.Preload("Property").Preload("Property.Owner").Preload("Technician").
		First(&inspection, c.Param("id")).Error; err != nil {
		respondError(c, http.StatusNotFound, "INSPECTION_NOT_FOUND", "Inspection not found")
		return nil, false
	}

	switch {
	case user.IsStaff():
		return &inspection, true
	case inspection.IsAssignedTo(user.ID):
		return &inspection, true
	case inspection.Property.OwnerID == user.ID:
		return &inspection, true
	}

	respondError(c, http.StatusForbidden, "FORBIDDEN", "You do not have access to this inspection")
	return nil, false
}

// loadInspectionForFieldWork is loadInspectionScoped restricted to the
// callers who may mutate field state: the assigned technician or staff.
func loadInspectionForFieldWork(c *gin.Context, user *models.User) (*models.Inspection, bool) {
	db := config.GetDB()

	var inspection models.Inspection
	if err := db.Preload("Property").Preload("Property.Owner").Preload("Technician").
		First(&inspection, c.Param("id")).Error; err != nil {
		respondError(c, http.StatusNotFound, "INSPECTION_NOT_FOUND", "Inspection not found")
		return nil, false
	}

	if !user.IsStaff() && !inspection.IsAssignedTo(user.ID) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Only the assigned technician or staff can perform this action")
		return nil, false
	}

	return &inspection, true
}

// notifyInspectionEvent fans out an inspection event to the property owner.
// Failures are logged, never propagated: notification delivery must not fail
// the inspection operation that triggered it.
func notifyInspectionEvent(inspection *models.Inspection, eventType, title, body string) {
	owner := inspection.Property.Owner
	if owner.ID == 0 {
		return
	}

	_, err := services.Notify(&owner, services.NotificationEvent{
		Type:  eventType,
		Title: title,
		Body:  body,
		Data: map[string]any{
			"inspection_id": inspection.ID,
			"property_id":   inspection.PropertyID,
			"link":          fmt.Sprintf("/inspections/%d/report", inspection.ID),
		},
	})
	if err != nil {
		log.Printf("inspection %d: notification fan-out failed: %v", inspection.ID, err)
	}
}
