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

// CreateServiceRequestRequest represents the request body for opening a service request
type CreateServiceRequestRequest struct {
	PropertyID  uint   `json:"property_id" binding:"required"`
	Type        string `json:"type" binding:"required"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

// UpdateServiceRequestRequest represents the request body for progressing a service request
type UpdateServiceRequestRequest struct {
	Status      *string  `json:"status"`
	AssigneeID  *uint    `json:"assignee_id"`
	QuotedPrice *float64 `json:"quoted_price"`
	Priority    *string  `json:"priority"`
}

// CreateServiceRequest handles POST /api/v1/service-requests - opened by the
// property's customer or by staff on their behalf
func CreateServiceRequest(c *gin.Context) {
	user, ok := middleware.RequireConfirmedUser(c)
	if !ok {
		return
	}

	var req CreateServiceRequestRequest
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

	if property.OwnerID != user.ID && !user.IsStaff() {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You can only open requests for your own properties")
		return
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}
	switch priority {
	case models.PriorityLow, models.PriorityNormal, models.PriorityHigh, models.PriorityUrgent:
	default:
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown priority")
		return
	}

	request := models.ServiceRequest{
		PropertyID:  req.PropertyID,
		RequesterID: user.ID,
		Type:        req.Type,
		Description: req.Description,
		Status:      models.RequestStatusPending,
		Priority:    priority,
	}

	if err := db.Create(&request).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create service request")
		return
	}

	if err := db.Preload("Property").Preload("Requester").First(&request, request.ID).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load service request details")
		return
	}

	respondData(c, http.StatusCreated, request)
}

// ListServiceRequests handles GET /api/v1/service-requests - scoped to the
// requester's role. Optional ?status= filter.
func ListServiceRequests(c *gin.Context) {
	user, ok := middleware.RequireConfirmedUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	query := db.Preload("Property").Preload("Requester").Preload("Assignee").Order("created_at DESC")

	switch {
	case user.IsStaff():
		// unscoped
	case user.Role == models.RoleTechnician:
		query = query.Where("assignee_id = ?", user.ID)
	default:
		query = query.Where("requester_id = ?", user.ID)
	}

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var requests []models.ServiceRequest
	if err := query.Find(&requests).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch service requests")
		return
	}

	respondData(c, http.StatusOK, requests)
}

// GetServiceRequest handles GET /api/v1/service-requests/:id
func GetServiceRequest(c *gin.Context) {
	user, ok := middleware.RequireConfirmedUser(c)
	if !ok {
		return
	}

	request, ok := loadServiceRequestScoped(c, user)
	if !ok {
		return
	}

	respondData(c, http.StatusOK, request)
}

// UpdateServiceRequest handles PATCH /api/v1/service-requests/:id
//
// Status moves forward only (pending -> approved -> scheduled -> in_progress
// -> completed); cancellation is allowed from any non-terminal state. The
// requester may only cancel; staff and the assigned technician progress the
// request.
func UpdateServiceRequest(c *gin.Context) {
	user, ok := middleware.RequireConfirmedUser(c)
	if !ok {
		return
	}

	request, ok := loadServiceRequestScoped(c, user)
	if !ok {
		return
	}

	var req UpdateServiceRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	db := config.GetDB()

	isAssignee := request.AssigneeID != nil && *request.AssigneeID == user.ID
	if !user.IsStaff() {
		// Non-staff: the requester may cancel, the assignee may progress.
		// Everything else is off limits.
		onlyCancel := req.Status != nil && *req.Status == models.RequestStatusCancelled &&
			req.AssigneeID == nil && req.QuotedPrice == nil && req.Priority == nil
		if !(isAssignee || (request.RequesterID == user.ID && onlyCancel)) {
			respondError(c, http.StatusForbidden, "FORBIDDEN", "You cannot modify this service request")
			return
		}
	}

	if req.AssigneeID != nil {
		var tech models.User
		if err := db.First(&tech, *req.AssigneeID).Error; err != nil || tech.Role != models.RoleTechnician {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Assignee not found or not a technician")
			return
		}
		request.AssigneeID = req.AssigneeID
	}
	if req.QuotedPrice != nil {
		request.QuotedPrice = req.QuotedPrice
	}
	if req.Priority != nil {
		switch *req.Priority {
		case models.PriorityLow, models.PriorityNormal, models.PriorityHigh, models.PriorityUrgent:
			request.Priority = *req.Priority
		default:
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown priority")
			return
		}
	}

	if req.Status != nil && *req.Status != request.Status {
		if !request.CanTransitionTo(*req.Status) {
			respondError(c, http.StatusConflict, "INVALID_STATE",
				fmt.Sprintf("Cannot move a %s request to %s", request.Status, *req.Status))
			return
		}
		request.Status = *req.Status

		now := time.Now().UTC()
		switch *req.Status {
		case models.RequestStatusCompleted:
			request.CompletedAt = &now
		case models.RequestStatusCancelled:
			request.CancelledAt = &now
		}
	}

	if err := db.Save(request).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update service request")
		return
	}

	if req.Status != nil {
		notifyRequestUpdated(request)
	}

	respondData(c, http.StatusOK, request)
}

// loadServiceRequestScoped fetches the request from the :id route parameter
// and enforces scoping: requester, assignee, or staff.
func loadServiceRequestScoped(c *gin.Context, user *models.User) (*models.ServiceRequest, bool) {
	db := config.GetDB()

	var request models.ServiceRequest
	if err := db.Preload("Property").Preload("Requester").Preload("Assignee").
		First(&request, c.Param("id")).Error; err != nil {
		respondError(c, http.StatusNotFound, "REQUEST_NOT_FOUND", "Service request not found")
		return nil, false
	}

	switch {
	case user.IsStaff():
		return &request, true
	case request.RequesterID == user.ID:
		return &request, true
	case request.AssigneeID != nil && *request.AssigneeID == user.ID:
		return &request, true
	}

	respondError(c, http.StatusForbidden, "FORBIDDEN", "You do not have access to this service request")
	return nil, false
}

// notifyRequestUpdated tells the requester about a status change.
// Best-effort; never fails the update.
func notifyRequestUpdated(request *models.ServiceRequest) {
	_, err := services.Notify(&request.Requester, services.NotificationEvent{
		Type:  models.NotificationRequestUpdated,
		Title: "Service request updated",
		Body:  fmt.Sprintf("Your %s request is now %s.", request.Type, request.Status),
		Data: map[string]any{
			"service_request_id": request.ID,
			"status":             request.Status,
			"link":               fmt.Sprintf("/service-requests/%d", request.ID),
		},
	})
	if err != nil {
		log.Printf("service request %d: notification fan-out failed: %v", request.ID, err)
	}
}
