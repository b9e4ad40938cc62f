package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/harborpoint/homewatch-api/config"
	"github.com/harborpoint/homewatch-api/models"
	"gorm.io/gorm"
)

// ChecklistItemInput is one line of a checklist template definition
type ChecklistItemInput struct {
	Category      string `json:"category" binding:"required"`
	ItemText      string `json:"item_text" binding:"required"`
	Required      bool   `json:"required"`
	PhotoRequired bool   `json:"photo_required"`
	SortOrder     int    `json:"sort_order"`
}

// CreateChecklistTemplateRequest represents the request body for defining a template
type CreateChecklistTemplateRequest struct {
	Name        string               `json:"name" binding:"required"`
	Description string               `json:"description"`
	Items       []ChecklistItemInput `json:"items" binding:"required,min=1,dive"`
}

// CreateChecklistTemplate handles POST /api/v1/checklist-templates
// (staff and above; route is guarded by RequireStaff)
func CreateChecklistTemplate(c *gin.Context) {
	var req CreateChecklistTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	template := models.ChecklistTemplate{
		Name:        req.Name,
		Description: req.Description,
	}
	for _, item := range req.Items {
		template.Items = append(template.Items, models.ChecklistItem{
			Category:      item.Category,
			ItemText:      item.ItemText,
			Required:      item.Required,
			PhotoRequired: item.PhotoRequired,
			SortOrder:     item.SortOrder,
		})
	}

	db := config.GetDB()
	if err := db.Create(&template).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create checklist template")
		return
	}

	respondData(c, http.StatusCreated, template)
}

// ListChecklistTemplates handles GET /api/v1/checklist-templates
func ListChecklistTemplates(c *gin.Context) {
	db := config.GetDB()

	var templates []models.ChecklistTemplate
	if err := db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("checklist_items.sort_order ASC")
	}).Order("name ASC").Find(&templates).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch checklist templates")
		return
	}

	respondData(c, http.StatusOK, templates)
}

// GetChecklistTemplate handles GET /api/v1/checklist-templates/:id
func GetChecklistTemplate(c *gin.Context) {
	db := config.GetDB()

	var template models.ChecklistTemplate
	if err := db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("checklist_items.sort_order ASC")
	}).First(&template, c.Param("id")).Error; err != nil {
		respondError(c, http.StatusNotFound, "TEMPLATE_NOT_FOUND", "Checklist template not found")
		return
	}

	respondData(c, http.StatusOK, template)
}
