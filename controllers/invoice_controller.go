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
	"gorm.io/gorm"
)

// InvoiceItemInput is one line item in an invoice payload
type InvoiceItemInput struct {
	Description string  `json:"description" binding:"required"`
	Quantity    int     `json:"quantity" binding:"required,gt=0"`
	UnitPrice   float64 `json:"unit_price" binding:"required,gte=0"`
}

// CreateInvoiceRequest represents the request body for creating an invoice
type CreateInvoiceRequest struct {
	CustomerID uint               `json:"customer_id" binding:"required"`
	PropertyID *uint              `json:"property_id"`
	Items      []InvoiceItemInput `json:"items" binding:"required,min=1,dive"`
	Tax        float64            `json:"tax" binding:"gte=0"`
	DueDate    *time.Time         `json:"due_date"`
	Notes      string             `json:"notes"`
}

// UpdateInvoiceItemsRequest replaces an invoice's line items and tax
type UpdateInvoiceItemsRequest struct {
	Items []InvoiceItemInput `json:"items" binding:"required,min=1,dive"`
	Tax   *float64           `json:"tax" binding:"omitempty,gte=0"`
}

// CreateInvoice handles POST /api/v1/invoices (staff and above; route is
// guarded by RequireStaff). Totals are computed server-side from the items:
// subtotal = sum(quantity * unit_price), total = subtotal + tax.
func CreateInvoice(c *gin.Context) {
	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	db := config.GetDB()

	var customer models.User
	if err := db.First(&customer, req.CustomerID).Error; err != nil {
		respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "Invoice customer not found")
		return
	}

	if req.PropertyID != nil {
		var property models.Property
		if err := db.First(&property, *req.PropertyID).Error; err != nil {
			respondError(c, http.StatusNotFound, "PROPERTY_NOT_FOUND", "Invoice property not found")
			return
		}
	}

	invoice := models.Invoice{
		CustomerID: req.CustomerID,
		PropertyID: req.PropertyID,
		Status:     models.InvoiceStatusDraft,
		Tax:        req.Tax,
		DueDate:    req.DueDate,
		Notes:      req.Notes,
	}
	for _, item := range req.Items {
		invoice.Items = append(invoice.Items, models.InvoiceItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	invoice.Recalculate()

	if err := db.Create(&invoice).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create invoice")
		return
	}

	if err := db.Preload("Customer").Preload("Items").First(&invoice, invoice.ID).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load invoice details")
		return
	}

	respondData(c, http.StatusCreated, invoice)
}

// ListInvoices handles GET /api/v1/invoices - staff see all, customers see
// their own. Responses carry effective_status with overdue derived at read
// time.
func ListInvoices(c *gin.Context) {
	user, ok := middleware.RequireConfirmedUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	query := db.Preload("Customer").Preload("Items").Order("created_at DESC")
	if !user.IsStaff() {
		query = query.Where("customer_id = ?", user.ID)
	}

	var invoices []models.Invoice
	if err := query.Find(&invoices).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch invoices")
		return
	}

	now := time.Now().UTC()
	payload := make([]gin.H, 0, len(invoices))
	for i := range invoices {
		payload = append(payload, gin.H{
			"invoice":          invoices[i],
			"effective_status": invoices[i].EffectiveStatus(now),
		})
	}

	respondData(c, http.StatusOK, payload)
}

// GetInvoice handles GET /api/v1/invoices/:id
func GetInvoice(c *gin.Context) {
	user, ok := middleware.RequireConfirmedUser(c)
	if !ok {
		return
	}

	invoice, ok := loadInvoiceScoped(c, user)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"invoice":          invoice,
			"effective_status": invoice.EffectiveStatus(time.Now().UTC()),
		},
	})
}

// UpdateInvoiceItems handles PUT /api/v1/invoices/:id/items (staff and
// above; route is guarded by RequireStaff). Only draft invoices can be
// edited; the line items are replaced and totals recomputed.
func UpdateInvoiceItems(c *gin.Context) {
	db := config.GetDB()

	var invoice models.Invoice
	if err := db.Preload("Items").First(&invoice, c.Param("id")).Error; err != nil {
		respondError(c, http.StatusNotFound, "INVOICE_NOT_FOUND", "Invoice not found")
		return
	}

	if invoice.Status != models.InvoiceStatusDraft {
		respondError(c, http.StatusConflict, "INVALID_STATE", "Only draft invoices can be edited")
		return
	}

	var req UpdateInvoiceItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if err := db.Where("invoice_id = ?", invoice.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update invoice items")
		return
	}

	invoice.Items = nil
	for _, item := range req.Items {
		invoice.Items = append(invoice.Items, models.InvoiceItem{
			InvoiceID:   invoice.ID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	if req.Tax != nil {
		invoice.Tax = *req.Tax
	}
	invoice.Recalculate()

	if err := db.Save(&invoice).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update invoice")
		return
	}

	respondData(c, http.StatusOK, invoice)
}

// SendInvoice handles POST /api/v1/invoices/:id/send (staff and above; route
// is guarded by RequireStaff). Moves draft -> sent, registers the total with
// the payment processor when configured, and notifies the customer. A
// processor failure does not block sending; the customer can still be billed
// manually.
func SendInvoice(c *gin.Context) {
	db := config.GetDB()

	var invoice models.Invoice
	if err := db.Preload("Customer").Preload("Items").First(&invoice, c.Param("id")).Error; err != nil {
		respondError(c, http.StatusNotFound, "INVOICE_NOT_FOUND", "Invoice not found")
		return
	}

	if invoice.Status != models.InvoiceStatusDraft {
		respondError(c, http.StatusConflict, "INVALID_STATE", "Only draft invoices can be sent")
		return
	}

	now := time.Now().UTC()
	invoice.Status = models.InvoiceStatusSent
	invoice.SentAt = &now

	if payments := services.GetPaymentService(); payments != nil {
		intentID, err := payments.CreatePaymentIntent(&invoice)
		if err != nil {
			log.Printf("invoice %d: payment intent creation failed: %v", invoice.ID, err)
		} else {
			invoice.StripePaymentIntentID = &intentID
		}
	}

	if err := db.Save(&invoice).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to send invoice")
		return
	}

	notifyInvoiceEvent(&invoice, models.NotificationInvoiceSent, "New invoice",
		fmt.Sprintf("Invoice #%d for $%.2f is ready to view and pay.", invoice.ID, invoice.Total))

	respondData(c, http.StatusOK, invoice)
}

// MarkInvoicePaid handles POST /api/v1/invoices/:id/pay (staff and above;
// route is guarded by RequireStaff) - a manual payment record, e.g. a check.
// Stripe payments arrive through the webhook instead.
func MarkInvoicePaid(c *gin.Context) {
	db := config.GetDB()

	var invoice models.Invoice
	if err := db.Preload("Customer").First(&invoice, c.Param("id")).Error; err != nil {
		respondError(c, http.StatusNotFound, "INVOICE_NOT_FOUND", "Invoice not found")
		return
	}

	switch invoice.Status {
	case models.InvoiceStatusSent, models.InvoiceStatusOverdue:
	default:
		respondError(c, http.StatusConflict, "INVALID_STATE", "Only sent invoices can be marked paid")
		return
	}

	if err := markInvoicePaid(db, &invoice); err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to record payment")
		return
	}

	respondData(c, http.StatusOK, invoice)
}

// CancelInvoice handles POST /api/v1/invoices/:id/cancel (staff and above;
// route is guarded by RequireStaff)
func CancelInvoice(c *gin.Context) {
	db := config.GetDB()

	var invoice models.Invoice
	if err := db.First(&invoice, c.Param("id")).Error; err != nil {
		respondError(c, http.StatusNotFound, "INVOICE_NOT_FOUND", "Invoice not found")
		return
	}

	if invoice.Status == models.InvoiceStatusPaid || invoice.Status == models.InvoiceStatusCancelled {
		respondError(c, http.StatusConflict, "INVALID_STATE", "Paid or cancelled invoices cannot be cancelled")
		return
	}

	if err := db.Model(&invoice).Update("status", models.InvoiceStatusCancelled).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to cancel invoice")
		return
	}

	respondData(c, http.StatusOK, invoice)
}

// loadInvoiceScoped fetches the invoice from the :id route parameter and
// enforces scoping: the billed customer or staff.
func loadInvoiceScoped(c *gin.Context, user *models.User) (*models.Invoice, bool) {
	db := config.GetDB()

	var invoice models.Invoice
	if err := db.Preload("Customer").Preload("Items").First(&invoice, c.Param("id")).Error; err != nil {
		respondError(c, http.StatusNotFound, "INVOICE_NOT_FOUND", "Invoice not found")
		return nil, false
	}

	if invoice.CustomerID != user.ID && !user.IsStaff() {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You do not have access to this invoice")
		return nil, false
	}

	return &invoice, true
}

// markInvoicePaid transitions an invoice to paid with a timestamp and
// notifies the customer. Shared by the manual path and the Stripe webhook;
// a failed write must reach the caller so the payment is not reported as
// recorded when it is not.
func markInvoicePaid(db *gorm.DB, invoice *models.Invoice) error {
	now := time.Now().UTC()
	invoice.Status = models.InvoiceStatusPaid
	invoice.PaidAt = &now

	if err := db.Save(invoice).Error; err != nil {
		log.Printf("invoice %d: failed to record payment: %v", invoice.ID, err)
		return err
	}

	notifyInvoiceEvent(invoice, models.NotificationInvoicePaid, "Payment received",
		fmt.Sprintf("Payment for invoice #%d ($%.2f) was received. Thank you!", invoice.ID, invoice.Total))
	return nil
}

// notifyInvoiceEvent tells the billed customer about an invoice event.
// Best-effort; never fails the billing operation.
func notifyInvoiceEvent(invoice *models.Invoice, eventType, title, body string) {
	if invoice.Customer.ID == 0 {
		return
	}

	_, err := services.Notify(&invoice.Customer, services.NotificationEvent{
		Type:  eventType,
		Title: title,
		Body:  body,
		Data: map[string]any{
			"invoice_id": invoice.ID,
			"link":       fmt.Sprintf("/invoices/%d", invoice.ID),
		},
	})
	if err != nil {
		log.Printf("invoice %d: notification fan-out failed: %v", invoice.ID, err)
	}
}
