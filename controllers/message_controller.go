package controllers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harborpoint/homewatch-api/config"
	"github.com/harborpoint/homewatch-api/middleware"
	"github.com/harborpoint/homewatch-api/models"
	"github.com/harborpoint/homewatch-api/realtime"
	"github.com/harborpoint/homewatch-api/services"
	"gorm.io/gorm"
)

// StartConversationRequest represents the request body for opening a thread.
// CustomerID is only honored for staff callers starting a thread on a
// customer's behalf.
type StartConversationRequest struct {
	CustomerID uint   `json:"customer_id"`
	Subject    string `json:"subject"`
	Body       string `json:"body" binding:"required"`
}

// SendMessageRequest represents the request body for sending a message
type SendMessageRequest struct {
	Body string `json:"body" binding:"required"`
}

// StartConversation handles POST /api/v1/conversations - opens a thread with
// its first message. Customers open threads with the staff side; staff may
// open a thread toward any customer.
func StartConversation(c *gin.Context) {
	user, ok := middleware.RequireConfirmedUser(c)
	if !ok {
		return
	}

	var req StartConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	db := config.GetDB()

	customerID := user.ID
	if user.IsStaff() {
		if req.CustomerID == 0 {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "customer_id is required for staff-initiated conversations")
			return
		}
		var customer models.User
		if err := db.First(&customer, req.CustomerID).Error; err != nil {
			respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "Conversation customer not found")
			return
		}
		customerID = customer.ID
	}

	conversation := models.Conversation{
		CustomerID: customerID,
		Subject:    req.Subject,
	}
	if err := db.Create(&conversation).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create conversation")
		return
	}

	message, ok := appendMessage(c, db, &conversation, user, req.Body, nil)
	if !ok {
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"conversation": conversation,
			"message":      message,
		},
	})
}

// ListConversations handles GET /api/v1/conversations - staff see every
// thread, customers see their own. Newest activity first.
func ListConversations(c *gin.Context) {
	user, ok := middleware.RequireConfirmedUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	query := db.Preload("Customer").Order("last_message_at DESC")
	if !user.IsStaff() {
		query = query.Where("customer_id = ?", user.ID)
	}

	var conversations []models.Conversation
	if err := query.Find(&conversations).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch conversations")
		return
	}

	respondData(c, http.StatusOK, conversations)
}

// ListMessages handles GET /api/v1/conversations/:id/messages. Reading a
// thread clears the caller's side of the unread flag.
func ListMessages(c *gin.Context) {
	user, ok := middleware.RequireConfirmedUser(c)
	if !ok {
		return
	}

	conversation, ok := loadConversationScoped(c, user)
	if !ok {
		return
	}

	db := config.GetDB()

	var messages []models.Message
	if err := db.Preload("Sender").
		Where("conversation_id = ?", conversation.ID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch messages")
		return
	}

	unreadColumn := "customer_unread"
	if user.IsStaff() {
		unreadColumn = "staff_unread"
	}
	if err := db.Model(conversation).Update(unreadColumn, false).Error; err != nil {
		log.Printf("conversation %d: failed to clear unread flag: %v", conversation.ID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"conversation": conversation,
			"messages":     messages,
		},
	})
}

// SendMessage handles POST /api/v1/conversations/:id/messages
func SendMessage(c *gin.Context) {
	user, ok := middleware.RequireConfirmedUser(c)
	if !ok {
		return
	}

	conversation, ok := loadConversationScoped(c, user)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	message, ok := appendMessage(c, config.GetDB(), conversation, user, req.Body, nil)
	if !ok {
		return
	}

	respondData(c, http.StatusCreated, message)
}

// loadConversationScoped fetches the conversation from the :id route
// parameter and enforces scoping: the thread's customer or staff.
func loadConversationScoped(c *gin.Context, user *models.User) (*models.Conversation, bool) {
	db := config.GetDB()

	var conversation models.Conversation
	if err := db.Preload("Customer").First(&conversation, c.Param("id")).Error; err != nil {
		respondError(c, http.StatusNotFound, "CONVERSATION_NOT_FOUND", "Conversation not found")
		return nil, false
	}

	if conversation.CustomerID != user.ID && !user.IsStaff() {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You do not have access to this conversation")
		return nil, false
	}

	return &conversation, true
}

// appendMessage writes a message into a conversation, bumps the thread's
// activity timestamp, flips the counterpart's unread flag, and pushes the
// message over the realtime feed. When staff reply to a customer who opted
// into SMS, a copy goes out as a text; SMS delivery is best-effort.
//
// sender may be nil for messages arriving over the inbound SMS webhook;
// externalID then carries the provider SID.
func appendMessage(c *gin.Context, db *gorm.DB, conversation *models.Conversation, sender *models.User, body string, externalID *string) (*models.Message, bool) {
	message := models.Message{
		ConversationID: conversation.ID,
		Body:           body,
		ExternalID:     externalID,
	}
	fromStaff := false
	if sender != nil {
		message.SenderID = &sender.ID
		fromStaff = sender.IsStaff()
	}

	if err := db.Create(&message).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to send message")
		return nil, false
	}

	now := time.Now().UTC()
	updates := map[string]any{"last_message_at": &now}
	if fromStaff {
		updates["customer_unread"] = true
	} else {
		updates["staff_unread"] = true
	}
	if err := db.Model(conversation).Updates(updates).Error; err != nil {
		log.Printf("conversation %d: failed to update thread state: %v", conversation.ID, err)
	}

	deliverMessage(db, conversation, &message, fromStaff)

	return &message, true
}

// deliverMessage fans a stored message out: realtime push to the counterpart
// side, plus an SMS copy to opted-in customers for staff replies. Failures
// are logged; the message row is already the source of truth.
func deliverMessage(db *gorm.DB, conversation *models.Conversation, message *models.Message, fromStaff bool) {
	ev := realtime.Event{Type: "message.created", Data: message}

	if fromStaff {
		realtime.GetHub().Publish(conversation.CustomerID, ev)

		customer := conversation.Customer
		if customer.ID == 0 {
			if err := db.First(&customer, conversation.CustomerID).Error; err != nil {
				log.Printf("conversation %d: customer lookup failed: %v", conversation.ID, err)
				return
			}
		}
		if sms := services.GetSMSService(); sms != nil && customer.SMSEnabled && customer.Phone != "" {
			if _, err := sms.Send(customer.Phone, message.Body); err != nil {
				log.Printf("conversation %d: SMS copy to customer failed: %v", conversation.ID, err)
			}
		}
		return
	}

	var staffIDs []uint
	if err := db.Model(&models.User{}).
		Where("role IN ?", []string{models.RoleStaff, models.RoleAdmin, models.RoleOwner}).
		Pluck("id", &staffIDs).Error; err != nil {
		log.Printf("conversation %d: staff lookup failed: %v", conversation.ID, err)
		return
	}
	realtime.GetHub().PublishToUsers(staffIDs, ev)
}
