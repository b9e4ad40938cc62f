package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/harborpoint/homewatch-api/config"
	"github.com/harborpoint/homewatch-api/models"
	"github.com/stretchr/testify/assert"
)

func TestListNotifications(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	user := createTestUser(t, db, models.RoleCustomer)
	other := createTestUser(t, db, models.RoleCustomer)

	db.Create(&models.Notification{UserID: user.ID, Type: models.NotificationInvoiceSent, Title: "Invoice"})
	db.Create(&models.Notification{UserID: user.ID, Type: models.NotificationInspectionCompleted, Title: "Report", Read: true})
	db.Create(&models.Notification{UserID: other.ID, Type: models.NotificationInvoiceSent, Title: "Not yours"})

	router := setupTestRouter()
	router.GET("/notifications", authAs(user), ListNotifications)

	// Own notifications only
	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Len(t, response["data"].([]interface{}), 2)

	// Unread filter
	req = httptest.NewRequest(http.MethodGet, "/notifications?unread=true", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	json.Unmarshal(w.Body.Bytes(), &response)
	data := response["data"].([]interface{})
	assert.Len(t, data, 1)
	assert.Equal(t, "Invoice", data[0].(map[string]interface{})["title"])
}

func TestMarkNotificationRead(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	user := createTestUser(t, db, models.RoleCustomer)

	notification := models.Notification{UserID: user.ID, Type: models.NotificationInvoiceSent, Title: "Invoice"}
	db.Create(&notification)

	router := setupTestRouter()
	router.PATCH("/notifications/:id/read", authAs(user), MarkNotificationRead)

	req := httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/notifications/%d/read", notification.ID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var updated models.Notification
	db.First(&updated, notification.ID)
	assert.True(t, updated.Read)
	assert.NotNil(t, updated.ReadAt)
	firstReadAt := *updated.ReadAt

	// Re-marking is a no-op, not an error, and keeps the original timestamp
	time.Sleep(5 * time.Millisecond)
	req = httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/notifications/%d/read", notification.ID), nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	db.First(&updated, notification.ID)
	assert.Equal(t, firstReadAt.Unix(), updated.ReadAt.Unix())
}

func TestMarkNotificationRead_NotYours(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	user := createTestUser(t, db, models.RoleCustomer)
	other := createTestUser(t, db, models.RoleCustomer)

	notification := models.Notification{UserID: other.ID, Type: models.NotificationInvoiceSent, Title: "Invoice"}
	db.Create(&notification)

	router := setupTestRouter()
	router.PATCH("/notifications/:id/read", authAs(user), MarkNotificationRead)

	req := httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/notifications/%d/read", notification.ID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// Scoped lookup: someone else's notification is simply not found
	assert.Equal(t, http.StatusNotFound, w.Code)
}
