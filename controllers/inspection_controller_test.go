package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/harborpoint/homewatch-api/config"
	"github.com/harborpoint/homewatch-api/models"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// createTestInspection inserts an inspection in the given status, assigned to
// tech (may be nil).
func createTestInspection(t *testing.T, db *gorm.DB, property *models.Property, tech *models.User, status string) *models.Inspection {
	t.Helper()

	inspection := &models.Inspection{
		PropertyID: property.ID,
		Status:     status,
	}
	if tech != nil {
		inspection.TechnicianID = &tech.ID
	}
	if err := db.Create(inspection).Error; err != nil {
		t.Fatalf("Failed to create test inspection: %v", err)
	}
	return inspection
}

func TestCreateInspection(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	staff := createTestUser(t, db, models.RoleStaff)
	owner := createTestUser(t, db, models.RoleCustomer)
	tech := createTestUser(t, db, models.RoleTechnician)
	property := createTestProperty(t, db, owner)

	tests := []struct {
		name           string
		technicianID   *uint
		expectedStatus string
	}{
		{"Assigned at creation becomes scheduled", &tech.ID, models.InspectionStatusScheduled},
		{"Unassigned stays pending", nil, models.InspectionStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.POST("/inspections", authAs(staff), CreateInspection)

			scheduledDate := time.Now().UTC().Add(48 * time.Hour)
			payload := CreateInspectionRequest{
				PropertyID:    property.ID,
				TechnicianID:  tt.technicianID,
				ScheduledDate: &scheduledDate,
				TimeWindow:    "morning",
			}

			body, _ := json.Marshal(payload)
			req := httptest.NewRequest(http.MethodPost, "/inspections", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusCreated, w.Code, "Response body: %s", w.Body.String())

			var response map[string]interface{}
			json.Unmarshal(w.Body.Bytes(), &response)
			data := response["data"].(map[string]interface{})
			assert.Equal(t, tt.expectedStatus, data["status"])
		})
	}
}

func TestCreateInspection_ScheduledNotifiesOwner(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	staff := createTestUser(t, db, models.RoleStaff)
	owner := createTestUser(t, db, models.RoleCustomer)
	tech := createTestUser(t, db, models.RoleTechnician)
	property := createTestProperty(t, db, owner)

	router := setupTestRouter()
	router.POST("/inspections", authAs(staff), CreateInspection)

	payload := CreateInspectionRequest{
		PropertyID:   property.ID,
		TechnicianID: &tech.ID,
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/inspections", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var notifications []models.Notification
	db.Where("user_id = ? AND type = ?", owner.ID, models.NotificationInspectionScheduled).Find(&notifications)
	assert.Len(t, notifications, 1)
}

func TestCreateInspection_RejectsNonTechnicianAssignee(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	staff := createTestUser(t, db, models.RoleStaff)
	owner := createTestUser(t, db, models.RoleCustomer)
	property := createTestProperty(t, db, owner)

	router := setupTestRouter()
	router.POST("/inspections", authAs(staff), CreateInspection)

	payload := CreateInspectionRequest{
		PropertyID:   property.ID,
		TechnicianID: &owner.ID, // a customer, not a technician
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/inspections", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckIn_WithinGeofence(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	config.SetConfig(&config.Config{GeofenceRadiusMeters: config.DefaultGeofenceRadiusMeters})
	defer config.SetConfig(nil)

	owner := createTestUser(t, db, models.RoleCustomer)
	tech := createTestUser(t, db, models.RoleTechnician)
	property := createTestProperty(t, db, owner) // 26.1224, -80.1373
	inspection := createTestInspection(t, db, property, tech, models.InspectionStatusScheduled)

	router := setupTestRouter()
	router.POST("/inspections/:id/check-in", authAs(tech), CheckIn)

	// ~55m north of the property
	lat, lng := 26.1229, -80.1373
	body, _ := json.Marshal(CheckInRequest{Latitude: &lat, Longitude: &lng})
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/inspections/%d/check-in", inspection.ID), bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "Response body: %s", w.Body.String())

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	data := response["data"].(map[string]interface{})
	assert.True(t, data["location_verified"].(bool))

	var updated models.Inspection
	db.First(&updated, inspection.ID)
	assert.Equal(t, models.InspectionStatusInProgress, updated.Status)
	assert.NotNil(t, updated.CheckInAt)
	assert.True(t, *updated.CheckInVerified)
}

func TestCheckIn_OutsideGeofenceStillSucceeds(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	config.SetConfig(&config.Config{GeofenceRadiusMeters: config.DefaultGeofenceRadiusMeters})
	defer config.SetConfig(nil)

	owner := createTestUser(t, db, models.RoleCustomer)
	tech := createTestUser(t, db, models.RoleTechnician)
	property := createTestProperty(t, db, owner)
	inspection := createTestInspection(t, db, property, tech, models.InspectionStatusScheduled)

	router := setupTestRouter()
	router.POST("/inspections/:id/check-in", authAs(tech), CheckIn)

	// ~200m north of the property, past the ~161m radius
	lat, lng := 26.1242, -80.1373
	body, _ := json.Marshal(CheckInRequest{Latitude: &lat, Longitude: &lng})
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/inspections/%d/check-in", inspection.ID), bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// Unverified position is recorded, never blocks the check-in
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	data := response["data"].(map[string]interface{})
	assert.False(t, data["location_verified"].(bool))
	assert.Contains(t, data["message"].(string), "could not be verified")

	var updated models.Inspection
	db.First(&updated, inspection.ID)
	assert.Equal(t, models.InspectionStatusInProgress, updated.Status)
	assert.False(t, *updated.CheckInVerified)
}

func TestCheckIn_NoPropertyCoordinates(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	owner := createTestUser(t, db, models.RoleCustomer)
	tech := createTestUser(t, db, models.RoleTechnician)
	property := createTestProperty(t, db, owner)
	db.Model(property).Updates(map[string]any{"latitude": nil, "longitude": nil})
	inspection := createTestInspection(t, db, property, tech, models.InspectionStatusScheduled)

	router := setupTestRouter()
	router.POST("/inspections/:id/check-in", authAs(tech), CheckIn)

	lat, lng := 40.0, -75.0
	body, _ := json.Marshal(CheckInRequest{Latitude: &lat, Longitude: &lng})
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/inspections/%d/check-in", inspection.ID), bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// A property without coordinates cannot be verified against, so the
	// check-in is trivially accepted
	assert.Equal(t, http.StatusOK, w.Code)

	var updated models.Inspection
	db.First(&updated, inspection.ID)
	assert.True(t, *updated.CheckInVerified)
}

func TestCheckIn_WrongState(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	owner := createTestUser(t, db, models.RoleCustomer)
	tech := createTestUser(t, db, models.RoleTechnician)
	property := createTestProperty(t, db, owner)

	for _, status := range []string{
		models.InspectionStatusPending,
		models.InspectionStatusInProgress,
		models.InspectionStatusCompleted,
	} {
		t.Run(status, func(t *testing.T) {
			inspection := createTestInspection(t, db, property, tech, status)

			router := setupTestRouter()
			router.POST("/inspections/:id/check-in", authAs(tech), CheckIn)

			lat, lng := 26.1224, -80.1373
			body, _ := json.Marshal(CheckInRequest{Latitude: &lat, Longitude: &lng})
			req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/inspections/%d/check-in", inspection.ID), bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusConflict, w.Code)

			var response map[string]interface{}
			json.Unmarshal(w.Body.Bytes(), &response)
			errorData := response["error"].(map[string]interface{})
			assert.Equal(t, "INVALID_STATE", errorData["code"])
		})
	}
}

func TestCheckIn_OnlyAssignedTechnician(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	owner := createTestUser(t, db, models.RoleCustomer)
	assigned := createTestUser(t, db, models.RoleTechnician)
	other := createTestUser(t, db, models.RoleTechnician)
	property := createTestProperty(t, db, owner)
	inspection := createTestInspection(t, db, property, assigned, models.InspectionStatusScheduled)

	router := setupTestRouter()
	router.POST("/inspections/:id/check-in", authAs(other), CheckIn)

	lat, lng := 26.1224, -80.1373
	body, _ := json.Marshal(CheckInRequest{Latitude: &lat, Longitude: &lng})
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/inspections/%d/check-in", inspection.ID), bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCheckIn_MissingCoordinates(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	owner := createTestUser(t, db, models.RoleCustomer)
	tech := createTestUser(t, db, models.RoleTechnician)
	property := createTestProperty(t, db, owner)
	inspection := createTestInspection(t, db, property, tech, models.InspectionStatusScheduled)

	router := setupTestRouter()
	router.POST("/inspections/:id/check-in", authAs(tech), CheckIn)

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/inspections/%d/check-in", inspection.ID), bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckOut(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	owner := createTestUser(t, db, models.RoleCustomer)
	tech := createTestUser(t, db, models.RoleTechnician)
	property := createTestProperty(t, db, owner)
	inspection := createTestInspection(t, db, property, tech, models.InspectionStatusInProgress)

	router := setupTestRouter()
	router.POST("/inspections/:id/check-out", authAs(tech), CheckOut)

	lat, lng := 26.1225, -80.1374
	body, _ := json.Marshal(CheckOutRequest{Latitude: &lat, Longitude: &lng})
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/inspections/%d/check-out", inspection.ID), bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var updated models.Inspection
	db.First(&updated, inspection.ID)
	assert.NotNil(t, updated.CheckOutAt)
	// Check-out does not complete the inspection; submit does
	assert.Equal(t, models.InspectionStatusInProgress, updated.Status)
}

func TestCheckOut_RequiresInProgress(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	owner := createTestUser(t, db, models.RoleCustomer)
	tech := createTestUser(t, db, models.RoleTechnician)
	property := createTestProperty(t, db, owner)
	inspection := createTestInspection(t, db, property, tech, models.InspectionStatusScheduled)

	router := setupTestRouter()
	router.POST("/inspections/:id/check-out", authAs(tech), CheckOut)

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/inspections/%d/check-out", inspection.ID), bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSubmitInspection(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	owner := createTestUser(t, db, models.RoleCustomer)
	tech := createTestUser(t, db, models.RoleTechnician)
	property := createTestProperty(t, db, owner)

	tests := []struct {
		name            string
		issues          []string
		expectedOutcome string
	}{
		{"No issues yields good", nil, models.OutcomeGood},
		{"Issues drive the outcome", []string{"roof leak over lanai"}, models.OutcomeIssuesFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inspection := createTestInspection(t, db, property, tech, models.InspectionStatusInProgress)

			router := setupTestRouter()
			router.POST("/inspections/:id/submit", authAs(tech), SubmitInspection)

			payload := SubmitInspectionRequest{
				ChecklistResponses: []models.ChecklistResponse{
					{Item: "Check A/C", Response: "ok"},
					{Item: "Check roof", Response: "issue", Notes: "leak"},
				},
				IssuesFound: tt.issues,
				Summary:     "Visit complete",
			}
			body, _ := json.Marshal(payload)
			req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/inspections/%d/submit", inspection.ID), bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code, "Response body: %s", w.Body.String())

			var updated models.Inspection
			db.First(&updated, inspection.ID)
			assert.Equal(t, models.InspectionStatusCompleted, updated.Status)
			assert.Equal(t, tt.expectedOutcome, updated.OverallStatus)
			assert.NotNil(t, updated.ReportGeneratedAt)
			assert.Len(t, updated.ChecklistResponses, 2)

			// Report-ready notification for the owner
			var count int64
			db.Model(&models.Notification{}).
				Where("user_id = ? AND type = ?", owner.ID, models.NotificationInspectionCompleted).
				Count(&count)
			assert.Greater(t, count, int64(0))
		})
	}
}

func TestSubmitInspection_CompletedIsConflict(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	owner := createTestUser(t, db, models.RoleCustomer)
	tech := createTestUser(t, db, models.RoleTechnician)
	property := createTestProperty(t, db, owner)
	inspection := createTestInspection(t, db, property, tech, models.InspectionStatusCompleted)

	router := setupTestRouter()
	router.POST("/inspections/:id/submit", authAs(tech), SubmitInspection)

	body, _ := json.Marshal(SubmitInspectionRequest{Summary: "retry"})
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/inspections/%d/submit", inspection.ID), bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	errorData := response["error"].(map[string]interface{})
	assert.Equal(t, "INVALID_STATE", errorData["code"])
}

func TestListInspections_Scoping(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	owner1 := createTestUser(t, db, models.RoleCustomer)
	owner2 := createTestUser(t, db, models.RoleCustomer)
	tech := createTestUser(t, db, models.RoleTechnician)
	staff := createTestUser(t, db, models.RoleStaff)

	p1 := createTestProperty(t, db, owner1)
	p2 := createTestProperty(t, db, owner2)

	createTestInspection(t, db, p1, tech, models.InspectionStatusScheduled)
	createTestInspection(t, db, p1, nil, models.InspectionStatusPending)
	createTestInspection(t, db, p2, nil, models.InspectionStatusPending)

	tests := []struct {
		name     string
		user     *models.User
		query    string
		expected int
	}{
		{"Staff see all", staff, "", 3},
		{"Owner sees own properties", owner1, "", 2},
		{"Technician sees assigned", tech, "", 1},
		{"Status filter applies", staff, "?status=pending", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.GET("/inspections", authAs(tt.user), ListInspections)

			req := httptest.NewRequest(http.MethodGet, "/inspections"+tt.query, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)

			var response map[string]interface{}
			json.Unmarshal(w.Body.Bytes(), &response)
			assert.Len(t, response["data"].([]interface{}), tt.expected)
		})
	}
}

func TestMarkInspectionViewed(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	owner := createTestUser(t, db, models.RoleCustomer)
	tech := createTestUser(t, db, models.RoleTechnician)
	property := createTestProperty(t, db, owner)
	inspection := createTestInspection(t, db, property, tech, models.InspectionStatusCompleted)

	router := setupTestRouter()
	router.POST("/inspections/:id/viewed", authAs(owner), MarkInspectionViewed)

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/inspections/%d/viewed", inspection.ID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var updated models.Inspection
	db.First(&updated, inspection.ID)
	assert.True(t, updated.CustomerViewed)
}
