package acceptance

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/harborpoint/homewatch-api/config"
	"github.com/harborpoint/homewatch-api/controllers"
	"github.com/harborpoint/homewatch-api/middleware"
	"github.com/harborpoint/homewatch-api/models"
	"github.com/harborpoint/homewatch-api/services"
	"github.com/harborpoint/homewatch-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// FileUploadAcceptanceTestSuite uploads files over real HTTP, the way a
// mobile client submits inspection photos.
type FileUploadAcceptanceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	server  *httptest.Server
	uploads *services.MockUploadService
	user    *models.User
}

// SetupSuite runs once before all tests
func (suite *FileUploadAcceptanceTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	suite.NoError(err)
	suite.NoError(db.AutoMigrate(models.AllModels()...))
	suite.db = db
	config.SetDB(db)

	suite.uploads = services.NewMockUploadService()
	suite.uploads.SetAsMockForTesting()

	suite.user = &models.User{
		Auth0ID: "auth0|photo-tech",
		Name:    "Photo Tech",
		Email:   "photo-tech@example.com",
		Role:    models.RoleTechnician,
	}
	suite.NoError(db.Create(suite.user).Error)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(func(c *gin.Context) {
		middleware.SetAuthContext(c, &middleware.AuthContext{User: suite.user, Role: suite.user.Role})
		c.Next()
	})
	v1 := router.Group("/api/v1")
	v1.POST("/uploads", controllers.UploadFile)
	v1.GET("/uploads/url", controllers.GetFileURL)

	suite.server = httptest.NewServer(router)
}

// TearDownSuite runs once after all tests
func (suite *FileUploadAcceptanceTestSuite) TearDownSuite() {
	suite.server.Close()
	services.SetUploadService(nil)
	if suite.db != nil {
		sqlDB, _ := suite.db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	}
}

// SetupTest runs before each test
func (suite *FileUploadAcceptanceTestSuite) SetupTest() {
	suite.uploads.Clear()
}

// uploadFile posts a multipart upload and returns the response
func (suite *FileUploadAcceptanceTestSuite) uploadFile(bucket, filename string, content []byte) (*http.Response, map[string]interface{}) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	suite.NoError(writer.WriteField("bucket", bucket))
	part, err := writer.CreateFormFile("file", filename)
	suite.NoError(err)
	_, err = part.Write(content)
	suite.NoError(err)
	suite.NoError(writer.Close())

	req, err := http.NewRequest(http.MethodPost, suite.server.URL+"/api/v1/uploads", body)
	suite.NoError(err)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	suite.NoError(err)

	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	suite.NoError(err)

	var parsed map[string]interface{}
	suite.NoError(json.Unmarshal(raw, &parsed))
	return resp, parsed
}

// TestPhotoUploadWorkflow uploads an inspection photo and fetches its URL
func (suite *FileUploadAcceptanceTestSuite) TestPhotoUploadWorkflow() {
	resp, body := suite.uploadFile(utils.BucketInspectionPhotos, "roof-stain.jpg", []byte("jpeg content"))
	suite.Equal(http.StatusCreated, resp.StatusCode)

	data := body["data"].(map[string]interface{})
	key := data["key"].(string)
	assert.True(suite.T(), suite.uploads.FileExists(key))

	urlReq, err := http.NewRequest(http.MethodGet, suite.server.URL+"/api/v1/uploads/url?key="+key, nil)
	suite.NoError(err)
	urlResp, err := http.DefaultClient.Do(urlReq)
	suite.NoError(err)
	defer urlResp.Body.Close()

	suite.Equal(http.StatusOK, urlResp.StatusCode)

	raw, err := io.ReadAll(urlResp.Body)
	suite.NoError(err)
	var parsed map[string]interface{}
	suite.NoError(json.Unmarshal(raw, &parsed))
	assert.Contains(suite.T(), parsed["data"].(map[string]interface{})["url"], key)
}

// TestRejectedUploadLeavesNoObject verifies nothing is stored on validation failure
func (suite *FileUploadAcceptanceTestSuite) TestRejectedUploadLeavesNoObject() {
	resp, body := suite.uploadFile(utils.BucketInspectionPhotos, "notes.txt", []byte("plain text"))
	suite.Equal(http.StatusBadRequest, resp.StatusCode)

	errorObj := body["error"].(map[string]interface{})
	assert.Equal(suite.T(), "INVALID_FILE_FORMAT", errorObj["code"])
	assert.Empty(suite.T(), suite.uploads.GetUploadedFiles())
}

// TestRunSuite runs the acceptance test suite
func TestFileUploadAcceptanceTestSuite(t *testing.T) {
	suite.Run(t, new(FileUploadAcceptanceTestSuite))
}
