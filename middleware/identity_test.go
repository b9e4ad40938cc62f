package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/harborpoint/homewatch-api/config"
	"github.com/harborpoint/homewatch-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupIdentityDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

func TestLoadUser_ConfirmedUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupIdentityDB(t)
	config.SetDB(db)

	user := models.User{
		Auth0ID: "auth0|tech1",
		Name:    "Field Tech",
		Email:   "tech@example.com",
		Role:    models.RoleTechnician,
	}
	require.NoError(t, db.Create(&user).Error)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", "auth0|tech1")
	})
	router.Use(LoadUser())
	router.GET("/whoami", func(c *gin.Context) {
		ac := GetAuthContext(c)
		assert.True(t, ac.Confirmed())
		assert.Equal(t, models.RoleTechnician, ac.Role)
		assert.Equal(t, user.ID, ac.User.ID)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoadUser_UnknownPrincipalFailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupIdentityDB(t)
	config.SetDB(db)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", "auth0|nobody")
	})
	router.Use(LoadUser())
	router.GET("/whoami", func(c *gin.Context) {
		ac := GetAuthContext(c)
		// No profile row: request proceeds with the lowest privilege
		assert.False(t, ac.Confirmed())
		assert.Equal(t, models.RoleCustomer, ac.Role)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoadUser_NoPrincipal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupIdentityDB(t)
	config.SetDB(db)

	router := gin.New()
	router.Use(LoadUser())
	router.GET("/whoami", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		role     string
		required []string
		wantCode int
	}{
		{"allowed role", models.RoleAdmin, []string{models.RoleAdmin, models.RoleOwner}, http.StatusOK},
		{"disallowed role", models.RoleCustomer, []string{models.RoleAdmin}, http.StatusForbidden},
		{"no auth context defaults to customer", "", []string{models.RoleStaff}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			if tt.role != "" {
				router.Use(func(c *gin.Context) {
					SetAuthContext(c, &AuthContext{Role: tt.role})
				})
			}
			router.Use(RequireRole(tt.required...))
			router.GET("/admin", func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestRequireStaff(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		role     string
		wantCode int
	}{
		{models.RoleStaff, http.StatusOK},
		{models.RoleAdmin, http.StatusOK},
		{models.RoleOwner, http.StatusOK},
		{models.RoleTechnician, http.StatusForbidden},
		{models.RoleCustomer, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			router := gin.New()
			router.Use(func(c *gin.Context) {
				SetAuthContext(c, &AuthContext{Role: tt.role})
			})
			router.Use(RequireStaff())
			router.GET("/staff", func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/staff", nil))
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestRequireConfirmedUser(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	user := &models.User{ID: 3, Role: models.RoleCustomer}
	SetAuthContext(c, &AuthContext{User: user, Role: user.Role})

	got, ok := RequireConfirmedUser(c)
	assert.True(t, ok)
	assert.Equal(t, user, got)

	// Unconfirmed principal gets a 404 with a profile hint
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	SetAuthContext(c, &AuthContext{Role: models.RoleCustomer})

	got, ok = RequireConfirmedUser(c)
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "USER_NOT_FOUND")
}
