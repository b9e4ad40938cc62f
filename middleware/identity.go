package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/harborpoint/homewatch-api/config"
	"github.com/harborpoint/homewatch-api/models"
)

const authContextKey = "auth_context"

// AuthContext is the resolved identity for the current request: the database
// user (nil when no row matches the principal) and the effective role.
type AuthContext struct {
	User *models.User
	Role string
}

// Confirmed reports whether the principal was matched to a database row.
func (a *AuthContext) Confirmed() bool {
	return a.User != nil
}

// LoadUser resolves the authenticated principal to a database user and role
// by matching the Auth0 subject.
//
// A missing row is NOT an error: the request proceeds with the customer role
// and no user record. Failing closed here causes a redirect loop on the
// client when the lookup fails transiently, so unconfirmed principals get
// the lowest privilege instead of a denial.
func LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth0ID, err := GetUserID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Could not extract user information",
				},
			})
			c.Abort()
			return
		}

		ac := &AuthContext{Role: models.RoleCustomer}

		db := config.GetDB()
		var user models.User
		if err := db.Where("auth0_id = ?", auth0ID).First(&user).Error; err == nil {
			ac.User = &user
			ac.Role = user.Role
		}

		c.Set(authContextKey, ac)
		c.Next()
	}
}

// GetAuthContext returns the resolved AuthContext for the request. It is only
// valid after LoadUser has run.
func GetAuthContext(c *gin.Context) *AuthContext {
	if v, exists := c.Get(authContextKey); exists {
		if ac, ok := v.(*AuthContext); ok {
			return ac
		}
	}
	return &AuthContext{Role: models.RoleCustomer}
}

// SetAuthContext stores an AuthContext directly (primarily for testing).
func SetAuthContext(c *gin.Context, ac *AuthContext) {
	c.Set(authContextKey, ac)
}

// RequireRole aborts with 403 unless the resolved role is one of the given
// roles. Role checks are always re-performed server-side; the client's idea
// of its own role is never trusted.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		ac := GetAuthContext(c)
		if !allowed[ac.Role] {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "Insufficient permissions to access this resource",
				},
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireStaff is shorthand for RequireRole(staff, admin, owner).
func RequireStaff() gin.HandlerFunc {
	return RequireRole(models.RoleStaff, models.RoleAdmin, models.RoleOwner)
}

// RequireConfirmedUser returns the AuthContext's user, writing a 404 response
// and returning ok=false when the principal has no profile row yet.
func RequireConfirmedUser(c *gin.Context) (*models.User, bool) {
	ac := GetAuthContext(c)
	if !ac.Confirmed() {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "USER_NOT_FOUND",
				"message": "User profile not found. Please create a profile first.",
			},
		})
		return nil, false
	}
	return ac.User, true
}
