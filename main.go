package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/harborpoint/homewatch-api/config"
	"github.com/harborpoint/homewatch-api/controllers"
	"github.com/harborpoint/homewatch-api/middleware"
	"github.com/harborpoint/homewatch-api/models"
	"github.com/harborpoint/homewatch-api/services"
)

func main() {
	log.Println("Starting HomeWatch API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Initialize external service clients. Unconfigured integrations stay
	// nil and degrade gracefully (notification channels skip, invoices send
	// without a payment intent).
	if cfg.S3Configured() {
		if _, err := services.InitS3Service(); err != nil {
			log.Printf("S3 initialization failed, uploads disabled: %v", err)
		} else {
			services.InitUploadService(services.GetS3Service())
		}
	}
	if cfg.SMTPConfigured() {
		services.InitEmailService(cfg)
	}
	if cfg.TwilioConfigured() {
		services.InitSMSService(cfg)
	}
	if cfg.StripeConfigured() {
		services.InitPaymentService(cfg)
	}
	if cfg.GeocoderConfigured() {
		services.InitGeocodingService(cfg)
	}

	router := setupRouter(cfg)

	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRouter builds the Gin engine with middleware and all API routes.
func setupRouter(cfg *config.Config) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.PublicBaseURL, "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	v1 := router.Group("/api/v1")

	// Public endpoints
	v1.GET("/health", healthCheck)
	v1.GET("/database/status", databaseStatus)
	v1.GET("/integrations/status", integrationsStatus)

	// Provider webhooks authenticate via their own signature schemes
	webhooks := v1.Group("/webhooks")
	{
		webhooks.POST("/stripe", controllers.StripeWebhook)
		webhooks.POST("/twilio/sms", controllers.TwilioInboundSMS)
	}

	// Everything below requires a valid Auth0 token; LoadUser resolves the
	// token to a local user record and role.
	authed := v1.Group("")
	authed.Use(middleware.TokenFromQuery(), middleware.EnsureValidToken(cfg), middleware.LoadUser())
	{
		authed.GET("/ws", controllers.RealtimeFeed)

		authed.POST("/users", controllers.CreateUser)
		authed.GET("/users/me", controllers.GetMyProfile)
		authed.PUT("/users/me", controllers.UpdateMyProfile)

		authed.POST("/properties", controllers.CreateProperty)
		authed.GET("/properties", controllers.ListProperties)
		authed.GET("/properties/:id", controllers.GetProperty)
		authed.PUT("/properties/:id", controllers.UpdateProperty)
		authed.DELETE("/properties/:id", controllers.DeleteProperty)

		authed.GET("/inspections", controllers.ListInspections)
		authed.GET("/inspections/:id", controllers.GetInspection)
		authed.POST("/inspections/:id/check-in", controllers.CheckIn)
		authed.POST("/inspections/:id/check-out", controllers.CheckOut)
		authed.POST("/inspections/:id/submit", controllers.SubmitInspection)
		authed.POST("/inspections/:id/viewed", controllers.MarkInspectionViewed)

		authed.GET("/checklist-templates", controllers.ListChecklistTemplates)
		authed.GET("/checklist-templates/:id", controllers.GetChecklistTemplate)

		authed.POST("/service-requests", controllers.CreateServiceRequest)
		authed.GET("/service-requests", controllers.ListServiceRequests)
		authed.GET("/service-requests/:id", controllers.GetServiceRequest)
		authed.PATCH("/service-requests/:id", controllers.UpdateServiceRequest)

		authed.GET("/invoices", controllers.ListInvoices)
		authed.GET("/invoices/:id", controllers.GetInvoice)

		authed.GET("/notifications", controllers.ListNotifications)
		authed.PATCH("/notifications/:id/read", controllers.MarkNotificationRead)

		authed.POST("/conversations", controllers.StartConversation)
		authed.GET("/conversations", controllers.ListConversations)
		authed.GET("/conversations/:id/messages", controllers.ListMessages)
		authed.POST("/conversations/:id/messages", controllers.SendMessage)

		authed.POST("/uploads", controllers.UploadFile)
		authed.GET("/uploads/url", controllers.GetFileURL)

		// Staff-only management surface
		staff := authed.Group("")
		staff.Use(middleware.RequireStaff())
		{
			staff.GET("/users", controllers.ListUsers)
			staff.PATCH("/users/:id/role",
				middleware.RequireRole(models.RoleAdmin, models.RoleOwner),
				controllers.UpdateUserRole)

			staff.POST("/inspections", controllers.CreateInspection)
			staff.PUT("/inspections/:id", controllers.UpdateInspection)

			staff.POST("/checklist-templates", controllers.CreateChecklistTemplate)

			staff.POST("/invoices", controllers.CreateInvoice)
			staff.PUT("/invoices/:id/items", controllers.UpdateInvoiceItems)
			staff.POST("/invoices/:id/send", controllers.SendInvoice)
			staff.POST("/invoices/:id/pay", controllers.MarkInvoicePaid)
			staff.POST("/invoices/:id/cancel", controllers.CancelInvoice)
		}
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "HomeWatch API is running",
	})
}

// databaseStatus checks database connectivity
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
	})
}

// integrationsStatus reports which external integrations are configured,
// without exposing any credentials.
func integrationsStatus(c *gin.Context) {
	cfg := config.GetConfig()
	if cfg == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_CONFIGURED",
				"message": "Configuration not loaded",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"stripe":   cfg.StripeConfigured(),
			"twilio":   cfg.TwilioConfigured(),
			"email":    cfg.SMTPConfigured(),
			"storage":  cfg.S3Configured(),
			"geocoder": cfg.GeocoderConfigured(),
		},
	})
}
