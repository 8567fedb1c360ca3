package api

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// msisdnPattern matches Kenyan mobile numbers in local or international form.
var msisdnPattern = regexp.MustCompile(`^(?:\+254|254|0)(7|1)\d{8}$`)

func validMSISDN(fl validator.FieldLevel) bool {
	return msisdnPattern.MatchString(fl.Field().String())
}

// SetupRouter configures the Gin router with all routes and middleware.
func SetupRouter(handler *Handler, ginMode string, adminKey string) *gin.Engine {
	// Set Gin mode
	gin.SetMode(ginMode)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("msisdn", validMSISDN)
	}

	// Create router with default middleware (logger and recovery)
	router := gin.New()

	// Apply middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(CORSMiddleware())
	router.Use(RequestIDMiddleware())

	// Health check endpoint (no auth required)
	router.GET("/health", handler.Health)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		donations := v1.Group("/donations")
		{
			donations.POST("", handler.CreateDonation)

			// Pesapal calls these back, so no auth. The callback carries the
			// donor's browser; the IPN is server-to-server.
			donations.GET("/callback", handler.Callback)
			donations.GET("/ipn", handler.IPN)
		}

		admin := v1.Group("/admin/donations")
		admin.Use(AdminKeyMiddleware(adminKey))
		{
			admin.POST("/check-status", handler.CheckStatus)
			admin.GET("", handler.ListDonations)
			admin.GET("/stats", handler.DonationStats)
			admin.GET("/export", handler.ExportDonations)
		}
	}

	return router
}
