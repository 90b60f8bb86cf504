package routes

import (
	"net/http"
	"time"

	"cargo/handlers"
	"cargo/middleware"
	"cargo/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes sets up the reservation endpoints. Listing all
// bookings and driving the lifecycle are staff operations; everything else
// is owner-scoped.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/bookings")
	{
		api.Use(middleware.AuthRequired())
		api.POST("", hb.CreateBooking)
		api.GET("/user", hb.ListMyBookings)
		api.GET("/:id", hb.GetBooking)
		api.PUT("/:id", hb.RescheduleBooking)
		api.DELETE("/:id", hb.CancelBooking)

		staff := api.Group("")
		staff.Use(middleware.RequireRoles(utils.RoleAdmin, utils.RoleBookingStaff))
		staff.GET("", hb.ListBookings)
		staff.PUT("/:id/status", hb.UpdateBookingStatus)
	}
}

// RegisterPaymentRoutes sets up the payment endpoints. The method list is
// public; refunds and the full ledger listing are staff operations.
func RegisterPaymentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/payments")
	{
		api.GET("/methods", hb.ListPaymentMethods)

		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		protected.POST("", hb.CreatePayment)
		protected.POST("/booking/:id", hb.PayBooking)
		protected.GET("/booking/:id", hb.ListBookingPayments)
		protected.GET("/:id", hb.GetPayment)

		staff := api.Group("")
		staff.Use(middleware.AuthRequired(), middleware.RequireRoles(utils.RoleAdmin, utils.RoleBookingStaff))
		staff.GET("", hb.ListPayments)
		staff.POST("/:id/refund", hb.RefundPayment)
	}
}

// RegisterWebhookRoutes sets up the provider callback endpoint. It is not
// behind AuthRequired: the HMAC signature over the raw body is the
// authentication.
func RegisterWebhookRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/api/payments/webhook", hb.PaymentWebhook)
}

// RegisterVehicleRoutes sets up the public availability endpoint.
func RegisterVehicleRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/api/vehicles/:id/availability", hb.CheckAvailability)
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":       "ok",
			"message":      "CarGo reservation service",
			"dependencies": utils.GetHealthStatus(),
		})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	// Setup global middleware (e.g., CORS) here.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", handlers.SignatureHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterVehicleRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterPaymentRoutes(r, hb)
	RegisterWebhookRoutes(r, hb)
}
