package routes

import (
	"time"

	"mindbridge/handlers"
	"mindbridge/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all endpoints with the assembled handler bundle.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Public: slot discovery and the provider webhook.
	slots := r.Group("/api/slots")
	{
		slots.GET("/:professionalId/:date", hb.Slots.ListBookableSlots)
	}
	r.POST("/api/payments/webhook", hb.Payments.Webhook)

	// Availability management (professionals).
	availability := r.Group("/api/availability")
	availability.Use(middleware.AuthMiddleware())
	{
		availability.POST("", hb.Availability.DeclareAvailability)
		availability.GET("/:date", hb.Availability.ListAvailability)
		availability.DELETE("/:id", hb.Availability.DeleteAvailability)
	}

	// Reservation lifecycle.
	reservations := r.Group("/api/reservations")
	reservations.Use(middleware.AuthMiddleware())
	{
		reservations.POST("", hb.Reservations.CreateReservation)
		reservations.GET("", hb.Reservations.ListMyReservations)
		reservations.GET("/:id", hb.Reservations.GetReservation)
		reservations.GET("/:id/consultation", hb.Messaging.GetConsultationForReservation)
		reservations.DELETE("/:id", hb.Reservations.CancelReservation)
		reservations.POST("/:id/complete", hb.Reservations.CompleteReservation)
		reservations.GET("/calendar/:date", hb.Reservations.ListCalendar)
	}

	// Payment initiation.
	payments := r.Group("/api/payments")
	payments.Use(middleware.AuthMiddleware())
	{
		payments.POST("/initiate", hb.Payments.InitiatePayment)
	}

	// Consultation messaging.
	consultations := r.Group("/api/consultations")
	consultations.Use(middleware.AuthMiddleware())
	{
		consultations.GET("/:id/messages", hb.Messaging.History)
		consultations.POST("/:id/messages", hb.Messaging.SendMessage)
		consultations.GET("/:id/stream", hb.Messaging.StreamConsultation)
	}
}
