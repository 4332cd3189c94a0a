// File: mindbridge/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mindbridge/config"
	"mindbridge/cron"
	"mindbridge/database"
	availabilityRepo "mindbridge/database/repository/availability"
	consultationRepo "mindbridge/database/repository/consultation"
	messageRepo "mindbridge/database/repository/message"
	reservationRepo "mindbridge/database/repository/reservation"
	"mindbridge/handlers"
	"mindbridge/middleware"
	"mindbridge/routes"
	"mindbridge/services/channel"
	"mindbridge/services/notification"
	"mindbridge/services/payment"
	"mindbridge/services/reservation"
	"mindbridge/services/scheduling"
	"mindbridge/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitPubSub()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())
	stripe.Key = config.AppConfig.StripeKey

	// repositories.
	resRepo := reservationRepo.NewMongoReservationRepo()
	consRepo := consultationRepo.NewMongoConsultationRepo()
	msgRepo := messageRepo.NewMongoMessageRepo()
	availRepo := availabilityRepo.NewMongoAvailabilityRepo()

	// services.
	events := &notification.LogEmitter{Logger: logger}

	reservationService := &reservation.DefaultReservationService{
		Repo:          resRepo,
		Consultations: consRepo,
		Events:        events,
		Expiry:        cron.NewAsynqExpiryScheduler(),
		PaymentWindow: config.PaymentWindow(),
		Price:         config.AppConfig.ConsultationPrice,
		Logger:        logger,
	}

	slotService := &scheduling.DefaultSlotService{
		Availability: availRepo,
		Reservations: resRepo,
		Duration:     config.AppConfig.SlotDurationMinutes,
	}

	orchestrator := &payment.DefaultPaymentOrchestrator{
		Reservations: reservationService,
		Provider: &payment.StripeProvider{
			WebhookSecret: config.AppConfig.StripeWebhookSecret,
			Currency:      config.AppConfig.Currency,
		},
		MaxAttempts:  3,
		RetryBackoff: 500 * time.Millisecond,
		Logger:       logger,
	}

	channelService := &channel.DefaultChannelService{
		Broker:          &channel.RedisBroker{Client: utils.GetPubSubClient()},
		Messages:        msgRepo,
		Consultations:   consRepo,
		Reservations:    reservationService,
		PublishAttempts: 3,
		Logger:          logger,
	}

	// Background expiry: per-reservation deferred tasks plus a periodic sweep.
	cron.InitExpiryWorker(reservationService)
	sweep := cron.InitExpirySweep(reservationService)
	defer sweep.Stop()

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		Slots:        handlers.NewSlotHandler(slotService),
		Availability: handlers.NewAvailabilityHandler(availRepo),
		Reservations: handlers.NewReservationHandler(reservationService),
		Payments:     handlers.NewPaymentHandler(orchestrator),
		Messaging:    handlers.NewMessagingHandler(channelService),
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
