package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"soulseer/config"
	"soulseer/cron"
	"soulseer/database"
	availabilityRepo "soulseer/database/repository/availability"
	readingRepo "soulseer/database/repository/reading"
	sessionRepo "soulseer/database/repository/session"
	"soulseer/handlers"
	"soulseer/middleware"
	"soulseer/routes"
	"soulseer/services/dispatch"
	"soulseer/services/payment"
	"soulseer/services/rates"
	"soulseer/services/scheduling"
	"soulseer/services/session"
	"soulseer/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())
	stripe.Key = config.AppConfig.StripeKey

	// repositories.
	sessRepo := sessionRepo.NewMongoSessionRepo()
	readRepo := readingRepo.NewMongoReadingRepo()
	availRepo := availabilityRepo.NewMongoAvailabilityRepo()

	clock := utils.RealClock()
	ids := utils.UUIDGenerator()

	rateCatalog, err := rates.NewCatalog(nil)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to build rate catalog: %v", err)
	}

	// services.
	gateway := payment.NewStripeHoldGateway(logger, "")

	registry := session.NewRegistry(clock, time.Duration(config.AppConfig.SessionGraceSecs)*time.Second)
	lifecycle := session.NewLifecycleManager(registry, gateway, sessRepo, clock, ids, logger, session.ManagerConfig{
		HoldBufferMinutes: config.AppConfig.HoldBufferMinutes,
		TickInterval:      time.Duration(config.AppConfig.MeterTickSeconds) * time.Second,
		GatewayTimeout:    time.Duration(config.AppConfig.GatewayTimeoutSecs) * time.Second,
		SettleMaxRetries:  config.AppConfig.SettleMaxRetries,
		PendingTimeout:    time.Duration(config.AppConfig.PendingTTLSeconds) * time.Second,
	})

	bookingEngine := scheduling.NewBookingEngine(readRepo, availRepo, rateCatalog, clock, ids, logger)

	taskClient := cron.NewTaskClient()
	defer taskClient.Close()
	dispatcher := dispatch.NewDispatcher(
		lifecycle, rateCatalog, utils.GetCacheClient(), taskClient,
		clock, ids, logger,
		time.Duration(config.AppConfig.RequestTTLSeconds)*time.Second,
	)
	cron.InitExpiryWorker(dispatcher)

	sessionHandler := handlers.NewSessionHandler(lifecycle, rateCatalog, logger)
	schedulingHandler := handlers.NewSchedulingHandler(bookingEngine, logger)
	requestHandler := handlers.NewRequestHandler(dispatcher, logger)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		// Metered session endpoints.
		RequestSession: sessionHandler.RequestSession,
		StartSession:   sessionHandler.StartSession,
		EndSession:     sessionHandler.EndSession,
		CancelSession:  sessionHandler.CancelSession,
		GetSession:     sessionHandler.GetSession,
		StreamBilling:  sessionHandler.StreamBilling,
		GetPackages:    sessionHandler.GetPackages,

		// Scheduled reading endpoints.
		GetSlots:          schedulingHandler.GetSlots,
		BookReading:       schedulingHandler.BookReading,
		RescheduleReading: schedulingHandler.RescheduleReading,
		CancelReading:     schedulingHandler.CancelReading,
		ListReadings:      schedulingHandler.ListReadings,
		SetAvailability:   schedulingHandler.SetAvailability,

		// Instant reading request endpoints.
		SendRequest:    requestHandler.SendRequest,
		AcceptRequest:  requestHandler.AcceptRequest,
		DeclineRequest: requestHandler.DeclineRequest,
		GetRequest:     requestHandler.GetRequest,
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
