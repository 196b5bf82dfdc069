package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"caregate/config"
	"caregate/database"
	bookingRepo "caregate/database/repository/booking"
	fulfillmentRepo "caregate/database/repository/fulfillment"
	orderRepoPkg "caregate/database/repository/order"
	providerRepoPkg "caregate/database/repository/provider"
	registryRepoPkg "caregate/database/repository/registry"
	sessionRepoPkg "caregate/database/repository/session"
	"caregate/gateway"
	"caregate/handlers"
	"caregate/middleware"
	"caregate/routes"
	"caregate/services/availability"
	"caregate/services/directory"
	"caregate/services/fulfillment"
	"caregate/services/notification"
	"caregate/services/order"
	"caregate/services/payment"
	"caregate/services/search"
	syncsvc "caregate/services/sync"
	"caregate/services/tasks"
	"caregate/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitSessionCache()
	if config.AppConfig.FCMCredentialsFile != "" {
		utils.FirebaseInit()
	}
	stripe.Key = config.AppConfig.StripeKey

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	orderRepo := orderRepoPkg.NewMongoOrderRepo()
	fulfillRepo := fulfillmentRepo.NewMongoFulfillmentRepo()
	provRepo := providerRepoPkg.NewMongoProviderRepo()
	regRepo := registryRepoPkg.NewMongoSubscriberRepo()
	pairRepo := bookingRepo.NewMongoBookingRepo()
	sessionStore := sessionRepoPkg.NewRedisStore(utils.GetSessionCacheClient(), time.Hour)

	// shared plumbing.
	clock := utils.RealClock{}
	locks := utils.NewKeyedMutex()
	identity := gateway.Identity{
		Domain:       config.AppConfig.Domain,
		CoreVersion:  config.AppConfig.CoreVersion,
		SubscriberID: config.AppConfig.SubscriberID,
		CallbackURI:  config.AppConfig.CallbackURI,
	}
	signer := gateway.NewSigner(config.AppConfig.SigningSecret)
	dispatcher := gateway.NewHTTPDispatcher(signer, config.AppConfig.SubscriberID)
	verifier := gateway.NewRegistryVerifier(regRepo)

	// services.
	dir := directory.NewRepoDirectory(provRepo, fulfillRepo)
	synchronizer := syncsvc.NewSynchronizer(orderRepo, fulfillRepo, pairRepo, clock, config.AppConfig.StorageRetryLimit)

	var notifier notification.Service = notification.NopNotifier{}
	if utils.FCMClient != nil {
		notifier = notification.NewFCMNotifier(fulfillRepo)
	}

	asynqClient := tasks.NewClient()
	defer asynqClient.Close()
	tasks.StartWorker(notifier)

	fulfillSvc := fulfillment.NewService(fulfillRepo, orderRepo, dir, synchronizer, clock, locks)
	orderSvc := &order.Service{
		Orders:             orderRepo,
		Fulfillments:       fulfillRepo,
		Pair:               pairRepo,
		Registry:           regRepo,
		Dir:                dir,
		Sync:               synchronizer,
		Payments:           payment.NewStripeHandler(),
		Notifier:           notifier,
		Dispatcher:         dispatcher,
		Tasks:              asynqClient,
		Identity:           identity,
		Clock:              clock,
		Locks:              locks,
		CancellationWindow: config.AppConfig.CancellationWindow(),
		ReminderLead:       time.Hour,
	}
	correlator := search.NewCorrelator(sessionStore, dispatcher, clock, search.Config{
		Timeout:         config.AppConfig.SearchTimeout(),
		Quorum:          config.AppConfig.SearchQuorum,
		MaxParticipants: config.AppConfig.MaxProvidersPerSearch,
		FanOutLimit:     config.AppConfig.SearchFanOutLimit,
		MergePolicy:     config.AppConfig.MergePolicy,
	})
	slotEngine := availability.Engine{
		Granularity: time.Duration(config.AppConfig.SlotGranularityMinutes) * time.Minute,
		Horizon:     time.Duration(config.AppConfig.MaxLookaheadDays) * 24 * time.Hour,
	}

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		Verifier: verifier,

		SearchHandler:    handlers.NewSearchHandler(correlator, regRepo),
		OnSearchHandler:  handlers.NewOnSearchHandler(correlator),
		SelectHandler:    handlers.NewSelectHandler(dispatcher, regRepo),
		OnSelectHandler:  handlers.NewOnSelectHandler(dispatcher),
		InitHandler:      handlers.NewInitHandler(orderSvc),
		OnInitHandler:    handlers.NewOnInitHandler(orderSvc, dispatcher),
		ConfirmHandler:   handlers.NewConfirmHandler(orderSvc),
		OnConfirmHandler: handlers.NewOnConfirmHandler(orderSvc, dispatcher),
		StatusHandler:    handlers.NewStatusHandler(orderSvc),
		OnStatusHandler:  handlers.NewOnStatusHandler(orderSvc, dispatcher),

		GetSessionHandler:   handlers.NewGetSessionHandler(correlator),
		CloseSessionHandler: handlers.NewCloseSessionHandler(correlator),

		GetOrderHandler:    handlers.NewGetOrderHandler(orderSvc),
		CancelOrderHandler: handlers.NewCancelOrderHandler(orderSvc),

		TransitionFulfillmentHandler: handlers.NewTransitionFulfillmentHandler(fulfillSvc),
		RescheduleFulfillmentHandler: handlers.NewRescheduleFulfillmentHandler(fulfillSvc),

		GetAvailabilityHandler: handlers.NewGetAvailabilityHandler(dir),
		GetSlotsHandler:        handlers.NewGetSlotsHandler(dir, slotEngine),
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
