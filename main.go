package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookline/config"
	"bookline/cron"
	"bookline/database"
	adminRepo "bookline/database/repository/admin"
	guestRepo "bookline/database/repository/guest"
	instanceRepo "bookline/database/repository/instance"
	sessionRepo "bookline/database/repository/session"
	settingsRepo "bookline/database/repository/settings"
	"bookline/handlers"
	"bookline/middleware"
	"bookline/routes"
	"bookline/services/agent"
	"bookline/services/availability"
	"bookline/services/calendar"
	"bookline/services/ledger"
	"bookline/services/notification"
	"bookline/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitRedis()
	utils.StartHealthMonitor(utils.GetLockClient(), database.MongoClient)

	// Queue client for outgoing email tasks.
	queueClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})
	defer queueClient.Close()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// repositories.
	instances := instanceRepo.NewMongoInstanceRepo()
	guests := guestRepo.NewMongoGuestRepo()
	sessions := sessionRepo.NewMongoSessionRepo()
	settings := settingsRepo.NewMongoSettingsRepo()
	admins := adminRepo.NewMongoAdminRepo()

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
	if err := admins.Seed(seedCtx, config.AppConfig.FirstUser, config.AppConfig.FirstPassword); err != nil {
		logger.Sugar().Fatalf("main: failed to seed first admin: %v", err)
	}
	cancelSeed()

	// services.
	locks := utils.NewRedisLocker(utils.GetLockClient())
	dispatcher := notification.NewAsynqDispatcher(queueClient)

	availabilityEngine := availability.NewEngine(calendar.NewProvider)

	ledgerService := &ledger.DefaultLedgerService{
		Repo:         guests,
		Providers:    calendar.NewProvider,
		Availability: availabilityEngine,
		Locks:        locks,
		Notifier:     dispatcher,
	}

	agentService := agent.NewAgentService(settings, sessions, ledgerService, availabilityEngine, locks)

	// background email delivery and reminder sweep.
	workerDeps := cron.Deps{
		Instances:  instances,
		Guests:     guests,
		Settings:   settings,
		Dispatcher: dispatcher,
	}
	cron.InitEmailWorker(workerDeps)
	sweeper := cron.InitReminderSweep(workerDeps, locks)
	defer sweeper.Stop()

	// Register routes with the assembled handler bundle.
	routes.Register(router, routes.Handlers{
		Webhook:   handlers.NewWebhookHandler(instances, agentService),
		Auth:      handlers.NewAuthHandler(admins),
		Instances: handlers.NewInstanceHandler(instances),
		Guests:    handlers.NewGuestHandler(guests),
		Sessions:  handlers.NewSessionHandler(sessions),
		Settings:  handlers.NewSettingsHandler(settings),
	})

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
