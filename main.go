package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"mastersize-system/config"
	"mastersize-system/handlers"
	"mastersize-system/middleware"
	"mastersize-system/models"
	"mastersize-system/services"
	"mastersize-system/utils"
	"mastersize-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config:", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	app := fiber.New(fiber.Config{})

	// 🔐 GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware(cfg.ServiceToken))

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles, X-Service-Token",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Task{},
		&models.TaskCompletion{},
		&models.SizeRecommendation{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	// Size charts: fetched from R2 when configured, built-in set otherwise.
	charts := services.DefaultChartCatalog()
	if cfg.ChartBucket != "" {
		if err := utils.InitR2(cfg.ChartBucket); err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
		data, err := utils.FetchObject(context.Background(), cfg.ChartObjectKey)
		if err != nil {
			log.Printf("⚠️  Chart fetch failed, falling back to built-in charts: %v", err)
		} else if loaded, err := services.LoadChartCatalog(data); err != nil {
			log.Printf("⚠️  Chart document invalid, falling back to built-in charts: %v", err)
		} else {
			charts = loaded
		}
	}

	var notifier services.Notifier = services.NopNotifier{}
	if cfg.NotifyServiceURL != "" {
		notifier = services.NewHTTPNotifier(cfg.NotifyServiceURL, cfg.ServiceToken)
	}

	tokenService := services.NewTokenService(db)
	referralService := services.NewReferralService(db, tokenService, notifier, cfg)
	userService := services.NewUserService(db, tokenService, referralService, cfg)
	taskService := services.NewTaskService(db, tokenService)
	sizeService := services.NewSizeService(db, charts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeper := workers.NewReferralSweeper(db, referralService)
	go workers.PollReferrals(ctx, sweeper, cfg.ReferralSweepInterval)

	taskService.StartExpiryScheduler()

	handlers.SetupProfileRoutes(app, userService, referralService, tokenService)
	handlers.SetupTaskRoutes(app, taskService)
	handlers.SetupSizeRoutes(app, sizeService, charts)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", cfg.Port)
	log.Printf("✅ Referral sweep worker running (every %s)", cfg.ReferralSweepInterval)
	log.Println("✅ Task expiry scheduler running")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")

	<-ctx.Done()
	log.Println("Shutting down server...")
}
