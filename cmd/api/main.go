package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"sweetshop-api/internal/cache"
	"sweetshop-api/internal/config"
	"sweetshop-api/internal/handler"
	"sweetshop-api/internal/repository"
	"sweetshop-api/internal/service"
	"sweetshop-api/internal/ws"
	"sweetshop-api/pkg/database"
	"sweetshop-api/pkg/jwt"

	log "github.com/sirupsen/logrus"
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	cfg.ConfigureLogging()

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.DSN())
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}

	// 3. Redis is optional: without it the cache and rate limits are off
	redisClient := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	sweetCache := cache.NewSweetCache(redisClient, cfg.CacheTTL)

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 5. Dependency Injection (Wiring Layers)
	tokens := jwt.NewManager(cfg.JWTSecret, cfg.JWTTTL)

	sweetRepo := repository.NewSweetRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	userRepo := repository.NewUserRepo(db)
	requestRepo := repository.NewRequestRepo(db)

	invService := service.NewInventoryService(sweetRepo, txRepo, db, sweetCache, wsHub)
	purchaseService := service.NewPurchaseService(sweetRepo, txRepo, db, sweetCache, wsHub, cfg.CheckoutTimeout)
	txService := service.NewTransactionService(txRepo)
	authService := service.NewAuthService(userRepo, tokens)
	requestService := service.NewRequestService(requestRepo)

	// 6. Seed default admin user
	if err := authService.EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.WithError(err).Warn("failed to seed admin user")
	}

	router := &handler.Router{
		Tokens:   tokens,
		UserRepo: userRepo,
		Hub:      wsHub,
		Limits: handler.RateLimits{
			Redis:          redisClient,
			AuthLimit:      cfg.AuthRateLimit,
			AuthWindow:     cfg.AuthRateWindow,
			PurchaseLimit:  cfg.PurchaseRateLimit,
			PurchaseWindow: cfg.PurchaseRateWin,
		},
		AccessLog:   true,
		Auth:        handler.NewAuthHandler(authService),
		Inventory:   handler.NewInventoryHandler(invService, purchaseService),
		Transaction: handler.NewTransactionHandler(txService),
		Dashboard:   handler.NewDashboardHandler(invService),
		Request:     handler.NewRequestHandler(requestService),
	}
	app := router.NewApp()

	// 7. Graceful Shutdown
	go func() {
		log.WithField("port", cfg.Port).Info("sweet shop api listening")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Panic("server stopped")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}
	wsHub.Stop()
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Info("server exited")
}
