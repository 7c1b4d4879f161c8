package main

import (
	"context"                             // context package is needed for Redis operations
	"log"                                 // log package is needed for logging
	"username_wallet/internal/api"        // Custom package for API handlers
	"username_wallet/internal/config"     // Custom package for configuration
	"username_wallet/internal/ledger"     // Ledger state machine
	"username_wallet/internal/middleware" // Custom package for middleware
	"username_wallet/internal/store"      // Ledger store implementations

	// For loading .env files
	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/driver/mysql"         // MySQL driver for GORM
	"gorm.io/gorm"                 // GORM ORM library
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Setup Data Source Name (DSN) and connect to the database
	dsn := cfg.DBUser + ":" + cfg.DBPassword + "@tcp(" + cfg.DBHost + ":" + cfg.DBPort + ")/" + cfg.DBName + "?parseTime=true"
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Build the ledger on the MySQL store with the configured storage floor
	led := ledger.New(store.NewGorm(db), ledger.WithReserve(cfg.RentFloor))

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	// Auth routes
	r.POST("/user", api.RegisterHandler(db))            // Signer registration endpoint
	r.GET("/user", api.LoginHandler(db, cfg.JWTSecret)) // Login endpoint

	// Wallet routes (protected by JWT)
	walletGroup := r.Group("/wallet")
	// Protect wallet routes with JWT middleware
	walletGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	walletGroup.POST("", api.RegisterUsernameHandler(led, redisClient))                  // Register username endpoint
	walletGroup.GET("", api.ListWalletsHandler(led, redisClient))                        // List caller's usernames endpoint
	walletGroup.GET("/:username", api.GetWalletHandler(led, redisClient))                // Lookup endpoint
	walletGroup.POST("/:username/send", api.SendSolHandler(led, redisClient))            // Send endpoint
	walletGroup.POST("/:username/withdraw", api.WithdrawSolHandler(led, redisClient))    // Withdraw endpoint

	// Admin routes (protected, admin only)
	adminGroup := r.Group("/admin")
	// Protect admin routes with JWT and AdminOnly middleware
	adminGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), middleware.AdminOnlyMiddleware(db))
	adminGroup.GET("/accounts", api.ListAccountsHandler(db, redisClient)) // List accounts endpoint
	adminGroup.GET("/events", api.ListEventsHandler(led, redisClient))    // Event stream endpoint

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}
