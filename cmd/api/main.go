package main

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"solcases-backend/internal/config"
	"solcases-backend/internal/handlers"
	"solcases-backend/internal/middleware"
	"solcases-backend/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisService.Close()

	jwtService := services.NewJWTService(cfg)
	walletProvider := services.NewPrivyClient(cfg)

	gameService := services.NewGameService(redisService)

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			if reclaimed, err := gameService.SweepStalePending(); err != nil {
				log.Printf("Stale transaction sweep failed: %v", err)
			} else if reclaimed > 0 {
				log.Printf("Reclaimed %d stale pending transactions", reclaimed)
			}
		}
	}()

	chatHandler := handlers.NewChatHandler(redisService)
	walletHandler := handlers.NewWalletHandler(redisService, jwtService, walletProvider)
	gameHandler := handlers.NewGameHandler(gameService, redisService)
	userHandler := handlers.NewUserHandler(redisService, gameService, walletProvider)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/api/health", userHandler.Health)
	router.GET("/api/stats", userHandler.GetStats)
	router.POST("/auth/wallet", walletHandler.CreateWallet)
	router.POST("/api/verify", gameHandler.VerifyCase)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtService))
	protected.Use(middleware.RateLimitMiddleware(redisService))
	{
		protected.GET("/wallet", walletHandler.GetWallet)
		protected.GET("/wallet/balance", userHandler.GetBalance)
		protected.POST("/wallet/deposit", userHandler.Deposit)
		protected.POST("/wallet/withdraw", userHandler.Withdraw)
		protected.POST("/wallet/username", walletHandler.SaveUsername)
		protected.POST("/logout", walletHandler.ClearSession)

		protected.GET("/ws", chatHandler.HandleWebSocket)

		cases := protected.Group("/cases")
		{
			cases.POST("/open", gameHandler.OpenCase)
			cases.GET("/commitment", gameHandler.GetCommitment)
			cases.GET("/seeds", gameHandler.GetSeedHistory)
			cases.GET("/transaction/:id", gameHandler.GetTransactionStatus)
			cases.POST("/transaction/clear", gameHandler.ForceCompleteTransaction)
		}

		protected.GET("/transactions", userHandler.GetTransactions)
		protected.GET("/inventory", userHandler.GetInventory)
		protected.POST("/inventory", userHandler.SaveInventory)
		protected.GET("/level", userHandler.GetLevel)
		protected.GET("/collections", userHandler.GetCollections)
		protected.POST("/rewards/claim", userHandler.ClaimReward)
	}

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
