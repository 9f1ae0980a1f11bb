package main

import (
	"log"
	"os"

	"referral-service/internal/config"
	"referral-service/internal/database"
	"referral-service/internal/handlers"
	"referral-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found in current directory, trying parent")
		if err := godotenv.Load("../.env"); err != nil {
			log.Println("No .env file found, using system environment variables")
		}
	}

	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	}

	cfg := config.Load()

	// Initialize Database
	database.Connect()
	database.Migrate()
	db := database.DB

	// Redis/Asynq Client
	redisAddr := os.Getenv("REDIS_URL")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
	defer asynqClient.Close()

	// Init Services
	balanceService := services.NewBalanceService(db)
	summaryService := services.NewSummaryService(db, balanceService)
	redemptionService := services.NewRedemptionService(db, balanceService, asynqClient, cfg)
	referralService := services.NewReferralService(db, balanceService, summaryService, cfg)

	referralHandler := handlers.NewReferralHandler(referralService, redemptionService)

	// Initialize Gin
	r := gin.Default()

	// Ping endpoint
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "Welcome To Partner Referral service",
		})
	})

	r.GET("/referrals/overview", referralHandler.GetOverview)
	r.GET("/referrals/history", referralHandler.GetHistory)
	r.POST("/referrals", referralHandler.RegisterReferral)
	r.POST("/referrals/redeem", referralHandler.RequestRedemption)
	r.POST("/earnings/:id/paid", referralHandler.EarningPaid)
	r.POST("/partners", referralHandler.CreatePartner)
	r.GET("/admin/redemptions", referralHandler.ListRedemptions)
	r.POST("/admin/redemptions/:id/fail", referralHandler.FailRedemption)

	// Start Cron Schedulers
	reconciliationService := services.NewReconciliationService(db, balanceService, summaryService)
	reconciliationService.StartScheduler()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("HTTP Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}
