package main

import (
	"log"
	"os"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"referral-service/internal/config"
	"referral-service/internal/database"
	"referral-service/internal/services"
	"referral-service/internal/worker"
)

func main() {
	// Load env
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found in ../../.env, trying .env")
		if err := godotenv.Load(".env"); err != nil {
			log.Println("No .env file found, using system env")
		}
	}

	cfg := config.Load()

	// Connect DB
	database.Connect()
	db := database.DB

	// Redis
	redisAddr := os.Getenv("REDIS_URL")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}

	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	// Init Services
	balanceService := services.NewBalanceService(db)
	summaryService := services.NewSummaryService(db, balanceService)
	redemptionService := services.NewRedemptionService(db, balanceService, asynqClient, cfg)

	log.Println("Starting Asynq Worker...")
	worker.StartWorker(redisOpt, summaryService, redemptionService)
}
