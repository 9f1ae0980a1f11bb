package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds deployment-tunable settings for the referral core.
type Config struct {
	MinRedeemAmount   float64
	RedeemCooldown    time.Duration
	SummaryStaleAfter time.Duration
	ReferralBaseURL   string
}

func Load() Config {
	return Config{
		MinRedeemAmount:   envFloat("MIN_REDEEM_AMOUNT", 250),
		RedeemCooldown:    time.Duration(envInt("REDEEM_COOLDOWN_SECONDS", 60)) * time.Second,
		SummaryStaleAfter: time.Duration(envInt("SUMMARY_STALE_SECONDS", 300)) * time.Second,
		ReferralBaseURL:   envString("REFERRAL_BASE_URL", "https://partners.example.com/signup"),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return fallback
}
