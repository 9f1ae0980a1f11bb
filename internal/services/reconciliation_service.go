package services

import (
	"log"

	"referral-service/internal/models"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// ReconciliationService periodically re-verifies credited redemptions against
// their backing payout earnings. The balance calculator already reconciles on
// read; this sweep catches referrers nobody is reading.
type ReconciliationService struct {
	DB      *gorm.DB
	Balance *BalanceService
	Summary *SummaryService
}

func NewReconciliationService(db *gorm.DB, balance *BalanceService, summary *SummaryService) *ReconciliationService {
	return &ReconciliationService{DB: db, Balance: balance, Summary: summary}
}

// Reconcile recomputes the balance of every referrer holding credited
// redemptions. ComputeBalance flips stale credited rows to failed as it
// goes; the summary is refreshed afterwards so the cache catches up.
func (s *ReconciliationService) Reconcile() {
	log.Println("Starting redemption reconciliation sweep...")

	var referrerIds []int
	if err := s.DB.Model(&models.ReferralRedemption{}).
		Where("status = ?", models.RedemptionStatusCredited).
		Distinct().
		Pluck("referrer_id", &referrerIds).Error; err != nil {
		log.Printf("Reconciliation sweep aborted: %v", err)
		return
	}

	for _, referrerId := range referrerIds {
		if _, err := s.Balance.ComputeBalance(referrerId); err != nil {
			log.Printf("Reconciliation failed for referrer %d: %v", referrerId, err)
			continue
		}
		if err := s.Summary.Recompute(referrerId); err != nil {
			log.Printf("Summary refresh failed for referrer %d: %v", referrerId, err)
		}
	}

	log.Printf("Reconciliation sweep completed for %d referrers", len(referrerIds))
}

// StartScheduler runs the sweep hourly.
func (s *ReconciliationService) StartScheduler() {
	c := cron.New()
	if _, err := c.AddFunc("@hourly", s.Reconcile); err != nil {
		log.Printf("Failed to schedule reconciliation sweep: %v", err)
		return
	}
	c.Start()
	log.Println("Reconciliation scheduler started")
}
