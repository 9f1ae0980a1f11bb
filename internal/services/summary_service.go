package services

import (
	"time"

	"referral-service/internal/models"
	"referral-service/pkg/common"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SummaryService maintains the per-partner materialized summary row. Every
// refresh recomputes from the ledger tables, never from the previous row, so
// drift cannot compound and recompute is idempotent.
type SummaryService struct {
	DB      *gorm.DB
	Balance *BalanceService
}

func NewSummaryService(db *gorm.DB, balance *BalanceService) *SummaryService {
	return &SummaryService{DB: db, Balance: balance}
}

func (s *SummaryService) Recompute(partnerId int) error {
	bal, err := s.Balance.ComputeBalance(partnerId)
	if err != nil {
		return err
	}

	var counts []struct {
		Status string
		Count  int
	}
	if err := s.DB.Model(&models.Referral{}).
		Select("status, COUNT(*) as count").
		Where("referrer_id = ?", partnerId).
		Group("status").
		Scan(&counts).Error; err != nil {
		return err
	}

	var total, active, pending, inactive int
	for _, c := range counts {
		total += c.Count
		switch c.Status {
		case models.ReferralStatusActive:
			active = c.Count
		case models.ReferralStatusPending:
			pending = c.Count
		case models.ReferralStatusInactive:
			inactive = c.Count
		}
	}

	lifetime, err := s.Balance.LifetimeInvestment(partnerId)
	if err != nil {
		return err
	}

	summary := models.PartnerReferralSummary{
		PartnerId:          partnerId,
		PaidCommission:     bal.PaidCommission,
		PendingCommission:  bal.PendingCommission,
		RedeemedCredited:   bal.RedeemedCredited,
		PendingRedemption:  bal.PendingRedemption,
		AvailableBalance:   bal.AvailableBalance,
		TotalReferrals:     total,
		ActiveReferrals:    active,
		PendingReferrals:   pending,
		InactiveReferrals:  inactive,
		LifetimeInvestment: lifetime,
		TotalCommission:    common.RoundMoney(bal.PaidCommission + bal.PendingCommission),
		LastUpdatedAt:      time.Now(),
	}

	return s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "partner_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"paid_commission", "pending_commission", "redeemed_credited",
			"pending_redemption", "available_balance", "total_referrals",
			"active_referrals", "pending_referrals", "inactive_referrals",
			"lifetime_investment", "total_commission", "last_updated_at",
		}),
	}).Create(&summary).Error
}
