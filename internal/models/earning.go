package models

import (
	"time"
)

// Earning status values
const (
	EarningStatusPending   = "pending"
	EarningStatusApproved  = "approved"
	EarningStatusWithdraw  = "withdraw"
	EarningStatusPaid      = "paid"
	EarningStatusCancelled = "cancelled"
)

// Legacy fund-name sentinels used before is_referral_redemption existed.
// Still honored on read so old payout rows never generate commission again.
var RedemptionFundNames = []string{"Referal Earning", "Referral Earning"}

// Earning is one commission-bearing transaction for a partner. Rows flagged
// is_referral_redemption are referrer payouts, not investments.
type Earning struct {
	ID                   int        `gorm:"primaryKey;autoIncrement" json:"id"`
	PartnerId            int        `gorm:"column:partner_id;not null;index:idx_earning_partner_status" json:"partner_id"`
	FundName             string     `gorm:"column:fund_name;size:255" json:"fund_name"`
	Description          string     `gorm:"column:description;type:text" json:"description"`
	InvestmentAmount     float64    `gorm:"column:investment_amount;type:decimal(20,2);default:0.00" json:"investment_amount"`
	CommissionRate       float64    `gorm:"column:commission_rate;type:decimal(5,2);default:0.00" json:"commission_rate"`
	CommissionEarned     float64    `gorm:"column:commission_earned;type:decimal(20,2);default:0.00" json:"commission_earned"`
	Status               string     `gorm:"column:status;size:20;default:pending;index:idx_earning_partner_status" json:"status"`
	IsReferralRedemption bool       `gorm:"column:is_referral_redemption;default:false;index" json:"is_referral_redemption"`
	PaidAt               *time.Time `gorm:"column:paid_at" json:"paid_at"`
	CreatedAt            time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Earning) TableName() string {
	return "earnings"
}

// IsRedemptionPayout reports whether this earning is a referral payout,
// checking the flag first and the legacy sentinels as fallback.
func (e *Earning) IsRedemptionPayout() bool {
	if e.IsReferralRedemption {
		return true
	}
	for _, name := range RedemptionFundNames {
		if e.FundName == name || e.Description == name {
			return true
		}
	}
	return false
}
