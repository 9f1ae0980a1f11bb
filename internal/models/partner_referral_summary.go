package models

import (
	"time"
)

// PartnerReferralSummary is a materialized view over referrals, earnings and
// redemptions. It is refreshed by the summary worker and is never read when
// deciding whether a redemption may proceed.
type PartnerReferralSummary struct {
	ID                 int       `gorm:"primaryKey;autoIncrement" json:"id"`
	PartnerId          int       `gorm:"column:partner_id;not null;uniqueIndex" json:"partner_id"`
	PaidCommission     float64   `gorm:"column:paid_commission;type:decimal(20,2);default:0.00" json:"paid_commission"`
	PendingCommission  float64   `gorm:"column:pending_commission;type:decimal(20,2);default:0.00" json:"pending_commission"`
	RedeemedCredited   float64   `gorm:"column:redeemed_credited;type:decimal(20,2);default:0.00" json:"redeemed_credited"`
	PendingRedemption  float64   `gorm:"column:pending_redemption;type:decimal(20,2);default:0.00" json:"pending_redemption"`
	AvailableBalance   float64   `gorm:"column:available_balance;type:decimal(20,2);default:0.00" json:"available_balance"`
	TotalReferrals     int       `gorm:"column:total_referrals;default:0" json:"total_referrals"`
	ActiveReferrals    int       `gorm:"column:active_referrals;default:0" json:"active_referrals"`
	PendingReferrals   int       `gorm:"column:pending_referrals;default:0" json:"pending_referrals"`
	InactiveReferrals  int       `gorm:"column:inactive_referrals;default:0" json:"inactive_referrals"`
	LifetimeInvestment float64   `gorm:"column:lifetime_investment;type:decimal(20,2);default:0.00" json:"lifetime_investment"`
	TotalCommission    float64   `gorm:"column:total_commission;type:decimal(20,2);default:0.00" json:"total_commission"`
	LastUpdatedAt      time.Time `gorm:"column:last_updated_at" json:"last_updated_at"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (PartnerReferralSummary) TableName() string {
	return "partner_referral_summaries"
}
