package models

import (
	"time"
)

// Redemption status values
const (
	RedemptionStatusRequested = "requested"
	RedemptionStatusCredited  = "credited"
	RedemptionStatusFailed    = "failed"
)

// ReferralRedemption is the append-mostly audit trail of payout requests.
// earning_id is unique: one redemption per payout earning, enforced by the DB.
type ReferralRedemption struct {
	ID                 int        `gorm:"primaryKey;autoIncrement" json:"id"`
	ReferrerId         int        `gorm:"column:referrer_id;not null;index" json:"referrer_id"`
	ReferralId         int        `gorm:"column:referral_id;not null" json:"referral_id"`
	ReferredId         int        `gorm:"column:referred_id;not null" json:"referred_id"`
	EarningId          int        `gorm:"column:earning_id;not null;uniqueIndex" json:"earning_id"`
	CommissionRedeemed float64    `gorm:"column:commission_redeemed;type:decimal(20,2);not null" json:"commission_redeemed"`
	InvestmentAmount   float64    `gorm:"column:investment_amount;type:decimal(20,2);default:0.00" json:"investment_amount"`
	CommissionRate     float64    `gorm:"column:commission_rate;type:decimal(5,2);default:0.00" json:"commission_rate"`
	Status             string     `gorm:"column:status;size:20;default:requested" json:"status"`
	TransactionRef     string     `gorm:"column:transaction_ref;size:64" json:"transaction_ref"`
	CreditedAt         *time.Time `gorm:"column:credited_at" json:"credited_at"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (ReferralRedemption) TableName() string {
	return "referral_redemptions"
}
