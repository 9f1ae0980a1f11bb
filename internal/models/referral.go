package models

import (
	"time"
)

// Referral status values
const (
	ReferralStatusPending  = "pending"
	ReferralStatusActive   = "active"
	ReferralStatusInactive = "inactive"
)

// Referral links a referrer to a partner who signed up with their code.
// The compound unique index guarantees a single row per pair.
type Referral struct {
	ID                int        `gorm:"primaryKey;autoIncrement" json:"id"`
	ReferrerId        int        `gorm:"column:referrer_id;not null;uniqueIndex:idx_referrer_referred;index" json:"referrer_id"`
	ReferredId        int        `gorm:"column:referred_id;not null;uniqueIndex:idx_referrer_referred" json:"referred_id"`
	ReferralCode      string     `gorm:"column:referral_code;size:40" json:"referral_code"`
	Status            string     `gorm:"column:status;size:20;default:pending" json:"status"`
	CommissionRate    float64    `gorm:"column:commission_rate;type:decimal(5,2);default:1.00" json:"commission_rate"`
	RegisteredAt      time.Time  `gorm:"column:registered_at" json:"registered_at"`
	FirstInvestmentAt *time.Time `gorm:"column:first_investment_at" json:"first_investment_at"`
	LastActivityAt    *time.Time `gorm:"column:last_activity_at" json:"last_activity_at"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Referral) TableName() string {
	return "referrals"
}
