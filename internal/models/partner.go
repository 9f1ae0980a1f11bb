package models

import (
	"time"
)

type Partner struct {
	ID             int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Username       string    `gorm:"column:username;size:255;not null" json:"username"`
	Email          string    `gorm:"column:email;size:255" json:"email"`
	ReferralCode   string    `gorm:"column:referral_code;size:40;uniqueIndex" json:"referral_code"`
	ReferredBy     *int      `gorm:"column:referred_by;index" json:"referred_by"`
	ReferredByCode string    `gorm:"column:referred_by_code;size:40" json:"referred_by_code"`
	Status         int       `gorm:"column:status;default:1" json:"status"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Partner) TableName() string {
	return "partners"
}
