package services

import (
	"errors"
	"fmt"
	"time"

	"referral-service/internal/config"
	"referral-service/internal/models"
	"referral-service/pkg/common"

	"gorm.io/gorm"
)

type ReferralService struct {
	DB      *gorm.DB
	Balance *BalanceService
	Summary *SummaryService
	Config  config.Config
}

func NewReferralService(db *gorm.DB, balance *BalanceService, summary *SummaryService, cfg config.Config) *ReferralService {
	return &ReferralService{DB: db, Balance: balance, Summary: summary, Config: cfg}
}

// CreatePartner registers a partner in the local directory with a generated
// referral code, retrying on the rare code collision.
func (s *ReferralService) CreatePartner(username, email string) (*models.Partner, error) {
	for attempt := 0; attempt < 3; attempt++ {
		partner := models.Partner{
			Username:     username,
			Email:        email,
			ReferralCode: common.GenerateReferralCode(),
		}
		err := s.DB.Create(&partner).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &partner, nil
	}
	return nil, errors.New("could not allocate a unique referral code")
}

// RegisterReferral records a referral at signup time when a valid code is
// presented. Registering the same pair twice returns the existing row.
func (s *ReferralService) RegisterReferral(referredId int, code string) (*models.Referral, error) {
	var referrer models.Partner
	err := s.DB.Where("referral_code = ?", code).First(&referrer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if referrer.ID == referredId {
		return nil, ErrSelfReferral
	}

	var referred models.Partner
	err = s.DB.First(&referred, referredId).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var existing models.Referral
	err = s.DB.Where("referrer_id = ? AND referred_id = ?", referrer.ID, referredId).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	referral := models.Referral{
		ReferrerId:     referrer.ID,
		ReferredId:     referredId,
		ReferralCode:   code,
		Status:         models.ReferralStatusPending,
		CommissionRate: DefaultCommissionRate,
		RegisteredAt:   time.Now(),
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&referral).Error; err != nil {
			return err
		}
		return tx.Model(&referred).Updates(map[string]interface{}{
			"referred_by":      referrer.ID,
			"referred_by_code": code,
		}).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// lost a signup race: the pair now exists, return it
		if lerr := s.DB.Where("referrer_id = ? AND referred_id = ?", referrer.ID, referredId).
			First(&existing).Error; lerr == nil {
			return &existing, nil
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	return &referral, nil
}

// Overview is the read-heavy dashboard payload, served from the cached
// summary (recomputed on demand when missing or stale).
type Overview struct {
	PaidCommission        float64           `json:"paidCommission"`
	PendingCommission     float64           `json:"pendingCommission"`
	AvailableBalance      float64           `json:"availableBalance"`
	PendingRedemption     float64           `json:"pendingRedemption"`
	RedeemedCredited      float64           `json:"redeemedCredited"`
	TotalReferrals        int               `json:"totalReferrals"`
	ActiveReferrals       int               `json:"activeReferrals"`
	LifetimeInvestment    float64           `json:"lifetimeInvestment"`
	RecentReferrals       []models.Referral `json:"recentReferrals"`
	ReferralLink          string            `json:"referralLink"`
	MinRedeemAmount       float64           `json:"minRedeemAmount"`
	RedeemCooldownSeconds int               `json:"redeemCooldownSeconds"`
}

func (s *ReferralService) GetOverview(referrerId int) (*Overview, error) {
	var partner models.Partner
	err := s.DB.First(&partner, referrerId).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	summary, err := s.freshSummary(referrerId)
	if err != nil {
		return nil, err
	}

	var recent []models.Referral
	if err := s.DB.Where("referrer_id = ?", referrerId).
		Order("created_at DESC, id DESC").Limit(5).
		Find(&recent).Error; err != nil {
		return nil, err
	}

	return &Overview{
		PaidCommission:        summary.PaidCommission,
		PendingCommission:     summary.PendingCommission,
		AvailableBalance:      summary.AvailableBalance,
		PendingRedemption:     summary.PendingRedemption,
		RedeemedCredited:      summary.RedeemedCredited,
		TotalReferrals:        summary.TotalReferrals,
		ActiveReferrals:       summary.ActiveReferrals,
		LifetimeInvestment:    summary.LifetimeInvestment,
		RecentReferrals:       recent,
		ReferralLink:          fmt.Sprintf("%s?ref=%s", s.Config.ReferralBaseURL, partner.ReferralCode),
		MinRedeemAmount:       s.Config.MinRedeemAmount,
		RedeemCooldownSeconds: int(s.Config.RedeemCooldown.Seconds()),
	}, nil
}

// freshSummary returns the cached summary row, recomputing it first when the
// row is missing or older than the configured staleness window.
func (s *ReferralService) freshSummary(partnerId int) (*models.PartnerReferralSummary, error) {
	var summary models.PartnerReferralSummary
	err := s.DB.Where("partner_id = ?", partnerId).First(&summary).Error
	stale := errors.Is(err, gorm.ErrRecordNotFound) ||
		(err == nil && time.Since(summary.LastUpdatedAt) > s.Config.SummaryStaleAfter)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if stale {
		if err := s.Summary.Recompute(partnerId); err != nil {
			return nil, err
		}
		if err := s.DB.Where("partner_id = ?", partnerId).First(&summary).Error; err != nil {
			return nil, err
		}
	}
	return &summary, nil
}

type History struct {
	Referrals  []models.Referral `json:"referrals"`
	NextCursor string            `json:"nextCursor"`
}

// GetHistory pages through a referrer's referrals by (created_at, id)
// descending using an opaque cursor.
func (s *ReferralService) GetHistory(referrerId, limit int, status, cursor string) (*History, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	query := s.DB.Where("referrer_id = ?", referrerId)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if cursor != "" {
		createdAt, id, err := common.DecodeCursor(cursor)
		if err != nil {
			return nil, err
		}
		query = query.Where("created_at < ? OR (created_at = ? AND id < ?)", createdAt, createdAt, id)
	}

	var referrals []models.Referral
	if err := query.Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Find(&referrals).Error; err != nil {
		return nil, err
	}

	next := ""
	if len(referrals) > limit {
		referrals = referrals[:limit]
		last := referrals[len(referrals)-1]
		next = common.EncodeCursor(last.CreatedAt, last.ID)
	}

	return &History{Referrals: referrals, NextCursor: next}, nil
}
