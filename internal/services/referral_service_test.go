package services

import (
	"testing"
	"time"

	"referral-service/internal/config"
	"referral-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func newTestReferralService() *ReferralService {
	balance := NewBalanceService(testDB)
	summary := NewSummaryService(testDB, balance)
	cfg := config.Config{
		MinRedeemAmount:   250,
		RedeemCooldown:    60 * time.Second,
		SummaryStaleAfter: 5 * time.Minute,
		ReferralBaseURL:   "https://partners.example.com/signup",
	}
	return NewReferralService(testDB, balance, summary, cfg)
}

func TestRegisterReferral(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	svc := newTestReferralService()

	referrer, err := svc.CreatePartner("alice", "alice@example.com")
	assert.NoError(t, err)
	assert.Len(t, referrer.ReferralCode, 8)

	referred, err := svc.CreatePartner("bob", "bob@example.com")
	assert.NoError(t, err)

	referral, err := svc.RegisterReferral(referred.ID, referrer.ReferralCode)
	assert.NoError(t, err)
	assert.Equal(t, referrer.ID, referral.ReferrerId)
	assert.Equal(t, models.ReferralStatusPending, referral.Status)
	assert.Equal(t, DefaultCommissionRate, referral.CommissionRate)

	// referred_by pointer set on the partner row
	var reloaded models.Partner
	testDB.First(&reloaded, referred.ID)
	assert.NotNil(t, reloaded.ReferredBy)
	assert.Equal(t, referrer.ID, *reloaded.ReferredBy)

	// registering the same pair again returns the existing row
	again, err := svc.RegisterReferral(referred.ID, referrer.ReferralCode)
	assert.NoError(t, err)
	assert.Equal(t, referral.ID, again.ID)
}

func TestRegisterReferral_Invalid(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	svc := newTestReferralService()

	partner, err := svc.CreatePartner("carol", "carol@example.com")
	assert.NoError(t, err)

	_, err = svc.RegisterReferral(partner.ID, "NOSUCHCODE")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.RegisterReferral(partner.ID, partner.ReferralCode)
	assert.ErrorIs(t, err, ErrSelfReferral)
}

func TestGetOverview_RecomputesMissingSummary(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	svc := newTestReferralService()

	referrer, err := svc.CreatePartner("dave", "dave@example.com")
	assert.NoError(t, err)

	testDB.Create(&models.Referral{ReferrerId: referrer.ID, ReferredId: referrer.ID + 1000, CommissionRate: 1.0, Status: models.ReferralStatusActive})
	testDB.Create(&models.Earning{PartnerId: referrer.ID + 1000, InvestmentAmount: 100000, Status: models.EarningStatusPaid})

	overview, err := svc.GetOverview(referrer.ID)
	assert.NoError(t, err)

	assert.Equal(t, 1000.0, overview.PaidCommission)
	assert.Equal(t, 1000.0, overview.AvailableBalance)
	assert.Equal(t, 1, overview.TotalReferrals)
	assert.Len(t, overview.RecentReferrals, 1)
	assert.Contains(t, overview.ReferralLink, referrer.ReferralCode)
	assert.Equal(t, 250.0, overview.MinRedeemAmount)
	assert.Equal(t, 60, overview.RedeemCooldownSeconds)

	_, err = svc.GetOverview(987654)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetHistory_CursorPagination(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	svc := newTestReferralService()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		testDB.Create(&models.Referral{
			ReferrerId:     400,
			ReferredId:     401 + i,
			Status:         models.ReferralStatusActive,
			CommissionRate: 1.0,
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		})
	}

	seen := make(map[int]bool)
	cursor := ""
	pages := 0
	for {
		history, err := svc.GetHistory(400, 2, "", cursor)
		assert.NoError(t, err)
		for _, r := range history.Referrals {
			assert.False(t, seen[r.ID], "referral %d returned twice", r.ID)
			seen[r.ID] = true
		}
		pages++
		if history.NextCursor == "" {
			break
		}
		cursor = history.NextCursor
	}

	assert.Equal(t, 5, len(seen))
	assert.Equal(t, 3, pages)

	// status filter
	history, err := svc.GetHistory(400, 10, models.ReferralStatusPending, "")
	assert.NoError(t, err)
	assert.Empty(t, history.Referrals)

	// garbage cursor rejected
	_, err = svc.GetHistory(400, 10, "", "not-a-cursor")
	assert.Error(t, err)
}
