package services

import (
	"testing"

	"referral-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestRecompute_UpsertsSummaryRow(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	seedPaidInvestment(300, 301, 1.0, 100000)
	testDB.Create(&models.Referral{ReferrerId: 300, ReferredId: 302, Status: models.ReferralStatusActive, CommissionRate: 1.0})

	balance := NewBalanceService(testDB)
	svc := NewSummaryService(testDB, balance)

	assert.NoError(t, svc.Recompute(300))

	var summary models.PartnerReferralSummary
	assert.NoError(t, testDB.Where("partner_id = ?", 300).First(&summary).Error)

	assert.Equal(t, 1000.0, summary.PaidCommission)
	assert.Equal(t, 1000.0, summary.AvailableBalance)
	assert.Equal(t, 2, summary.TotalReferrals)
	assert.Equal(t, 1, summary.ActiveReferrals)
	assert.Equal(t, 1, summary.PendingReferrals)
	assert.Equal(t, 100000.0, summary.LifetimeInvestment)
	assert.Equal(t, 1000.0, summary.TotalCommission)
}

func TestRecompute_IdempotentWithoutLedgerChanges(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	seedPaidInvestment(310, 311, 1.0, 50000)

	balance := NewBalanceService(testDB)
	svc := NewSummaryService(testDB, balance)

	assert.NoError(t, svc.Recompute(310))
	var first models.PartnerReferralSummary
	testDB.Where("partner_id = ?", 310).First(&first)

	assert.NoError(t, svc.Recompute(310))
	var second models.PartnerReferralSummary
	testDB.Where("partner_id = ?", 310).First(&second)

	// only one row per partner, same figures both times
	var count int64
	testDB.Model(&models.PartnerReferralSummary{}).Where("partner_id = ?", 310).Count(&count)
	assert.Equal(t, int64(1), count)

	assert.Equal(t, first.PaidCommission, second.PaidCommission)
	assert.Equal(t, first.PendingCommission, second.PendingCommission)
	assert.Equal(t, first.RedeemedCredited, second.RedeemedCredited)
	assert.Equal(t, first.PendingRedemption, second.PendingRedemption)
	assert.Equal(t, first.AvailableBalance, second.AvailableBalance)
	assert.Equal(t, first.TotalReferrals, second.TotalReferrals)
	assert.Equal(t, first.LifetimeInvestment, second.LifetimeInvestment)
	assert.Equal(t, first.TotalCommission, second.TotalCommission)
}

func TestRecompute_NeverTrustsPreviousRow(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	seedPaidInvestment(320, 321, 1.0, 100000)

	// poison the cache with nonsense figures
	testDB.Create(&models.PartnerReferralSummary{
		PartnerId:      320,
		PaidCommission: 99999,
	})

	balance := NewBalanceService(testDB)
	svc := NewSummaryService(testDB, balance)
	assert.NoError(t, svc.Recompute(320))

	var summary models.PartnerReferralSummary
	testDB.Where("partner_id = ?", 320).First(&summary)
	assert.Equal(t, 1000.0, summary.PaidCommission)
}
