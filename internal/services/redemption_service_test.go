package services

import (
	"sync"
	"testing"
	"time"

	"referral-service/internal/config"
	"referral-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func newTestRedemptionService(cfg config.Config) *RedemptionService {
	balance := NewBalanceService(testDB)
	// nil asynq client: enqueues are skipped in tests
	return NewRedemptionService(testDB, balance, nil, cfg)
}

func defaultTestConfig() config.Config {
	return config.Config{
		MinRedeemAmount:   250,
		RedeemCooldown:    0,
		SummaryStaleAfter: 5 * time.Minute,
	}
}

func TestRequestRedemption_FullCycle(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	referral, _ := seedPaidInvestment(100, 101, 1.0, 100000)
	svc := newTestRedemptionService(defaultTestConfig())

	amount := 1000.0
	receipt, err := svc.RequestRedemption(100, referral.ID, 101, &amount)
	assert.NoError(t, err)
	assert.Equal(t, 1000.0, receipt.CreditedAmount)
	assert.False(t, receipt.Adjusted)
	assert.NotEmpty(t, receipt.TransactionRef)

	// tagged payout earning exists and a requested redemption references it
	var payout models.Earning
	assert.NoError(t, testDB.First(&payout, receipt.EarningId).Error)
	assert.True(t, payout.IsReferralRedemption)

	bal, err := svc.Balance.ComputeBalance(100)
	assert.NoError(t, err)
	assert.Equal(t, 1000.0, bal.PendingRedemption)
	assert.Equal(t, 0.0, bal.AvailableAfterPending)

	// payout reaches paid: redemption becomes credited
	testDB.Model(&payout).UpdateColumn("status", models.EarningStatusPaid)
	assert.NoError(t, svc.OnEarningPaid(payout.ID))

	var redemption models.ReferralRedemption
	testDB.First(&redemption, receipt.RedemptionId)
	assert.Equal(t, models.RedemptionStatusCredited, redemption.Status)
	assert.NotNil(t, redemption.CreditedAt)

	bal, err = svc.Balance.ComputeBalance(100)
	assert.NoError(t, err)
	assert.Equal(t, 1000.0, bal.RedeemedCredited)
	assert.Equal(t, 0.0, bal.AvailableBalance)
}

func TestRequestRedemption_ClampsToAvailable(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	// 30000 at 1% -> 300 available
	referral, _ := seedPaidInvestment(110, 111, 1.0, 30000)
	svc := newTestRedemptionService(defaultTestConfig())

	amount := 500.0
	receipt, err := svc.RequestRedemption(110, referral.ID, 111, &amount)
	assert.NoError(t, err)
	assert.Equal(t, 300.0, receipt.CreditedAmount)
	assert.True(t, receipt.Adjusted)
}

func TestRequestRedemption_BelowMinimum(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	// 10000 at 1% -> 100 available, below the 250 minimum
	referral, _ := seedPaidInvestment(120, 121, 1.0, 10000)
	svc := newTestRedemptionService(defaultTestConfig())

	_, err := svc.RequestRedemption(120, referral.ID, 121, nil)
	assert.ErrorIs(t, err, ErrBelowMinimum)
}

func TestRequestRedemption_MinimumWaivedWithInflightRequest(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	referral, _ := seedPaidInvestment(130, 131, 1.0, 100000)
	svc := newTestRedemptionService(defaultTestConfig())

	first := 900.0
	_, err := svc.RequestRedemption(130, referral.ID, 131, &first)
	assert.NoError(t, err)

	// 100 left, below minimum, but an in-flight request waives the floor
	second := 100.0
	receipt, err := svc.RequestRedemption(130, referral.ID, 131, &second)
	assert.NoError(t, err)
	assert.Equal(t, 100.0, receipt.CreditedAmount)
}

func TestRequestRedemption_NothingAvailable(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	referral, _ := seedPaidInvestment(140, 141, 1.0, 100000)
	svc := newTestRedemptionService(defaultTestConfig())

	_, err := svc.RequestRedemption(140, referral.ID, 141, nil)
	assert.NoError(t, err)

	// the whole pool is now in flight
	_, err = svc.RequestRedemption(140, referral.ID, 141, nil)
	assert.ErrorIs(t, err, ErrBelowMinimum)
}

func TestRequestRedemption_Cooldown(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	referral, _ := seedPaidInvestment(150, 151, 1.0, 100000)
	cfg := defaultTestConfig()
	cfg.RedeemCooldown = time.Minute
	svc := newTestRedemptionService(cfg)

	amount := 300.0
	_, err := svc.RequestRedemption(150, referral.ID, 151, &amount)
	assert.NoError(t, err)

	_, err = svc.RequestRedemption(150, referral.ID, 151, &amount)
	assert.ErrorIs(t, err, ErrCooldown)
}

func TestRequestRedemption_UnknownReferral(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	svc := newTestRedemptionService(defaultTestConfig())
	_, err := svc.RequestRedemption(160, 424242, 161, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRequestRedemption_ConcurrentRequestsNeverOverdraw(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	referral, _ := seedPaidInvestment(170, 171, 1.0, 100000)
	svc := newTestRedemptionService(defaultTestConfig())

	amount := 800.0
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a := amount
			svc.RequestRedemption(170, referral.ID, 171, &a)
		}()
	}
	wg.Wait()

	var totalRequested float64
	testDB.Model(&models.ReferralRedemption{}).
		Where("referrer_id = ?", 170).
		Select("COALESCE(SUM(commission_redeemed), 0)").
		Scan(&totalRequested)

	// paid pool is 1000: the two requests together may never exceed it
	assert.LessOrEqual(t, totalRequested, 1000.0)

	bal, err := svc.Balance.ComputeBalance(170)
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, bal.AvailableAfterPending, 0.0)
}

func TestCreditRedemption_Idempotent(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	referral, _ := seedPaidInvestment(180, 181, 1.0, 100000)
	svc := newTestRedemptionService(defaultTestConfig())

	receipt, err := svc.RequestRedemption(180, referral.ID, 181, nil)
	assert.NoError(t, err)

	testDB.Model(&models.Earning{}).Where("id = ?", receipt.EarningId).
		UpdateColumn("status", models.EarningStatusPaid)

	assert.NoError(t, svc.CreditRedemption(receipt.EarningId))

	var first models.ReferralRedemption
	testDB.First(&first, receipt.RedemptionId)

	assert.NoError(t, svc.CreditRedemption(receipt.EarningId))

	var second models.ReferralRedemption
	testDB.First(&second, receipt.RedemptionId)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.CreditedAt.Unix(), second.CreditedAt.Unix())
}

func TestDuplicateRedemptionRejectedByUniqueIndex(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	payout := models.Earning{PartnerId: 190, CommissionEarned: 100, IsReferralRedemption: true, Status: models.EarningStatusApproved}
	testDB.Create(&payout)

	first := models.ReferralRedemption{ReferrerId: 190, ReferralId: 1, ReferredId: 191, EarningId: payout.ID, CommissionRedeemed: 100}
	assert.NoError(t, testDB.Create(&first).Error)

	second := models.ReferralRedemption{ReferrerId: 190, ReferralId: 1, ReferredId: 191, EarningId: payout.ID, CommissionRedeemed: 100}
	err := testDB.Create(&second).Error
	assert.Error(t, err)
}

func TestOnEarningPaid_ActivatesPendingReferral(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	referral, earning := seedPaidInvestment(200, 201, 1.0, 100000)
	svc := newTestRedemptionService(defaultTestConfig())

	assert.NoError(t, svc.OnEarningPaid(earning.ID))

	var reloaded models.Referral
	testDB.First(&reloaded, referral.ID)
	assert.Equal(t, models.ReferralStatusActive, reloaded.Status)
	assert.NotNil(t, reloaded.FirstInvestmentAt)
	assert.NotNil(t, reloaded.LastActivityAt)
}

func TestFailRedemption(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	referral, _ := seedPaidInvestment(210, 211, 1.0, 100000)
	svc := newTestRedemptionService(defaultTestConfig())

	receipt, err := svc.RequestRedemption(210, referral.ID, 211, nil)
	assert.NoError(t, err)

	assert.NoError(t, svc.FailRedemption(receipt.RedemptionId))

	var reloaded models.ReferralRedemption
	testDB.First(&reloaded, receipt.RedemptionId)
	assert.Equal(t, models.RedemptionStatusFailed, reloaded.Status)

	// failing again is a no-op
	assert.NoError(t, svc.FailRedemption(receipt.RedemptionId))

	assert.ErrorIs(t, svc.FailRedemption(987654), ErrNotFound)
}
