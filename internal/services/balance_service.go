package services

import (
	"errors"
	"log"

	"referral-service/internal/models"
	"referral-service/pkg/common"

	"gorm.io/gorm"
)

// DefaultCommissionRate applies when a referral relationship has no rate on
// file (percent).
const DefaultCommissionRate = 1.0

type BalanceService struct {
	DB *gorm.DB
}

func NewBalanceService(db *gorm.DB) *BalanceService {
	return &BalanceService{DB: db}
}

// BalanceBreakdown is computed strictly from ledger tables. The cached
// summary row is never consulted here.
type BalanceBreakdown struct {
	PaidCommission        float64 `json:"paidCommission"`
	PendingCommission     float64 `json:"pendingCommission"`
	RedeemedCredited      float64 `json:"redeemedCredited"`
	PendingRedemption     float64 `json:"pendingRedemption"`
	AvailableBalance      float64 `json:"availableBalance"`
	AvailableAfterPending float64 `json:"availableAfterPending"`
}

// ComputeBalance derives the referrer's commission figures from referrals,
// referred partners' earnings and the redemption ledger. It also runs a
// best-effort reconciliation pass: any credited redemption whose backing
// earning is gone or no longer paid is flipped to failed and excluded.
func (s *BalanceService) ComputeBalance(referrerId int) (BalanceBreakdown, error) {
	rates, referredIds, err := s.referredPartnerRates(referrerId)
	if err != nil {
		return BalanceBreakdown{}, err
	}

	paid, err := s.commissionByStatus(referredIds, rates, models.EarningStatusPaid)
	if err != nil {
		return BalanceBreakdown{}, err
	}

	pending, err := s.commissionByStatus(referredIds, rates, models.EarningStatusApproved)
	if err != nil {
		return BalanceBreakdown{}, err
	}

	redeemed, inflight, err := s.redemptionTotals(referrerId)
	if err != nil {
		return BalanceBreakdown{}, err
	}

	available := common.ClampNonNegative(common.RoundMoney(paid - redeemed))
	afterPending := common.ClampNonNegative(common.RoundMoney(paid - redeemed - inflight))

	return BalanceBreakdown{
		PaidCommission:        paid,
		PendingCommission:     pending,
		RedeemedCredited:      redeemed,
		PendingRedemption:     inflight,
		AvailableBalance:      available,
		AvailableAfterPending: afterPending,
	}, nil
}

// referredPartnerRates builds referredPartnerId -> commission rate from the
// referral rows, then folds in any partner whose referred_by points at this
// referrer without a referral row (tolerates missing rows, default rate).
func (s *BalanceService) referredPartnerRates(referrerId int) (map[int]float64, []int, error) {
	var referrals []models.Referral
	if err := s.DB.Where("referrer_id = ?", referrerId).Find(&referrals).Error; err != nil {
		return nil, nil, err
	}

	rates := make(map[int]float64, len(referrals))
	for _, r := range referrals {
		rate := r.CommissionRate
		if rate <= 0 {
			rate = DefaultCommissionRate
		}
		rates[r.ReferredId] = rate
	}

	var fallbackIds []int
	if err := s.DB.Model(&models.Partner{}).
		Where("referred_by = ?", referrerId).
		Pluck("id", &fallbackIds).Error; err != nil {
		return nil, nil, err
	}
	for _, id := range fallbackIds {
		if _, ok := rates[id]; !ok {
			rates[id] = DefaultCommissionRate
		}
	}

	ids := make([]int, 0, len(rates))
	for id := range rates {
		ids = append(ids, id)
	}
	return rates, ids, nil
}

// commissionByStatus sums referred partners' earnings in the given status,
// grouped per partner, then applies each relationship's own rate. Redemption
// payout earnings are excluded so a payout never generates commission.
func (s *BalanceService) commissionByStatus(referredIds []int, rates map[int]float64, status string) (float64, error) {
	if len(referredIds) == 0 {
		return 0, nil
	}

	var earnings []models.Earning
	if err := s.DB.Where("partner_id IN ? AND status = ?", referredIds, status).Find(&earnings).Error; err != nil {
		return 0, err
	}

	invByPartner := make(map[int]float64)
	for i := range earnings {
		e := &earnings[i]
		if e.IsRedemptionPayout() {
			continue
		}
		inv := common.DeriveInvestmentAmount(e.InvestmentAmount, e.CommissionEarned, e.CommissionRate)
		invByPartner[e.PartnerId] += inv
	}

	var total float64
	for partnerId, inv := range invByPartner {
		rate, ok := rates[partnerId]
		if !ok || rate <= 0 {
			rate = DefaultCommissionRate
		}
		total += common.CommissionFor(inv, rate)
	}
	return common.RoundMoney(total), nil
}

// redemptionTotals sums the redemption ledger for a referrer, reconciling on
// the way: credited rows (or legacy rows without a status) only count when
// their backing earning still exists in paid status, otherwise they are
// flipped to failed.
func (s *BalanceService) redemptionTotals(referrerId int) (redeemed, inflight float64, err error) {
	var redemptions []models.ReferralRedemption
	if err := s.DB.Where("referrer_id = ?", referrerId).Find(&redemptions).Error; err != nil {
		return 0, 0, err
	}

	for i := range redemptions {
		r := &redemptions[i]
		switch r.Status {
		case models.RedemptionStatusRequested:
			inflight += r.CommissionRedeemed
		case models.RedemptionStatusCredited, "":
			if s.payoutStillPaid(r.EarningId) {
				redeemed += r.CommissionRedeemed
				continue
			}
			log.Printf("%v: redemption=%d earning=%d referrer=%d",
				ErrReconciliationMismatch, r.ID, r.EarningId, referrerId)
			if err := s.DB.Model(r).
				UpdateColumn("status", models.RedemptionStatusFailed).Error; err != nil {
				log.Printf("Failed to mark redemption %d as failed: %v", r.ID, err)
			}
		}
	}
	return common.RoundMoney(redeemed), common.RoundMoney(inflight), nil
}

// LifetimeInvestment sums the derived investment amounts of all paid,
// non-payout earnings across the referrer's referred partners.
func (s *BalanceService) LifetimeInvestment(referrerId int) (float64, error) {
	_, referredIds, err := s.referredPartnerRates(referrerId)
	if err != nil {
		return 0, err
	}
	if len(referredIds) == 0 {
		return 0, nil
	}

	var earnings []models.Earning
	if err := s.DB.Where("partner_id IN ? AND status = ?", referredIds, models.EarningStatusPaid).
		Find(&earnings).Error; err != nil {
		return 0, err
	}

	var total float64
	for i := range earnings {
		e := &earnings[i]
		if e.IsRedemptionPayout() {
			continue
		}
		total += common.DeriveInvestmentAmount(e.InvestmentAmount, e.CommissionEarned, e.CommissionRate)
	}
	return common.RoundMoney(total), nil
}

func (s *BalanceService) payoutStillPaid(earningId int) bool {
	var earning models.Earning
	err := s.DB.First(&earning, earningId).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false
	}
	if err != nil {
		// transient read failure: do not fail the row on uncertainty
		log.Printf("Could not verify payout earning %d: %v", earningId, err)
		return true
	}
	return earning.Status == models.EarningStatusPaid
}
