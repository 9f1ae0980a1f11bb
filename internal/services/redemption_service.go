package services

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"referral-service/internal/config"
	"referral-service/internal/models"
	"referral-service/pkg/common"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

// Task types (copied from worker/tasks.go to avoid cycle)
const (
	TypeSummaryRefresh = "referral:summary-refresh"
)

type SummaryRefreshPayload struct {
	PartnerId int `json:"partnerId"`
}

type RedemptionService struct {
	DB      *gorm.DB
	Balance *BalanceService
	Tasks   *asynq.Client
	Config  config.Config

	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

func NewRedemptionService(db *gorm.DB, balance *BalanceService, tasks *asynq.Client, cfg config.Config) *RedemptionService {
	return &RedemptionService{
		DB:      db,
		Balance: balance,
		Tasks:   tasks,
		Config:  cfg,
		locks:   make(map[int]*sync.Mutex),
	}
}

// RedemptionReceipt reports what was actually redeemed. Adjusted is set when
// the request exceeded the available balance and was clamped down, so the
// boundary layer can tell the user.
type RedemptionReceipt struct {
	RedemptionId   int     `json:"redemptionId"`
	EarningId      int     `json:"earningId"`
	CreditedAmount float64 `json:"creditedAmount"`
	Adjusted       bool    `json:"adjusted"`
	TransactionRef string  `json:"transactionRef"`
}

// referrerLock serializes redemption requests per referrer. The balance
// check and the ledger write happen under this lock so two concurrent
// requests cannot both draw from the same paid pool.
func (s *RedemptionService) referrerLock(referrerId int) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[referrerId]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[referrerId] = l
	return l
}

// RequestRedemption creates a payout earning plus a requested redemption row
// in one transaction. A nil amount means "redeem everything available".
func (s *RedemptionService) RequestRedemption(referrerId, referralId, referredId int, amount *float64) (*RedemptionReceipt, error) {
	lock := s.referrerLock(referrerId)
	lock.Lock()
	defer lock.Unlock()

	var referral models.Referral
	err := s.DB.Where("id = ? AND referrer_id = ? AND referred_id = ?", referralId, referrerId, referredId).
		First(&referral).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.checkCooldown(referrerId); err != nil {
		return nil, err
	}

	bal, err := s.Balance.ComputeBalance(referrerId)
	if err != nil {
		return nil, err
	}

	if bal.AvailableAfterPending <= 0 {
		return nil, ErrBelowMinimum
	}
	hasInflight := bal.PendingRedemption > 0
	if bal.AvailableAfterPending < s.Config.MinRedeemAmount && !hasInflight {
		return nil, ErrBelowMinimum
	}

	amt := bal.AvailableAfterPending
	adjusted := false
	if amount != nil {
		if *amount <= 0 {
			return nil, ErrBelowMinimum
		}
		if *amount > bal.AvailableAfterPending {
			adjusted = true
		} else {
			amt = *amount
		}
	}
	amt = common.RoundMoney(amt)

	rate := referral.CommissionRate
	if rate <= 0 {
		rate = DefaultCommissionRate
	}

	earning := models.Earning{
		PartnerId:            referrerId,
		FundName:             "Referral Earning",
		Description:          "Referral commission redemption",
		CommissionEarned:     amt,
		CommissionRate:       rate,
		Status:               models.EarningStatusApproved,
		IsReferralRedemption: true,
	}
	redemption := models.ReferralRedemption{
		ReferrerId:         referrerId,
		ReferralId:         referral.ID,
		ReferredId:         referredId,
		CommissionRedeemed: amt,
		InvestmentAmount:   common.DeriveInvestmentAmount(0, amt, rate),
		CommissionRate:     rate,
		Status:             models.RedemptionStatusRequested,
		TransactionRef:     uuid.NewString(),
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&earning).Error; err != nil {
			return err
		}
		redemption.EarningId = earning.ID
		return tx.Create(&redemption).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrDuplicateRedemption
	}
	if err != nil {
		return nil, err
	}

	s.enqueueSummaryRefresh(referrerId)

	return &RedemptionReceipt{
		RedemptionId:   redemption.ID,
		EarningId:      earning.ID,
		CreditedAmount: amt,
		Adjusted:       adjusted,
		TransactionRef: redemption.TransactionRef,
	}, nil
}

func (s *RedemptionService) checkCooldown(referrerId int) error {
	var last models.ReferralRedemption
	err := s.DB.Where("referrer_id = ?", referrerId).
		Order("created_at DESC").First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if time.Since(last.CreatedAt) < s.Config.RedeemCooldown {
		return ErrCooldown
	}
	return nil
}

// CreditRedemption moves the redemption linked to a paid payout earning into
// credited state. Crediting an already-credited redemption is a no-op.
func (s *RedemptionService) CreditRedemption(earningId int) error {
	var redemption models.ReferralRedemption
	err := s.DB.Where("earning_id = ?", earningId).First(&redemption).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	switch redemption.Status {
	case models.RedemptionStatusCredited:
		return nil
	case models.RedemptionStatusFailed:
		log.Printf("Ignoring credit for failed redemption %d (earning %d)", redemption.ID, earningId)
		return nil
	}

	now := time.Now()
	if err := s.DB.Model(&redemption).Updates(map[string]interface{}{
		"status":      models.RedemptionStatusCredited,
		"credited_at": now,
	}).Error; err != nil {
		return err
	}

	s.enqueueSummaryRefresh(redemption.ReferrerId)
	return nil
}

// FailRedemption is the administrative rollback path.
func (s *RedemptionService) FailRedemption(redemptionId int) error {
	var redemption models.ReferralRedemption
	err := s.DB.First(&redemption, redemptionId).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if redemption.Status == models.RedemptionStatusFailed {
		return nil
	}

	if err := s.DB.Model(&redemption).
		UpdateColumn("status", models.RedemptionStatusFailed).Error; err != nil {
		return err
	}

	s.enqueueSummaryRefresh(redemption.ReferrerId)
	return nil
}

// OnEarningPaid reacts to the payment-completion workflow. Payout earnings
// credit their linked redemption; ordinary earnings activate the referral
// relationship and refresh the referrer's summary.
func (s *RedemptionService) OnEarningPaid(earningId int) error {
	var earning models.Earning
	err := s.DB.First(&earning, earningId).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if earning.IsRedemptionPayout() {
		return s.CreditRedemption(earning.ID)
	}

	var referral models.Referral
	err = s.DB.Where("referred_id = ?", earning.PartnerId).First(&referral).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// no referral row: fall back to the partner's referred_by pointer
		var partner models.Partner
		if perr := s.DB.First(&partner, earning.PartnerId).Error; perr == nil && partner.ReferredBy != nil {
			s.enqueueSummaryRefresh(*partner.ReferredBy)
		}
		return nil
	}
	if err != nil {
		return err
	}

	now := time.Now()
	updates := map[string]interface{}{"last_activity_at": now}
	if referral.Status == models.ReferralStatusPending {
		updates["status"] = models.ReferralStatusActive
		updates["first_investment_at"] = now
	}
	if err := s.DB.Model(&referral).Updates(updates).Error; err != nil {
		return err
	}

	s.enqueueSummaryRefresh(referral.ReferrerId)
	return nil
}

// ListRedemptions pages through a referrer's redemption ledger for the
// admin view, newest first.
func (s *RedemptionService) ListRedemptions(referrerId int, status string, page, limit int) (common.PaginationResult, error) {
	if limit <= 0 {
		limit = 20
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	query := s.DB.Model(&models.ReferralRedemption{}).Where("referrer_id = ?", referrerId)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return common.PaginationResult{}, err
	}

	var redemptions []models.ReferralRedemption
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&redemptions).Error; err != nil {
		return common.PaginationResult{}, err
	}

	return common.PaginateResponse(redemptions, total, page, limit, "Redemptions fetched successfully"), nil
}

// enqueueSummaryRefresh is fire-and-forget: the summary is a cache, a lost
// refresh self-heals on the next stale read.
func (s *RedemptionService) enqueueSummaryRefresh(partnerId int) {
	if s.Tasks == nil {
		return
	}
	data, err := json.Marshal(SummaryRefreshPayload{PartnerId: partnerId})
	if err != nil {
		return
	}
	task := asynq.NewTask(TypeSummaryRefresh, data)
	if _, err := s.Tasks.Enqueue(task); err != nil {
		log.Printf("Failed to enqueue summary refresh for partner %d: %v", partnerId, err)
	}
}
