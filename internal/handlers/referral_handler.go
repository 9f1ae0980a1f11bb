package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"referral-service/internal/services"
	"referral-service/pkg/common"

	"github.com/gin-gonic/gin"
)

type ReferralHandler struct {
	Referral   *services.ReferralService
	Redemption *services.RedemptionService
}

func NewReferralHandler(referral *services.ReferralService, redemption *services.RedemptionService) *ReferralHandler {
	return &ReferralHandler{Referral: referral, Redemption: redemption}
}

// respondError maps typed service errors onto the common error envelope.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, common.NewErrorResponse("Record not found", nil, http.StatusNotFound))
	case errors.Is(err, services.ErrBelowMinimum):
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("Available balance is below the minimum redeemable amount", nil, http.StatusBadRequest))
	case errors.Is(err, services.ErrDuplicateRedemption):
		c.JSON(http.StatusConflict, common.NewErrorResponse("A redemption already exists for this payout", nil, http.StatusConflict))
	case errors.Is(err, services.ErrCooldown):
		c.JSON(http.StatusTooManyRequests, common.NewErrorResponse("Please wait before requesting another redemption", nil, http.StatusTooManyRequests))
	case errors.Is(err, services.ErrSelfReferral):
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("You cannot use your own referral code", nil, http.StatusBadRequest))
	default:
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error(), nil, http.StatusInternalServerError))
	}
}

func (h *ReferralHandler) GetOverview(c *gin.Context) {
	partnerId, err := strconv.Atoi(c.Query("partner_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("Invalid partner_id", nil, http.StatusBadRequest))
		return
	}

	overview, err := h.Referral.GetOverview(partnerId)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, common.NewSuccessResponse(overview, "Referral overview fetched successfully"))
}

func (h *ReferralHandler) GetHistory(c *gin.Context) {
	partnerId, err := strconv.Atoi(c.Query("partner_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("Invalid partner_id", nil, http.StatusBadRequest))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	history, err := h.Referral.GetHistory(partnerId, limit, c.Query("status"), c.Query("cursor"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, common.NewSuccessResponse(history, "Referral history fetched successfully"))
}

type RegisterReferralRequest struct {
	PartnerId    int    `json:"partner_id" binding:"required"`
	ReferralCode string `json:"referral_code" binding:"required"`
}

func (h *ReferralHandler) RegisterReferral(c *gin.Context) {
	var req RegisterReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error(), nil, http.StatusBadRequest))
		return
	}

	referral, err := h.Referral.RegisterReferral(req.PartnerId, req.ReferralCode)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, common.NewSuccessResponse(referral, "Referral registered successfully"))
}

type RedeemRequest struct {
	ReferrerId int      `json:"referrer_id" binding:"required"`
	ReferralId int      `json:"referral_id" binding:"required"`
	ReferredId int      `json:"referred_id" binding:"required"`
	Amount     *float64 `json:"amount"`
}

func (h *ReferralHandler) RequestRedemption(c *gin.Context) {
	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error(), nil, http.StatusBadRequest))
		return
	}

	receipt, err := h.Redemption.RequestRedemption(req.ReferrerId, req.ReferralId, req.ReferredId, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Redemption request created"
	if receipt.Adjusted {
		message = "Redemption request created; amount adjusted to the available balance"
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(receipt, message))
}

// EarningPaid is the hook the payment-completion workflow calls when an
// earning reaches paid status.
func (h *ReferralHandler) EarningPaid(c *gin.Context) {
	earningId, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("Invalid earning id", nil, http.StatusBadRequest))
		return
	}

	if err := h.Redemption.OnEarningPaid(earningId); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, common.NewSuccessResponse(nil, "Earning processed"))
}

type CreatePartnerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email"`
}

func (h *ReferralHandler) CreatePartner(c *gin.Context) {
	var req CreatePartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error(), nil, http.StatusBadRequest))
		return
	}

	partner, err := h.Referral.CreatePartner(req.Username, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, common.NewSuccessResponse(partner, "Partner created successfully"))
}

func (h *ReferralHandler) ListRedemptions(c *gin.Context) {
	referrerId, err := strconv.Atoi(c.Query("referrer_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("Invalid referrer_id", nil, http.StatusBadRequest))
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	result, err := h.Redemption.ListRedemptions(referrerId, c.Query("status"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// FailRedemption is the administrative rollback endpoint.
func (h *ReferralHandler) FailRedemption(c *gin.Context) {
	redemptionId, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("Invalid redemption id", nil, http.StatusBadRequest))
		return
	}

	if err := h.Redemption.FailRedemption(redemptionId); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, common.NewSuccessResponse(nil, "Redemption marked as failed"))
}
