// internal/handlers/wallet.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/storelink/storelink-backend/internal/i18n"
	"github.com/storelink/storelink-backend/internal/models"
	"github.com/storelink/storelink-backend/internal/services"
	"github.com/storelink/storelink-backend/internal/utils"
)

type WalletHandler struct {
	walletService *services.WalletService
	payoutService *services.PayoutService
}

func NewWalletHandler(walletService *services.WalletService, payoutService *services.PayoutService) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
		payoutService: payoutService,
	}
}

// GET /wallet
func (h *WalletHandler) Balance(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	balance, err := h.walletService.Balance(userID)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"balance": balance})
}

// GET /wallet/transactions
func (h *WalletHandler) History(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	transactions, total, err := h.walletService.History(userID, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(transactions, total, params))
}

// POST /wallet/payouts
func (h *WalletHandler) RequestPayout(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.RequestPayoutInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	payout, err := h.payoutService.RequestPayout(userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrKYCNotApproved):
			utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyPayoutKYCRequired))
		case errors.Is(err, services.ErrPendingPayoutExists):
			utils.ConflictResponse(c, i18n.T(lang, i18n.KeyPayoutPendingExists))
		case errors.Is(err, services.ErrBelowMinimumPayout):
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyPayoutBelowMinimum), nil)
		case errors.Is(err, services.ErrInsufficientBalance):
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyWalletInsufficient), nil)
		default:
			utils.BadRequestResponse(c, err.Error(), nil)
		}
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPayoutCreated),
		"payout":  payout,
	})
}

// GET /wallet/payouts
func (h *WalletHandler) ListPayouts(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	filter := services.PayoutFilter{
		PaginationParams: utils.GetPaginationParams(c),
		UserID:           &userID,
	}
	if status := c.Query("status"); status != "" {
		s := models.PayoutStatus(status)
		filter.Status = &s
	}

	payouts, total, err := h.payoutService.GetPayouts(filter)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(payouts, total, filter.PaginationParams))
}
