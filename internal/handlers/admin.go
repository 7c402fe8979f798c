// internal/handlers/admin.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/storelink/storelink-backend/internal/i18n"
	"github.com/storelink/storelink-backend/internal/models"
	"github.com/storelink/storelink-backend/internal/services"
	"github.com/storelink/storelink-backend/internal/utils"
)

type AdminHandler struct {
	adminService    *services.AdminService
	payoutService   *services.PayoutService
	settingsService *services.SettingsService
	walletService   *services.WalletService
	auditService    *services.AuditService
	levelSync       *services.LevelSyncService
}

func NewAdminHandler(
	adminService *services.AdminService,
	payoutService *services.PayoutService,
	settingsService *services.SettingsService,
	walletService *services.WalletService,
	auditService *services.AuditService,
	levelSync *services.LevelSyncService,
) *AdminHandler {
	return &AdminHandler{
		adminService:    adminService,
		payoutService:   payoutService,
		settingsService: settingsService,
		walletService:   walletService,
		auditService:    auditService,
		levelSync:       levelSync,
	}
}

// GET /admin/dashboard
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.adminService.GetDashboardStats()
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}
	utils.SuccessResponse(c, gin.H{"stats": stats})
}

// GET /admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	filter := services.UserFilter{
		Status:    models.UserStatus(c.Query("status")),
		Level:     models.UserLevel(c.Query("level")),
		KYCStatus: models.KYCStatus(c.Query("kyc_status")),
	}

	users, total, err := h.adminService.GetUsers(params, filter)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(users, total, params))
}

// GET /admin/users/:id
func (h *AdminHandler) GetUser(c *gin.Context) {
	userID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	user, err := h.adminService.GetUser(userID)
	if err != nil {
		utils.NotFoundResponse(c, "user")
		return
	}

	verified, ledgerSum, err := h.walletService.VerifyLedger(userID)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"user": user,
		"wallet": gin.H{
			"balance":    user.WalletBalance,
			"ledger_sum": ledgerSum,
			"consistent": verified,
		},
	})
}

// POST /admin/users/:id/approve
func (h *AdminHandler) ApproveUser(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	adminID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}
	userID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	user, err := h.adminService.ApproveUser(userID, adminID)
	if err != nil {
		h.respondUserError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyUserApproved),
		"user":    user,
	})
}

// POST /admin/users/:id/disable
func (h *AdminHandler) DisableUser(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	adminID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}
	userID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	user, err := h.adminService.DisableUser(userID, adminID, req.Reason)
	if err != nil {
		h.respondUserError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyUserDisabled),
		"user":    user,
	})
}

// POST /admin/users/:id/wallet-adjustment
func (h *AdminHandler) AdjustWallet(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	adminID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}
	userID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req services.WalletAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	walletTx, err := h.adminService.AdjustWallet(userID, adminID, &req)
	if err != nil {
		if errors.Is(err, services.ErrInsufficientBalance) {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyWalletInsufficient), nil)
			return
		}
		h.respondUserError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":     i18n.T(lang, i18n.KeyAdminActionSuccess),
		"transaction": walletTx,
	})
}

// PUT /admin/users/:id/commission-override
func (h *AdminHandler) SetCommissionOverride(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	adminID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}
	userID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req services.CommissionOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	user, err := h.adminService.SetCommissionOverride(userID, adminID, &req)
	if err != nil {
		h.respondUserError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAdminActionSuccess),
		"user":    user,
	})
}

// GET /admin/payouts
func (h *AdminHandler) ListPayouts(c *gin.Context) {
	filter := services.PayoutFilter{
		PaginationParams: utils.GetPaginationParams(c),
	}
	if status := c.Query("status"); status != "" {
		s := models.PayoutStatus(status)
		filter.Status = &s
	}
	if userID := c.Query("user_id"); userID != "" {
		if id, err := uuid.Parse(userID); err == nil {
			filter.UserID = &id
		}
	}

	payouts, total, err := h.payoutService.GetPayouts(filter)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(payouts, total, filter.PaginationParams))
}

// POST /admin/payouts/:id/approve
func (h *AdminHandler) ApprovePayout(c *gin.Context) {
	h.resolvePayout(c, models.PayoutStatusApproved)
}

// POST /admin/payouts/:id/reject
func (h *AdminHandler) RejectPayout(c *gin.Context) {
	h.resolvePayout(c, models.PayoutStatusRejected)
}

// POST /admin/payouts/:id/mark-paid
func (h *AdminHandler) MarkPayoutPaid(c *gin.Context) {
	h.resolvePayout(c, models.PayoutStatusPaid)
}

func (h *AdminHandler) resolvePayout(c *gin.Context, newStatus models.PayoutStatus) {
	lang := utils.GetLangFromContext(c)
	adminID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}
	payoutID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	var payout *models.PayoutRequest
	var err error
	switch newStatus {
	case models.PayoutStatusApproved:
		payout, err = h.payoutService.ApprovePayout(payoutID, adminID)
	case models.PayoutStatusRejected:
		payout, err = h.payoutService.RejectPayout(payoutID, adminID, req.Reason)
	case models.PayoutStatusPaid:
		payout, err = h.payoutService.MarkPaid(payoutID, adminID)
	}

	if err != nil {
		if errors.Is(err, services.ErrPayoutNotFound) {
			utils.NotFoundResponse(c, "payout")
			return
		}
		utils.ConflictResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAdminActionSuccess),
		"payout":  payout,
	})
}

// POST /admin/payouts/run triggers the auto-payout batch manually.
func (h *AdminHandler) RunAutoPayouts(c *gin.Context) {
	summary, err := h.payoutService.RunAutoPayouts(c.Request.Context())
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}
	utils.SuccessResponse(c, gin.H{"summary": summary})
}

// POST /admin/levels/sync triggers the level sync batch manually.
func (h *AdminHandler) RunLevelSync(c *gin.Context) {
	summary, err := h.levelSync.Run(c.Request.Context())
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}
	utils.SuccessResponse(c, gin.H{"summary": summary})
}

// GET /admin/settings
func (h *AdminHandler) ListSettings(c *gin.Context) {
	settings, err := h.settingsService.List()
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}
	utils.SuccessResponse(c, gin.H{"settings": settings})
}

// PUT /admin/settings/:key
func (h *AdminHandler) UpdateSetting(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	adminID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req struct {
		Value       string `json:"value" validate:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	key := c.Param("key")
	oldValue, err := h.settingsService.Update(key, req.Value, req.Description, adminID)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	if err := h.auditService.Record(services.AuditEntry{
		ActionType: "setting_updated",
		EntityType: "platform_setting",
		AdminID:    &adminID,
		OldValue:   map[string]interface{}{"key": key, "value": oldValue},
		NewValue:   map[string]interface{}{"key": key, "value": req.Value},
		IPAddress:  c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	}); err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeySettingUpdated),
		"key":     key,
		"value":   req.Value,
	})
}

// GET /admin/audit-logs
func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	var adminID *uuid.UUID
	if raw := c.Query("admin_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			adminID = &id
		}
	}

	logs, total, err := h.auditService.List(params, c.Query("entity_type"), adminID)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(logs, total, params))
}

func (h *AdminHandler) respondUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		utils.NotFoundResponse(c, "user")
	case errors.Is(err, services.ErrNotAffiliate), errors.Is(err, services.ErrInvalidUserState):
		utils.ConflictResponse(c, err.Error())
	default:
		utils.BadRequestResponse(c, err.Error(), nil)
	}
}
