// internal/services/admin_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/storelink/storelink-backend/internal/models"
	"github.com/storelink/storelink-backend/internal/utils"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrNotAffiliate     = errors.New("user is not an affiliate")
	ErrInvalidUserState = errors.New("user is not in a state allowing this action")
)

type AdminService struct {
	db            *gorm.DB
	wallet        *WalletService
	audit         *AuditService
	notifications *NotificationService
}

// DashboardStats is the admin landing view aggregate.
type DashboardStats struct {
	TotalAffiliates    int64   `json:"total_affiliates"`
	PendingAffiliates  int64   `json:"pending_affiliates"`
	TotalProducts      int64   `json:"total_products"`
	TotalOrders        int64   `json:"total_orders"`
	CompletedOrders    int64   `json:"completed_orders"`
	PendingPayouts     int64   `json:"pending_payouts"`
	PendingKYC         int64   `json:"pending_kyc"`
	TotalRevenue       float64 `json:"total_revenue"`
	OutstandingBalance float64 `json:"outstanding_balance"`
	OrdersLast30Days   int64   `json:"orders_last_30_days"`
}

type WalletAdjustmentRequest struct {
	Amount float64 `json:"amount" validate:"required"`
	Reason string  `json:"reason" validate:"required,max=500"`
}

type CommissionOverrideRequest struct {
	// Rate of nil clears the override so the platform rate applies again.
	Rate   *float64 `json:"rate" validate:"omitempty,gte=0"`
	Reason string   `json:"reason" validate:"required,max=500"`
}

type UserFilter struct {
	Status    models.UserStatus
	Level     models.UserLevel
	KYCStatus models.KYCStatus
}

func NewAdminService(db *gorm.DB, wallet *WalletService, audit *AuditService, notifications *NotificationService) *AdminService {
	return &AdminService{
		db:            db,
		wallet:        wallet,
		audit:         audit,
		notifications: notifications,
	}
}

func (s *AdminService) GetDashboardStats() (*DashboardStats, error) {
	stats := &DashboardStats{}
	affiliate := models.UserRoleAffiliate

	s.db.Model(&models.User{}).Where("role = ?", affiliate).Count(&stats.TotalAffiliates)
	s.db.Model(&models.User{}).Where("role = ? AND status = ?", affiliate, models.UserStatusPending).Count(&stats.PendingAffiliates)
	s.db.Model(&models.Product{}).Count(&stats.TotalProducts)
	s.db.Model(&models.Order{}).Count(&stats.TotalOrders)
	s.db.Model(&models.Order{}).Where("status = ?", models.OrderStatusCompleted).Count(&stats.CompletedOrders)
	s.db.Model(&models.PayoutRequest{}).Where("status = ?", models.PayoutStatusPending).Count(&stats.PendingPayouts)
	s.db.Model(&models.KYCSubmission{}).Where("status = ?", models.KYCStatusSubmitted).Count(&stats.PendingKYC)
	s.db.Model(&models.Order{}).
		Where("created_at >= ?", time.Now().AddDate(0, 0, -30)).
		Count(&stats.OrdersLast30Days)

	s.db.Model(&models.Order{}).
		Where("status = ?", models.OrderStatusCompleted).
		Select("COALESCE(SUM(selling_price * quantity), 0)").
		Scan(&stats.TotalRevenue)

	s.db.Model(&models.User{}).
		Where("role = ?", affiliate).
		Select("COALESCE(SUM(wallet_balance), 0)").
		Scan(&stats.OutstandingBalance)

	return stats, nil
}

func (s *AdminService) GetUsers(params utils.PaginationParams, filter UserFilter) ([]models.User, int64, error) {
	query := s.db.Model(&models.User{}).Where("role = ?", models.UserRoleAffiliate)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Level != "" {
		query = query.Where("user_level = ?", filter.Level)
	}
	if filter.KYCStatus != "" {
		query = query.Where("kyc_status = ?", filter.KYCStatus)
	}
	if params.Search != "" {
		search := "%" + params.Search + "%"
		query = query.Where("name ILIKE ? OR email ILIKE ? OR storefront_slug ILIKE ?", search, search, search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	query = utils.ApplySort(query, params, []string{"created_at", "name", "wallet_balance", "user_level"})
	if err := utils.ApplyPagination(query, params).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}

	return users, total, nil
}

func (s *AdminService) GetUser(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

// ApproveUser moves a pending affiliate to approved and tells them.
func (s *AdminService) ApproveUser(userID, adminID uuid.UUID) (*models.User, error) {
	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if user.Role != models.UserRoleAffiliate {
		return nil, ErrNotAffiliate
	}
	if user.Status != models.UserStatusPending {
		return nil, ErrInvalidUserState
	}

	if err := s.db.Model(user).Update("status", models.UserStatusApproved).Error; err != nil {
		return nil, fmt.Errorf("failed to approve user: %w", err)
	}
	user.Status = models.UserStatusApproved

	s.recordUserAction("user_approved", user, adminID, "",
		map[string]interface{}{"status": models.UserStatusPending},
		map[string]interface{}{"status": models.UserStatusApproved})
	s.notifications.Enqueue(&user.ID, "account_approved", user.Email,
		"Your account has been approved",
		"Your affiliate account is active. You can now log in and set up your storefront.")

	return user, nil
}

// DisableUser locks the account out. Wallet balance and ledger are untouched.
func (s *AdminService) DisableUser(userID, adminID uuid.UUID, reason string) (*models.User, error) {
	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if user.Role != models.UserRoleAffiliate {
		return nil, ErrNotAffiliate
	}
	if user.Status == models.UserStatusDisabled {
		return nil, ErrInvalidUserState
	}

	oldStatus := user.Status
	if err := s.db.Model(user).Update("status", models.UserStatusDisabled).Error; err != nil {
		return nil, fmt.Errorf("failed to disable user: %w", err)
	}
	user.Status = models.UserStatusDisabled

	s.recordUserAction("user_disabled", user, adminID, reason,
		map[string]interface{}{"status": oldStatus},
		map[string]interface{}{"status": models.UserStatusDisabled})

	return user, nil
}

// AdjustWallet applies a manual admin credit or debit through the ledger.
// Positive amounts credit, negative amounts debit; debits below zero fail.
func (s *AdminService) AdjustWallet(userID, adminID uuid.UUID, req *WalletAdjustmentRequest) (*models.WalletTransaction, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if user.Role != models.UserRoleAffiliate {
		return nil, ErrNotAffiliate
	}

	txType := models.WalletTxTypeAdminCredit
	if req.Amount < 0 {
		txType = models.WalletTxTypeAdminDebit
	}

	walletTx, err := s.wallet.AdjustAtomic(userID, req.Amount, txType, req.Reason, nil)
	if err != nil {
		return nil, err
	}

	s.recordUserAction("wallet_adjusted", user, adminID, req.Reason,
		nil,
		map[string]interface{}{
			"amount":        req.Amount,
			"balance_after": walletTx.BalanceAfter,
		})

	return walletTx, nil
}

// SetCommissionOverride sets or clears the per-affiliate commission rate.
// A set override replaces the platform rate for that affiliate's orders.
func (s *AdminService) SetCommissionOverride(userID, adminID uuid.UUID, req *CommissionOverrideRequest) (*models.User, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if user.Role != models.UserRoleAffiliate {
		return nil, ErrNotAffiliate
	}

	oldValue := map[string]interface{}{"commission_override": user.CommissionOverride}

	if err := s.db.Model(user).Update("commission_override", req.Rate).Error; err != nil {
		return nil, fmt.Errorf("failed to update commission override: %w", err)
	}
	user.CommissionOverride = req.Rate

	s.recordUserAction("commission_override_set", user, adminID, req.Reason,
		oldValue,
		map[string]interface{}{"commission_override": req.Rate})

	return user, nil
}

func (s *AdminService) recordUserAction(action string, user *models.User, adminID uuid.UUID, reason string, oldValue, newValue map[string]interface{}) {
	if err := s.audit.Record(AuditEntry{
		ActionType: action,
		EntityType: "user",
		EntityID:   &user.ID,
		UserID:     &user.ID,
		AdminID:    &adminID,
		OldValue:   oldValue,
		NewValue:   newValue,
		Reason:     reason,
	}); err != nil {
		logrus.WithError(err).WithField("action", action).Warn("Failed to record user action audit")
	}
}
