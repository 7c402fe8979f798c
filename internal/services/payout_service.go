// internal/services/payout_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storelink/storelink-backend/internal/config"
	"github.com/storelink/storelink-backend/internal/database"
	"github.com/storelink/storelink-backend/internal/models"
	"github.com/storelink/storelink-backend/internal/utils"
)

var (
	ErrPayoutNotFound      = errors.New("payout request not found")
	ErrPendingPayoutExists = errors.New("a payout request is already pending")
	ErrKYCNotApproved      = errors.New("KYC approval required for payouts")
	ErrBelowMinimumPayout  = errors.New("payout amount below minimum")
)

type PayoutService struct {
	db            *gorm.DB
	config        *config.Config
	settings      *SettingsService
	wallet        *WalletService
	audit         *AuditService
	notifications *NotificationService
}

func NewPayoutService(db *gorm.DB, cfg *config.Config, settings *SettingsService, wallet *WalletService, audit *AuditService, notifications *NotificationService) *PayoutService {
	return &PayoutService{
		db:            db,
		config:        cfg,
		settings:      settings,
		wallet:        wallet,
		audit:         audit,
		notifications: notifications,
	}
}

type RequestPayoutInput struct {
	Amount         float64                `json:"amount" validate:"required,gt=0"`
	PaymentMethod  string                 `json:"payment_method" validate:"required,max=50"`
	PaymentDetails map[string]interface{} `json:"payment_details,omitempty"`
}

// RequestPayout creates a manual payout request. The payout hold (negative
// payout_pending ledger entry) and the request row commit together.
func (s *PayoutService) RequestPayout(userID uuid.UUID, req *RequestPayoutInput) (*models.PayoutRequest, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	if user.KYCStatus != models.KYCStatusApproved {
		return nil, ErrKYCNotApproved
	}
	if req.Amount < s.config.Payment.MinimumPayout {
		return nil, fmt.Errorf("%w: minimum is %.2f", ErrBelowMinimumPayout, s.config.Payment.MinimumPayout)
	}

	var payout *models.PayoutRequest
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		// Serialize payout creation per user on the row lock; the pending
		// check is only reliable once concurrent writers queue behind it.
		var locked models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&locked, "id = ?", userID).Error; err != nil {
			return fmt.Errorf("failed to lock user: %w", err)
		}

		pending, err := s.hasPendingPayout(tx, userID)
		if err != nil {
			return err
		}
		if pending {
			return ErrPendingPayoutExists
		}

		details := models.JSONB{}
		for k, v := range req.PaymentDetails {
			details[k] = v
		}

		payout = &models.PayoutRequest{
			UserID:         userID,
			Amount:         req.Amount,
			Status:         models.PayoutStatusPending,
			PaymentMethod:  req.PaymentMethod,
			PaymentDetails: details,
		}
		if err := tx.Create(payout).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrPendingPayoutExists
			}
			return fmt.Errorf("failed to create payout request: %w", err)
		}

		description := fmt.Sprintf("Payout request %s", payout.ID)
		if _, err := s.wallet.Adjust(tx, userID, -req.Amount,
			models.WalletTxTypePayoutPending, description, nil); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(AuditEntry{
		ActionType: "payout_requested",
		EntityType: "payout_request",
		EntityID:   &payout.ID,
		UserID:     &userID,
		NewValue:   map[string]interface{}{"amount": req.Amount, "method": req.PaymentMethod},
	})

	return payout, nil
}

func (s *PayoutService) hasPendingPayout(tx *gorm.DB, userID uuid.UUID) (bool, error) {
	var count int64
	if err := tx.Model(&models.PayoutRequest{}).
		Where("user_id = ? AND status = ?", userID, models.PayoutStatusPending).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check pending payouts: %w", err)
	}
	return count > 0, nil
}

// ApprovePayout marks a pending request approved. The held funds stay out of
// the wallet; MarkPaid finalizes them.
func (s *PayoutService) ApprovePayout(payoutID, adminID uuid.UUID) (*models.PayoutRequest, error) {
	return s.resolvePayout(payoutID, adminID, models.PayoutStatusApproved, "")
}

// RejectPayout releases the hold back into the wallet.
func (s *PayoutService) RejectPayout(payoutID, adminID uuid.UUID, reason string) (*models.PayoutRequest, error) {
	return s.resolvePayout(payoutID, adminID, models.PayoutStatusRejected, reason)
}

// MarkPaid records the external transfer as done.
func (s *PayoutService) MarkPaid(payoutID, adminID uuid.UUID) (*models.PayoutRequest, error) {
	return s.resolvePayout(payoutID, adminID, models.PayoutStatusPaid, "")
}

func (s *PayoutService) resolvePayout(payoutID, adminID uuid.UUID, newStatus models.PayoutStatus, reason string) (*models.PayoutRequest, error) {
	var payout models.PayoutRequest

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&payout, "id = ?", payoutID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPayoutNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		switch newStatus {
		case models.PayoutStatusApproved, models.PayoutStatusRejected:
			if payout.Status != models.PayoutStatusPending {
				return fmt.Errorf("payout is not pending (status %s)", payout.Status)
			}
		case models.PayoutStatusPaid:
			if payout.Status != models.PayoutStatusPending && payout.Status != models.PayoutStatusApproved {
				return fmt.Errorf("payout cannot be marked paid from status %s", payout.Status)
			}
		}

		now := time.Now()
		payout.Status = newStatus
		payout.ProcessedBy = &adminID
		payout.ProcessedAt = &now
		payout.RejectReason = reason

		if err := tx.Save(&payout).Error; err != nil {
			return fmt.Errorf("failed to update payout: %w", err)
		}

		if newStatus == models.PayoutStatusRejected {
			description := fmt.Sprintf("Refund for rejected payout %s", payout.ID)
			if _, err := s.wallet.Adjust(tx, payout.UserID, payout.Amount,
				models.WalletTxTypeRefund, description, nil); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(AuditEntry{
		ActionType: "payout_" + string(newStatus),
		EntityType: "payout_request",
		EntityID:   &payout.ID,
		UserID:     &payout.UserID,
		AdminID:    &adminID,
		NewValue:   map[string]interface{}{"status": newStatus},
		Reason:     reason,
	})

	var user models.User
	if err := s.db.First(&user, "id = ?", payout.UserID).Error; err == nil {
		s.notifications.Enqueue(&user.ID, "payout_"+string(newStatus), user.Email,
			fmt.Sprintf("Payout request %s", newStatus),
			fmt.Sprintf("Your payout request for %.2f is now %s.", payout.Amount, newStatus))
	}

	return &payout, nil
}

type PayoutFilter struct {
	utils.PaginationParams
	UserID *uuid.UUID
	Status *models.PayoutStatus
}

func (s *PayoutService) GetPayouts(filter PayoutFilter) ([]models.PayoutRequest, int64, error) {
	query := s.db.Model(&models.PayoutRequest{}).Preload("User")

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count payout requests: %w", err)
	}

	allowedSortFields := []string{"created_at", "amount", "status", "processed_at"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var payouts []models.PayoutRequest
	if err := query.Find(&payouts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch payout requests: %w", err)
	}

	return payouts, total, nil
}

// Auto-payout batch.

type AutoPayoutOutcome string

const (
	AutoPayoutCreated       AutoPayoutOutcome = "created"
	AutoPayoutSkippedExists AutoPayoutOutcome = "skipped_pending_exists"
	AutoPayoutError         AutoPayoutOutcome = "error"
)

type AutoPayoutResult struct {
	UserID  uuid.UUID         `json:"user_id"`
	Outcome AutoPayoutOutcome `json:"outcome"`
	Amount  float64           `json:"amount,omitempty"`
	Error   string            `json:"error,omitempty"`
}

type AutoPayoutSummary struct {
	Enabled   bool               `json:"enabled"`
	Threshold float64            `json:"threshold"`
	Processed int                `json:"processed"`
	Created   int                `json:"created"`
	Skipped   int                `json:"skipped"`
	Failed    int                `json:"failed"`
	Results   []AutoPayoutResult `json:"results"`
	StartedAt time.Time          `json:"started_at"`
	Duration  time.Duration      `json:"duration"`
}

// RunAutoPayouts scans payout-eligible affiliates and creates a payout
// request for each one's full balance. One affiliate failing never aborts the
// batch; each outcome lands in the summary.
func (s *PayoutService) RunAutoPayouts(ctx context.Context) (*AutoPayoutSummary, error) {
	summary := &AutoPayoutSummary{StartedAt: time.Now()}
	defer func() { summary.Duration = time.Since(summary.StartedAt) }()

	if !s.settings.GetBool(SettingAutoPayoutEnabled, false) {
		logrus.Debug("Auto-payout disabled, skipping batch")
		return summary, nil
	}
	summary.Enabled = true
	summary.Threshold = s.settings.GetFloat(SettingAutoPayoutThreshold, DefaultAutoPayoutThreshold)

	var eligible []models.User
	if err := s.db.
		Where("role = ? AND status = ? AND kyc_status = ? AND wallet_balance >= ?",
			models.UserRoleAffiliate, models.UserStatusApproved, models.KYCStatusApproved, summary.Threshold).
		Find(&eligible).Error; err != nil {
		return summary, fmt.Errorf("failed to scan eligible affiliates: %w", err)
	}

	for i := range eligible {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		result := s.processAutoPayout(&eligible[i], summary.Threshold)
		summary.Results = append(summary.Results, result)
		summary.Processed++
		switch result.Outcome {
		case AutoPayoutCreated:
			summary.Created++
		case AutoPayoutSkippedExists:
			summary.Skipped++
		case AutoPayoutError:
			summary.Failed++
		}
	}

	logrus.WithFields(logrus.Fields{
		"processed": summary.Processed,
		"created":   summary.Created,
		"skipped":   summary.Skipped,
		"failed":    summary.Failed,
	}).Info("Auto-payout batch finished")

	return summary, nil
}

func (s *PayoutService) processAutoPayout(user *models.User, threshold float64) AutoPayoutResult {
	result := AutoPayoutResult{UserID: user.ID}
	var payout *models.PayoutRequest

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		// Lock before the pending check so a concurrent manual request for
		// the same user cannot slip a second pending payout through.
		var locked models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&locked, "id = ?", user.ID).Error; err != nil {
			return fmt.Errorf("failed to lock user: %w", err)
		}

		pending, err := s.hasPendingPayout(tx, user.ID)
		if err != nil {
			return err
		}
		if pending {
			return ErrPendingPayoutExists
		}

		// The balance may have moved since the eligibility scan.
		if locked.WalletBalance < threshold {
			return fmt.Errorf("balance %.2f dropped below threshold %.2f", locked.WalletBalance, threshold)
		}

		amount := locked.WalletBalance
		payout = &models.PayoutRequest{
			UserID:        user.ID,
			Amount:        amount,
			Status:        models.PayoutStatusPending,
			PaymentMethod: "auto",
			PaymentDetails: models.JSONB{
				"auto_generated": true,
				"reason":         fmt.Sprintf("Automatic payout: balance %.2f reached threshold %.2f", amount, threshold),
			},
		}
		if err := tx.Create(payout).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrPendingPayoutExists
			}
			return fmt.Errorf("failed to create payout request: %w", err)
		}

		description := fmt.Sprintf("Automatic payout request %s", payout.ID)
		if _, err := s.wallet.Adjust(tx, user.ID, -amount,
			models.WalletTxTypePayoutPending, description, nil); err != nil {
			return err
		}

		result.Amount = amount
		return nil
	})

	if errors.Is(err, ErrPendingPayoutExists) {
		result.Outcome = AutoPayoutSkippedExists
		return result
	}
	if err != nil {
		result.Outcome = AutoPayoutError
		result.Error = err.Error()
		logrus.WithError(err).WithField("user_id", user.ID).Warn("Auto-payout failed for affiliate")
		return result
	}

	result.Outcome = AutoPayoutCreated

	s.audit.Record(AuditEntry{
		ActionType: "auto_payout_created",
		EntityType: "payout_request",
		EntityID:   &payout.ID,
		UserID:     &user.ID,
		NewValue:   map[string]interface{}{"amount": result.Amount},
	})

	// Best-effort; a notification failure must not fail the payout.
	s.notifications.Enqueue(&user.ID, "auto_payout_created", user.Email,
		"Automatic payout created",
		fmt.Sprintf("A payout request for %.2f was created automatically and is awaiting review.", result.Amount))

	return result
}

// StartScheduler runs the auto-payout batch on a fixed interval until the
// context is cancelled.
func (s *PayoutService) StartScheduler(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logrus.WithField("interval", interval.String()).Info("Auto-payout scheduler started")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Auto-payout scheduler stopped")
			return
		case <-ticker.C:
			if _, err := s.RunAutoPayouts(ctx); err != nil {
				logrus.WithError(err).Error("Auto-payout batch failed")
			}
		}
	}
}
