// internal/services/wallet_service.go
package services

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storelink/storelink-backend/internal/database"
	"github.com/storelink/storelink-backend/internal/models"
	"github.com/storelink/storelink-backend/internal/utils"
)

var (
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	ErrZeroAmount          = errors.New("wallet adjustment amount must not be zero")
)

// WalletService owns every wallet balance mutation. All writers (order
// completion, auto-payout, manual payout, admin adjustments) go through
// Adjust, which row-locks the user, appends the ledger entry, and updates the
// cached balance in one transaction. The cached balance therefore always
// equals the sum of the user's ledger entries.
type WalletService struct {
	db *gorm.DB
}

func NewWalletService(db *gorm.DB) *WalletService {
	return &WalletService{db: db}
}

// Adjust applies a signed amount to the user's wallet inside the caller's
// transaction. Debits that would take the balance below zero are rejected.
func (s *WalletService) Adjust(tx *gorm.DB, userID uuid.UUID, amount float64, txType models.WalletTransactionType, description string, orderID *uuid.UUID) (*models.WalletTransaction, error) {
	if amount == 0 {
		return nil, ErrZeroAmount
	}

	var user models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, fmt.Errorf("failed to lock wallet: %w", err)
	}

	newBalance, _ := decimal.NewFromFloat(user.WalletBalance).
		Add(decimal.NewFromFloat(amount)).Round(2).Float64()
	if newBalance < 0 {
		return nil, ErrInsufficientBalance
	}

	entry := &models.WalletTransaction{
		UserID:       userID,
		Amount:       amount,
		Type:         txType,
		Description:  description,
		OrderID:      orderID,
		BalanceAfter: newBalance,
	}

	if err := tx.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	if err := tx.Model(&models.User{}).Where("id = ?", userID).
		Update("wallet_balance", newBalance).Error; err != nil {
		return nil, fmt.Errorf("failed to update wallet balance: %w", err)
	}

	return entry, nil
}

// AdjustAtomic wraps Adjust in its own transaction for callers with no
// surrounding one (admin manual credit/debit).
func (s *WalletService) AdjustAtomic(userID uuid.UUID, amount float64, txType models.WalletTransactionType, description string, orderID *uuid.UUID) (*models.WalletTransaction, error) {
	var entry *models.WalletTransaction
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var err error
		entry, err = s.Adjust(tx, userID, amount, txType, description, orderID)
		return err
	})
	return entry, err
}

func (s *WalletService) Balance(userID uuid.UUID) (float64, error) {
	var user models.User
	if err := s.db.Select("wallet_balance").First(&user, "id = ?", userID).Error; err != nil {
		return 0, fmt.Errorf("failed to fetch balance: %w", err)
	}
	return user.WalletBalance, nil
}

func (s *WalletService) History(userID uuid.UUID, params utils.PaginationParams) ([]models.WalletTransaction, int64, error) {
	query := s.db.Model(&models.WalletTransaction{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	var entries []models.WalletTransaction
	offset := (params.Page - 1) * params.Limit
	if err := query.Order("created_at desc").Offset(offset).Limit(params.Limit).
		Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch ledger entries: %w", err)
	}

	return entries, total, nil
}

// VerifyLedger recomputes the ledger sum and compares it to the cached
// balance. A mismatch indicates drift that should never occur once all
// writers go through Adjust.
func (s *WalletService) VerifyLedger(userID uuid.UUID) (bool, float64, error) {
	var sum float64
	if err := s.db.Model(&models.WalletTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").Scan(&sum).Error; err != nil {
		return false, 0, fmt.Errorf("failed to sum ledger: %w", err)
	}

	balance, err := s.Balance(userID)
	if err != nil {
		return false, 0, err
	}

	return math.Abs(balance-sum) < 0.005, sum, nil
}
