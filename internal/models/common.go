// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type UserRole string

const (
	UserRoleAffiliate UserRole = "affiliate"
	UserRoleAdmin     UserRole = "admin"
)

type UserStatus string

const (
	UserStatusPending  UserStatus = "pending"
	UserStatusApproved UserStatus = "approved"
	UserStatusDisabled UserStatus = "disabled"
)

type UserLevel string

const (
	UserLevelBronze UserLevel = "bronze"
	UserLevelSilver UserLevel = "silver"
	UserLevelGold   UserLevel = "gold"
)

type KYCStatus string

const (
	KYCStatusNotSubmitted KYCStatus = "not_submitted"
	KYCStatusSubmitted    KYCStatus = "submitted"
	KYCStatusApproved     KYCStatus = "approved"
	KYCStatusRejected     KYCStatus = "rejected"
)

type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusPaidByUser     OrderStatus = "paid_by_user"
	OrderStatusProcessing     OrderStatus = "processing"
	OrderStatusCompleted      OrderStatus = "completed"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

type CommissionType string

const (
	CommissionTypePercentage CommissionType = "percentage"
	CommissionTypeFixed      CommissionType = "fixed"
)

type WalletTransactionType string

const (
	WalletTxTypeCommission    WalletTransactionType = "commission"
	WalletTxTypeCredit        WalletTransactionType = "credit"
	WalletTxTypeDebit         WalletTransactionType = "debit"
	WalletTxTypePayout        WalletTransactionType = "payout"
	WalletTxTypePayoutPending WalletTransactionType = "payout_pending"
	WalletTxTypeRefund        WalletTransactionType = "refund"
	WalletTxTypeAdjustment    WalletTransactionType = "adjustment"
	WalletTxTypeAdminCredit   WalletTransactionType = "admin_credit"
	WalletTxTypeAdminDebit    WalletTransactionType = "admin_debit"
)

type PayoutStatus string

const (
	PayoutStatusPending  PayoutStatus = "pending"
	PayoutStatusApproved PayoutStatus = "approved"
	PayoutStatusRejected PayoutStatus = "rejected"
	PayoutStatusPaid     PayoutStatus = "paid"
)

type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)
