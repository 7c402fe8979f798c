// internal/models/wallet.go
package models

import (
	"github.com/google/uuid"
)

// WalletTransaction is an append-only ledger entry. Rows are never updated or
// deleted; the sum of amounts per user is the source of truth for the cached
// wallet balance on the user row.
type WalletTransaction struct {
	BaseModel
	UserID      uuid.UUID             `json:"user_id" gorm:"type:uuid;not null;index"`
	Amount      float64               `json:"amount" gorm:"type:decimal(12,2);not null"`
	Type        WalletTransactionType `json:"type" gorm:"type:varchar(20);not null;index"`
	Description string                `json:"description" gorm:"size:255"`
	OrderID     *uuid.UUID            `json:"order_id" gorm:"type:uuid;index"`
	// Balance on the user row immediately after this entry was applied.
	BalanceAfter float64 `json:"balance_after" gorm:"type:decimal(12,2);not null"`

	// Relationships
	User  User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Order *Order `json:"order,omitempty" gorm:"foreignKey:OrderID"`
}
