// internal/models/user.go
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Name               string     `json:"name" gorm:"size:100;not null"`
	Email              string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash       string     `json:"-" gorm:"size:255;not null"`
	Role               UserRole   `json:"role" gorm:"type:varchar(20);not null;default:'affiliate'"`
	Status             UserStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	Level              UserLevel  `json:"level" gorm:"column:user_level;type:varchar(20);default:'bronze';index"`
	KYCStatus          KYCStatus  `json:"kyc_status" gorm:"type:varchar(20);default:'not_submitted';index"`
	WalletBalance      float64    `json:"wallet_balance" gorm:"type:decimal(12,2);not null;default:0"`
	CommissionOverride *float64   `json:"commission_override" gorm:"type:decimal(10,2)"`
	StorefrontSlug     string     `json:"storefront_slug" gorm:"uniqueIndex;size:100"`
	StorefrontName     string     `json:"storefront_name" gorm:"size:255"`
	Phone              string     `json:"phone" gorm:"size:32"`
	LastLoginAt        *time.Time `json:"last_login_at"`

	// Relationships
	StorefrontProducts []StorefrontProduct `json:"storefront_products,omitempty" gorm:"foreignKey:UserID"`
	Orders             []Order             `json:"orders,omitempty" gorm:"foreignKey:AffiliateUserID"`
	WalletTransactions []WalletTransaction `json:"wallet_transactions,omitempty" gorm:"foreignKey:UserID"`
	PayoutRequests     []PayoutRequest     `json:"payout_requests,omitempty" gorm:"foreignKey:UserID"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}
