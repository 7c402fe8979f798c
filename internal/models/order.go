// internal/models/order.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Order struct {
	BaseModel
	OrderNumber         string      `json:"order_number" gorm:"uniqueIndex;size:32;not null"`
	AffiliateUserID     uuid.UUID   `json:"affiliate_user_id" gorm:"type:uuid;not null;index"`
	StorefrontProductID uuid.UUID   `json:"storefront_product_id" gorm:"type:uuid;not null;index"`
	CustomerName        string      `json:"customer_name" gorm:"size:255;not null"`
	CustomerEmail       string      `json:"customer_email" gorm:"size:255"`
	CustomerPhone       string      `json:"customer_phone" gorm:"size:32"`
	CustomerAddress     string      `json:"customer_address" gorm:"type:text"`
	Quantity            int         `json:"quantity" gorm:"not null"`
	// Price snapshots taken at creation time; later catalog or storefront
	// changes never alter historical orders.
	SellingPrice     float64     `json:"selling_price" gorm:"type:decimal(10,2);not null"`
	BasePrice        float64     `json:"base_price" gorm:"type:decimal(10,2);not null"`
	Status           OrderStatus `json:"status" gorm:"type:varchar(20);default:'pending_payment';index"`
	PaymentReference string      `json:"payment_reference,omitempty" gorm:"size:255"`
	PaidAt           *time.Time  `json:"paid_at"`
	CompletedAt      *time.Time  `json:"completed_at"`
	CancelledAt      *time.Time  `json:"cancelled_at"`

	// Relationships
	Affiliate         User              `json:"affiliate,omitempty" gorm:"foreignKey:AffiliateUserID"`
	StorefrontProduct StorefrontProduct `json:"storefront_product,omitempty" gorm:"foreignKey:StorefrontProductID"`
}

func (o *Order) Total() float64 {
	return o.SellingPrice * float64(o.Quantity)
}

// Terminal reports whether the order can no longer change status.
func (o *Order) Terminal() bool {
	return o.Status == OrderStatusCompleted || o.Status == OrderStatusCancelled
}
