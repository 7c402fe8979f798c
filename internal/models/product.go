// internal/models/product.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Product struct {
	BaseModel
	SKU         string         `json:"sku" gorm:"uniqueIndex;size:64;not null"`
	Name        string         `json:"name" gorm:"size:255;not null"`
	Description string         `json:"description" gorm:"type:text"`
	Category    string         `json:"category" gorm:"size:100;index"`
	BasePrice   float64        `json:"base_price" gorm:"type:decimal(10,2);not null"`
	Stock       int            `json:"stock" gorm:"default:0"`
	Images      pq.StringArray `json:"images" gorm:"type:text[]"`
	IsActive    bool           `json:"is_active" gorm:"default:true;index"`

	// Relationships
	StorefrontProducts []StorefrontProduct `json:"storefront_products,omitempty" gorm:"foreignKey:ProductID"`
}

// StorefrontProduct is an affiliate's priced listing of a catalog Product.
// One affiliate carries at most one listing per product.
type StorefrontProduct struct {
	BaseModel
	ProductID         uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_storefront_product_user"`
	UserID            uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_storefront_product_user"`
	SellingPrice      float64   `json:"selling_price" gorm:"type:decimal(10,2);not null"`
	CustomDescription string    `json:"custom_description" gorm:"type:text"`
	IsActive          bool      `json:"is_active" gorm:"default:true;index"`

	// Relationships
	Product Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	User    User    `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
