// internal/services/storefront_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storelink/storelink-backend/internal/models"
	"github.com/storelink/storelink-backend/internal/utils"
)

var (
	ErrListingNotFound    = errors.New("storefront listing not found")
	ErrListingExists      = errors.New("product is already listed in this storefront")
	ErrStorefrontNotFound = errors.New("storefront not found")
)

type StorefrontService struct {
	db *gorm.DB
}

type CreateListingRequest struct {
	ProductID         uuid.UUID `json:"product_id" validate:"required"`
	SellingPrice      float64   `json:"selling_price" validate:"required,gte=0"`
	CustomDescription string    `json:"custom_description,omitempty"`
}

type UpdateListingRequest struct {
	SellingPrice      *float64 `json:"selling_price,omitempty" validate:"omitempty,gte=0"`
	CustomDescription *string  `json:"custom_description,omitempty"`
	IsActive          *bool    `json:"is_active,omitempty"`
}

// PublicStorefront is the buyer-facing view of an affiliate's shop.
type PublicStorefront struct {
	StorefrontName string                     `json:"storefront_name"`
	StorefrontSlug string                     `json:"storefront_slug"`
	AffiliateLevel models.UserLevel           `json:"affiliate_level"`
	Listings       []models.StorefrontProduct `json:"listings"`
}

func NewStorefrontService(db *gorm.DB) *StorefrontService {
	return &StorefrontService{db: db}
}

// CreateListing adds a catalog product to the affiliate's storefront. Selling
// below base price is allowed; the commission just clamps to zero.
func (s *StorefrontService) CreateListing(affiliateID uuid.UUID, req *CreateListingRequest) (*models.StorefrontProduct, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var product models.Product
	if err := s.db.First(&product, "id = ? AND is_active = ?", req.ProductID, true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	listing := &models.StorefrontProduct{
		ProductID:         req.ProductID,
		UserID:            affiliateID,
		SellingPrice:      req.SellingPrice,
		CustomDescription: req.CustomDescription,
		IsActive:          true,
	}

	if err := s.db.Create(listing).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrListingExists
		}
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	listing.Product = product
	return listing, nil
}

func (s *StorefrontService) UpdateListing(affiliateID, listingID uuid.UUID, req *UpdateListingRequest) (*models.StorefrontProduct, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var listing models.StorefrontProduct
	if err := s.db.Preload("Product").
		First(&listing, "id = ? AND user_id = ?", listingID, affiliateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	updates := map[string]interface{}{}
	if req.SellingPrice != nil {
		updates["selling_price"] = *req.SellingPrice
	}
	if req.CustomDescription != nil {
		updates["custom_description"] = *req.CustomDescription
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) == 0 {
		return &listing, nil
	}

	if err := s.db.Model(&listing).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}

	return &listing, nil
}

func (s *StorefrontService) DeleteListing(affiliateID, listingID uuid.UUID) error {
	result := s.db.Where("id = ? AND user_id = ?", listingID, affiliateID).
		Delete(&models.StorefrontProduct{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete listing: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrListingNotFound
	}
	return nil
}

func (s *StorefrontService) GetListings(affiliateID uuid.UUID, params utils.PaginationParams) ([]models.StorefrontProduct, int64, error) {
	query := s.db.Model(&models.StorefrontProduct{}).Where("user_id = ?", affiliateID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count listings: %w", err)
	}

	var listings []models.StorefrontProduct
	query = utils.ApplySort(query, params, []string{"created_at", "selling_price"})
	if err := utils.ApplyPagination(query, params).
		Preload("Product").
		Find(&listings).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch listings: %w", err)
	}

	return listings, total, nil
}

func (s *StorefrontService) GetListing(affiliateID, listingID uuid.UUID) (*models.StorefrontProduct, error) {
	var listing models.StorefrontProduct
	if err := s.db.Preload("Product").
		First(&listing, "id = ? AND user_id = ?", listingID, affiliateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &listing, nil
}

// GetPublicStorefront resolves a storefront by slug for buyers. Only approved
// affiliates are resolvable, and only active listings of active products show.
func (s *StorefrontService) GetPublicStorefront(slug string) (*PublicStorefront, error) {
	var affiliate models.User
	if err := s.db.
		Where("storefront_slug = ? AND role = ? AND status = ?",
			slug, models.UserRoleAffiliate, models.UserStatusApproved).
		First(&affiliate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStorefrontNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	var listings []models.StorefrontProduct
	if err := s.db.
		Joins("JOIN products ON products.id = storefront_products.product_id AND products.is_active = true AND products.deleted_at IS NULL").
		Where("storefront_products.user_id = ? AND storefront_products.is_active = ?", affiliate.ID, true).
		Preload("Product").
		Order("storefront_products.created_at DESC").
		Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch storefront listings: %w", err)
	}

	return &PublicStorefront{
		StorefrontName: affiliate.StorefrontName,
		StorefrontSlug: affiliate.StorefrontSlug,
		AffiliateLevel: affiliate.Level,
		Listings:       listings,
	}, nil
}

// GetPublicListing resolves a single active listing within a storefront,
// used by the public checkout flow.
func (s *StorefrontService) GetPublicListing(slug string, listingID uuid.UUID) (*models.StorefrontProduct, error) {
	var listing models.StorefrontProduct
	err := s.db.
		Joins("JOIN users ON users.id = storefront_products.user_id AND users.storefront_slug = ? AND users.status = ? AND users.deleted_at IS NULL",
			slug, models.UserStatusApproved).
		Joins("JOIN products ON products.id = storefront_products.product_id AND products.is_active = true AND products.deleted_at IS NULL").
		Where("storefront_products.id = ? AND storefront_products.is_active = ?", listingID, true).
		Preload("Product").
		Preload("User").
		First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &listing, nil
}
