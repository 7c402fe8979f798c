// internal/services/product_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/storelink/storelink-backend/internal/models"
	"github.com/storelink/storelink-backend/internal/utils"
)

var ErrProductNotFound = errors.New("product not found")

type ProductService struct {
	db    *gorm.DB
	audit *AuditService
}

type CreateProductRequest struct {
	SKU         string   `json:"sku" validate:"required,max=64"`
	Name        string   `json:"name" validate:"required,max=255"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty" validate:"omitempty,max=100"`
	BasePrice   float64  `json:"base_price" validate:"required,gt=0"`
	Stock       int      `json:"stock" validate:"gte=0"`
	Images      []string `json:"images,omitempty"`
}

type UpdateProductRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,max=255"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"category,omitempty" validate:"omitempty,max=100"`
	BasePrice   *float64 `json:"base_price,omitempty" validate:"omitempty,gt=0"`
	Stock       *int     `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Images      []string `json:"images,omitempty"`
	IsActive    *bool    `json:"is_active,omitempty"`
}

type ProductFilter struct {
	Category   string
	ActiveOnly bool
}

func NewProductService(db *gorm.DB, audit *AuditService) *ProductService {
	return &ProductService{db: db, audit: audit}
}

func (s *ProductService) CreateProduct(req *CreateProductRequest, adminID uuid.UUID) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	product := &models.Product{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		BasePrice:   req.BasePrice,
		Stock:       req.Stock,
		Images:      pq.StringArray(req.Images),
		IsActive:    true,
	}

	if err := s.db.Create(product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.New("product with this SKU already exists")
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	if err := s.audit.Record(AuditEntry{
		ActionType: "product_created",
		EntityType: "product",
		EntityID:   &product.ID,
		AdminID:    &adminID,
		NewValue: map[string]interface{}{
			"sku":        product.SKU,
			"name":       product.Name,
			"base_price": product.BasePrice,
		},
	}); err != nil {
		logrus.WithError(err).Warn("Failed to record product creation audit")
	}

	return product, nil
}

func (s *ProductService) UpdateProduct(productID uuid.UUID, req *UpdateProductRequest, adminID uuid.UUID) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var product models.Product
	if err := s.db.First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	oldValue := map[string]interface{}{
		"name":       product.Name,
		"base_price": product.BasePrice,
		"stock":      product.Stock,
		"is_active":  product.IsActive,
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.BasePrice != nil {
		updates["base_price"] = *req.BasePrice
	}
	if req.Stock != nil {
		updates["stock"] = *req.Stock
	}
	if req.Images != nil {
		updates["images"] = pq.StringArray(req.Images)
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) == 0 {
		return &product, nil
	}

	if err := s.db.Model(&product).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	if err := s.audit.Record(AuditEntry{
		ActionType: "product_updated",
		EntityType: "product",
		EntityID:   &product.ID,
		AdminID:    &adminID,
		OldValue:   oldValue,
		NewValue:   updates,
	}); err != nil {
		logrus.WithError(err).Warn("Failed to record product update audit")
	}

	return &product, nil
}

// DeactivateProduct soft-disables a catalog product. Existing orders keep
// their snapshotted prices; new storefront orders for it are rejected.
func (s *ProductService) DeactivateProduct(productID uuid.UUID, adminID uuid.UUID, reason string) error {
	result := s.db.Model(&models.Product{}).
		Where("id = ? AND is_active = ?", productID, true).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("failed to deactivate product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}

	if err := s.audit.Record(AuditEntry{
		ActionType: "product_deactivated",
		EntityType: "product",
		EntityID:   &productID,
		AdminID:    &adminID,
		Reason:     reason,
	}); err != nil {
		logrus.WithError(err).Warn("Failed to record product deactivation audit")
	}

	return nil
}

func (s *ProductService) GetProduct(productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

func (s *ProductService) GetProducts(params utils.PaginationParams, filter ProductFilter) ([]models.Product, int64, error) {
	query := s.db.Model(&models.Product{})

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if params.Search != "" {
		search := "%" + params.Search + "%"
		query = query.Where("name ILIKE ? OR sku ILIKE ?", search, search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	var products []models.Product
	query = utils.ApplySort(query, params, []string{"created_at", "name", "base_price", "stock"})
	if err := utils.ApplyPagination(query, params).Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	return products, total, nil
}

// Categories returns the distinct non-empty categories of active products.
func (s *ProductService) Categories() ([]string, error) {
	var categories []string
	err := s.db.Model(&models.Product{}).
		Where("is_active = ? AND category <> ''", true).
		Distinct("category").
		Order("category").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	return categories, nil
}
