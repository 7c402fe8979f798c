// internal/services/order_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storelink/storelink-backend/internal/database"
	"github.com/storelink/storelink-backend/internal/models"
	"github.com/storelink/storelink-backend/internal/utils"
)

var (
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrOrderNotFound     = errors.New("order not found")
	ErrListingInactive   = errors.New("storefront listing is not active")
)

// allowedTransitions is the order status state machine. Transitions move
// strictly forward; cancelled is reachable from any non-terminal state.
var allowedTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPendingPayment: {models.OrderStatusPaidByUser, models.OrderStatusCancelled},
	models.OrderStatusPaidByUser:     {models.OrderStatusProcessing, models.OrderStatusCancelled},
	models.OrderStatusProcessing:     {models.OrderStatusCompleted, models.OrderStatusCancelled},
	models.OrderStatusCompleted:      {},
	models.OrderStatusCancelled:      {},
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to models.OrderStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type OrderService struct {
	db            *gorm.DB
	settings      *SettingsService
	wallet        *WalletService
	audit         *AuditService
	notifications *NotificationService
}

func NewOrderService(db *gorm.DB, settings *SettingsService, wallet *WalletService, audit *AuditService, notifications *NotificationService) *OrderService {
	return &OrderService{
		db:            db,
		settings:      settings,
		wallet:        wallet,
		audit:         audit,
		notifications: notifications,
	}
}

type CreateOrderRequest struct {
	StorefrontProductID uuid.UUID `json:"storefront_product_id" validate:"required"`
	CustomerName        string    `json:"customer_name" validate:"required,max=255"`
	CustomerEmail       string    `json:"customer_email" validate:"omitempty,email"`
	CustomerPhone       string    `json:"customer_phone" validate:"omitempty,max=32"`
	CustomerAddress     string    `json:"customer_address" validate:"omitempty"`
	Quantity            int       `json:"quantity" validate:"required,min=1"`
}

// CreateOrder snapshots the listing's selling price and the catalog base
// price onto the new order; later price changes never touch it.
func (s *OrderService) CreateOrder(req *CreateOrderRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var listing models.StorefrontProduct
	if err := s.db.Preload("Product").First(&listing, "id = ?", req.StorefrontProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("storefront listing not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !listing.IsActive || !listing.Product.IsActive {
		return nil, ErrListingInactive
	}

	order := &models.Order{
		AffiliateUserID:     listing.UserID,
		StorefrontProductID: listing.ID,
		CustomerName:        req.CustomerName,
		CustomerEmail:       req.CustomerEmail,
		CustomerPhone:       req.CustomerPhone,
		CustomerAddress:     req.CustomerAddress,
		Quantity:            req.Quantity,
		SellingPrice:        listing.SellingPrice,
		BasePrice:           listing.Product.BasePrice,
		Status:              models.OrderStatusPendingPayment,
	}

	// The order number index is unique; retry a few times on collision.
	for attempt := 0; attempt < 3; attempt++ {
		number, err := utils.GenerateOrderNumber()
		if err != nil {
			return nil, fmt.Errorf("failed to generate order number: %w", err)
		}
		order.OrderNumber = number

		if err := s.db.Create(order).Error; err != nil {
			if attempt < 2 && errors.Is(err, gorm.ErrDuplicatedKey) {
				continue
			}
			return nil, fmt.Errorf("failed to create order: %w", err)
		}
		break
	}

	return order, nil
}

// Transition drives the order through the state machine. The status write and
// the completion side effects (completed_at stamp, commission credit, ledger
// entry) commit in one transaction; on any failure nothing is persisted.
func (s *OrderService) Transition(orderID uuid.UUID, newStatus models.OrderStatus, actorID uuid.UUID) (*models.Order, error) {
	var order models.Order
	var commission float64

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&order, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		oldStatus := order.Status
		if !CanTransition(oldStatus, newStatus) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, oldStatus, newStatus)
		}

		now := time.Now()
		order.Status = newStatus

		switch newStatus {
		case models.OrderStatusPaidByUser:
			order.PaidAt = &now
		case models.OrderStatusCancelled:
			order.CancelledAt = &now
		case models.OrderStatusCompleted:
			order.CompletedAt = &now

			if s.settings.GetBool(SettingAutoCreditOnComplete, true) {
				var err error
				commission, err = s.commissionFor(tx, &order)
				if err != nil {
					return err
				}

				if commission > 0 {
					description := fmt.Sprintf("Commission for order %s", order.OrderNumber)
					if _, err := s.wallet.Adjust(tx, order.AffiliateUserID, commission,
						models.WalletTxTypeCommission, description, &order.ID); err != nil {
						return fmt.Errorf("failed to credit commission: %w", err)
					}
				}
			}
		}

		if err := tx.Save(&order).Error; err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordTransition(&order, actorID, commission)
	return &order, nil
}

// commissionFor computes the commission owed for a completing order. A
// per-affiliate commission override replaces the platform rate; the mode
// stays platform-wide.
func (s *OrderService) commissionFor(tx *gorm.DB, order *models.Order) (float64, error) {
	cfg := s.settings.CommissionConfig()

	var affiliate models.User
	if err := tx.Select("commission_override").First(&affiliate, "id = ?", order.AffiliateUserID).Error; err != nil {
		return 0, fmt.Errorf("failed to load affiliate: %w", err)
	}
	if affiliate.CommissionOverride != nil {
		cfg.Rate = *affiliate.CommissionOverride
	}

	commission, err := CalculateCommission(order.SellingPrice, order.BasePrice, order.Quantity, cfg)
	if err != nil {
		return 0, fmt.Errorf("commission calculation failed: %w", err)
	}
	return commission, nil
}

func (s *OrderService) recordTransition(order *models.Order, actorID uuid.UUID, commission float64) {
	newValue := map[string]interface{}{"status": order.Status}
	if commission > 0 {
		newValue["commission_credited"] = commission
	}

	s.audit.Record(AuditEntry{
		ActionType: "order_status_change",
		EntityType: "order",
		EntityID:   &order.ID,
		UserID:     &order.AffiliateUserID,
		AdminID:    &actorID,
		NewValue:   newValue,
	})

	if order.Status == models.OrderStatusCompleted {
		var affiliate models.User
		if err := s.db.First(&affiliate, "id = ?", order.AffiliateUserID).Error; err == nil {
			body := fmt.Sprintf("Order %s has been completed.", order.OrderNumber)
			if commission > 0 {
				body = fmt.Sprintf("Order %s has been completed. A commission of %.2f was credited to your wallet.",
					order.OrderNumber, commission)
			}
			s.notifications.Enqueue(&affiliate.ID, "order_completed", affiliate.Email,
				"Order completed: "+order.OrderNumber, body)
		}
	}
}

// ConfirmPayment is the affiliate-facing shortcut for marking an order paid.
func (s *OrderService) ConfirmPayment(orderID, affiliateID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := s.db.First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if order.AffiliateUserID != affiliateID {
		return nil, errors.New("order does not belong to this affiliate")
	}

	return s.Transition(orderID, models.OrderStatusPaidByUser, affiliateID)
}

type OrderFilter struct {
	utils.PaginationParams
	AffiliateUserID *uuid.UUID
	Status          *models.OrderStatus
	CreatedAfter    *time.Time
	CreatedBefore   *time.Time
}

func (s *OrderService) GetOrders(filter OrderFilter) ([]models.Order, int64, error) {
	query := s.db.Model(&models.Order{}).
		Preload("StorefrontProduct").Preload("StorefrontProduct.Product")

	if filter.AffiliateUserID != nil {
		query = query.Where("affiliate_user_id = ?", *filter.AffiliateUserID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		searchTerm := "%" + filter.Search + "%"
		query = query.Where("order_number ILIKE ? OR customer_name ILIKE ?", searchTerm, searchTerm)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "status", "order_number"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}

	return orders, total, nil
}

func (s *OrderService) GetOrder(orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := s.db.Preload("StorefrontProduct").Preload("StorefrontProduct.Product").
		First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &order, nil
}

// CompletedOrderCount feeds the level classifier.
func (s *OrderService) CompletedOrderCount(affiliateID uuid.UUID) (int, error) {
	var count int64
	if err := s.db.Model(&models.Order{}).
		Where("affiliate_user_id = ? AND status = ?", affiliateID, models.OrderStatusCompleted).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count completed orders: %w", err)
	}
	return int(count), nil
}

// LevelProgress returns the affiliate's current level progress from live
// completed-order counts and the platform thresholds.
func (s *OrderService) LevelProgress(affiliateID uuid.UUID) (*LevelProgress, error) {
	completed, err := s.CompletedOrderCount(affiliateID)
	if err != nil {
		return nil, err
	}

	silver := s.settings.GetInt(SettingSilverThreshold, DefaultSilverThreshold)
	gold := s.settings.GetInt(SettingGoldThreshold, DefaultGoldThreshold)

	progress := ProgressFor(completed, silver, gold)
	return &progress, nil
}
