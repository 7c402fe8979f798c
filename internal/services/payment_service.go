// internal/services/payment_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"gorm.io/gorm"

	"github.com/storelink/storelink-backend/internal/config"
	"github.com/storelink/storelink-backend/internal/models"
)

var (
	ErrPaymentNotConfigured = errors.New("payment provider not configured")
	ErrPaymentNotSucceeded  = errors.New("payment has not succeeded")
	ErrPaymentOrderMismatch = errors.New("payment does not reference this order")
)

// PaymentService drives buyer checkout on public storefronts. Orders are
// created in pending_payment with a Stripe PaymentIntent attached; the intent
// succeeding moves the order to paid_by_user.
type PaymentService struct {
	db     *gorm.DB
	config *config.Config
	orders *OrderService
}

type CheckoutResponse struct {
	Order        *models.Order `json:"order"`
	ClientSecret string        `json:"client_secret"`
	PaymentID    string        `json:"payment_id"`
	Amount       float64       `json:"amount"`
	Currency     string        `json:"currency"`
}

type ConfirmCheckoutRequest struct {
	OrderID         uuid.UUID `json:"order_id" validate:"required"`
	PaymentIntentID string    `json:"payment_intent_id" validate:"required"`
}

func NewPaymentService(db *gorm.DB, config *config.Config, orders *OrderService) *PaymentService {
	stripe.Key = config.Payment.StripeSecretKey
	return &PaymentService{
		db:     db,
		config: config,
		orders: orders,
	}
}

func (s *PaymentService) configured() bool {
	return s.config.Payment.StripeSecretKey != ""
}

// CreateCheckout creates the order and its PaymentIntent. The intent carries
// the order id in metadata so confirmation can be cross-checked.
func (s *PaymentService) CreateCheckout(req *CreateOrderRequest, currency string) (*CheckoutResponse, error) {
	if !s.configured() {
		return nil, ErrPaymentNotConfigured
	}

	order, err := s.orders.CreateOrder(req)
	if err != nil {
		return nil, err
	}

	if currency == "" {
		currency = "usd"
	}
	amountInCents := int64(order.Total() * 100)

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountInCents),
		Currency: stripe.String(currency),
	}
	params.AddMetadata("order_id", order.ID.String())
	params.AddMetadata("order_number", order.OrderNumber)

	pi, err := paymentintent.New(params)
	if err != nil {
		// The order stays pending_payment; checkout can be retried against it.
		logrus.WithError(err).WithField("order_id", order.ID).Error("Failed to create payment intent")
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	if err := s.db.Model(order).Update("payment_reference", pi.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to store payment reference: %w", err)
	}
	order.PaymentReference = pi.ID

	return &CheckoutResponse{
		Order:        order,
		ClientSecret: pi.ClientSecret,
		PaymentID:    pi.ID,
		Amount:       order.Total(),
		Currency:     currency,
	}, nil
}

// ConfirmCheckout verifies the intent with Stripe and, when it succeeded,
// moves the order to paid_by_user. Anything short of succeeded changes nothing.
func (s *PaymentService) ConfirmCheckout(req *ConfirmCheckoutRequest) (*models.Order, error) {
	if !s.configured() {
		return nil, ErrPaymentNotConfigured
	}

	var order models.Order
	if err := s.db.First(&order, "id = ?", req.OrderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	pi, err := paymentintent.Get(req.PaymentIntentID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}

	if pi.Metadata["order_id"] != order.ID.String() || order.PaymentReference != pi.ID {
		return nil, ErrPaymentOrderMismatch
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, fmt.Errorf("%w: status %s", ErrPaymentNotSucceeded, pi.Status)
	}

	return s.orders.Transition(order.ID, models.OrderStatusPaidByUser, order.AffiliateUserID)
}
