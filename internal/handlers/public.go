// internal/handlers/public.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/storelink/storelink-backend/internal/i18n"
	"github.com/storelink/storelink-backend/internal/services"
	"github.com/storelink/storelink-backend/internal/utils"
)

// PublicHandler serves unauthenticated buyer traffic: storefront browsing
// and checkout. Checkout only works when public ordering is enabled and the
// geo/fraud gate passes.
type PublicHandler struct {
	storefrontService *services.StorefrontService
	paymentService    *services.PaymentService
	geoGate           *services.GeoGateService
}

func NewPublicHandler(storefrontService *services.StorefrontService, paymentService *services.PaymentService, geoGate *services.GeoGateService) *PublicHandler {
	return &PublicHandler{
		storefrontService: storefrontService,
		paymentService:    paymentService,
		geoGate:           geoGate,
	}
}

type publicCheckoutRequest struct {
	ListingID       uuid.UUID `json:"listing_id" validate:"required"`
	CustomerName    string    `json:"customer_name" validate:"required,max=255"`
	CustomerEmail   string    `json:"customer_email" validate:"required,email"`
	CustomerPhone   string    `json:"customer_phone" validate:"omitempty,max=32"`
	CustomerAddress string    `json:"customer_address" validate:"required"`
	Quantity        int       `json:"quantity" validate:"required,min=1"`
	Currency        string    `json:"currency" validate:"omitempty,len=3"`
}

// POST /shops/:slug/checkout
func (h *PublicHandler) Checkout(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	clientIP := services.ClientIP(c.Request.Header, c.Request.RemoteAddr)
	decision := h.geoGate.Check(c.Request.Context(), clientIP)
	if !decision.Allowed {
		utils.ForbiddenWithReason(c, decision.Reason, decision.Message)
		return
	}

	var req publicCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	// Resolve through the slug so a listing id can't be checked out against
	// another affiliate's shop.
	listing, err := h.storefrontService.GetPublicListing(c.Param("slug"), req.ListingID)
	if err != nil {
		if errors.Is(err, services.ErrListingNotFound) {
			utils.NotFoundResponse(c, "storefront")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	checkout, err := h.paymentService.CreateCheckout(&services.CreateOrderRequest{
		StorefrontProductID: listing.ID,
		CustomerName:        req.CustomerName,
		CustomerEmail:       req.CustomerEmail,
		CustomerPhone:       req.CustomerPhone,
		CustomerAddress:     req.CustomerAddress,
		Quantity:            req.Quantity,
	}, req.Currency)
	if err != nil {
		if errors.Is(err, services.ErrPaymentNotConfigured) {
			utils.ErrorResponse(c, 503, "PAYMENT_UNAVAILABLE", "Payment is not available right now.", nil)
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"order":         checkout.Order,
		"client_secret": checkout.ClientSecret,
		"payment_id":    checkout.PaymentID,
		"amount":        checkout.Amount,
		"currency":      checkout.Currency,
	})
}

// POST /checkout/confirm
func (h *PublicHandler) ConfirmCheckout(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.ConfirmCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	order, err := h.paymentService.ConfirmCheckout(&req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			utils.NotFoundResponse(c, "order")
		case errors.Is(err, services.ErrPaymentOrderMismatch):
			utils.ForbiddenResponse(c, err.Error())
		case errors.Is(err, services.ErrPaymentNotSucceeded):
			utils.ConflictResponse(c, err.Error())
		default:
			utils.BadRequestResponse(c, err.Error(), nil)
		}
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyOrderStatusUpdated),
		"order":   order,
	})
}
