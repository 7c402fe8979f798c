// internal/handlers/order.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/storelink/storelink-backend/internal/i18n"
	"github.com/storelink/storelink-backend/internal/models"
	"github.com/storelink/storelink-backend/internal/services"
	"github.com/storelink/storelink-backend/internal/utils"
)

type OrderHandler struct {
	orderService *services.OrderService
}

func NewOrderHandler(orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

func orderFilterFromQuery(c *gin.Context) services.OrderFilter {
	filter := services.OrderFilter{
		PaginationParams: utils.GetPaginationParams(c),
	}
	if status := c.Query("status"); status != "" {
		s := models.OrderStatus(status)
		filter.Status = &s
	}
	return filter
}

// GET /orders lists the affiliate's own orders.
func (h *OrderHandler) ListMine(c *gin.Context) {
	affiliateID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	filter := orderFilterFromQuery(c)
	filter.AffiliateUserID = &affiliateID

	orders, total, err := h.orderService.GetOrders(filter)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(orders, total, filter.PaginationParams))
}

// GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	affiliateID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}
	orderID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(orderID)
	if err != nil {
		utils.NotFoundResponse(c, "order")
		return
	}

	role, _ := utils.GetUserRoleFromContext(c)
	if role != string(models.UserRoleAdmin) && order.AffiliateUserID != affiliateID {
		utils.NotFoundResponse(c, "order")
		return
	}

	utils.SuccessResponse(c, gin.H{"order": order})
}

// POST /orders lets an affiliate record an order taken off-platform.
func (h *OrderHandler) Create(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	affiliateID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	order, err := h.orderService.CreateOrder(&req)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	// An affiliate can only create orders against their own listings.
	if order.AffiliateUserID != affiliateID {
		utils.ForbiddenResponse(c, "")
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyOrderCreated),
		"order":   order,
	})
}

// POST /orders/:id/confirm-payment
func (h *OrderHandler) ConfirmPayment(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	affiliateID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}
	orderID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.ConfirmPayment(orderID, affiliateID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			utils.NotFoundResponse(c, "order")
		case errors.Is(err, services.ErrInvalidTransition):
			utils.ConflictResponse(c, i18n.T(lang, i18n.KeyOrderInvalidTransition))
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

// GET /orders/level-progress
func (h *OrderHandler) LevelProgress(c *gin.Context) {
	affiliateID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	progress, err := h.orderService.LevelProgress(affiliateID)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"progress": progress})
}

// GET /admin/orders
func (h *OrderHandler) AdminList(c *gin.Context) {
	filter := orderFilterFromQuery(c)

	orders, total, err := h.orderService.GetOrders(filter)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(orders, total, filter.PaginationParams))
}

// PATCH /admin/orders/:id/status
func (h *OrderHandler) AdminTransition(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	adminID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}
	orderID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status models.OrderStatus `json:"status" validate:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	order, err := h.orderService.Transition(orderID, req.Status, adminID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			utils.NotFoundResponse(c, "order")
		case errors.Is(err, services.ErrInvalidTransition):
			utils.ConflictResponse(c, i18n.T(lang, i18n.KeyOrderInvalidTransition))
		default:
			utils.InternalErrorResponse(c, err.Error())
		}
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyOrderStatusUpdated),
		"order":   order,
	})
}
