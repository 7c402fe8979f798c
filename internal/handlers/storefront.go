// internal/handlers/storefront.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/storelink/storelink-backend/internal/i18n"
	"github.com/storelink/storelink-backend/internal/services"
	"github.com/storelink/storelink-backend/internal/utils"
)

type StorefrontHandler struct {
	storefrontService *services.StorefrontService
}

func NewStorefrontHandler(storefrontService *services.StorefrontService) *StorefrontHandler {
	return &StorefrontHandler{
		storefrontService: storefrontService,
	}
}

// GET /storefront/listings
func (h *StorefrontHandler) ListListings(c *gin.Context) {
	affiliateID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	listings, total, err := h.storefrontService.GetListings(affiliateID, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(listings, total, params))
}

// POST /storefront/listings
func (h *StorefrontHandler) CreateListing(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	affiliateID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	listing, err := h.storefrontService.CreateListing(affiliateID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProductNotFound):
			utils.NotFoundResponse(c, "product")
		case errors.Is(err, services.ErrListingExists):
			utils.ConflictResponse(c, i18n.T(lang, i18n.KeyListingExists))
		default:
			utils.BadRequestResponse(c, err.Error(), nil)
		}
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyListingCreated),
		"listing": listing,
	})
}

// PUT /storefront/listings/:id
func (h *StorefrontHandler) UpdateListing(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	affiliateID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}
	listingID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	listing, err := h.storefrontService.UpdateListing(affiliateID, listingID, &req)
	if err != nil {
		if errors.Is(err, services.ErrListingNotFound) {
			utils.NotFoundResponse(c, "storefront")
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyListingUpdated),
		"listing": listing,
	})
}

// DELETE /storefront/listings/:id
func (h *StorefrontHandler) DeleteListing(c *gin.Context) {
	affiliateID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}
	listingID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.storefrontService.DeleteListing(affiliateID, listingID); err != nil {
		if errors.Is(err, services.ErrListingNotFound) {
			utils.NotFoundResponse(c, "storefront")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"deleted": true})
}

// GET /shops/:slug is the public storefront view, no auth.
func (h *StorefrontHandler) PublicStorefront(c *gin.Context) {
	storefront, err := h.storefrontService.GetPublicStorefront(c.Param("slug"))
	if err != nil {
		if errors.Is(err, services.ErrStorefrontNotFound) {
			utils.NotFoundResponse(c, "storefront")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"storefront": storefront})
}
