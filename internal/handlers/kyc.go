// internal/handlers/kyc.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/storelink/storelink-backend/internal/i18n"
	"github.com/storelink/storelink-backend/internal/models"
	"github.com/storelink/storelink-backend/internal/services"
	"github.com/storelink/storelink-backend/internal/utils"
)

type KYCHandler struct {
	kycService *services.KYCService
}

func NewKYCHandler(kycService *services.KYCService) *KYCHandler {
	return &KYCHandler{
		kycService: kycService,
	}
}

// POST /kyc accepts a multipart form with document_type + file.
func (h *KYCHandler) Submit(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	documentType := c.PostForm("document_type")
	if documentType == "" {
		utils.BadRequestResponse(c, "document_type is required", nil)
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "file is required", err.Error())
		return
	}
	defer file.Close()

	submission, err := h.kycService.Submit(userID, documentType, file, header)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrKYCAlreadyApproved),
			errors.Is(err, services.ErrKYCAlreadyPending):
			utils.ConflictResponse(c, err.Error())
		default:
			utils.BadRequestResponse(c, err.Error(), nil)
		}
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":    i18n.T(lang, i18n.KeyKYCSubmitted),
		"submission": submission,
	})
}

// GET /kyc
func (h *KYCHandler) MySubmissions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	submissions, err := h.kycService.GetUserSubmissions(userID)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"submissions": submissions})
}

// GET /admin/kyc
func (h *KYCHandler) AdminList(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	status := models.KYCStatus(c.Query("status"))

	submissions, total, err := h.kycService.GetSubmissions(params, status)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(submissions, total, params))
}

// GET /admin/kyc/:id/document
func (h *KYCHandler) AdminDocumentURL(c *gin.Context) {
	submissionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	url, err := h.kycService.DocumentURL(submissionID)
	if err != nil {
		if errors.Is(err, services.ErrKYCSubmissionNotFound) {
			utils.NotFoundResponse(c, "kyc")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"url": url})
}

// POST /admin/kyc/:id/review
func (h *KYCHandler) AdminReview(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	adminID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}
	submissionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Approve bool   `json:"approve"`
		Notes   string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	submission, err := h.kycService.Review(submissionID, adminID, req.Approve, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrKYCSubmissionNotFound):
			utils.NotFoundResponse(c, "kyc")
		case errors.Is(err, services.ErrKYCNotReviewable):
			utils.ConflictResponse(c, err.Error())
		default:
			utils.InternalErrorResponse(c, err.Error())
		}
		return
	}

	messageKey := i18n.KeyKYCRejected
	if req.Approve {
		messageKey = i18n.KeyKYCApproved
	}

	utils.SuccessResponse(c, gin.H{
		"message":    i18n.T(lang, messageKey),
		"submission": submission,
	})
}
