// internal/services/kyc_service.go
package services

import (
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/storelink/storelink-backend/internal/database"
	"github.com/storelink/storelink-backend/internal/models"
	"github.com/storelink/storelink-backend/internal/utils"
)

var (
	ErrKYCSubmissionNotFound = errors.New("kyc submission not found")
	ErrKYCAlreadyPending     = errors.New("a kyc submission is already under review")
	ErrKYCAlreadyApproved    = errors.New("kyc is already approved")
	ErrKYCNotReviewable      = errors.New("kyc submission is not in a reviewable state")
)

type KYCService struct {
	db            *gorm.DB
	storage       *StorageService
	audit         *AuditService
	notifications *NotificationService
}

func NewKYCService(db *gorm.DB, storage *StorageService, audit *AuditService, notifications *NotificationService) *KYCService {
	return &KYCService{
		db:            db,
		storage:       storage,
		audit:         audit,
		notifications: notifications,
	}
}

// Submit uploads the identity document and records a submission under review.
// The user's kyc_status moves to submitted; a rejected user may resubmit.
func (s *KYCService) Submit(affiliateID uuid.UUID, documentType string, file multipart.File, header *multipart.FileHeader) (*models.KYCSubmission, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", affiliateID).Error; err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	switch user.KYCStatus {
	case models.KYCStatusApproved:
		return nil, ErrKYCAlreadyApproved
	case models.KYCStatusSubmitted:
		return nil, ErrKYCAlreadyPending
	}

	upload, err := s.storage.UploadFile(file, header, s.storage.GetDefaultUploadOptions("kyc"))
	if err != nil {
		return nil, fmt.Errorf("failed to upload document: %w", err)
	}

	submission := &models.KYCSubmission{
		UserID:       affiliateID,
		DocumentType: documentType,
		DocumentURL:  upload.Key,
		Status:       models.KYCStatusSubmitted,
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Create(submission).Error; err != nil {
			return fmt.Errorf("failed to create kyc submission: %w", err)
		}
		return tx.Model(&models.User{}).
			Where("id = ?", affiliateID).
			Update("kyc_status", models.KYCStatusSubmitted).Error
	})
	if err != nil {
		// The uploaded object is orphaned if the DB write fails; best effort cleanup.
		if delErr := s.storage.DeleteFile(upload.Key); delErr != nil {
			logrus.WithError(delErr).Warn("Failed to clean up orphaned kyc document")
		}
		return nil, err
	}

	return submission, nil
}

// Review approves or rejects a submitted document and moves the user's
// kyc_status accordingly. Only approved users are payout-eligible.
func (s *KYCService) Review(submissionID, adminID uuid.UUID, approve bool, notes string) (*models.KYCSubmission, error) {
	var submission models.KYCSubmission

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Preload("User").First(&submission, "id = ?", submissionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrKYCSubmissionNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		if submission.Status != models.KYCStatusSubmitted {
			return ErrKYCNotReviewable
		}

		newStatus := models.KYCStatusRejected
		if approve {
			newStatus = models.KYCStatusApproved
		}

		now := time.Now()
		submission.Status = newStatus
		submission.ReviewedBy = &adminID
		submission.ReviewedAt = &now
		submission.Notes = notes

		if err := tx.Save(&submission).Error; err != nil {
			return fmt.Errorf("failed to update kyc submission: %w", err)
		}

		return tx.Model(&models.User{}).
			Where("id = ?", submission.UserID).
			Update("kyc_status", newStatus).Error
	})
	if err != nil {
		return nil, err
	}

	action := "kyc_rejected"
	subject := "Your identity verification was rejected"
	body := "Your identity document could not be verified. Please resubmit."
	if approve {
		action = "kyc_approved"
		subject = "Your identity verification was approved"
		body = "Your identity has been verified. You can now request payouts."
	}
	if notes != "" {
		body = body + " Notes: " + notes
	}

	if err := s.audit.Record(AuditEntry{
		ActionType: action,
		EntityType: "kyc_submission",
		EntityID:   &submission.ID,
		UserID:     &submission.UserID,
		AdminID:    &adminID,
		Reason:     notes,
	}); err != nil {
		logrus.WithError(err).Warn("Failed to record kyc review audit")
	}

	s.notifications.Enqueue(&submission.UserID, action, submission.User.Email, subject, body)

	return &submission, nil
}

// DocumentURL returns a short-lived presigned link to the stored document.
func (s *KYCService) DocumentURL(submissionID uuid.UUID) (string, error) {
	var submission models.KYCSubmission
	if err := s.db.First(&submission, "id = ?", submissionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrKYCSubmissionNotFound
		}
		return "", fmt.Errorf("database error: %w", err)
	}
	return s.storage.GeneratePresignedURL(submission.DocumentURL, 15*time.Minute)
}

func (s *KYCService) GetSubmissions(params utils.PaginationParams, status models.KYCStatus) ([]models.KYCSubmission, int64, error) {
	query := s.db.Model(&models.KYCSubmission{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count kyc submissions: %w", err)
	}

	var submissions []models.KYCSubmission
	query = utils.ApplySort(query, params, []string{"created_at", "reviewed_at"})
	if err := utils.ApplyPagination(query, params).
		Preload("User").
		Find(&submissions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch kyc submissions: %w", err)
	}

	return submissions, total, nil
}

func (s *KYCService) GetUserSubmissions(affiliateID uuid.UUID) ([]models.KYCSubmission, error) {
	var submissions []models.KYCSubmission
	if err := s.db.Where("user_id = ?", affiliateID).
		Order("created_at DESC").
		Find(&submissions).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch kyc submissions: %w", err)
	}
	return submissions, nil
}
