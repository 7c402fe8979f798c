// internal/services/audit_service.go
package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/storelink/storelink-backend/internal/models"
	"github.com/storelink/storelink-backend/internal/utils"
)

// AuditService records state transitions and admin actions. Entries are
// written synchronously so a committed business operation always leaves a
// trail; a write failure is logged and reported but callers treat it as
// non-fatal for the operation that already committed.
type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

type AuditEntry struct {
	ActionType string
	EntityType string
	EntityID   *uuid.UUID
	UserID     *uuid.UUID
	AdminID    *uuid.UUID
	OldValue   map[string]interface{}
	NewValue   map[string]interface{}
	Reason     string
	Metadata   map[string]interface{}
	IPAddress  string
	UserAgent  string
}

func (s *AuditService) Record(entry AuditEntry) error {
	row := &models.AuditLog{
		ActionType: entry.ActionType,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		UserID:     entry.UserID,
		AdminID:    entry.AdminID,
		OldValue:   models.JSONB(entry.OldValue),
		NewValue:   models.JSONB(entry.NewValue),
		Reason:     entry.Reason,
		Metadata:   models.JSONB(entry.Metadata),
		IPAddress:  entry.IPAddress,
		UserAgent:  entry.UserAgent,
	}

	if err := s.db.Create(row).Error; err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"action": entry.ActionType,
			"entity": entry.EntityType,
		}).Error("Failed to write audit log")
		return fmt.Errorf("failed to write audit log: %w", err)
	}

	return nil
}

func (s *AuditService) List(params utils.PaginationParams, entityType string, adminID *uuid.UUID) ([]models.AuditLog, int64, error) {
	query := s.db.Model(&models.AuditLog{})

	if entityType != "" {
		query = query.Where("entity_type = ?", entityType)
	}
	if adminID != nil {
		query = query.Where("admin_id = ?", *adminID)
	}
	if params.Search != "" {
		query = query.Where("action_type ILIKE ?", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	allowedSortFields := []string{"created_at", "action_type", "entity_type"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var logs []models.AuditLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch audit logs: %w", err)
	}

	return logs, total, nil
}
