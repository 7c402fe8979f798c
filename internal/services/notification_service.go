// internal/services/notification_service.go
package services

import (
	"context"
	"fmt"
	"net/smtp"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/storelink/storelink-backend/internal/config"
	"github.com/storelink/storelink-backend/internal/models"
)

const maxDeliveryAttempts = 3

// NotificationService implements the outbox pattern: business operations only
// enqueue rows; the dispatcher loop delivers them. A delivery failure never
// reaches the operation that enqueued the notification.
type NotificationService struct {
	db     *gorm.DB
	config *config.Config
}

func NewNotificationService(db *gorm.DB, cfg *config.Config) *NotificationService {
	return &NotificationService{
		db:     db,
		config: cfg,
	}
}

// Enqueue writes a pending notification row. Errors are logged and swallowed;
// notifications are best-effort by contract.
func (s *NotificationService) Enqueue(userID *uuid.UUID, notifType, recipient, subject, body string) {
	notification := &models.Notification{
		UserID:    userID,
		Type:      notifType,
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		Status:    models.NotificationStatusPending,
	}

	if err := s.db.Create(notification).Error; err != nil {
		logrus.WithError(err).WithField("type", notifType).Warn("Failed to enqueue notification")
	}
}

// EnqueueTx writes the outbox row inside the caller's transaction so the
// notification commits or rolls back together with the business change.
func (s *NotificationService) EnqueueTx(tx *gorm.DB, userID *uuid.UUID, notifType, recipient, subject, body string) error {
	notification := &models.Notification{
		UserID:    userID,
		Type:      notifType,
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		Status:    models.NotificationStatusPending,
	}
	return tx.Create(notification).Error
}

// StartDispatcher runs the delivery loop until the context is cancelled.
func (s *NotificationService) StartDispatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logrus.WithField("interval", interval.String()).Info("Notification dispatcher started")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Notification dispatcher stopped")
			return
		case <-ticker.C:
			s.dispatchPending()
		}
	}
}

func (s *NotificationService) dispatchPending() {
	var pending []models.Notification
	if err := s.db.Where("status = ? AND attempts < ?", models.NotificationStatusPending, maxDeliveryAttempts).
		Order("created_at asc").Limit(50).Find(&pending).Error; err != nil {
		logrus.WithError(err).Error("Failed to fetch pending notifications")
		return
	}

	for i := range pending {
		s.deliver(&pending[i])
	}
}

func (s *NotificationService) deliver(notification *models.Notification) {
	err := s.sendEmail(notification.Recipient, notification.Subject, notification.Body)

	updates := map[string]interface{}{
		"attempts": notification.Attempts + 1,
	}

	if err != nil {
		updates["last_error"] = err.Error()
		if notification.Attempts+1 >= maxDeliveryAttempts {
			updates["status"] = models.NotificationStatusFailed
		}
		logrus.WithError(err).WithFields(logrus.Fields{
			"notification_id": notification.ID,
			"type":            notification.Type,
		}).Warn("Notification delivery failed")
	} else {
		now := time.Now()
		updates["status"] = models.NotificationStatusSent
		updates["sent_at"] = &now
	}

	if err := s.db.Model(notification).Updates(updates).Error; err != nil {
		logrus.WithError(err).Error("Failed to update notification status")
	}
}

func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.config.Email.SMTPUsername == "" {
		// No SMTP configured; log instead of sending (development mode)
		logrus.WithFields(logrus.Fields{
			"to":      to,
			"subject": subject,
		}).Info("Email delivery skipped (SMTP not configured)")
		return nil
	}

	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)
	addr := fmt.Sprintf("%s:%s", s.config.Email.SMTPHost, s.config.Email.SMTPPort)

	msg := []byte(fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		s.config.Email.FromName, s.config.Email.FromEmail, to, subject, body))

	return smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{to}, msg)
}
