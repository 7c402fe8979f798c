// internal/services/level_sync.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/storelink/storelink-backend/internal/models"
)

// LevelSyncService periodically recomputes stored affiliate levels from
// completed order counts. Levels only move up; admins shrinking thresholds
// never demotes anyone.
type LevelSyncService struct {
	db            *gorm.DB
	settings      *SettingsService
	notifications *NotificationService
}

type LevelSyncSummary struct {
	Scanned  int           `json:"scanned"`
	Upgraded int           `json:"upgraded"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

func NewLevelSyncService(db *gorm.DB, settings *SettingsService, notifications *NotificationService) *LevelSyncService {
	return &LevelSyncService{
		db:            db,
		settings:      settings,
		notifications: notifications,
	}
}

func (s *LevelSyncService) Run(ctx context.Context) (*LevelSyncSummary, error) {
	started := time.Now()
	silver := s.settings.GetInt(SettingSilverThreshold, DefaultSilverThreshold)
	gold := s.settings.GetInt(SettingGoldThreshold, DefaultGoldThreshold)

	type row struct {
		ID        uuid.UUID
		Email     string
		UserLevel models.UserLevel
		Completed int
	}

	var rows []row
	err := s.db.Model(&models.User{}).
		Select(`users.id, users.email, users.user_level,
			(SELECT COUNT(*) FROM orders
			 WHERE orders.affiliate_user_id = users.id
			   AND orders.status = ?
			   AND orders.deleted_at IS NULL) AS completed`, models.OrderStatusCompleted).
		Where("users.role = ? AND users.status = ?", models.UserRoleAffiliate, models.UserStatusApproved).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to scan affiliates: %w", err)
	}

	summary := &LevelSyncSummary{Scanned: len(rows)}

	for _, r := range rows {
		select {
		case <-ctx.Done():
			summary.Duration = time.Since(started)
			return summary, ctx.Err()
		default:
		}

		target := LevelFor(r.Completed, silver, gold)
		if levelRank(target) <= levelRank(r.UserLevel) {
			continue
		}

		if err := s.db.Model(&models.User{}).
			Where("id = ? AND user_level = ?", r.ID, r.UserLevel).
			Update("user_level", target).Error; err != nil {
			summary.Failed++
			logrus.WithError(err).WithField("user_id", r.ID).Error("Failed to upgrade affiliate level")
			continue
		}

		summary.Upgraded++
		userID := r.ID
		s.notifications.Enqueue(&userID, "level_upgraded", r.Email,
			fmt.Sprintf("You reached %s level", target),
			fmt.Sprintf("Congratulations, your storefront reached %s level after %d completed orders.", target, r.Completed))
	}

	summary.Duration = time.Since(started)
	logrus.WithFields(logrus.Fields{
		"scanned":  summary.Scanned,
		"upgraded": summary.Upgraded,
		"failed":   summary.Failed,
		"duration": summary.Duration,
	}).Info("Level sync run finished")

	return summary, nil
}

// StartScheduler runs the sync on a fixed interval until ctx is cancelled.
func (s *LevelSyncService) StartScheduler(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logrus.WithField("interval", interval.String()).Info("Level sync scheduler started")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Level sync scheduler stopped")
			return
		case <-ticker.C:
			if _, err := s.Run(ctx); err != nil && ctx.Err() == nil {
				logrus.WithError(err).Error("Level sync run failed")
			}
		}
	}
}

func levelRank(level models.UserLevel) int {
	switch level {
	case models.UserLevelGold:
		return 2
	case models.UserLevelSilver:
		return 1
	default:
		return 0
	}
}
