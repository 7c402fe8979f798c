// internal/services/level.go
package services

import (
	"github.com/storelink/storelink-backend/internal/models"
)

// LevelFor classifies an affiliate by completed order count against the
// platform-wide thresholds.
func LevelFor(completedOrders, silverThreshold, goldThreshold int) models.UserLevel {
	switch {
	case completedOrders >= goldThreshold:
		return models.UserLevelGold
	case completedOrders >= silverThreshold:
		return models.UserLevelSilver
	default:
		return models.UserLevelBronze
	}
}

type LevelProgress struct {
	CurrentLevel      models.UserLevel  `json:"current_level"`
	NextLevel         *models.UserLevel `json:"next_level,omitempty"`
	OrdersToNextLevel int               `json:"orders_to_next_level"`
	ProgressPercent   float64           `json:"progress_percent"`
}

// ProgressFor computes progress toward the next level, linearly interpolated
// between the current level's lower bound and the next threshold and clamped
// to [0,100]. Gold is terminal with progress pinned at 100.
func ProgressFor(completedOrders, silverThreshold, goldThreshold int) LevelProgress {
	level := LevelFor(completedOrders, silverThreshold, goldThreshold)

	switch level {
	case models.UserLevelGold:
		return LevelProgress{
			CurrentLevel:      models.UserLevelGold,
			NextLevel:         nil,
			OrdersToNextLevel: 0,
			ProgressPercent:   100,
		}
	case models.UserLevelSilver:
		next := models.UserLevelGold
		return LevelProgress{
			CurrentLevel:      models.UserLevelSilver,
			NextLevel:         &next,
			OrdersToNextLevel: goldThreshold - completedOrders,
			ProgressPercent:   interpolate(completedOrders, silverThreshold, goldThreshold),
		}
	default:
		next := models.UserLevelSilver
		return LevelProgress{
			CurrentLevel:      models.UserLevelBronze,
			NextLevel:         &next,
			OrdersToNextLevel: silverThreshold - completedOrders,
			ProgressPercent:   interpolate(completedOrders, 0, silverThreshold),
		}
	}
}

func interpolate(value, lower, upper int) float64 {
	if upper <= lower {
		return 100
	}
	pct := float64(value-lower) / float64(upper-lower) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
